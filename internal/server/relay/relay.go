// Package relay mirrors on-chain transfer events into an outbound message
// stream. A Listener owns the log subscription and hands decoded events to
// the Relay through a channel; each event carries an Ack that advances the
// stored cursor and is only called once the message has been published.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
)

// Delivery is a decoded event waiting to be relayed.
type Delivery struct {
	Event *models.TransferEvent
	Ack   func(ctx context.Context) error
}

// Publisher hands a message to the outbound transport and returns its id.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) (string, error)
}

// Message is the outbound payload. Which id fields are present depends on
// the contract generation that emitted the event.
type Message struct {
	TipID      string `json:"tipId,omitempty"`
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId,omitempty"`
	PublishID  string `json:"publishId,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     string `json:"amount"`
	Fee        string `json:"fee"`
	TxHash     string `json:"txHash,omitempty"`
}

func NewMessage(ev *models.TransferEvent) Message {
	return Message{
		TipID:      ev.TipID,
		SenderID:   ev.SenderID,
		ReceiverID: ev.ReceiverID,
		PublishID:  ev.PublishID,
		From:       ev.From,
		To:         ev.To,
		Amount:     chain.FormatEther(ev.Amount),
		Fee:        chain.FormatEther(ev.Fee),
		TxHash:     ev.TxHash,
	}
}

type Relay struct {
	publisher Publisher
	secret    []byte
	metrics   *metrics.Registry
	logger    logging.Logger
}

// NewRelay returns a relay publishing through p. With a non-empty secret
// every payload is sealed with the symmetric layer and base64 encoded.
func NewRelay(p Publisher, secret []byte, m *metrics.Registry, l logging.Logger) *Relay {
	return &Relay{publisher: p, secret: secret, metrics: m, logger: l.With("module", "relay")}
}

// Encode renders ev as the outbound payload.
func (r *Relay) Encode(ev *models.TransferEvent) ([]byte, error) {
	payload, err := json.Marshal(NewMessage(ev))
	if err != nil {
		return nil, err
	}
	if len(r.secret) == 0 {
		return payload, nil
	}
	sealed, err := cryptox.SealString(payload, r.secret)
	if err != nil {
		return nil, fmt.Errorf("seal payload: %w", err)
	}
	return []byte(sealed), nil
}

// Run publishes deliveries in order until ctx is done or a publish fails.
// A failed delivery is left unacknowledged so it is replayed after restart.
func (r *Relay) Run(ctx context.Context, in <-chan Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-in:
			if !ok {
				return nil
			}
			if err := r.relay(ctx, d); err != nil {
				r.metrics.Relayed(metrics.OutcomeError)
				return err
			}
			r.metrics.Relayed(metrics.OutcomeOK)
		}
	}
}

func (r *Relay) relay(ctx context.Context, d Delivery) error {
	payload, err := r.Encode(d.Event)
	if err != nil {
		return err
	}
	id, err := r.publisher.Publish(ctx, payload)
	if err != nil {
		return fmt.Errorf("publish %s: %w", d.Event.TxHash, err)
	}
	if err := d.Ack(ctx); err != nil {
		return fmt.Errorf("ack %s: %w", d.Event.TxHash, err)
	}
	r.logger.Debug(ctx, "event relayed", "tx", d.Event.TxHash, "message_id", id)
	return nil
}
