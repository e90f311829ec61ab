package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogSource is the log subscription surface. *ethclient.Client over a
// websocket endpoint satisfies it.
type LogSource interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Listener turns contract logs into deliveries. On start it subscribes,
// back-fills from the stored cursor and then follows the subscription,
// skipping anything at or before the cursor.
type Listener struct {
	source  LogSource
	codec   *chain.Codec
	cursors CursorStore
	metrics *metrics.Registry
	logger  logging.Logger
}

func NewListener(src LogSource, codec *chain.Codec, cs CursorStore, m *metrics.Registry, l logging.Logger) *Listener {
	return &Listener{source: src, codec: codec, cursors: cs, metrics: m, logger: l.With("module", "listener")}
}

func (l *Listener) query() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []ethcommon.Address{l.codec.Address()},
		Topics:    [][]ethcommon.Hash{{l.codec.EventID()}},
	}
}

// Run emits deliveries on out until ctx is done or the subscription fails.
// It always returns a non-nil error.
func (l *Listener) Run(ctx context.Context, out chan<- Delivery) error {
	cur, ok, err := l.cursors.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	seen := &watermark{cur: cur, set: ok}

	logs := make(chan types.Log, cap(out)+1)
	sub, err := l.source.SubscribeFilterLogs(ctx, l.query(), logs)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if ok {
		q := l.query()
		q.FromBlock = new(big.Int).SetUint64(cur.Block)
		backlog, err := l.source.FilterLogs(ctx, q)
		if err != nil {
			return fmt.Errorf("backfill from block %d: %w", cur.Block, err)
		}
		l.logger.Info(ctx, "backfilling transfer events", "from_block", cur.Block, "count", len(backlog))
		for _, lg := range backlog {
			if err := l.handle(ctx, lg, seen, out); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return fmt.Errorf("subscription: %w", err)
		case lg := <-logs:
			if err := l.handle(ctx, lg, seen, out); err != nil {
				return err
			}
		}
	}
}

// watermark is the newest log position handed out in this run.
type watermark struct {
	cur Cursor
	set bool
}

func (w *watermark) admit(c Cursor) bool {
	if w.set && !c.After(w.cur) {
		return false
	}
	w.cur, w.set = c, true
	return true
}

func (l *Listener) handle(ctx context.Context, lg types.Log, seen *watermark, out chan<- Delivery) error {
	pos := Position(lg)
	if lg.Removed || !seen.admit(pos) {
		return nil
	}

	ev, err := l.codec.Decode(lg)
	if err != nil {
		l.metrics.Relayed(metrics.OutcomeSkipped)
		l.logger.Warn(ctx, "undecodable transfer log skipped", "tx", lg.TxHash.Hex(), "index", lg.Index, "error", err)
		return nil
	}

	d := Delivery{
		Event: ev,
		Ack: func(ctx context.Context) error {
			if err := l.cursors.Save(ctx, pos); err != nil {
				return err
			}
			l.metrics.RelayCursor(pos.Block)
			return nil
		},
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- d:
		return nil
	}
}
