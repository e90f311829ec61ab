package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	TransferEventName = "TipsTransferred"
	tipMethod         = "tip"
)

var ErrNotTransferEvent = errors.New("log is not a transfer event")

// tipInput is the tuple argument of tip() on contracts that carry
// request metadata on chain.
type tipInput struct {
	SenderId   string            `abi:"senderId"`
	ReceiverId string            `abi:"receiverId"`
	PublishId  string            `abi:"publishId"`
	To         ethcommon.Address `abi:"to"`
	Qty        *big.Int          `abi:"qty"`
}

// Codec packs tip() calls and decodes transfer events for one deployed
// contract. Two contract generations are understood: tip(tuple) with
// sender/receiver/publish ids, and tip(address,uint256) whose event
// carries a tipId instead.
type Codec struct {
	address ethcommon.Address
	abi     abi.ABI
	event   abi.Event
	indexed abi.Arguments
}

func NewCodec(a *Artifact) (*Codec, error) {
	ev, ok := a.ABI.Events[TransferEventName]
	if !ok {
		return nil, fmt.Errorf("contract abi has no %s event", TransferEventName)
	}
	if _, ok := a.ABI.Methods[tipMethod]; !ok {
		return nil, fmt.Errorf("contract abi has no %s method", tipMethod)
	}

	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}

	return &Codec{address: a.Address, abi: a.ABI, event: ev, indexed: indexed}, nil
}

func (c *Codec) Address() ethcommon.Address { return c.address }

// EventID is topic0 of the transfer event.
func (c *Codec) EventID() ethcommon.Hash { return c.event.ID }

// TipArgs builds the tip() arguments for the contract generation at hand.
func (c *Codec) TipArgs(req models.TipTransferRequest) ([]any, error) {
	m := c.abi.Methods[tipMethod]
	to := ethcommon.HexToAddress(req.Recipient)
	qty := big.NewInt(req.Quantity)

	switch {
	case len(m.Inputs) == 1 && m.Inputs[0].Type.T == abi.TupleTy:
		return []any{tipInput{
			SenderId:   req.CallerID,
			ReceiverId: req.ReceiverID,
			PublishId:  req.PublishID,
			To:         to,
			Qty:        qty,
		}}, nil
	case len(m.Inputs) == 2:
		return []any{to, qty}, nil
	default:
		return nil, fmt.Errorf("unsupported %s signature %s", tipMethod, m.Sig)
	}
}

// Matches reports whether lg was emitted by the contract as a transfer event.
func (c *Codec) Matches(lg *types.Log) bool {
	return lg != nil && !lg.Removed && lg.Address == c.address && len(lg.Topics) > 0 && lg.Topics[0] == c.event.ID
}

// Decode turns a transfer log into a TransferEvent.
func (c *Codec) Decode(lg types.Log) (*models.TransferEvent, error) {
	if len(lg.Topics) == 0 || lg.Topics[0] != c.event.ID {
		return nil, ErrNotTransferEvent
	}

	out := make(map[string]any)
	if len(lg.Data) > 0 {
		if err := c.abi.UnpackIntoMap(out, c.event.Name, lg.Data); err != nil {
			return nil, fmt.Errorf("unpack %s data: %w", c.event.Name, err)
		}
	}
	if err := abi.ParseTopicsIntoMap(out, c.indexed, lg.Topics[1:]); err != nil {
		return nil, fmt.Errorf("unpack %s topics: %w", c.event.Name, err)
	}

	from, ok := out["from"].(ethcommon.Address)
	if !ok {
		return nil, fmt.Errorf("%s: missing from", c.event.Name)
	}
	to, ok := out["to"].(ethcommon.Address)
	if !ok {
		return nil, fmt.Errorf("%s: missing to", c.event.Name)
	}
	amount, ok := out["amount"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: missing amount", c.event.Name)
	}
	fee, _ := out["fee"].(*big.Int)
	if fee == nil {
		fee = new(big.Int)
	}

	ev := &models.TransferEvent{
		From:        common.CanonicalAddress(from.Hex()),
		To:          common.CanonicalAddress(to.Hex()),
		Amount:      amount,
		Fee:         fee,
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: lg.BlockNumber,
		LogIndex:    lg.Index,
	}
	ev.TipID, _ = out["tipId"].(string)
	ev.SenderID, _ = out["senderId"].(string)
	ev.ReceiverID, _ = out["receiverId"].(string)
	ev.PublishID, _ = out["publishId"].(string)
	return ev, nil
}
