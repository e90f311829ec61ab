// Package chain talks to the tips contract: pricing reads, role checks,
// signed tip submissions and transfer event lookup.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is the RPC surface the client needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) (*big.Int, error)
}

type Client struct {
	backend  Backend
	chainID  *big.Int
	codec    *Codec
	contract *bind.BoundContract
}

func NewClient(b Backend, chainID int64, a *Artifact) (*Client, error) {
	codec, err := NewCodec(a)
	if err != nil {
		return nil, err
	}
	return &Client{
		backend:  b,
		chainID:  big.NewInt(chainID),
		codec:    codec,
		contract: bind.NewBoundContract(a.Address, a.ABI, b, b, b),
	}, nil
}

func (c *Client) Codec() *Codec { return c.codec }

// CalculateTips asks the contract how much wei qty units cost.
func (c *Client) CalculateTips(ctx context.Context, qty int64) (*big.Int, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "calculateTips", big.NewInt(qty)); err != nil {
		return nil, fmt.Errorf("calculateTips: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("calculateTips: unexpected output %v", out)
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("calculateTips: unexpected output type %T", out[0])
	}
	return amount, nil
}

// HasRole checks role membership of account, calling as the signer derived
// from key. The key is not retained.
func (c *Client) HasRole(ctx context.Context, key []byte, role Role, account ethcommon.Address) (bool, error) {
	pk, err := crypto.ToECDSA(key)
	if err != nil {
		return false, fmt.Errorf("%w: signer key", common.ErrIntegrityViolation)
	}
	from := crypto.PubkeyToAddress(pk.PublicKey)
	custody.ZeroKey(pk)

	var out []any
	opts := &bind.CallOpts{Context: ctx, From: from}
	if err := c.contract.Call(opts, &out, "hasRole", RoleID(role), account); err != nil {
		return false, fmt.Errorf("hasRole: %w", err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("hasRole: unexpected output %v", out)
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, fmt.Errorf("hasRole: unexpected output type %T", out[0])
	}
	return ok, nil
}

// SubmitTip signs and sends tip() with value attached. A revert detected
// during gas estimation or submission is reported as ErrTransferReverted.
func (c *Client) SubmitTip(ctx context.Context, key []byte, req models.TipTransferRequest, value *big.Int) (*types.Transaction, error) {
	args, err := c.codec.TipArgs(req)
	if err != nil {
		return nil, err
	}

	pk, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("%w: signer key", common.ErrIntegrityViolation)
	}
	defer custody.ZeroKey(pk)

	opts, err := bind.NewKeyedTransactorWithChainID(pk, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := c.contract.Transact(opts, tipMethod, args...)
	if err != nil {
		if IsRevert(err) {
			return nil, fmt.Errorf("%w: %v", common.ErrTransferReverted, err)
		}
		return nil, fmt.Errorf("submit tip: %w", err)
	}
	return tx, nil
}

// WaitMined blocks until tx has a receipt or ctx is done.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, c.backend, tx)
}

// TransferLogs returns the transfer events emitted by the receipt's
// transaction. The receipt logs are searched first; if none match, the
// receipt's block is queried and filtered by transaction hash.
func (c *Client) TransferLogs(ctx context.Context, r *types.Receipt) ([]types.Log, error) {
	var found []types.Log
	for _, lg := range r.Logs {
		if c.codec.Matches(lg) {
			found = append(found, *lg)
		}
	}
	if len(found) > 0 {
		return found, nil
	}

	blockHash := r.BlockHash
	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		BlockHash: &blockHash,
		Addresses: []ethcommon.Address{c.codec.Address()},
		Topics:    [][]ethcommon.Hash{{c.codec.EventID()}},
	})
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", err)
	}
	for i := range logs {
		if logs[i].TxHash == r.TxHash && c.codec.Matches(&logs[i]) {
			found = append(found, logs[i])
		}
	}
	return found, nil
}

// DecodeTransfer decodes a log returned by TransferLogs.
func (c *Client) DecodeTransfer(lg types.Log) (*models.TransferEvent, error) {
	return c.codec.Decode(lg)
}

// Balance returns the wei balance of address at the latest block.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: address %q", common.ErrValidation, address)
	}
	b, err := c.backend.BalanceAt(ctx, ethcommon.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	return b, nil
}

// IsRevert reports whether err carries an EVM revert.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrTransferReverted) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
