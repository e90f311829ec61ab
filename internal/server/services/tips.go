package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/dmitrijs2005/tipkeeper/internal/server/repositories/repomanager"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransferState is the progress of one tip transfer.
type TransferState int

const (
	StateRequested TransferState = iota
	StateAmountComputed
	StateSubmitted
	StateConfirmed
	StateEventMatched
	StateCompleted
	StateFailed
)

func (s TransferState) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateAmountComputed:
		return "amount_computed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateEventMatched:
		return "event_matched"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("TransferState(%d)", int(s))
	}
}

// TipOrchestrator runs a single transfer: price, submit, wait, and read the
// authoritative result back from the transfer event.
type TipOrchestrator struct {
	chain   TipChain
	metrics *metrics.Registry
	logger  logging.Logger
}

func NewTipOrchestrator(c TipChain, m *metrics.Registry, l logging.Logger) *TipOrchestrator {
	return &TipOrchestrator{chain: c, metrics: m, logger: l.With("module", "tips")}
}

// CalculateAmount asks the contract for the wei price of qty units.
func (o *TipOrchestrator) CalculateAmount(ctx context.Context, qty int64) (*big.Int, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", common.ErrValidation)
	}
	return o.chain.CalculateTips(ctx, qty)
}

type transfer struct {
	state  TransferState
	logger logging.Logger
}

func (t *transfer) advance(ctx context.Context, next TransferState, args ...any) {
	t.logger.Debug(ctx, "transfer state", append([]any{"from", t.state.String(), "to", next.String()}, args...)...)
	t.state = next
}

// Transfer signs with key and sends the tip described by req. It returns
// (nil, nil) when the transaction mined but no transfer event could be
// found for it; the condition is logged and counted.
func (o *TipOrchestrator) Transfer(ctx context.Context, key []byte, req models.TipTransferRequest) (*models.TipTransferResult, error) {
	t := &transfer{state: StateRequested, logger: o.logger.With("caller", req.CallerID, "to", req.Recipient)}

	res, err := o.transfer(ctx, t, key, req)
	switch {
	case err == nil && res == nil:
		o.metrics.Transfer(metrics.OutcomeNoEvent)
	case err == nil:
		o.metrics.Transfer(metrics.OutcomeOK)
	case errors.Is(err, common.ErrTransferReverted):
		t.advance(ctx, StateFailed)
		o.metrics.Transfer(metrics.OutcomeReverted)
	default:
		t.advance(ctx, StateFailed)
		o.metrics.Transfer(metrics.OutcomeError)
	}
	return res, err
}

func (o *TipOrchestrator) transfer(ctx context.Context, t *transfer, key []byte, req models.TipTransferRequest) (*models.TipTransferResult, error) {
	amount, err := o.CalculateAmount(ctx, req.Quantity)
	if err != nil {
		return nil, err
	}
	t.advance(ctx, StateAmountComputed, "amount", amount.String())

	tx, err := o.chain.SubmitTip(ctx, key, req, amount)
	if err != nil {
		return nil, err
	}
	t.advance(ctx, StateSubmitted, "tx", tx.Hash().Hex())

	receipt, err := o.chain.WaitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", common.ErrTransferReverted, receipt.TxHash.Hex())
	}
	t.advance(ctx, StateConfirmed, "block", receipt.BlockNumber)

	logs, err := o.chain.TransferLogs(ctx, receipt)
	if err != nil {
		return nil, err
	}
	switch len(logs) {
	case 0:
		t.logger.Warn(ctx, "transfer mined without a transfer event", "tx", receipt.TxHash.Hex())
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d events in tx %s", common.ErrAmbiguousEvent, len(logs), receipt.TxHash.Hex())
	}

	ev, err := o.chain.DecodeTransfer(logs[0])
	if err != nil {
		return nil, fmt.Errorf("decode transfer event: %w", err)
	}
	t.advance(ctx, StateEventMatched)

	res := &models.TipTransferResult{
		From:   ev.From,
		To:     ev.To,
		Amount: chain.FormatEther(ev.Amount),
		Fee:    chain.FormatEther(ev.Fee),
		TxHash: receipt.TxHash.Hex(),
	}
	t.advance(ctx, StateCompleted)
	t.logger.Info(ctx, "tip transferred", "tx", res.TxHash, "amount", res.Amount)
	return res, nil
}

// TipService is the request-level entry point for tips: it validates, loads
// and decrypts the caller's key, applies the optional role gate and hands
// over to the orchestrator.
type TipService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	custody      Custodian
	chain        TipChain
	orchestrator *TipOrchestrator
	requiredRole chain.Role
}

func NewTipService(db *sql.DB, rm repomanager.RepositoryManager, c Custodian, tc TipChain, o *TipOrchestrator, requiredRole chain.Role) *TipService {
	return &TipService{
		db:           db,
		repomanager:  rm,
		custody:      c,
		chain:        tc,
		orchestrator: o,
		requiredRole: requiredRole,
	}
}

// Calculate returns the ether price of qty units.
func (s *TipService) Calculate(ctx context.Context, qty int64) (string, error) {
	amount, err := s.orchestrator.CalculateAmount(ctx, qty)
	if err != nil {
		return "", err
	}
	return chain.FormatEther(amount), nil
}

func validateTransfer(req models.TipTransferRequest) error {
	if req.CallerID == "" {
		return common.ErrorUnauthorized
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", common.ErrValidation)
	}
	if !common.IsHexAddress(req.Recipient) {
		return fmt.Errorf("%w: recipient %q is not an address", common.ErrValidation, req.Recipient)
	}
	return nil
}

// Send transfers tips from the caller's custody wallet. Input is validated
// before any database, custody or chain call.
func (s *TipService) Send(ctx context.Context, req models.TipTransferRequest) (*models.TipTransferResult, error) {
	if err := validateTransfer(req); err != nil {
		return nil, err
	}
	req.Recipient = common.CanonicalAddress(req.Recipient)

	w, err := s.repomanager.Wallets(s.db).Get(ctx, req.CallerID)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	if !w.Complete() {
		return nil, fmt.Errorf("load wallet: %w", common.ErrorNotFound)
	}

	key, err := s.custody.DecryptLayered(ctx, custody.EncryptedSecret(w.EncryptedKey))
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	if s.requiredRole != "" && s.requiredRole != chain.RoleDefaultAdmin {
		ok, err := s.chain.HasRole(ctx, key, s.requiredRole, ethcommon.HexToAddress(w.Address))
		if err != nil {
			return nil, fmt.Errorf("role check: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrForbiddenRole, s.requiredRole)
		}
	}

	return s.orchestrator.Transfer(ctx, key, req)
}
