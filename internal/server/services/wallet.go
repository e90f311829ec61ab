package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/dbx"
	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/dmitrijs2005/tipkeeper/internal/server/repositories/repomanager"
)

// WalletService issues and looks up per-user custody wallets.
type WalletService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	custody     Custodian
	notifier    AddressNotifier
	balances    BalanceReader
	metrics     *metrics.Registry
	logger      logging.Logger
}

func NewWalletService(db *sql.DB, rm repomanager.RepositoryManager, c Custodian, n AddressNotifier, b BalanceReader, m *metrics.Registry, l logging.Logger) *WalletService {
	return &WalletService{
		db:          db,
		repomanager: rm,
		custody:     c,
		notifier:    n,
		balances:    b,
		metrics:     m,
		logger:      l.With("module", "wallets"),
	}
}

type createResult struct {
	wallet  *models.Wallet
	created bool
}

// GetOrCreateWallet returns the caller's complete wallet, creating it on
// first use. Concurrent first calls for one user converge on a single
// stored record; the loser's freshly generated key is discarded.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}

	existing, err := s.repomanager.Wallets(s.db).Get(ctx, userID)
	switch {
	case err == nil && existing.Complete():
		return existing, nil
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	addr, key, err := s.custody.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate wallet: %w", err)
	}
	secret, err := s.custody.EncryptLayered(ctx, key)
	common.WipeByteArray(key)
	if err != nil {
		return nil, err
	}

	w := &models.Wallet{
		UserID:       userID,
		Address:      common.CanonicalAddress(addr.Hex()),
		EncryptedKey: string(secret),
	}

	res, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (createResult, error) {
		stored, created, err := s.repomanager.Wallets(tx).CreateIfAbsent(ctx, w)
		return createResult{wallet: stored, created: created}, err
	})
	if err != nil {
		return nil, fmt.Errorf("store wallet: %w", err)
	}

	if !res.created {
		s.logger.Info(ctx, "wallet already created concurrently", "user_id", userID)
		return res.wallet, nil
	}

	s.metrics.WalletCreated()
	s.logger.Info(ctx, "wallet created", "user_id", userID, "address", res.wallet.Address)

	if s.custody.Profile().NotifiesAddresses() {
		s.notify(ctx, res.wallet.Address)
	}
	return res.wallet, nil
}

// notify reports a new address to the webhook. Failures are logged only.
func (s *WalletService) notify(ctx context.Context, address string) {
	if s.notifier == nil {
		s.metrics.Notified(metrics.OutcomeSkipped)
		return
	}
	if err := s.notifier.AddAddress(ctx, address); err != nil {
		s.metrics.Notified(metrics.OutcomeError)
		s.logger.Warn(ctx, "address notification failed", "address", address, "error", err)
		return
	}
	s.metrics.Notified(metrics.OutcomeOK)
}

// GetWalletAddress returns the stored address without creating anything.
// ok is false when the user has no complete wallet.
func (s *WalletService) GetWalletAddress(ctx context.Context, userID string) (string, bool, error) {
	if userID == "" {
		return "", false, common.ErrorUnauthorized
	}
	w, err := s.repomanager.Wallets(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get wallet: %w", err)
	}
	if !w.Complete() {
		return "", false, nil
	}
	return w.Address, true, nil
}

// Balance returns the ether balance of address as a decimal string.
func (s *WalletService) Balance(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: address %q", common.ErrValidation, address)
	}
	wei, err := s.balances.Balance(ctx, address)
	if err != nil {
		return "", err
	}
	return chain.FormatEther(wei), nil
}

// AddTrackedAddress registers address with the activity webhook on
// explicit request. Unlike the creation path, errors are returned.
func (s *WalletService) AddTrackedAddress(ctx context.Context, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: address %q", common.ErrValidation, address)
	}
	if s.notifier == nil {
		return fmt.Errorf("%w: address tracking is not configured", common.ErrorInternal)
	}
	if err := s.notifier.AddAddress(ctx, common.CanonicalAddress(address)); err != nil {
		s.metrics.Notified(metrics.OutcomeError)
		return fmt.Errorf("notify: %w", err)
	}
	s.metrics.Notified(metrics.OutcomeOK)
	return nil
}
