package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/dbx"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Wallet, error) {
	query :=
		`SELECT user_id, address, encrypted_key, created_at, updated_at FROM wallets
		 WHERE user_id = $1
		 `

	w := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&w.UserID, &w.Address, &w.EncryptedKey, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}

// CreateIfAbsent relies on the primary key: the insert only wins when no
// row exists or the existing row is still incomplete. A complete row is
// never rewritten.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, w *models.Wallet) (*models.Wallet, bool, error) {
	if w.Address == "" || w.EncryptedKey == "" {
		return nil, false, fmt.Errorf("%w: wallet must carry both address and key", common.ErrValidation)
	}

	query :=
		`INSERT INTO wallets (user_id, address, encrypted_key)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET address = EXCLUDED.address, encrypted_key = EXCLUDED.encrypted_key, updated_at = now()
		 WHERE wallets.address = '' OR wallets.encrypted_key = ''
		 RETURNING user_id, address, encrypted_key, created_at, updated_at
		 `

	stored := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, w.UserID, w.Address, w.EncryptedKey).
		Scan(&stored.UserID, &stored.Address, &stored.EncryptedKey, &stored.CreatedAt, &stored.UpdatedAt)

	switch {
	case err == nil:
		return stored, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// lost the race to a complete record
		existing, err := r.Get(ctx, w.UserID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	default:
		return nil, false, fmt.Errorf("db error: %w", err)
	}
}
