// Package wallets persists one custody record per user.
package wallets

import (
	"context"

	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
)

type Repository interface {
	// Get returns the record for userID or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Wallet, error)
	// CreateIfAbsent stores w unless a complete record already exists, and
	// returns whichever record is stored afterwards. created is false when
	// another writer got there first.
	CreateIfAbsent(ctx context.Context, w *models.Wallet) (stored *models.Wallet, created bool, err error)
}
