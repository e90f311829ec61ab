// Package services contains server-side business logic: wallet custody
// records and tip transfers. Handlers call into these services; the
// services own validation, transactions and key hygiene.
package services

import (
	"context"
	"math/big"

	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Custodian is the custody surface used by the services. *custody.Service
// implements it.
type Custodian interface {
	Profile() custody.Profile
	Generate() (ethcommon.Address, []byte, error)
	EncryptLayered(ctx context.Context, key []byte) (custody.EncryptedSecret, error)
	DecryptLayered(ctx context.Context, secret custody.EncryptedSecret) ([]byte, error)
}

// AddressNotifier registers addresses with the activity webhook.
type AddressNotifier interface {
	AddAddress(ctx context.Context, address string) error
}

// BalanceReader reads an account balance in wei.
type BalanceReader interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// TipChain is the contract surface of a tip transfer. *chain.Client
// implements it.
type TipChain interface {
	CalculateTips(ctx context.Context, qty int64) (*big.Int, error)
	HasRole(ctx context.Context, key []byte, role chain.Role, account ethcommon.Address) (bool, error)
	SubmitTip(ctx context.Context, key []byte, req models.TipTransferRequest, value *big.Int) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	TransferLogs(ctx context.Context, r *types.Receipt) ([]types.Log, error)
	DecodeTransfer(lg types.Log) (*models.TransferEvent, error)
}
