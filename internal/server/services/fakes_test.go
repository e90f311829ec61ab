package services

import (
	"context"
	"database/sql"
	"math/big"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/dbx"
	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/dmitrijs2005/tipkeeper/internal/server/repositories/wallets"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeWalletsRepo struct {
	mu sync.Mutex

	getOut   *models.Wallet
	getErr   error
	getCalls int

	created    *models.Wallet
	createOut  *models.Wallet
	createdNew bool
	createErr  error

	// persist makes a successful insert visible to later Get calls.
	persist bool
}

func (f *fakeWalletsRepo) Get(ctx context.Context, userID string) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.getOut, nil
}

func (f *fakeWalletsRepo) CreateIfAbsent(ctx context.Context, w *models.Wallet) (*models.Wallet, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = w
	if f.createErr != nil {
		return nil, false, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, f.createdNew, nil
	}
	if f.persist {
		if f.getOut != nil {
			return f.getOut, false, nil
		}
		f.getOut = w
	}
	return w, true, nil
}

type fakeRepoManager struct {
	w *fakeWalletsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Wallets(db dbx.DBTX) wallets.Repository     { return m.w }

type fakeCustodian struct {
	profile custody.Profile

	addr     ethcommon.Address
	key      []byte
	genErr   error
	genCalls int

	secret custody.EncryptedSecret
	encErr error
	encKey []byte

	decKey  []byte
	decErr  error
	decreqs int
}

func (f *fakeCustodian) Profile() custody.Profile { return f.profile }

func (f *fakeCustodian) Generate() (ethcommon.Address, []byte, error) {
	f.genCalls++
	return f.addr, f.key, f.genErr
}

func (f *fakeCustodian) EncryptLayered(_ context.Context, key []byte) (custody.EncryptedSecret, error) {
	f.encKey = append([]byte(nil), key...)
	return f.secret, f.encErr
}

func (f *fakeCustodian) DecryptLayered(context.Context, custody.EncryptedSecret) ([]byte, error) {
	f.decreqs++
	if f.decErr != nil {
		return nil, f.decErr
	}
	return f.decKey, nil
}

type fakeNotifier struct {
	addrs []string
	err   error
}

func (f *fakeNotifier) AddAddress(_ context.Context, address string) error {
	f.addrs = append(f.addrs, address)
	return f.err
}

type fakeBalances struct {
	wei *big.Int
	err error
}

func (f *fakeBalances) Balance(context.Context, string) (*big.Int, error) {
	return f.wei, f.err
}

type fakeChain struct {
	steps []string

	amount  *big.Int
	price   func(qty int64) *big.Int
	calcErr error

	hasRole bool
	roleErr error
	roleFor ethcommon.Address

	submitErr error
	submitted models.TipTransferRequest
	value     *big.Int

	receipt *types.Receipt
	waitErr error

	logs    []types.Log
	logsErr error

	event     *models.TransferEvent
	decodeErr error
}

func (f *fakeChain) CalculateTips(_ context.Context, qty int64) (*big.Int, error) {
	f.steps = append(f.steps, "calculate")
	if f.price != nil && f.calcErr == nil {
		return f.price(qty), nil
	}
	return f.amount, f.calcErr
}

func (f *fakeChain) HasRole(_ context.Context, _ []byte, _ chain.Role, account ethcommon.Address) (bool, error) {
	f.steps = append(f.steps, "role")
	f.roleFor = account
	return f.hasRole, f.roleErr
}

func (f *fakeChain) SubmitTip(_ context.Context, _ []byte, req models.TipTransferRequest, value *big.Int) (*types.Transaction, error) {
	f.steps = append(f.steps, "submit")
	f.submitted = req
	f.value = value
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return types.NewTx(&types.LegacyTx{Nonce: 1, Value: value}), nil
}

func (f *fakeChain) WaitMined(context.Context, *types.Transaction) (*types.Receipt, error) {
	f.steps = append(f.steps, "wait")
	return f.receipt, f.waitErr
}

func (f *fakeChain) TransferLogs(context.Context, *types.Receipt) ([]types.Log, error) {
	f.steps = append(f.steps, "logs")
	return f.logs, f.logsErr
}

func (f *fakeChain) DecodeTransfer(types.Log) (*models.TransferEvent, error) {
	f.steps = append(f.steps, "decode")
	return f.event, f.decodeErr
}
