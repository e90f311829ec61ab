package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const contractHex = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// tipIDABI is the older contract generation: tip(address,uint256) and a
// tipId on the event.
const tipIDABI = `[
  {"type":"function","name":"calculateTips","stateMutability":"view",
   "inputs":[{"name":"qty","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tip","stateMutability":"payable",
   "inputs":[{"name":"to","type":"address"},{"name":"qty","type":"uint256"}],"outputs":[]},
  {"type":"event","name":"TipsTransferred","anonymous":false,"inputs":[
    {"name":"tipId","type":"string","indexed":false},
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"fee","type":"uint256","indexed":false}]}
]`

func defaultArtifact(t *testing.T) *Artifact {
	t.Helper()
	a, err := DefaultArtifact(contractHex)
	require.NoError(t, err)
	return a
}

func tipIDArtifact(t *testing.T) *Artifact {
	t.Helper()
	a, err := ParseArtifact([]byte(`{"address":"`+contractHex+`","abi":`+tipIDABI+`}`), "")
	require.NoError(t, err)
	return a
}

func addrTopic(a ethcommon.Address) ethcommon.Hash {
	return ethcommon.BytesToHash(a.Bytes())
}

// transferLog builds a TipsTransferred log for the default contract.
func transferLog(t *testing.T, a *Artifact, tx ethcommon.Hash, from, to ethcommon.Address, amount, fee *big.Int) *types.Log {
	t.Helper()
	ev := a.ABI.Events[TransferEventName]
	data, err := ev.Inputs.NonIndexed().Pack("sender", "receiver", "publish", amount, fee)
	require.NoError(t, err)
	return &types.Log{
		Address:     a.Address,
		Topics:      []ethcommon.Hash{ev.ID, addrTopic(from), addrTopic(to)},
		Data:        data,
		TxHash:      tx,
		BlockNumber: 7,
		Index:       2,
	}
}

type fakeBackend struct {
	Backend

	mu       sync.Mutex
	calls    []ethereum.CallMsg
	callResp []byte
	callErr  error

	estimateErr error
	sent        []*types.Transaction
	receipt     *types.Receipt
	filterQuery ethereum.FilterQuery
	filterLogs  []types.Log
	balance     *big.Int
}

func (f *fakeBackend) CodeAt(context.Context, ethcommon.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.callResp, f.callErr
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(10), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, ethcommon.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, ethcommon.Address) (uint64, error) {
	return 3, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 120_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, ethcommon.Hash) (*types.Receipt, error) {
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.filterQuery = q
	return f.filterLogs, nil
}

func (f *fakeBackend) BalanceAt(context.Context, ethcommon.Address, *big.Int) (*big.Int, error) {
	if f.balance == nil {
		return nil, errors.New("rpc down")
	}
	return f.balance, nil
}
