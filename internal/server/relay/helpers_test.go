package relay

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const contractHex = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

var (
	fromAddr = ethcommon.HexToAddress("0xa0Ee7A142d267C1f36714E4a8F75612F20a79720")
	toAddr   = ethcommon.HexToAddress("0xabcabcabcabcabcabcabcabcabcabcabcabcabca")
)

func testCodec(t *testing.T) (*chain.Codec, *chain.Artifact) {
	t.Helper()
	a, err := chain.DefaultArtifact(contractHex)
	require.NoError(t, err)
	c, err := chain.NewCodec(a)
	require.NoError(t, err)
	return c, a
}

func transferLog(t *testing.T, a *chain.Artifact, block uint64, index uint) types.Log {
	t.Helper()
	ev := a.ABI.Events[chain.TransferEventName]
	data, err := ev.Inputs.NonIndexed().Pack("sender", "receiver", "publish", big.NewInt(5e16), big.NewInt(1e15))
	require.NoError(t, err)
	return types.Log{
		Address:     a.Address,
		Topics:      []ethcommon.Hash{ev.ID, ethcommon.BytesToHash(fromAddr.Bytes()), ethcommon.BytesToHash(toAddr.Bytes())},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      ethcommon.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
	}
}

type fakeSub struct {
	errc chan error
}

func (s *fakeSub) Unsubscribe()      {}
func (s *fakeSub) Err() <-chan error { return s.errc }

// fakeSource replays live on every subscription, straight into the
// subscription channel.
type fakeSource struct {
	mu      sync.Mutex
	backlog []types.Log
	live    []types.Log
	queries []ethereum.FilterQuery
	subs    []*fakeSub
	subErr  error
}

func (f *fakeSource) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.backlog, nil
}

func (f *fakeSource) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	for _, lg := range f.live {
		ch <- lg
	}
	sub := &fakeSub{errc: make(chan error, 1)}
	f.subs = append(f.subs, sub)
	return sub, nil
}

type memCursors struct {
	mu      sync.Mutex
	cur     Cursor
	ok      bool
	saves   []Cursor
	loadErr error
}

func (m *memCursors) Load(context.Context) (Cursor, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur, m.ok, m.loadErr
}

func (m *memCursors) Save(_ context.Context, c Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur, m.ok = c, true
	m.saves = append(m.saves, c)
	return nil
}

func (m *memCursors) saved() []Cursor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Cursor(nil), m.saves...)
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	failures int
	trace    *[]string
}

func (p *fakePublisher) Publish(_ context.Context, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return "", errors.New("stream unavailable")
	}
	p.payloads = append(p.payloads, payload)
	if p.trace != nil {
		*p.trace = append(*p.trace, "publish")
	}
	return "1-0", nil
}

func (p *fakePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}
