package explorer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/sunusav/sunusav-wallet/internal/log"
)

// Mock is a Service serving deterministic canned data for development
// and demos. It is selected only through explicit configuration
// (explorer.mock); the real client never falls back to it.
type Mock struct {
	mu        sync.Mutex
	broadcast []string // raw hex of submitted transactions
}

// NewMock creates a mock chain indexer.
func NewMock() *Mock {
	log.Explorer.Warn().Msg("using mock chain data (development mode)")
	return &Mock{}
}

// UTXOs returns two canned outputs per address, derived from the
// address so repeated calls agree: one confirmed, one unconfirmed.
func (m *Mock) UTXOs(ctx context.Context, address string) ([]UTXO, error) {
	return []UTXO{
		{
			TxID:          mockTxid(address, 0),
			Vout:          0,
			Value:         100_000,
			Confirmations: 6,
		},
		{
			TxID:          mockTxid(address, 1),
			Vout:          1,
			Value:         50_000,
			Confirmations: 0,
		},
	}, nil
}

// Transactions returns a canned history for the address.
func (m *Mock) Transactions(ctx context.Context, address string) ([]Tx, error) {
	return []Tx{
		{
			TxID:        mockTxid(address, 0),
			Fee:         1_420,
			Size:        222,
			Confirmed:   true,
			BlockHeight: mockTipHeight - 5,
			BlockTime:   1_700_000_000,
		},
		{
			TxID:      mockTxid(address, 1),
			Fee:       1_100,
			Size:      141,
			Confirmed: false,
		},
	}, nil
}

// Transaction returns a canned confirmed transaction.
func (m *Mock) Transaction(ctx context.Context, txid string) (*Tx, error) {
	return &Tx{
		TxID:        txid,
		Fee:         1_420,
		Size:        222,
		Confirmed:   true,
		BlockHeight: mockTipHeight - 2,
		BlockTime:   1_700_000_000,
	}, nil
}

// FeeEstimates returns fixed rates for the common targets.
func (m *Mock) FeeEstimates(ctx context.Context) (map[int]float64, error) {
	return map[int]float64{
		1:  32.0,
		3:  18.5,
		6:  12.0,
		12: 6.0,
		24: 3.0,
	}, nil
}

// Broadcast records the raw transaction and returns a txid derived from
// its bytes. Nothing reaches a real network.
func (m *Mock) Broadcast(ctx context.Context, rawHex string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcast = append(m.broadcast, rawHex)
	return mockTxid(rawHex, 0), nil
}

// TipHeight returns a fixed tip.
func (m *Mock) TipHeight(ctx context.Context) (int64, error) {
	return mockTipHeight, nil
}

// Broadcasted returns the raw transactions submitted so far.
func (m *Mock) Broadcasted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.broadcast))
	copy(out, m.broadcast)
	return out
}

const mockTipHeight = 850_000

// mockTxid builds a stable fake txid from a seed string.
func mockTxid(seed string, n int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", seed, n)))
	return hex.EncodeToString(sum[:])
}
