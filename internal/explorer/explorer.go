// Package explorer provides chain-indexer clients for UTXO, transaction
// and fee-rate lookups, plus transaction broadcast.
package explorer

import (
	"context"
	"errors"
)

// Transport errors.
var (
	// ErrNetwork means the indexer could not be reached or answered
	// with a transport-level failure. Never mapped to an empty result.
	ErrNetwork = errors.New("chain indexer unreachable")

	// ErrTimeout means the caller-supplied deadline expired.
	ErrTimeout = errors.New("chain indexer timeout")

	// ErrBroadcast means the relay rejected a raw transaction.
	ErrBroadcast = errors.New("broadcast rejected")
)

// UTXO is an unspent output as reported by the indexer. Never mutated
// locally: re-fetched on demand.
type UTXO struct {
	TxID          string
	Vout          uint32
	Value         int64 // satoshis
	ScriptPubKey  []byte
	Confirmations int64 // 0 marks unconfirmed
}

// Confirmed reports whether the output has at least one confirmation.
func (u UTXO) Confirmed() bool {
	return u.Confirmations >= 1
}

// Tx is a summary of an on-chain transaction touching an address.
type Tx struct {
	TxID        string
	Fee         int64
	Size        int
	Confirmed   bool
	BlockHeight int64
	BlockTime   int64
}

// Service is a chain indexer: address-scoped chain state, fee rates and
// transaction relay.
type Service interface {
	// UTXOs returns the unspent outputs of an address.
	UTXOs(ctx context.Context, address string) ([]UTXO, error)

	// Transactions returns recent transactions touching an address.
	Transactions(ctx context.Context, address string) ([]Tx, error)

	// Transaction returns one transaction by id.
	Transaction(ctx context.Context, txid string) (*Tx, error)

	// FeeEstimates returns sat/vB rates keyed by confirmation target
	// in blocks.
	FeeEstimates(ctx context.Context) (map[int]float64, error)

	// Broadcast submits a raw transaction in hex and returns its txid.
	// A relay rejection surfaces as an error wrapping ErrBroadcast
	// carrying the relay's message; it is never retried here.
	Broadcast(ctx context.Context, rawHex string) (string, error)

	// TipHeight returns the current chain tip height.
	TipHeight(ctx context.Context) (int64, error)
}
