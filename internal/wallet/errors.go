package wallet

import (
	"errors"
	"fmt"
)

// Wallet errors.
var (
	// ErrInvalidAddress means an address failed structural validation
	// for the configured network.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInsufficientFunds means the inputs cannot cover amount + fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoUTXOs means there is nothing to spend.
	ErrNoUTXOs = errors.New("no UTXOs available")
)

// BroadcastError reports a relay rejection of an already-signed
// transaction. TxID and RawHex carry the signed transaction so the
// caller can retry the broadcast without re-signing.
type BroadcastError struct {
	TxID   string
	RawHex string
	Err    error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast of %s failed: %v", e.TxID, e.Err)
}

func (e *BroadcastError) Unwrap() error {
	return e.Err
}
