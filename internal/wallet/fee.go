package wallet

// Virtual-size model for single-key native segwit (P2WPKH) transactions.
// Both fee estimation and transaction construction use these constants,
// so the estimated fee and the computed fee can never disagree.
const (
	// TxOverheadVBytes covers version, segwit marker/flag, input and
	// output counts, and locktime.
	TxOverheadVBytes = 11

	// TxInputVBytes is one P2WPKH input: 41 non-witness bytes plus the
	// witness (signature + pubkey) after the 4x discount.
	TxInputVBytes = 68

	// TxOutputVBytes is one P2WPKH output: 8 value + 1 script length +
	// 22 script.
	TxOutputVBytes = 31

	// DustThreshold is the minimum change worth creating an output
	// for; anything at or below it is absorbed into the fee.
	DustThreshold = 546
)

// EstimateTxSize returns the virtual size in vbytes of a P2WPKH
// transaction with the given number of inputs and outputs.
func EstimateTxSize(numInputs, numOutputs int) int64 {
	return int64(TxOverheadVBytes + TxInputVBytes*numInputs + TxOutputVBytes*numOutputs)
}

// FeeForSize returns the fee in satoshis for a transaction of the given
// shape at the given rate (sat/vB).
func FeeForSize(numInputs, numOutputs int, feeRate int64) int64 {
	return EstimateTxSize(numInputs, numOutputs) * feeRate
}
