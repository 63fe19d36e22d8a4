// Package wallet translates derived key material and live chain state
// into broadcastable transactions, and exposes balance and history
// views.
//
// The service holds no secrets and no state between calls: private
// keys are borrowed for the duration of a single signing operation,
// and chain data is re-fetched on demand. Concurrent sends from the
// same address are NOT serialized here; two concurrent spends can
// observe the same UTXO set and conflict in the mempool. Callers must
// serialize spends per address.
package wallet

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/sunusav/sunusav-wallet/internal/explorer"
	"github.com/sunusav/sunusav-wallet/internal/keystore"
	"github.com/sunusav/sunusav-wallet/internal/log"
)

// BalanceInfo is a pure aggregation over the current UTXO set,
// recomputed fresh on every query.
type BalanceInfo struct {
	Confirmed   int64
	Unconfirmed int64
	Total       int64
}

// FeeEstimate is a fee quote for a transaction shape. Degraded marks
// quotes built from the configured fallback rate because the fee
// oracle was unreachable.
type FeeEstimate struct {
	Satoshis     int64
	RatePerVByte int64
	Target       int
	Degraded     bool
}

// Service is the wallet service: balance/history views, transaction
// construction and broadcast against a chain indexer.
type Service struct {
	chain          explorer.Service
	params         *chaincfg.Params
	defaultFeeRate int64
	feeTarget      int
}

// New creates a wallet service. defaultFeeRate (sat/vB) is the
// explicit fallback used when the fee oracle is unreachable; feeTarget
// is the confirmation target asked of the oracle.
func New(chain explorer.Service, params *chaincfg.Params, defaultFeeRate int64, feeTarget int) *Service {
	if defaultFeeRate <= 0 {
		defaultFeeRate = 10
	}
	if feeTarget <= 0 {
		feeTarget = 6
	}
	return &Service{
		chain:          chain,
		params:         params,
		defaultFeeRate: defaultFeeRate,
		feeTarget:      feeTarget,
	}
}

// UTXOs fetches the unspent outputs of an address from the indexer.
// Transport failures propagate as typed errors; there is no silent
// empty result on this path.
func (s *Service) UTXOs(ctx context.Context, address string) ([]explorer.UTXO, error) {
	if !validAddress(address, s.params) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return s.chain.UTXOs(ctx, address)
}

// Balance partitions the address's UTXO set by confirmation status.
// A fetch failure propagates; it is never reported as a zero balance.
func (s *Service) Balance(ctx context.Context, address string) (*BalanceInfo, error) {
	utxos, err := s.UTXOs(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("balance for %s: %w", address, err)
	}

	var info BalanceInfo
	for _, u := range utxos {
		if u.Confirmed() {
			info.Confirmed += u.Value
		} else {
			info.Unconfirmed += u.Value
		}
	}
	info.Total = info.Confirmed + info.Unconfirmed
	return &info, nil
}

// TransactionHistory returns recent transactions touching an address.
func (s *Service) TransactionHistory(ctx context.Context, address string) ([]explorer.Tx, error) {
	if !validAddress(address, s.params) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	return s.chain.Transactions(ctx, address)
}

// BroadcastTransaction submits a raw transaction. A relay rejection
// surfaces with the relay's message; it is never retried here. Retry
// policy belongs to the caller.
func (s *Service) BroadcastTransaction(ctx context.Context, rawHex string) (string, error) {
	return s.chain.Broadcast(ctx, rawHex)
}

// SendBitcoin moves funds end to end: validate addresses, fetch UTXOs,
// check sufficiency, construct and sign, broadcast. Change returns to
// the sending address.
//
// If the broadcast fails after signing, the returned error is a
// *BroadcastError carrying the signed txid and raw hex, so the caller
// can retry the broadcast without re-signing.
func (s *Service) SendBitcoin(
	ctx context.Context,
	key *keystore.DerivedKey,
	toAddress string,
	amount int64,
	feeRate int64,
) (*TransactionResult, error) {
	if !validAddress(key.Address, s.params) {
		return nil, fmt.Errorf("%w: sender %s", ErrInvalidAddress, key.Address)
	}
	if !validAddress(toAddress, s.params) {
		return nil, fmt.Errorf("%w: recipient %s", ErrInvalidAddress, toAddress)
	}

	if feeRate <= 0 {
		rate, degraded, err := s.feeRate(ctx)
		if err != nil {
			return nil, err
		}
		if degraded {
			log.Wallet.Warn().Int64("rate", rate).Msg("fee oracle unreachable, using fallback rate")
		}
		feeRate = rate
	}

	utxos, err := s.chain.UTXOs(ctx, key.Address)
	if err != nil {
		return nil, fmt.Errorf("send from %s: %w", key.Address, err)
	}
	if len(utxos) == 0 {
		return nil, fmt.Errorf("%w: address %s has no UTXOs", ErrInsufficientFunds, key.Address)
	}

	result, err := s.CreateTransaction(
		utxos, key.Address, toAddress, amount, key.Address, key.PrivateKey, feeRate,
	)
	if err != nil {
		return nil, err
	}

	txid, err := s.chain.Broadcast(ctx, result.RawHex)
	if err != nil {
		return nil, &BroadcastError{TxID: result.TxID, RawHex: result.RawHex, Err: err}
	}

	log.Wallet.Info().
		Str("txid", txid).
		Int64("amount", amount).
		Int64("fee", result.FeeSatoshis).
		Msg("transaction sent")
	return result, nil
}

// EstimateFee quotes the fee for a transaction shape using the fee
// oracle. On oracle failure it falls back to the configured default
// rate; the quote is then flagged Degraded and logged, never passed
// off as a live estimate.
func (s *Service) EstimateFee(ctx context.Context, inputCount, outputCount int) (*FeeEstimate, error) {
	return s.EstimateFeeForTarget(ctx, s.feeTarget, inputCount, outputCount)
}

// EstimateFeeForTarget quotes the fee for a transaction shape at a
// specific confirmation target in blocks.
func (s *Service) EstimateFeeForTarget(ctx context.Context, target, inputCount, outputCount int) (*FeeEstimate, error) {
	rate, degraded := s.oracleRate(ctx, target)
	if degraded {
		log.Wallet.Warn().
			Int64("rate", rate).
			Int("target", target).
			Msg("fee oracle unreachable, quoting fallback rate")
	}
	return &FeeEstimate{
		Satoshis:     FeeForSize(inputCount, outputCount, rate),
		RatePerVByte: rate,
		Target:       target,
		Degraded:     degraded,
	}, nil
}

// feeRate resolves the sat/vB rate for the configured target.
func (s *Service) feeRate(ctx context.Context) (rate int64, degraded bool, err error) {
	rate, degraded = s.oracleRate(ctx, s.feeTarget)
	return rate, degraded, nil
}

// oracleRate asks the fee oracle for the rate at a confirmation
// target. When the oracle has no entry for the exact target, the
// nearest slower target is used (fee rates fall as targets grow).
// Oracle failure yields the configured fallback rate and degraded=true.
func (s *Service) oracleRate(ctx context.Context, target int) (int64, bool) {
	estimates, err := s.chain.FeeEstimates(ctx)
	if err != nil || len(estimates) == 0 {
		return s.defaultFeeRate, true
	}

	if rate, ok := estimates[target]; ok {
		return ceilRate(rate), false
	}

	targets := make([]int, 0, len(estimates))
	for t := range estimates {
		targets = append(targets, t)
	}
	sort.Ints(targets)

	for _, t := range targets {
		if t >= target {
			return ceilRate(estimates[t]), false
		}
	}
	// Asked for a slower target than the oracle quotes; the slowest
	// known rate is the cheapest available.
	return ceilRate(estimates[targets[len(targets)-1]]), false
}

// ceilRate rounds a sat/vB rate up to a whole satoshi, minimum 1.
func ceilRate(rate float64) int64 {
	r := int64(math.Ceil(rate))
	if r < 1 {
		return 1
	}
	return r
}

// validAddress structurally validates an address for the network.
func validAddress(address string, params *chaincfg.Params) bool {
	script, err := payToAddrScript(address, params)
	return err == nil && len(script) > 0
}
