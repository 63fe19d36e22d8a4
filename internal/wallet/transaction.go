package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/sunusav/sunusav-wallet/internal/explorer"
)

// TransactionResult is a constructed, signed transaction. Immutable
// after creation. FeeSatoshis always equals the sum of input values
// minus the sum of output values.
type TransactionResult struct {
	TxID        string
	RawHex      string
	FeeSatoshis int64
}

// CreateTransaction builds and signs a P2WPKH transaction spending ALL
// supplied UTXOs:
//
//  1. Every UTXO becomes an input. The caller chooses the candidate
//     set (see SelectCoins); this layer does not pick a subset.
//  2. One output pays (toAddress, amount).
//  3. fee = EstimateTxSize(inputs, 2) * feeRate.
//  4. Change above DustThreshold goes to changeAddress; change at or
//     below it is absorbed into the fee. Documented policy, not a bug.
//  5. Fails with ErrInsufficientFunds before signing if the inputs
//     cannot cover amount + fee.
//  6. Every input is signed with privKey and the transaction is
//     serialized; the canonical txid is computed from the result.
//
// The private key is borrowed for the duration of this call only.
func (s *Service) CreateTransaction(
	utxos []explorer.UTXO,
	fromAddress, toAddress string,
	amount int64,
	changeAddress string,
	privKey *btcec.PrivateKey,
	feeRate int64,
) (*TransactionResult, error) {
	if len(utxos) == 0 {
		return nil, ErrNoUTXOs
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amount)
	}
	if feeRate <= 0 {
		return nil, fmt.Errorf("fee rate must be positive, got %d", feeRate)
	}

	toScript, err := payToAddrScript(toAddress, s.params)
	if err != nil {
		return nil, err
	}
	changeScript, err := payToAddrScript(changeAddress, s.params)
	if err != nil {
		return nil, err
	}
	fromScript, err := payToAddrScript(fromAddress, s.params)
	if err != nil {
		return nil, err
	}

	var totalIn int64
	for _, u := range utxos {
		totalIn += u.Value
	}

	fee := FeeForSize(len(utxos), 2, feeRate)
	if totalIn < amount+fee {
		return nil, fmt.Errorf("%w: have %d, need %d (amount %d + fee %d)",
			ErrInsufficientFunds, totalIn, amount+fee, amount, fee)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	prevOuts := txscript.NewMultiPrevOutFetcher(nil)
	prevScripts := make([][]byte, len(utxos))

	for i, u := range utxos {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("input %d: bad txid %q: %w", i, u.TxID, err)
		}
		outpoint := wire.NewOutPoint(hash, u.Vout)
		tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))

		// The indexer may omit the script; all inputs belong to
		// fromAddress, so its script is the fallback.
		script := u.ScriptPubKey
		if len(script) == 0 {
			script = fromScript
		}
		prevScripts[i] = script
		prevOuts.AddPrevOut(*outpoint, wire.NewTxOut(u.Value, script))
	}

	tx.AddTxOut(wire.NewTxOut(amount, toScript))

	change := totalIn - amount - fee
	if change > DustThreshold {
		tx.AddTxOut(wire.NewTxOut(change, changeScript))
	}
	// Below-dust change stays with the miners; recompute the exact fee
	// from what the transaction actually pays out.
	var totalOut int64
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}
	feeSatoshis := totalIn - totalOut

	sigHashes := txscript.NewTxSigHashes(tx, prevOuts)
	for i, u := range utxos {
		witness, err := txscript.WitnessSignature(
			tx, sigHashes, i, u.Value, prevScripts[i],
			txscript.SigHashAll, privKey, true,
		)
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", i, err)
		}
		tx.TxIn[i].Witness = witness
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}

	return &TransactionResult{
		TxID:        tx.TxHash().String(),
		RawHex:      hex.EncodeToString(buf.Bytes()),
		FeeSatoshis: feeSatoshis,
	}, nil
}

// payToAddrScript decodes an address for the network and builds its
// output script.
func payToAddrScript(address string, params *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}
	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("%w: %s is not a %s address", ErrInvalidAddress, address, params.Name)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("build script for %s: %w", address, err)
	}
	return script, nil
}
