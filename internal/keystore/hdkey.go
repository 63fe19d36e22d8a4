package keystore

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip32"
)

// BIP-84 derivation path constants.
// Full path: m/84'/coinType'/account'/chain/index
const (
	// PurposeBIP84 is the BIP-84 purpose field for native segwit (hardened).
	PurposeBIP84 = bip32.FirstHardenedChild + 84

	// AccountDefault is the only account this wallet uses (hardened).
	AccountDefault = bip32.FirstHardenedChild + 0

	// ChainExternal is for receiving addresses.
	ChainExternal = 0

	// ChainInternal is for change addresses.
	ChainInternal = 1
)

// DerivedKey is the spendable key material at one derivation path.
// One path maps to exactly one address; re-deriving the same path from
// the same mnemonic always yields the same key.
type DerivedKey struct {
	Path       string
	Index      uint32
	PrivateKey *btcec.PrivateKey
	PublicKey  []byte // compressed, 33 bytes
	Address    string // bech32 P2WPKH
}

// Zero wipes the private key material. The DerivedKey must not be used
// after calling Zero.
func (k *DerivedKey) Zero() {
	if k.PrivateKey != nil {
		k.PrivateKey.Zero()
		k.PrivateKey = nil
	}
}

// coinType returns the hardened BIP-44 coin type for the network:
// 0' for mainnet, 1' for every test network.
func coinType(params *chaincfg.Params) uint32 {
	return bip32.FirstHardenedChild + params.HDCoinType
}

// deriveKey derives the BIP-84 key at m/84'/coinType'/0'/chain/index
// from a 64-byte seed and encodes its P2WPKH address for the network.
func deriveKey(seed []byte, params *chaincfg.Params, chain, index uint32) (*DerivedKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	key := master
	for _, childIndex := range []uint32{PurposeBIP84, coinType(params), AccountDefault, chain, index} {
		key, err = key.NewChildKey(childIndex)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", childIndex, err)
		}
	}

	priv, _ := btcec.PrivKeyFromBytes(privateKeyBytes(key))
	pub := priv.PubKey().SerializeCompressed()

	witness, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub), params)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}

	return &DerivedKey{
		Path:       fmt.Sprintf("m/84'/%d'/0'/%d/%d", params.HDCoinType, chain, index),
		Index:      index,
		PrivateKey: priv,
		PublicKey:  pub,
		Address:    witness.EncodeAddress(),
	}, nil
}

// privateKeyBytes returns the raw 32-byte private key of a bip32 key.
// bip32 Key.Key is 33 bytes with a leading 0x00 for private keys.
func privateKeyBytes(key *bip32.Key) []byte {
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// zeroBytes overwrites a byte slice with zeros.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
