package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/sunusav/sunusav-wallet/internal/log"
	"github.com/sunusav/sunusav-wallet/internal/storage"
)

// walletSlot is the single storage key holding the encrypted wallet.
// Exactly one wallet exists per device profile; storing a new one
// overwrites the prior record.
var walletSlot = []byte("wallet/encrypted")

// EncryptedWallet is the persisted wallet record. The mnemonic and
// private key are never stored; only the ciphertext and its salt are.
type EncryptedWallet struct {
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	EncryptedSecret []byte    `json:"encrypted_secret"`
	Salt            []byte    `json:"salt"`
	Address         string    `json:"address"`
	DerivationPath  string    `json:"derivation_path"`
	PublicKey       []byte    `json:"public_key"`
}

// UnlockedWallet is the in-memory wallet material produced by an unlock.
// It must not outlive the operation that needed it: call Zero when done.
type UnlockedWallet struct {
	Mnemonic string
	Key      *DerivedKey
}

// Zero wipes the unlocked key material where the runtime allows.
func (u *UnlockedWallet) Zero() {
	if u.Key != nil {
		u.Key.Zero()
	}
	u.Mnemonic = ""
}

// CreatedWallet is returned by CreateAndStoreWallet. The mnemonic is
// surfaced exactly once here, for user backup.
type CreatedWallet struct {
	Address  string
	Mnemonic string
}

// Keystore turns a password into access to a durably-stored, encrypted
// seed, and deterministically derives spendable addresses from it.
type Keystore struct {
	db     storage.DB
	params *chaincfg.Params
	kdf    EncryptionParams

	// mu serializes read-modify-write of the wallet slot so a
	// concurrent ChangePassword cannot lose an update.
	mu sync.Mutex
}

// New creates a Keystore backed by the given store for the given network.
func New(db storage.DB, params *chaincfg.Params) *Keystore {
	return NewWithKDF(db, params, DefaultParams())
}

// NewWithKDF creates a Keystore with explicit Argon2id parameters.
// Tests use weak parameters to stay fast.
func NewWithKDF(db storage.DB, params *chaincfg.Params, kdf EncryptionParams) *Keystore {
	return &Keystore{db: db, params: params, kdf: kdf}
}

// GenerateNewWallet creates a fresh random mnemonic and derives the
// first receiving key at m/84'/coinType'/0'/0/0.
func (ks *Keystore) GenerateNewWallet() (*UnlockedWallet, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	key, err := ks.DeriveKey(mnemonic, 0)
	if err != nil {
		return nil, err
	}
	return &UnlockedWallet{Mnemonic: mnemonic, Key: key}, nil
}

// DeriveKey derives the receiving key at index. Deterministic: the same
// (mnemonic, index) always yields the same DerivedKey. No upper bound
// on index is enforced here; callers cap it.
func (ks *Keystore) DeriveKey(mnemonic string, index uint32) (*DerivedKey, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	return deriveKey(seed, ks.params, ChainExternal, index)
}

// DeriveChangeKey derives the internal-chain key at index, used for
// change addresses distinct from the receiving chain.
func (ks *Keystore) DeriveChangeKey(mnemonic string, index uint32) (*DerivedKey, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	return deriveKey(seed, ks.params, ChainInternal, index)
}

// RestoreWallet validates a user-supplied mnemonic and derives its
// first receiving key. Returns ErrInvalidMnemonic on a bad mnemonic.
func (ks *Keystore) RestoreWallet(mnemonic string) (*DerivedKey, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return ks.DeriveKey(mnemonic, 0)
}

// EncryptMnemonic encrypts a mnemonic under a password. Fresh salt and
// nonce per call: encrypting the same mnemonic twice with the same
// password produces different ciphertexts.
func (ks *Keystore) EncryptMnemonic(mnemonic, password string) (ciphertext, salt []byte, err error) {
	return Encrypt([]byte(mnemonic), []byte(password), ks.kdf)
}

// DecryptMnemonic decrypts a ciphertext produced by EncryptMnemonic.
// Returns ErrDecryptionFailed on a wrong password or corrupted data.
func (ks *Keystore) DecryptMnemonic(ciphertext []byte, password string, salt []byte) (string, error) {
	plaintext, err := Decrypt(ciphertext, []byte(password), salt)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// StoreWallet persists an EncryptedWallet to the wallet slot,
// overwriting any existing record.
func (ks *Keystore) StoreWallet(w *EncryptedWallet) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	if err := ks.db.Put(walletSlot, data); err != nil {
		return fmt.Errorf("store wallet: %w", err)
	}
	return nil
}

// StoredWallet returns the persisted EncryptedWallet, or nil (not an
// error) when the slot is empty.
func (ks *Keystore) StoredWallet() (*EncryptedWallet, error) {
	data, err := ks.db.Get(walletSlot)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	var w EncryptedWallet
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if w.Version != 1 {
		return nil, fmt.Errorf("unsupported wallet version: %d", w.Version)
	}
	return &w, nil
}

// RemoveStoredWallet deletes the persisted wallet record.
func (ks *Keystore) RemoveStoredWallet() error {
	if err := ks.db.Delete(walletSlot); err != nil {
		return fmt.Errorf("remove wallet: %w", err)
	}
	return nil
}

// HasStoredWallet reports whether a wallet record exists.
func (ks *Keystore) HasStoredWallet() (bool, error) {
	has, err := ks.db.Has(walletSlot)
	if err != nil {
		return false, fmt.Errorf("check wallet: %w", err)
	}
	return has, nil
}

// CreateAndStoreWallet generates a wallet, encrypts it under password
// and persists it. The mnemonic is returned exactly once for backup;
// it is recoverable afterwards only by unlocking with the password.
func (ks *Keystore) CreateAndStoreWallet(password string) (*CreatedWallet, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	unlocked, err := ks.GenerateNewWallet()
	if err != nil {
		return nil, err
	}
	defer unlocked.Key.Zero()

	ciphertext, salt, err := ks.EncryptMnemonic(unlocked.Mnemonic, password)
	if err != nil {
		return nil, err
	}

	record := &EncryptedWallet{
		Version:         1,
		CreatedAt:       time.Now().UTC(),
		EncryptedSecret: ciphertext,
		Salt:            salt,
		Address:         unlocked.Key.Address,
		DerivationPath:  unlocked.Key.Path,
		PublicKey:       unlocked.Key.PublicKey,
	}
	if err := ks.StoreWallet(record); err != nil {
		return nil, err
	}

	log.Keystore.Info().Str("address", record.Address).Msg("wallet created")
	return &CreatedWallet{Address: unlocked.Key.Address, Mnemonic: unlocked.Mnemonic}, nil
}

// RestoreAndStoreWallet encrypts a user-supplied mnemonic under password
// and persists it, overwriting any existing record.
func (ks *Keystore) RestoreAndStoreWallet(mnemonic, password string) (*DerivedKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	key, err := ks.RestoreWallet(mnemonic)
	if err != nil {
		return nil, err
	}

	ciphertext, salt, err := ks.EncryptMnemonic(mnemonic, password)
	if err != nil {
		key.Zero()
		return nil, err
	}

	record := &EncryptedWallet{
		Version:         1,
		CreatedAt:       time.Now().UTC(),
		EncryptedSecret: ciphertext,
		Salt:            salt,
		Address:         key.Address,
		DerivationPath:  key.Path,
		PublicKey:       key.PublicKey,
	}
	if err := ks.StoreWallet(record); err != nil {
		key.Zero()
		return nil, err
	}

	log.Keystore.Info().Str("address", record.Address).Msg("wallet restored")
	return key, nil
}

// UnlockWallet loads the stored wallet, decrypts the mnemonic with
// password and re-derives the key material. Returns ErrNoWallet when
// nothing is stored and ErrDecryptionFailed on a bad password.
func (ks *Keystore) UnlockWallet(password string) (*UnlockedWallet, error) {
	record, err := ks.StoredWallet()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoWallet
	}

	mnemonic, err := ks.DecryptMnemonic(record.EncryptedSecret, password, record.Salt)
	if err != nil {
		return nil, err
	}

	key, err := ks.DeriveKey(mnemonic, 0)
	if err != nil {
		return nil, err
	}
	return &UnlockedWallet{Mnemonic: mnemonic, Key: key}, nil
}

// ChangePassword re-encrypts the stored mnemonic under a new password.
// Atomic from the caller's perspective: the slot is either fully
// updated or left unchanged, and concurrent calls are serialized.
func (ks *Keystore) ChangePassword(oldPassword, newPassword string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	record, err := ks.StoredWallet()
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNoWallet
	}

	mnemonic, err := ks.DecryptMnemonic(record.EncryptedSecret, oldPassword, record.Salt)
	if err != nil {
		return err
	}

	ciphertext, salt, err := ks.EncryptMnemonic(mnemonic, newPassword)
	if err != nil {
		return err
	}

	// Only the secret and salt change; identity fields are kept.
	record.EncryptedSecret = ciphertext
	record.Salt = salt
	if err := ks.StoreWallet(record); err != nil {
		return err
	}

	log.Keystore.Info().Str("address", record.Address).Msg("wallet password changed")
	return nil
}

// ValidateAddress structurally validates an address against the
// configured network's encoding rules. No network call.
func (ks *Keystore) ValidateAddress(address string) bool {
	decoded, err := btcutil.DecodeAddress(address, ks.params)
	if err != nil {
		return false
	}
	return decoded.IsForNet(ks.params)
}
