package keystore

import "errors"

// Keystore errors.
var (
	// ErrInvalidMnemonic means the mnemonic failed BIP-39 wordlist or
	// checksum validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrDecryptionFailed means the password is wrong or the stored
	// ciphertext is corrupted. The two cases are indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNoWallet means no encrypted wallet is stored.
	ErrNoWallet = errors.New("no wallet stored")

	// ErrEntropy means the system random source is unavailable.
	ErrEntropy = errors.New("entropy source unavailable")
)
