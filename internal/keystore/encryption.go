package keystore

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption constants.
const (
	// SaltSize is the length of the random KDF salt, stored alongside
	// the ciphertext (not inside it).
	SaltSize = 32

	// Ciphertext format: [memory(4)][iterations(4)][parallelism(1)][nonce(24)][sealed...]
	paramsHeaderSize = 4 + 4 + 1
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

// deriveKDFKey uses Argon2id to derive a 32-byte encryption key from
// password and salt.
func deriveKDFKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(
		password,
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		chacha20poly1305.KeySize,
	)
}

// Encrypt encrypts data with password using Argon2id + XChaCha20-Poly1305.
// A fresh random salt and nonce are generated on every call, so two
// encryptions of the same plaintext under the same password never
// produce the same output.
//
// Returns the ciphertext (KDF params | nonce | sealed data) and the
// salt, which the caller must keep to decrypt.
func Encrypt(data, password []byte, params EncryptionParams) (ciphertext, salt []byte, err error) {
	salt = make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("%w: generate salt: %v", ErrEntropy, err)
	}

	key := deriveKDFKey(password, salt, params)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: generate nonce: %v", ErrEntropy, err)
	}

	sealed := aead.Seal(nil, nonce, data, nil)

	out := make([]byte, 0, paramsHeaderSize+len(nonce)+len(sealed))
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	out = append(out, sealed...)

	return out, salt, nil
}

// Decrypt decrypts data produced by Encrypt with the given password and
// salt. The AEAD tag is verified before any plaintext is returned:
// a wrong password or corrupted ciphertext yields ErrDecryptionFailed,
// never garbage plaintext.
func Decrypt(ciphertext, password, salt []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	minSize := paramsHeaderSize + nonceSize + chacha20poly1305.Overhead
	if len(ciphertext) < minSize {
		return nil, fmt.Errorf("%w: ciphertext too short (%d bytes, need at least %d)",
			ErrDecryptionFailed, len(ciphertext), minSize)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: bad salt length %d", ErrDecryptionFailed, len(salt))
	}

	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(ciphertext[0:]),
		Iterations:  binary.LittleEndian.Uint32(ciphertext[4:]),
		Parallelism: ciphertext[8],
	}

	nonce := ciphertext[paramsHeaderSize : paramsHeaderSize+nonceSize]
	sealed := ciphertext[paramsHeaderSize+nonceSize:]

	key := deriveKDFKey(password, salt, params)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}
