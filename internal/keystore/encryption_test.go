package keystore

import (
	"bytes"
	"errors"
	"testing"
)

// fastParams returns weak Argon2id parameters so tests stay fast.
// Never use these outside tests.
func fastParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64,
		Iterations:  1,
		Parallelism: 1,
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(testMnemonic)
	password := []byte("correct horse battery staple")

	ciphertext, salt, err := Encrypt(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if len(salt) != SaltSize {
		t.Errorf("salt length = %d, want %d", len(salt), SaltSize)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Error("ciphertext contains the plaintext")
	}

	decrypted, err := Decrypt(ciphertext, password, salt)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptFreshSaltAndNonce(t *testing.T) {
	plaintext := []byte(testMnemonic)
	password := []byte("same password")

	c1, s1, err := Encrypt(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	c2, s2, err := Encrypt(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("Encrypt() second call error: %v", err)
	}

	if bytes.Equal(s1, s2) {
		t.Error("two Encrypt() calls reused the same salt")
	}
	if bytes.Equal(c1, c2) {
		t.Error("two Encrypt() calls produced identical ciphertexts")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	ciphertext, salt, err := Encrypt([]byte(testMnemonic), []byte("right"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	_, err = Decrypt(ciphertext, []byte("wrong"), salt)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong password error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptCorrupted(t *testing.T) {
	ciphertext, salt, err := Encrypt([]byte(testMnemonic), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Flip one bit in the sealed payload.
	corrupted := make([]byte, len(ciphertext))
	copy(corrupted, ciphertext)
	corrupted[len(corrupted)-1] ^= 0x01

	_, err = Decrypt(corrupted, []byte("pass"), salt)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with corrupted data error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptWrongSalt(t *testing.T) {
	ciphertext, _, err := Encrypt([]byte(testMnemonic), []byte("pass"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	wrongSalt := make([]byte, SaltSize)
	_, err = Decrypt(ciphertext, []byte("pass"), wrongSalt)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong salt error = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptTooShort(t *testing.T) {
	_, err := Decrypt([]byte("short"), []byte("pass"), make([]byte, SaltSize))
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() on truncated input error = %v, want ErrDecryptionFailed", err)
	}
}

func TestEncryptParamsCarried(t *testing.T) {
	// Decrypt must honor the KDF parameters recorded in the blob, not
	// whatever the keystore is currently configured with.
	params := EncryptionParams{Memory: 128, Iterations: 2, Parallelism: 2}
	ciphertext, salt, err := Encrypt([]byte(testMnemonic), []byte("pass"), params)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decrypted, err := Decrypt(ciphertext, []byte("pass"), salt)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if string(decrypted) != testMnemonic {
		t.Error("round trip with custom params failed")
	}
}
