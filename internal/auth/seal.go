package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealNonceSize = 24

// SecretboxSealer encrypts stored credential material with NaCl secretbox.
type SecretboxSealer struct {
	key [32]byte
}

// NewSecretboxSealer parses a 64-character hex key.
func NewSecretboxSealer(hexKey string) (*SecretboxSealer, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode seal key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("seal key must be 32 bytes, got %d", len(raw))
	}
	s := &SecretboxSealer{}
	copy(s.key[:], raw)
	return s, nil
}

// Seal encrypts plaintext with a random nonce prepended to the box.
func (s *SecretboxSealer) Seal(plaintext string) ([]byte, error) {
	var nonce [sealNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key), nil
}

// Open decrypts a box produced by Seal.
func (s *SecretboxSealer) Open(sealed []byte) (string, error) {
	if len(sealed) < sealNonceSize {
		return "", errors.New("sealed payload too short")
	}
	var nonce [sealNonceSize]byte
	copy(nonce[:], sealed[:sealNonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[sealNonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("sealed payload failed authentication")
	}
	return string(plaintext), nil
}

// PlaintextSealer passes tokens through unchanged. Used when no seal key is
// configured.
type PlaintextSealer struct{}

// Seal returns the plaintext bytes unchanged.
func (PlaintextSealer) Seal(plaintext string) ([]byte, error) { return []byte(plaintext), nil }

// Open returns the stored bytes unchanged.
func (PlaintextSealer) Open(sealed []byte) (string, error) { return string(sealed), nil }
