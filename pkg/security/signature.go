package security

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrEmptyKey signals a signer built without a secret.
var ErrEmptyKey = errors.New("signing key cannot be empty")

// Signer produces keyed BLAKE2b-512 signatures for short identifiers such as
// submission references.
type Signer struct {
	key []byte
}

// NewSigner builds a signer. Keys longer than BLAKE2b accepts are hashed down
// to 64 bytes first.
func NewSigner(key string) (Signer, error) {
	if key == "" {
		return Signer{}, ErrEmptyKey
	}
	raw := []byte(key)
	if len(raw) > blake2b.Size {
		sum := blake2b.Sum512(raw)
		raw = sum[:]
	}
	return Signer{key: raw}, nil
}

// Sign returns the hex encoded signature of value.
func (s Signer) Sign(value string) (string, error) {
	if len(s.key) == 0 {
		return "", ErrEmptyKey
	}
	h, err := blake2b.New512(s.key)
	if err != nil {
		return "", fmt.Errorf("init blake2b: %w", err)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether signature matches value, in constant time.
func (s Signer) Verify(value, signature string) bool {
	expected, err := s.Sign(value)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
