// Package sealer encrypts small secrets, such as OAuth refresh tokens, before they
// are written to the database.
package sealer

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	// prefix marks sealed values so plaintext rows written before sealing was
	// enabled can still be read.
	prefix = "sb1:"
)

var ErrInvalidCiphertext = errors.New("invalid sealed value")

// Sealer seals and opens values with NaCl secretbox.
type Sealer struct {
	key *[keySize]byte
}

// New creates a Sealer from a base64 encoded 32 byte key.
func New(encodedKey string) (*Sealer, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding sealing key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", keySize, len(raw))
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &Sealer{key: &key}, nil
}

// NewRandomKey returns a fresh base64 encoded key.
func NewRandomKey() (string, error) {
	var key [keySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return "", fmt.Errorf("generating sealing key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key[:]), nil
}

// Seal encrypts plaintext. The empty string seals to the empty string.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, s.key)
	return prefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix are
// returned unchanged.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if len(sealed) < len(prefix) || sealed[:len(prefix)] != prefix {
		return sealed, nil
	}
	box, err := base64.RawURLEncoding.DecodeString(sealed[len(prefix):])
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidCiphertext
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plaintext, ok := secretbox.Open(nil, box[nonceSize:], &nonce, s.key)
	if !ok {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
