// Package secret seals short strings such as API credentials before they are
// written to the database.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrMalformed = errors.New("malformed sealed value")

// Box encrypts values with XChaCha20-Poly1305. Sealed values are encoded as
// "<nonce hex>:<ciphertext hex>" so they survive TEXT columns.
type Box struct {
	aead cipher.AEAD
}

// NewBox builds a Box from a hex encoded 32 byte key.
func NewBox(hexKey string) (*Box, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}

	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &Box{aead: aead}, nil
}

func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := b.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

func (b *Box) Open(value string) (string, error) {
	nonceHex, dataHex, ok := strings.Cut(value, ":")
	if !ok || nonceHex == "" || dataHex == "" {
		return "", ErrMalformed
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != b.aead.NonceSize() {
		return "", ErrMalformed
	}

	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", ErrMalformed
	}

	plain, err := b.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("opening sealed value: %w", err)
	}

	return string(plain), nil
}
