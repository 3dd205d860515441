// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/luxfi/crypto/hashing"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/greenadx/carbonledger/ledger"
)

var (
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidPayload   = errors.New("invalid sealed payload")
)

// Base64Sealer produces the demo wire format: base64 of the metrics JSON.
// Not encryption; kept for compatibility with payloads written by the
// original client.
type Base64Sealer struct{}

// NewBase64Sealer returns the demo sealer.
func NewBase64Sealer() *Base64Sealer {
	return &Base64Sealer{}
}

// Seal encodes the metrics as base64 JSON.
func (s *Base64Sealer) Seal(m ledger.Metrics) (string, error) {
	blob, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// HPKESealer seals metrics to a recipient X25519 public key using
// ephemeral-static Diffie-Hellman, HKDF-SHA256 and ChaCha20-Poly1305. The
// recipient key commitment binds the ciphertext as associated data.
type HPKESealer struct {
	recipientPub []byte
}

// NewHPKESealer creates a sealer for the given 32-byte recipient key.
func NewHPKESealer(recipientPub []byte) (*HPKESealer, error) {
	if len(recipientPub) != 32 {
		return nil, ErrInvalidKeySize
	}
	return &HPKESealer{recipientPub: recipientPub}, nil
}

// GenerateKeyPair generates an X25519 key pair for sealing.
func GenerateKeyPair() (publicKey, privateKey []byte, err error) {
	privateKey = make([]byte, 32)
	if _, err := rand.Read(privateKey); err != nil {
		return nil, nil, err
	}

	publicKey, err = curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		return nil, nil, err
	}

	return publicKey, privateKey, nil
}

// Seal encrypts the metrics JSON and returns
// base64(ephemeralPub || nonce || ciphertext).
func (s *HPKESealer) Seal(m ledger.Metrics) (string, error) {
	plaintext, err := json.Marshal(m)
	if err != nil {
		return "", err
	}

	ephemeralPriv := make([]byte, 32)
	if _, err := rand.Read(ephemeralPriv); err != nil {
		return "", err
	}
	ephemeralPub, err := curve25519.X25519(ephemeralPriv, curve25519.Basepoint)
	if err != nil {
		return "", err
	}

	shared, err := curve25519.X25519(ephemeralPriv, s.recipientPub)
	if err != nil {
		return "", err
	}

	key, err := deriveKey(shared, ephemeralPub, s.recipientPub)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, nonce, plaintext, hashing.ComputeHash256(s.recipientPub))

	out := make([]byte, 0, len(ephemeralPub)+len(nonce)+len(sealed))
	out = append(out, ephemeralPub...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Unseal reverses Seal given the recipient private key.
func Unseal(payload string, recipientPriv []byte) (ledger.Metrics, error) {
	var m ledger.Metrics

	if len(recipientPriv) != 32 {
		return m, ErrInvalidKeySize
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return m, ErrInvalidPayload
	}
	if len(raw) < 32+chacha20poly1305.NonceSize {
		return m, ErrInvalidPayload
	}

	ephemeralPub := raw[:32]
	nonce := raw[32 : 32+chacha20poly1305.NonceSize]
	sealed := raw[32+chacha20poly1305.NonceSize:]

	shared, err := curve25519.X25519(recipientPriv, ephemeralPub)
	if err != nil {
		return m, err
	}

	recipientPub, err := curve25519.X25519(recipientPriv, curve25519.Basepoint)
	if err != nil {
		return m, err
	}

	key, err := deriveKey(shared, ephemeralPub, recipientPub)
	if err != nil {
		return m, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return m, err
	}

	plaintext, err := aead.Open(nil, nonce, sealed, hashing.ComputeHash256(recipientPub))
	if err != nil {
		return m, ErrDecryptionFailed
	}

	if err := json.Unmarshal(plaintext, &m); err != nil {
		return m, ErrInvalidPayload
	}
	return m, nil
}

func deriveKey(shared, ephemeralPub, recipientPub []byte) ([]byte, error) {
	info := append(append([]byte("carbonledger-seal-v1"), ephemeralPub...), recipientPub...)
	kdf := hkdf.New(sha256.New, shared, nil, info)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

var _ ledger.Sealer = (*Base64Sealer)(nil)
var _ ledger.Sealer = (*HPKESealer)(nil)
