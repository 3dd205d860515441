// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
)

var (
	ErrValueTooLarge  = errors.New("plaintext too large for modulus")
	ErrInvalidKeySize = errors.New("invalid key size")
)

// Paillier is an additively homomorphic scheme: ciphertexts can be added,
// and multiplied by plaintext constants, without decryption. That is exactly
// the shape of the footprint model (a linear form), so the whole estimate
// can be evaluated over ciphertexts.
type Paillier struct {
	n      *big.Int // n = p * q
	n2     *big.Int // n^2
	g      *big.Int // generator, n + 1
	lambda *big.Int // lcm(p-1, q-1)
	mu     *big.Int // multiplicative inverse

	publicKey  *PublicKey
	privateKey *PrivateKey
}

// PublicKey for encryption
type PublicKey struct {
	N *big.Int
	G *big.Int
}

// PrivateKey for decryption
type PrivateKey struct {
	Lambda *big.Int
	Mu     *big.Int
}

// Ciphertext is an encrypted integer under the scheme's public key.
type Ciphertext struct {
	C *big.Int
}

// NewPaillier generates a key pair of the given modulus size.
func NewPaillier(bitSize int) (*Paillier, error) {
	if bitSize < 512 {
		bitSize = 2048 // Minimum security
	}

	p, err := rand.Prime(rand.Reader, bitSize/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(rand.Reader, bitSize/2)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)

	// g = n + 1
	g := new(big.Int).Add(n, big.NewInt(1))

	// lambda = lcm(p-1, q-1)
	p1 := new(big.Int).Sub(p, big.NewInt(1))
	q1 := new(big.Int).Sub(q, big.NewInt(1))
	lambda := lcm(p1, q1)

	// mu = (L(g^lambda mod n^2))^-1 mod n
	gLambda := new(big.Int).Exp(g, lambda, n2)
	mu := new(big.Int).ModInverse(residue(gLambda, n), n)

	return &Paillier{
		n:      n,
		n2:     n2,
		g:      g,
		lambda: lambda,
		mu:     mu,
		publicKey: &PublicKey{
			N: n,
			G: g,
		},
		privateKey: &PrivateKey{
			Lambda: lambda,
			Mu:     mu,
		},
	}, nil
}

// Encrypt encrypts a non-negative integer.
func (p *Paillier) Encrypt(m *big.Int) (*Ciphertext, error) {
	if m.Cmp(p.n) >= 0 {
		return nil, ErrValueTooLarge
	}

	r, err := rand.Int(rand.Reader, p.n)
	if err != nil {
		return nil, err
	}

	// c = g^m * r^n mod n^2
	gm := new(big.Int).Exp(p.g, m, p.n2)
	rn := new(big.Int).Exp(r, p.n, p.n2)
	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, p.n2)

	return &Ciphertext{C: c}, nil
}

// EncryptInt64 encrypts a small integer.
func (p *Paillier) EncryptInt64(v int64) (*Ciphertext, error) {
	return p.Encrypt(big.NewInt(v))
}

// Add homomorphically adds two ciphertexts: Enc(a) * Enc(b) = Enc(a + b).
func (p *Paillier) Add(a, b *Ciphertext) *Ciphertext {
	c := new(big.Int).Mul(a.C, b.C)
	c.Mod(c, p.n2)
	return &Ciphertext{C: c}
}

// ScalarMul multiplies an encrypted value by a plaintext constant:
// Enc(m)^k = Enc(k * m).
func (p *Paillier) ScalarMul(ct *Ciphertext, k int64) *Ciphertext {
	c := new(big.Int).Exp(ct.C, big.NewInt(k), p.n2)
	return &Ciphertext{C: c}
}

// Decrypt recovers the plaintext integer.
func (p *Paillier) Decrypt(ct *Ciphertext) (*big.Int, error) {
	// m = L(c^lambda mod n^2) * mu mod n
	cLambda := new(big.Int).Exp(ct.C, p.lambda, p.n2)
	m := new(big.Int).Mul(residue(cLambda, p.n), p.mu)
	m.Mod(m, p.n)
	return m, nil
}

// ExportPublicKey exports the public key for client-side encryption.
func (p *Paillier) ExportPublicKey() string {
	data := append(p.publicKey.N.Bytes(), p.publicKey.G.Bytes()...)
	return base64.StdEncoding.EncodeToString(data)
}

// residue is the Paillier L function, L(u) = (u - 1) / n.
func residue(u, n *big.Int) *big.Int {
	u1 := new(big.Int).Sub(u, big.NewInt(1))
	return new(big.Int).Div(u1, n)
}

func lcm(a, b *big.Int) *big.Int {
	gcd := new(big.Int).GCD(nil, nil, a, b)
	product := new(big.Int).Mul(a, b)
	return new(big.Int).Div(product, gcd)
}
