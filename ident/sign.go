package ident

import (
	"crypto/rand"
	"io"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/sign/ed25519"
)

const (
	SigningKeySize   = ed25519.SeedSize
	VerifyingKeySize = ed25519.PublicKeySize
	SignatureSize    = ed25519.SignatureSize
)

// SigningKey is an Ed25519 secret key. Its serialized form is the 32-byte seed.
type SigningKey struct {
	seed [SigningKeySize]byte
	priv ed25519.PrivateKey
}

// SigningKeyFromSeed expands a 32-byte seed into a signing key.
func SigningKeyFromSeed(seed [SigningKeySize]byte) SigningKey {
	return SigningKey{seed: seed, priv: ed25519.NewKeyFromSeed(seed[:])}
}

func (k *SigningKey) Size() int { return SigningKeySize }

func (k *SigningKey) SetBytes(b []byte) error {
	copy(k.seed[:], b)
	k.priv = ed25519.NewKeyFromSeed(k.seed[:])
	return nil
}

// Bytes returns the seed.
func (k SigningKey) Bytes() [SigningKeySize]byte { return k.seed }

func (k SigningKey) VerifyingKey() VerifyingKey {
	var vk VerifyingKey
	copy(vk.b[:], k.priv.Public().(ed25519.PublicKey))
	return vk
}

// Sign signs message. A zero SigningKey signs with the all-zero seed.
func (k SigningKey) Sign(message []byte) Signature {
	priv := k.priv
	if priv == nil {
		priv = ed25519.NewKeyFromSeed(k.seed[:])
	}
	var sig Signature
	copy(sig[:], ed25519.Sign(priv, message))
	return sig
}

func (k SigningKey) String() string { return EncodeBase58(k.seed[:]) }

func (k SigningKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *SigningKey) UnmarshalText(text []byte) error { return UnmarshalBase58(k, text) }

func (k SigningKey) MarshalBinary() ([]byte, error) { return append([]byte(nil), k.seed[:]...), nil }

func (k *SigningKey) UnmarshalBinary(b []byte) error { return UnmarshalRaw(k, b) }

// VerifyingKey is an Ed25519 public key. Construction rejects encodings that
// are not points on the curve.
type VerifyingKey struct {
	b [VerifyingKeySize]byte
}

// NewVerifyingKey validates b as a curve point.
func NewVerifyingKey(b [VerifyingKeySize]byte) (VerifyingKey, error) {
	var vk VerifyingKey
	if err := vk.SetBytes(b[:]); err != nil {
		return VerifyingKey{}, err
	}
	return vk, nil
}

func (k *VerifyingKey) Size() int { return VerifyingKeySize }

func (k *VerifyingKey) SetBytes(b []byte) error {
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return wrapError(KindKey, RuleInvalidPoint, "invalid verifying key", err)
	}
	copy(k.b[:], b)
	return nil
}

func (k VerifyingKey) Bytes() [VerifyingKeySize]byte { return k.b }

// IsWeak reports whether the key is a small-order point. Signatures from weak
// keys are never accepted by Verify.
func (k VerifyingKey) IsWeak() bool {
	p, err := new(edwards25519.Point).SetBytes(k.b[:])
	if err != nil {
		return true
	}
	return isSmallOrder(p)
}

// Verify checks sig over message with strict semantics: weak keys, small-order
// R components and non-canonical S scalars are all rejected.
func (k VerifyingKey) Verify(message []byte, sig Signature) error {
	if _, err := new(edwards25519.Point).SetBytes(k.b[:]); err != nil {
		return wrapError(KindKey, RuleInvalidPoint, "invalid verifying key", err)
	}
	if k.IsWeak() {
		return newError(KindSignature, RuleWeakKey, "verifying key is weak")
	}
	r, err := new(edwards25519.Point).SetBytes(sig[:32])
	if err != nil {
		return wrapError(KindSignature, RuleSignatureInvalid, "signature R is not a curve point", err)
	}
	if isSmallOrder(r) {
		return newError(KindSignature, RuleSmallOrderR, "signature R has small order")
	}
	if !ed25519.Verify(ed25519.PublicKey(k.b[:]), message, sig[:]) {
		return newError(KindSignature, RuleSignatureInvalid, "signature invalid")
	}
	return nil
}

func (k VerifyingKey) String() string { return EncodeBase58(k.b[:]) }

func (k VerifyingKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *VerifyingKey) UnmarshalText(text []byte) error { return UnmarshalBase58(k, text) }

func (k VerifyingKey) MarshalBinary() ([]byte, error) { return append([]byte(nil), k.b[:]...), nil }

func (k *VerifyingKey) UnmarshalBinary(b []byte) error { return UnmarshalRaw(k, b) }

func isSmallOrder(p *edwards25519.Point) bool {
	q := new(edwards25519.Point).MultByCofactor(p)
	return q.Equal(edwards25519.NewIdentityPoint()) == 1
}

// Signature is a 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

func (s *Signature) Size() int { return SignatureSize }

func (s *Signature) SetBytes(b []byte) error {
	copy(s[:], b)
	return nil
}

func (s Signature) String() string { return EncodeBase58(s[:]) }

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signature) UnmarshalText(text []byte) error { return UnmarshalBase58(s, text) }

func (s Signature) MarshalBinary() ([]byte, error) { return append([]byte(nil), s[:]...), nil }

func (s *Signature) UnmarshalBinary(b []byte) error { return UnmarshalRaw(s, b) }

// SignKeypair bundles a signing key with its verifying key.
type SignKeypair struct {
	Signing   SigningKey
	Verifying VerifyingKey
}

func KeypairFromSeed(seed [SigningKeySize]byte) SignKeypair {
	sk := SigningKeyFromSeed(seed)
	return SignKeypair{Signing: sk, Verifying: sk.VerifyingKey()}
}

// GenerateKeypair reads a fresh seed from r, or from crypto/rand when r is nil.
func GenerateKeypair(r io.Reader) (SignKeypair, error) {
	if r == nil {
		r = rand.Reader
	}
	var seed [SigningKeySize]byte
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return SignKeypair{}, err
	}
	return KeypairFromSeed(seed), nil
}
