package ident

import (
	"crypto/rand"
	"io"
)

const NonceSize = 32

// Nonce is 32 bytes of randomness, used to make account roots unique.
type Nonce [NonceSize]byte

// NewNonce reads a nonce from r, or from crypto/rand when r is nil.
func NewNonce(r io.Reader) (Nonce, error) {
	if r == nil {
		r = rand.Reader
	}
	var n Nonce
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return Nonce{}, err
	}
	return n, nil
}

func (n *Nonce) Size() int { return NonceSize }

func (n *Nonce) SetBytes(b []byte) error {
	copy(n[:], b)
	return nil
}

func (n Nonce) String() string { return EncodeBase58(n[:]) }

func (n Nonce) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Nonce) UnmarshalText(text []byte) error { return UnmarshalBase58(n, text) }

func (n Nonce) MarshalBinary() ([]byte, error) { return append([]byte(nil), n[:]...), nil }

func (n *Nonce) UnmarshalBinary(b []byte) error { return UnmarshalRaw(n, b) }
