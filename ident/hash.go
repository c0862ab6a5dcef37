package ident

import (
	"lukechampine.com/blake3"
)

// HashSize is the length of a full BLAKE3 digest.
const HashSize = 32

// Hash is a 32-byte BLAKE3 digest.
type Hash [HashSize]byte

func (h *Hash) Size() int { return HashSize }

func (h *Hash) SetBytes(b []byte) error {
	copy(h[:], b)
	return nil
}

func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

func (h Hash) String() string { return EncodeBase58(h[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error { return UnmarshalBase58(h, text) }

func (h Hash) MarshalBinary() ([]byte, error) { return h.Bytes(), nil }

func (h *Hash) UnmarshalBinary(b []byte) error { return UnmarshalRaw(h, b) }

// Hasher is a streaming BLAKE3 hasher that also counts the bytes written.
//
// It implements io.Writer so encoders can write straight into it.
type Hasher struct {
	h *blake3.Hasher
	n uint64
}

func NewHasher() *Hasher {
	return &Hasher{h: blake3.New(HashSize, nil)}
}

func (w *Hasher) Write(p []byte) (int, error) {
	n, err := w.h.Write(p)
	w.n += uint64(n)
	return n, err
}

// Finalize returns the digest of everything written so far. The hasher stays usable.
func (w *Hasher) Finalize() Hash {
	var out Hash
	copy(out[:], w.h.Sum(nil))
	return out
}

// Count returns the number of bytes written so far.
func (w *Hasher) Count() uint64 { return w.n }

// Sum hashes b in one shot.
func Sum(b []byte) Hash {
	return Hash(blake3.Sum256(b))
}
