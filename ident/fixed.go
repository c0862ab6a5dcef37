package ident

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// FixedBytes is satisfied by pointers to fixed-length identifiers.
//
// Size reports the exact byte length. SetBytes is only ever called with a slice
// of that length; it may still reject malformed key material.
type FixedBytes[T any] interface {
	*T
	Size() int
	SetBytes(b []byte) error
}

// EncodeBase58 renders raw bytes with the Bitcoin base58 alphabet.
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBase58 decodes s and requires exactly size bytes.
func DecodeBase58(s string, size int) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, wrapError(KindDecode, RuleDecodeBase58, "failed to decode base58", err)
	}
	if len(b) != size {
		return nil, &Error{
			Kind:    KindDecode,
			RuleID:  RuleSize,
			Message: fmt.Sprintf("incorrect size: %d (want %d)", len(b), size),
			Size:    len(b),
		}
	}
	return b, nil
}

// FromBase58 parses a base58 string into a fixed-length identifier.
func FromBase58[T any, P FixedBytes[T]](s string) (T, error) {
	var out T
	if err := UnmarshalBase58[T, P](&out, []byte(s)); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// FromBytes builds a fixed-length identifier from raw bytes of the exact size.
func FromBytes[T any, P FixedBytes[T]](b []byte) (T, error) {
	var out T
	if err := UnmarshalRaw[T, P](&out, b); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// UnmarshalBase58 is the shared body of every UnmarshalText implementation.
func UnmarshalBase58[T any, P FixedBytes[T]](dst P, text []byte) error {
	b, err := DecodeBase58(string(text), dst.Size())
	if err != nil {
		return err
	}
	return dst.SetBytes(b)
}

// UnmarshalRaw is the shared body of every UnmarshalBinary implementation.
func UnmarshalRaw[T any, P FixedBytes[T]](dst P, b []byte) error {
	if len(b) != dst.Size() {
		return &Error{
			Kind:    KindDecode,
			RuleID:  RuleSize,
			Message: fmt.Sprintf("incorrect size: %d (want %d)", len(b), dst.Size()),
			Size:    len(b),
		}
	}
	return dst.SetBytes(b)
}
