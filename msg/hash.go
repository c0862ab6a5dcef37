package msg

import (
	"bytes"
	"sort"

	"xdao.co/tanglemsg/ident"
)

// ShortHashSize is the length of truncated message hashes.
const ShortHashSize = 16

// MsgMetadataHash is the first 16 bytes of the BLAKE3 digest of a message's
// canonical metadata. It is the message's identity.
type MsgMetadataHash [ShortHashSize]byte

// MsgID identifies a message.
type MsgID = MsgMetadataHash

// MsgDataHash is the first 16 bytes of the BLAKE3 digest of canonical data.
type MsgDataHash [ShortHashSize]byte

func MsgIDFromHash(h ident.Hash) MsgID {
	var id MsgID
	copy(id[:], h[:ShortHashSize])
	return id
}

func MsgDataHashFromHash(h ident.Hash) MsgDataHash {
	var d MsgDataHash
	copy(d[:], h[:ShortHashSize])
	return d
}

// ParseMsgID parses a base58 message id.
func ParseMsgID(s string) (MsgID, error) {
	return ident.FromBase58[MsgID](s)
}

func ParseMsgDataHash(s string) (MsgDataHash, error) {
	return ident.FromBase58[MsgDataHash](s)
}

func (h *MsgMetadataHash) Size() int { return ShortHashSize }

func (h *MsgMetadataHash) SetBytes(b []byte) error {
	copy(h[:], b)
	return nil
}

func (h MsgMetadataHash) String() string { return ident.EncodeBase58(h[:]) }

func (h MsgMetadataHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *MsgMetadataHash) UnmarshalText(text []byte) error {
	return ident.UnmarshalBase58(h, text)
}

func (h MsgMetadataHash) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), h[:]...), nil
}

func (h *MsgMetadataHash) UnmarshalBinary(b []byte) error { return ident.UnmarshalRaw(h, b) }

// Compare orders ids lexicographically by bytes.
func (h MsgMetadataHash) Compare(o MsgMetadataHash) int { return bytes.Compare(h[:], o[:]) }

func (h *MsgDataHash) Size() int { return ShortHashSize }

func (h *MsgDataHash) SetBytes(b []byte) error {
	copy(h[:], b)
	return nil
}

func (h MsgDataHash) String() string { return ident.EncodeBase58(h[:]) }

func (h MsgDataHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *MsgDataHash) UnmarshalText(text []byte) error { return ident.UnmarshalBase58(h, text) }

func (h MsgDataHash) MarshalBinary() ([]byte, error) { return append([]byte(nil), h[:]...), nil }

func (h *MsgDataHash) UnmarshalBinary(b []byte) error { return ident.UnmarshalRaw(h, b) }

func (h MsgDataHash) Compare(o MsgDataHash) int { return bytes.Compare(h[:], o[:]) }

// SortIDs sorts ids in place by byte order and returns them.
func SortIDs(ids []MsgID) []MsgID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}

// IDSet is a set of message ids. Iteration helpers return byte order.
type IDSet map[MsgID]struct{}

func NewIDSet(ids ...MsgID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id MsgID) { s[id] = struct{}{} }

func (s IDSet) Has(id MsgID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in byte order. Never nil.
func (s IDSet) Sorted() []MsgID {
	out := make([]MsgID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return SortIDs(out)
}
