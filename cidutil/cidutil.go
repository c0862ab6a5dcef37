// Package cidutil maps message ids to content identifiers.
//
// A MsgID is a BLAKE3 digest truncated to 16 bytes; its CID is CIDv1 with the
// raw multicodec and a blake3 multihash of length 16.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/tanglemsg/msg"
)

// FromMsgID returns the CIDv1 (raw + blake3/16) for id.
func FromMsgID(id msg.MsgID) (cid.Cid, error) {
	mh, err := multihash.Encode(id[:], multihash.BLAKE3)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// String returns the CID string for id, or "" if it cannot be encoded.
func String(id msg.MsgID) string {
	c, err := FromMsgID(id)
	if err != nil {
		return ""
	}
	return c.String()
}

// ToMsgID recovers the MsgID carried by c.
func ToMsgID(c cid.Cid) (msg.MsgID, error) {
	if c.Type() != cid.Raw {
		return msg.MsgID{}, fmt.Errorf("cid codec 0x%x is not raw", c.Type())
	}
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return msg.MsgID{}, err
	}
	if dec.Code != multihash.BLAKE3 {
		return msg.MsgID{}, fmt.Errorf("cid multihash 0x%x is not blake3", dec.Code)
	}
	if len(dec.Digest) != msg.ShortHashSize {
		return msg.MsgID{}, fmt.Errorf("cid digest is %d bytes, want %d", len(dec.Digest), msg.ShortHashSize)
	}
	var id msg.MsgID
	copy(id[:], dec.Digest)
	return id, nil
}

// Parse decodes a CID string into a MsgID.
func Parse(s string) (msg.MsgID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return msg.MsgID{}, err
	}
	return ToMsgID(c)
}
