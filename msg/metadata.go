package msg

import (
	"encoding/json"

	"xdao.co/tanglemsg/ident"
)

// Version is the only metadata version this package produces or accepts.
const Version uint8 = 3

var signableTag = []byte(":msg-v3:")

// MsgTangle is a message's claimed placement in one tangle.
type MsgTangle struct {
	Prev  []MsgID `json:"prev"`
	Depth uint64  `json:"depth"`
}

// MsgTangles maps tangle root ids to placements. Nil encodes as {}.
type MsgTangles map[MsgID]MsgTangle

func (t MsgTangles) MarshalJSON() ([]byte, error) {
	m := map[MsgID]MsgTangle(t)
	if m == nil {
		m = map[MsgID]MsgTangle{}
	}
	return json.Marshal(m)
}

// MsgMetadata is what gets hashed into a MsgID and signed.
type MsgMetadata struct {
	Account     AccountID    `json:"account"`
	AccountTips []MsgID      `json:"accountTips"`
	DataHash    *MsgDataHash `json:"dataHash"`
	DataSize    uint64       `json:"dataSize"`
	Domain      MsgDomain    `json:"domain"`
	Tangles     MsgTangles   `json:"tangles"`
	Version     uint8        `json:"v"`
}

// MootMetadata is the fixed empty metadata of the feed root for account and
// domain.
func MootMetadata(account AccountID, domain MsgDomain) MsgMetadata {
	return MsgMetadata{
		Account: account,
		Domain:  domain,
		Tangles: MsgTangles{},
		Version: Version,
	}
}

// Canonical returns the RFC 8785 encoding of the metadata.
func (m MsgMetadata) Canonical() ([]byte, error) {
	return CanonicalJSON(m)
}

// Hash returns the MsgID these metadata produce.
func (m MsgMetadata) Hash() (MsgMetadataHash, error) {
	canon, err := m.Canonical()
	if err != nil {
		return MsgMetadataHash{}, err
	}
	return MsgIDFromHash(ident.Sum(canon)), nil
}

// Signable returns the bytes covered by a message signature.
func (m MsgMetadata) Signable() ([]byte, error) {
	canon, err := m.Canonical()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(signableTag)+len(canon))
	out = append(out, signableTag...)
	return append(out, canon...), nil
}

func (m MsgMetadata) sign(key ident.SigningKey) (ident.Signature, error) {
	signable, err := m.Signable()
	if err != nil {
		return ident.Signature{}, err
	}
	return key.Sign(signable), nil
}

// VerifySignature checks sig over the signable bytes with key.
func (m MsgMetadata) VerifySignature(key ident.VerifyingKey, sig ident.Signature) error {
	signable, err := m.Signable()
	if err != nil {
		return err
	}
	if err := key.Verify(signable, sig); err != nil {
		return wrapError(KindSignature, RuleSignature, "failed to verify signature", err)
	}
	return nil
}

// IsEmpty reports whether the metadata has the moot shape: no data, no
// account tips, no tangles.
func (m MsgMetadata) IsEmpty() bool {
	return m.DataHash == nil && m.DataSize == 0 && m.AccountTips == nil && len(m.Tangles) == 0
}
