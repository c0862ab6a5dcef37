package msg

import (
	"bytes"
	"encoding/json"
	"io"

	"xdao.co/tanglemsg/ident"
)

// Msg is a signed unit of data in one or more tangles.
type Msg struct {
	Data     MsgData            `json:"data"`
	Metadata MsgMetadata        `json:"metadata"`
	Pubkey   ident.VerifyingKey `json:"pubkey"`
	Sig      ident.Signature    `json:"sig"`
}

// TangleView is the read side of a tangle needed to place a new message.
type TangleView interface {
	MaxDepth() uint64
	LipmaaSet(depth uint64) []MsgID
	Tips() []MsgID
}

// CreateOpts are the inputs to Create.
type CreateOpts struct {
	Data        MsgData
	Domain      MsgDomain
	Keypair     ident.SignKeypair
	Account     AccountID
	AccountTips []MsgID
	Tangles     map[MsgID]TangleView
}

// Create builds and signs a message placed at the next depth of every tangle
// in opts.Tangles. Prev links are the lipmaa set at that depth plus the
// current tips, in byte order.
func Create(opts CreateOpts) (*Msg, error) {
	if opts.Domain.IsZero() {
		return nil, newError(KindDomain, RuleDomainTooShort, "domain is required")
	}
	if !opts.Data.Valid() {
		return nil, newError(KindData, RuleDataShape, "invalid data, must be JSON object, string, or null")
	}
	dataHash, dataSize, err := opts.Data.Hash()
	if err != nil {
		return nil, err
	}

	var tips []MsgID
	if opts.AccountTips != nil {
		tips = SortIDs(append([]MsgID{}, opts.AccountTips...))
	}

	tangles := make(MsgTangles, len(opts.Tangles))
	for root, view := range opts.Tangles {
		depth := view.MaxDepth() + 1
		prev := NewIDSet(view.LipmaaSet(depth)...)
		for _, tip := range view.Tips() {
			prev.Add(tip)
		}
		tangles[root] = MsgTangle{Prev: prev.Sorted(), Depth: depth}
	}

	md := MsgMetadata{
		Account:     opts.Account,
		AccountTips: tips,
		DataHash:    &dataHash,
		DataSize:    dataSize,
		Domain:      opts.Domain,
		Tangles:     tangles,
		Version:     Version,
	}
	return seal(opts.Data, md, opts.Keypair)
}

// CreateMoot builds the signed empty root of the (account, domain) feed.
func CreateMoot(account AccountID, domain MsgDomain, kp ident.SignKeypair) (*Msg, error) {
	if domain.IsZero() {
		return nil, newError(KindDomain, RuleDomainTooShort, "domain is required")
	}
	return seal(NullData(), MootMetadata(account, domain), kp)
}

// MootID computes the id of the (account, domain) moot without signing it.
func MootID(account AccountID, domain MsgDomain) (MsgID, error) {
	return MootMetadata(account, domain).Hash()
}

func seal(data MsgData, md MsgMetadata, kp ident.SignKeypair) (*Msg, error) {
	sig, err := md.sign(kp.Signing)
	if err != nil {
		return nil, err
	}
	return &Msg{Data: data, Metadata: md, Pubkey: kp.Verifying, Sig: sig}, nil
}

// ID returns the message id: the short hash of the canonical metadata.
func (m *Msg) ID() (MsgID, error) {
	return m.Metadata.Hash()
}

// MustID is ID for messages this process built itself.
func (m *Msg) MustID() MsgID {
	id, err := m.ID()
	if err != nil {
		panic(err)
	}
	return id
}

// MootFilter narrows IsMoot to a specific account or domain. Nil fields match
// anything.
type MootFilter struct {
	Account *AccountID
	Domain  *MsgDomain
}

// IsMoot reports whether m is a feed root. With a filter, the account and
// domain must also match.
func (m *Msg) IsMoot(filter MootFilter) bool {
	md := m.Metadata
	if !md.IsEmpty() {
		return false
	}
	if filter.Account != nil && !md.Account.Equal(*filter.Account) {
		return false
	}
	if filter.Domain != nil && md.Domain != *filter.Domain {
		return false
	}
	return true
}

// VerifySignature checks the message signature against its own pubkey.
func (m *Msg) VerifySignature() error {
	return m.Metadata.VerifySignature(m.Pubkey, m.Sig)
}

// MootDetails identifies the feed a moot roots.
type MootDetails struct {
	Account AccountID
	Domain  MsgDomain
	ID      MsgID
}

// Decode parses a message and rejects unknown fields at every level of the
// envelope and metadata.
func Decode(r io.Reader) (*Msg, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var m Msg
	if err := dec.Decode(&m); err != nil {
		return nil, wrapError(KindDecode, RuleDecode, "failed to decode message", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newError(KindDecode, RuleDecode, "trailing data after message")
	}
	return &m, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(b []byte) (*Msg, error) {
	return Decode(bytes.NewReader(b))
}

// Encode returns the wire form of m.
func (m *Msg) Encode() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, wrapError(KindCanonical, RuleJSONCanon, "failed to encode message", err)
	}
	return b, nil
}
