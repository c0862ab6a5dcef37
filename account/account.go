// Package account builds and replays account tangles.
//
// An account is a tangle whose root is authored by "self". Its messages add
// and remove keys; the keys left after replaying the tangle in topological
// order are the ones allowed to sign for the account.
package account

import (
	"io"
	"sort"

	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/tangle"
)

// DefaultDomain is the domain of account tangles created by this package.
var DefaultDomain = msg.MustDomain("account")

// Create builds the root of a new account owned by kp. The returned message's
// id is the account id. nonceSource defaults to crypto/rand.
func Create(kp ident.SignKeypair, domain msg.MsgDomain, nonceSource io.Reader) (*msg.Msg, error) {
	nonce, err := ident.NewNonce(nonceSource)
	if err != nil {
		return nil, wrapError(KindData, RuleNotAccountData, "failed to create nonce", err)
	}
	d := Data{
		Action: ActionAdd,
		Add: &Add{
			Key:    SigningKeyEntry(PurposeShsAndExternalSignature, kp.Verifying),
			Nonce:  &nonce,
			Powers: append([]Power(nil), AllPowers...),
		},
	}
	data, err := d.toMsgData()
	if err != nil {
		return nil, err
	}
	return msg.Create(msg.CreateOpts{
		Data:    data,
		Domain:  domain,
		Keypair: kp,
		Account: msg.AccountSelf(),
	})
}

// AddKeyOpts describes a key addition.
type AddKeyOpts struct {
	// Signer is an existing account key holding the add power.
	Signer ident.SignKeypair
	Key    Key
	// Consent is the added key's signature over ConsentPayload. Required for
	// signing keys.
	Consent *ident.Signature
	Powers  []Power
}

// AddKey builds an account-tangle message granting opts.Key.
func AddKey(account *tangle.Tangle, opts AddKeyOpts) (*msg.Msg, error) {
	if err := opts.Key.validate(); err != nil {
		return nil, err
	}
	if opts.Key.Signs() && opts.Consent == nil {
		return nil, newError(KindConsent, RuleConsentMissing, "adding a signing key requires its consent")
	}
	return build(account, opts.Signer, Data{
		Action: ActionAdd,
		Add:    &Add{Key: opts.Key, Consent: opts.Consent, Powers: opts.Powers},
	})
}

// DelKey builds an account-tangle message revoking key.
func DelKey(account *tangle.Tangle, signer ident.SignKeypair, key Key) (*msg.Msg, error) {
	return build(account, signer, Data{Action: ActionDel, Del: &Del{Key: key}})
}

func build(account *tangle.Tangle, signer ident.SignKeypair, d Data) (*msg.Msg, error) {
	root, err := accountRoot(account)
	if err != nil {
		return nil, err
	}
	data, err := d.toMsgData()
	if err != nil {
		return nil, err
	}
	return msg.Create(msg.CreateOpts{
		Data:    data,
		Domain:  root.Metadata.Domain,
		Keypair: signer,
		Account: msg.AccountSelf(),
		Tangles: map[msg.MsgID]msg.TangleView{account.ID(): account},
	})
}

func accountRoot(t *tangle.Tangle) (*msg.Msg, error) {
	typ, err := t.Type()
	if err != nil {
		return nil, wrapError(KindTangle, RuleNotAccountTangle, "account tangle has no root", err)
	}
	if typ != tangle.TypeAccount {
		return nil, newError(KindTangle, RuleNotAccountTangle, "tangle "+t.ID().String()+" is a "+typ.String()+" tangle")
	}
	return t.Root()
}

// Source looks up messages by id.
type Source interface {
	Get(id msg.MsgID) (*msg.Msg, error)
}

type member struct {
	key    Key
	powers map[Power]bool
}

// State is the key set of an account after replay.
type State struct {
	ID       msg.MsgID
	members  map[string]member
	Rejected []Rejection
}

// Rejection records an account message that did not change the key set.
type Rejection struct {
	ID  msg.MsgID
	Err error
}

// Replay applies the messages of an account tangle in topological order.
// Messages whose signer lacks the needed power, or whose consent does not
// verify, are recorded in State.Rejected and skipped.
func Replay(t *tangle.Tangle, src Source) (*State, error) {
	root, err := accountRoot(t)
	if err != nil {
		return nil, err
	}
	s := &State{ID: t.ID(), members: make(map[string]member)}
	if err := s.applyRoot(root); err != nil {
		return nil, err
	}
	for _, id := range t.TopoSort() {
		if id == t.ID() {
			continue
		}
		m, err := src.Get(id)
		if err != nil {
			return nil, wrapError(KindTangle, RuleMissingMsg, "account message "+id.String()+" unavailable", err)
		}
		if err := s.apply(m); err != nil {
			s.Rejected = append(s.Rejected, Rejection{ID: id, Err: err})
		}
	}
	return s, nil
}

func (s *State) applyRoot(root *msg.Msg) error {
	d, err := ParseData(root)
	if err != nil {
		return err
	}
	if d.Add == nil {
		return newError(KindData, RuleUnknownAction, "account root must add a key")
	}
	s.grant(d.Add.Key, d.Add.Powers)
	return nil
}

func (s *State) apply(m *msg.Msg) error {
	d, err := ParseData(m)
	if err != nil {
		return err
	}
	signer, ok := s.members[m.Pubkey.String()]
	switch d.Action {
	case ActionAdd:
		if !ok || !signer.powers[PowerAdd] {
			return newError(KindPower, RuleMissingPower, "signer "+m.Pubkey.String()+" cannot add keys")
		}
		if d.Add.Key.Signs() {
			if d.Add.Consent == nil {
				return newError(KindConsent, RuleConsentMissing, "added key gave no consent")
			}
			vk, err := d.Add.Key.VerifyingKey()
			if err != nil {
				return err
			}
			if err := vk.Verify(ConsentPayload(s.ID), *d.Add.Consent); err != nil {
				return wrapError(KindConsent, RuleConsentInvalid, "consent does not verify", err)
			}
		}
		s.grant(d.Add.Key, d.Add.Powers)
	case ActionDel:
		if !ok || !signer.powers[PowerDel] {
			return newError(KindPower, RuleMissingPower, "signer "+m.Pubkey.String()+" cannot delete keys")
		}
		delete(s.members, d.Del.Key.Bytes)
	}
	return nil
}

func (s *State) grant(k Key, powers []Power) {
	set := make(map[Power]bool, len(powers))
	for _, p := range powers {
		set[p] = true
	}
	s.members[k.Bytes] = member{key: k, powers: set}
}

// Keys returns the current key entries ordered by their bytes.
func (s *State) Keys() []Key {
	out := make([]Key, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m.key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bytes < out[j].Bytes })
	return out
}

// HasPower reports whether the signing key vk holds p.
func (s *State) HasPower(vk ident.VerifyingKey, p Power) bool {
	m, ok := s.members[vk.String()]
	return ok && m.powers[p]
}

// VerifyingKeys returns the signing keys of the account.
func (s *State) VerifyingKeys() []ident.VerifyingKey {
	var out []ident.VerifyingKey
	for _, k := range s.Keys() {
		if !k.Signs() {
			continue
		}
		if vk, err := k.VerifyingKey(); err == nil {
			out = append(out, vk)
		}
	}
	return out
}

// AuthorizedKeys replays the account tangle and returns its signing keys.
func AuthorizedKeys(t *tangle.Tangle, src Source) ([]ident.VerifyingKey, error) {
	s, err := Replay(t, src)
	if err != nil {
		return nil, err
	}
	return s.VerifyingKeys(), nil
}
