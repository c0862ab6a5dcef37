package account

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/tangle"
	"xdao.co/tanglemsg/validate"
)

func mustKeypair(t *testing.T, seedByte byte) ident.SignKeypair {
	t.Helper()
	var seed [ident.SigningKeySize]byte
	for i := range seed {
		seed[i] = seedByte
	}
	return ident.KeypairFromSeed(seed)
}

type mapSource map[msg.MsgID]*msg.Msg

func (s mapSource) Get(id msg.MsgID) (*msg.Msg, error) {
	m, ok := s[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

type fixture struct {
	t      *testing.T
	owner  ident.SignKeypair
	tangle *tangle.Tangle
	src    mapSource
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner := mustKeypair(t, 1)
	root, err := Create(owner, DefaultDomain, bytes.NewReader(bytes.Repeat([]byte{7}, ident.NonceSize)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	logger, _ := test.NewNullLogger()
	id := root.MustID()
	tg := tangle.New(id, tangle.WithLogger(logger))
	if err := validate.Validate(root, id, tg, nil, id); err != nil {
		t.Fatalf("Validate(root): %v", err)
	}
	tg.Add(id, root)
	return &fixture{t: t, owner: owner, tangle: tg, src: mapSource{id: root}}
}

func (f *fixture) keys() []ident.VerifyingKey {
	f.t.Helper()
	keys, err := AuthorizedKeys(f.tangle, f.src)
	if err != nil {
		f.t.Fatalf("AuthorizedKeys: %v", err)
	}
	return keys
}

func (f *fixture) admit(m *msg.Msg) {
	f.t.Helper()
	if err := validate.Validate(m, m.MustID(), f.tangle, f.keys(), f.tangle.ID()); err != nil {
		f.t.Fatalf("Validate: %v", err)
	}
	f.tangle.Add(m.MustID(), m)
	f.src[m.MustID()] = m
}

func (f *fixture) addKey(signer, added ident.SignKeypair, powers ...Power) *msg.Msg {
	f.t.Helper()
	consent := Consent(added.Signing, f.tangle.ID())
	m, err := AddKey(f.tangle, AddKeyOpts{
		Signer:  signer,
		Key:     SigningKeyEntry(PurposeShsAndExternalSignature, added.Verifying),
		Consent: &consent,
		Powers:  powers,
	})
	if err != nil {
		f.t.Fatalf("AddKey: %v", err)
	}
	return m
}

func TestCreateGrantsOwnerAllPowers(t *testing.T) {
	f := newFixture(t)
	state, err := Replay(f.tangle, f.src)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	keys := state.VerifyingKeys()
	if len(keys) != 1 || keys[0].Bytes() != f.owner.Verifying.Bytes() {
		t.Fatalf("keys = %v", keys)
	}
	for _, p := range AllPowers {
		if !state.HasPower(f.owner.Verifying, p) {
			t.Fatalf("owner lacks %s", p)
		}
	}
	if typ, _ := f.tangle.Type(); typ != tangle.TypeAccount {
		t.Fatalf("type = %v", typ)
	}
}

func TestAddAndDelKey(t *testing.T) {
	f := newFixture(t)
	device := mustKeypair(t, 2)
	f.admit(f.addKey(f.owner, device))
	if got := f.keys(); len(got) != 2 {
		t.Fatalf("keys after add = %d, want 2", len(got))
	}

	// The device has no add power: its addition is recorded as rejected.
	third := mustKeypair(t, 3)
	f.admit(f.addKey(device, third))
	state, err := Replay(f.tangle, f.src)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(state.Rejected) != 1 || RuleID(state.Rejected[0].Err) != RuleMissingPower {
		t.Fatalf("rejected = %+v", state.Rejected)
	}
	if len(state.VerifyingKeys()) != 2 {
		t.Fatalf("third key was granted")
	}

	del, err := DelKey(f.tangle, f.owner, SigningKeyEntry(PurposeShsAndExternalSignature, device.Verifying))
	if err != nil {
		t.Fatalf("DelKey: %v", err)
	}
	f.admit(del)
	if got := f.keys(); len(got) != 1 || got[0].Bytes() != f.owner.Verifying.Bytes() {
		t.Fatalf("keys after del = %v", got)
	}
}

func TestConsentMustMatchAccount(t *testing.T) {
	f := newFixture(t)
	device := mustKeypair(t, 2)
	wrong := Consent(device.Signing, msg.MsgIDFromHash(ident.Sum([]byte("other account"))))
	m, err := AddKey(f.tangle, AddKeyOpts{
		Signer:  f.owner,
		Key:     SigningKeyEntry(PurposeInternalSignature, device.Verifying),
		Consent: &wrong,
	})
	if err != nil {
		t.Fatalf("AddKey: %v", err)
	}
	f.admit(m)
	state, err := Replay(f.tangle, f.src)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(state.Rejected) != 1 || RuleID(state.Rejected[0].Err) != RuleConsentInvalid {
		t.Fatalf("rejected = %+v", state.Rejected)
	}
}

func TestAddKeyRequiresConsent(t *testing.T) {
	f := newFixture(t)
	_, err := AddKey(f.tangle, AddKeyOpts{
		Signer: f.owner,
		Key:    SigningKeyEntry(PurposeShsAndExternalSignature, mustKeypair(t, 2).Verifying),
	})
	if RuleID(err) != RuleConsentMissing {
		t.Fatalf("err = %v", err)
	}
}

func TestAddKeyRejectsWrongAlgorithm(t *testing.T) {
	f := newFixture(t)
	_, err := AddKey(f.tangle, AddKeyOpts{
		Signer: f.owner,
		Key:    Key{Purpose: PurposeExternalEncryption, Algorithm: AlgorithmEd25519, Bytes: "x"},
	})
	if RuleID(err) != RuleKeyAlgorithm {
		t.Fatalf("err = %v", err)
	}
}

func TestAddKeyOnFeedTangle(t *testing.T) {
	owner := mustKeypair(t, 1)
	moot, err := msg.CreateMoot(msg.AccountAny(), msg.MustDomain("post"), owner)
	if err != nil {
		t.Fatalf("CreateMoot: %v", err)
	}
	logger, _ := test.NewNullLogger()
	tg := tangle.New(moot.MustID(), tangle.WithLogger(logger))
	tg.Add(moot.MustID(), moot)
	if _, err := DelKey(tg, owner, SigningKeyEntry(PurposeShsAndExternalSignature, owner.Verifying)); RuleID(err) != RuleNotAccountTangle {
		t.Fatalf("err = %v", err)
	}
}

func TestParseDataRejectsUnknownAction(t *testing.T) {
	owner := mustKeypair(t, 1)
	data, err := msg.NewMsgData(map[string]any{"action": "rename"})
	if err != nil {
		t.Fatalf("NewMsgData: %v", err)
	}
	m, err := msg.Create(msg.CreateOpts{Data: data, Domain: DefaultDomain, Keypair: owner, Account: msg.AccountSelf()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := ParseData(m); RuleID(err) != RuleUnknownAction {
		t.Fatalf("err = %v", err)
	}
}
