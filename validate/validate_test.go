package validate

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/tangle"
)

func mustKeypair(t *testing.T, seedByte byte) ident.SignKeypair {
	t.Helper()
	var seed [ident.SigningKeySize]byte
	for i := range seed {
		seed[i] = seedByte
	}
	return ident.KeypairFromSeed(seed)
}

type view struct {
	max  uint64
	tips []msg.MsgID
}

func (v view) MaxDepth() uint64 { return v.max }

func (v view) LipmaaSet(uint64) []msg.MsgID { return nil }

func (v view) Tips() []msg.MsgID { return v.tips }

type feedFixture struct {
	t       *testing.T
	kp      ident.SignKeypair
	keys    []ident.VerifyingKey
	account msg.AccountID
	domain  msg.MsgDomain
	rootID  msg.MsgID
	root    *msg.Msg
	tangle  *tangle.Tangle
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	kp := mustKeypair(t, 1)
	account := msg.AccountTangle(msg.MsgIDFromHash(ident.Sum([]byte("account"))))
	domain := msg.MustDomain("post")
	moot, err := msg.CreateMoot(account, domain, kp)
	if err != nil {
		t.Fatalf("CreateMoot: %v", err)
	}
	logger, _ := test.NewNullLogger()
	f := &feedFixture{
		t: t, kp: kp, keys: []ident.VerifyingKey{kp.Verifying},
		account: account, domain: domain, rootID: moot.MustID(), root: moot,
		tangle: tangle.New(moot.MustID(), tangle.WithLogger(logger)),
	}
	if err := Validate(moot, f.rootID, f.tangle, f.keys, f.rootID); err != nil {
		t.Fatalf("Validate(moot): %v", err)
	}
	f.tangle.Add(f.rootID, moot)
	return f
}

type msgOpt func(*msg.CreateOpts)

func (f *feedFixture) build(text string, opts ...msgOpt) *msg.Msg {
	f.t.Helper()
	o := msg.CreateOpts{
		Data:    msg.StringData(text),
		Domain:  f.domain,
		Keypair: f.kp,
		Account: f.account,
		Tangles: map[msg.MsgID]msg.TangleView{f.rootID: f.tangle},
	}
	for _, opt := range opts {
		opt(&o)
	}
	m, err := msg.Create(o)
	if err != nil {
		f.t.Fatalf("Create: %v", err)
	}
	return m
}

func (f *feedFixture) validate(m *msg.Msg) error {
	return Validate(m, m.MustID(), f.tangle, f.keys, f.rootID)
}

func (f *feedFixture) accept(text string) msg.MsgID {
	f.t.Helper()
	m := f.build(text)
	if err := f.validate(m); err != nil {
		f.t.Fatalf("Validate(%q): %v", text, err)
	}
	f.tangle.Add(m.MustID(), m)
	return m.MustID()
}

func wantRule(t *testing.T, err error, rule string) {
	t.Helper()
	if RuleID(err) != rule {
		t.Fatalf("err = %v (rule %q), want rule %q", err, RuleID(err), rule)
	}
}

func TestAcceptsFeedAndKeepsDepthInvariant(t *testing.T) {
	f := newFeedFixture(t)
	var ids []msg.MsgID
	for _, text := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		ids = append(ids, f.accept(text))
	}
	for _, id := range ids {
		d, _ := f.tangle.Depth(id)
		var maxPrev uint64
		for _, p := range f.tangle.Prev(id) {
			pd, ok := f.tangle.Depth(p)
			if !ok {
				t.Fatalf("prev %s unknown", p)
			}
			if pd > maxPrev {
				maxPrev = pd
			}
		}
		if d != maxPrev+1 {
			t.Fatalf("depth %d, max prev depth %d", d, maxPrev)
		}
	}
}

func TestMootShortCircuitsInEmptyTangle(t *testing.T) {
	kp := mustKeypair(t, 2)
	moot, err := msg.CreateMoot(msg.AccountAny(), msg.MustDomain("post"), kp)
	if err != nil {
		t.Fatalf("CreateMoot: %v", err)
	}
	logger, _ := test.NewNullLogger()
	tg := tangle.New(moot.MustID(), tangle.WithLogger(logger))
	if err := Validate(moot, moot.MustID(), tg, nil, moot.MustID()); err != nil {
		t.Fatalf("Validate(moot): %v", err)
	}
	if tg.Size() != 0 {
		t.Fatalf("validation mutated the tangle")
	}
}

func TestEmptyTangleRequiresRootID(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x")
	logger, _ := test.NewNullLogger()
	empty := tangle.New(f.rootID, tangle.WithLogger(logger))
	wantRule(t, Validate(m, m.MustID(), empty, f.keys, f.rootID), RuleEmptyTangleIDMismatch)
}

func TestRejectsVersion(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x")
	m.Metadata.Version = 4
	err := f.validate(m)
	wantRule(t, err, RuleVersion)
	if e, ok := err.(*Error); !ok || e.Version != 4 {
		t.Fatalf("error does not carry the version: %#v", err)
	}
}

func TestRejectsDataShape(t *testing.T) {
	f := newFeedFixture(t)
	wire, err := f.build("x").Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m, err := msg.DecodeBytes([]byte(strings.Replace(string(wire), `"data":"x"`, `"data":[1]`, 1)))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	wantRule(t, f.validate(m), RuleDataMustBeNullStringOrObject)
}

func TestRejectsDataMismatch(t *testing.T) {
	f := newFeedFixture(t)

	m := f.build("x")
	m.Data = msg.StringData("y")
	wantRule(t, f.validate(m), RuleDataHashMismatch)

	m = f.build("x")
	m.Metadata.DataSize++
	wantRule(t, f.validate(m), RuleDataSizeMismatch)
}

func TestRejectsTamperedMetadata(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x")
	m.Metadata.AccountTips = []msg.MsgID{}
	err := f.validate(m)
	wantRule(t, err, RuleSignature)
	if ident.RuleID(err) != ident.RuleSignatureInvalid {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestRejectsForeignKey(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x", func(o *msg.CreateOpts) { o.Keypair = mustKeypair(t, 9) })
	wantRule(t, f.validate(m), RuleVerifyingKeyNotFromAccount)
}

func TestRejectsSelfAccountInFeed(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x", func(o *msg.CreateOpts) { o.Account = msg.AccountSelf() })
	wantRule(t, f.validate(m), RuleAccountCannotBeSelfInFeed)
}

func TestRejectsRootWithSelfTangle(t *testing.T) {
	kp := mustKeypair(t, 3)
	claimed := msg.MsgIDFromHash(ident.Sum([]byte("claimed root")))
	m, err := msg.Create(msg.CreateOpts{
		Data:    msg.StringData("x"),
		Domain:  msg.MustDomain("post"),
		Keypair: kp,
		Account: msg.AccountAny(),
		Tangles: map[msg.MsgID]msg.TangleView{claimed: view{}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	logger, _ := test.NewNullLogger()
	tg := tangle.New(claimed, tangle.WithLogger(logger))
	wantRule(t, Validate(m, claimed, tg, nil, claimed), RuleRootHasSelfTangle)
}

func TestRejectsMissingTangleEntry(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x", func(o *msg.CreateOpts) { o.Tangles = nil })
	err := f.validate(m)
	wantRule(t, err, RuleMissingTangleEntry)
	if e := err.(*Error); e.Root == nil || *e.Root != f.rootID {
		t.Fatalf("error does not name the root")
	}
}

func TestRejectsForeignDomainAndAccount(t *testing.T) {
	f := newFeedFixture(t)
	m := f.build("x", func(o *msg.CreateOpts) { o.Domain = msg.MustDomain("about") })
	wantRule(t, f.validate(m), RuleDomainMustBeFeedDomain)

	m = f.build("x", func(o *msg.CreateOpts) { o.Account = msg.AccountAny() })
	wantRule(t, f.validate(m), RuleAccountMustBeFeedAccount)
}

func TestRejectsAllPrevUnknown(t *testing.T) {
	f := newFeedFixture(t)
	before := f.tangle.Clone()
	f.accept("1")
	m := f.build("2")
	if err := Validate(m, m.MustID(), before, f.keys, f.rootID); RuleID(err) != RuleAllPrevUnknown {
		t.Fatalf("err = %v, want %s", err, RuleAllPrevUnknown)
	}
}

func TestRejectsDepthGap(t *testing.T) {
	f := newFeedFixture(t)
	m1 := f.accept("1")
	// Claims depth 3 while its only prev is at depth 1.
	m := f.build("x", func(o *msg.CreateOpts) {
		o.Tangles = map[msg.MsgID]msg.TangleView{f.rootID: view{max: 2, tips: []msg.MsgID{m1}}}
	})
	wantRule(t, f.validate(m), RuleDepthMustBeMaxPlusOne)
}

func TestRejectsPrevNotLower(t *testing.T) {
	f := newFeedFixture(t)
	m1 := f.accept("1")
	m := f.build("x", func(o *msg.CreateOpts) {
		o.Tangles = map[msg.MsgID]msg.TangleView{f.rootID: view{max: 0, tips: []msg.MsgID{m1}}}
	})
	err := f.validate(m)
	wantRule(t, err, RulePrevDepthNotLower)
	if e := err.(*Error); e.Prev == nil || *e.Prev != m1 {
		t.Fatalf("error does not name the prev")
	}
}

// With an unknown prev present, the gap to the known prevs is not checked.
func TestDepthGapNotEnforcedWithUnknownPrev(t *testing.T) {
	f := newFeedFixture(t)
	m1 := f.accept("1")
	unknown := msg.MsgIDFromHash(ident.Sum([]byte("elsewhere")))
	m := f.build("x", func(o *msg.CreateOpts) {
		o.Tangles = map[msg.MsgID]msg.TangleView{f.rootID: view{max: 4, tips: []msg.MsgID{m1, unknown}}}
	})
	if err := f.validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFailedValidationLeavesTangleUntouched(t *testing.T) {
	f := newFeedFixture(t)
	f.accept("1")
	size, tips := f.tangle.Size(), f.tangle.Tips()
	m := f.build("x")
	m.Metadata.Version = 2
	if err := f.validate(m); err == nil {
		t.Fatalf("expected failure")
	}
	if f.tangle.Size() != size || len(f.tangle.Tips()) != len(tips) {
		t.Fatalf("tangle changed")
	}
}

func TestAccountTangleRules(t *testing.T) {
	kp := mustKeypair(t, 4)
	data, err := msg.NewMsgData(map[string]any{"action": "add"})
	if err != nil {
		t.Fatalf("NewMsgData: %v", err)
	}
	root, err := msg.Create(msg.CreateOpts{Data: data, Domain: msg.MustDomain("account"), Keypair: kp, Account: msg.AccountSelf()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rootID := root.MustID()
	logger, _ := test.NewNullLogger()
	tg := tangle.New(rootID, tangle.WithLogger(logger))
	keys := []ident.VerifyingKey{kp.Verifying}
	if err := Validate(root, rootID, tg, keys, rootID); err != nil {
		t.Fatalf("Validate(root): %v", err)
	}
	tg.Add(rootID, root)

	build := func(mut func(*msg.CreateOpts)) *msg.Msg {
		o := msg.CreateOpts{
			Data: data, Domain: msg.MustDomain("account"), Keypair: kp, Account: msg.AccountSelf(),
			Tangles: map[msg.MsgID]msg.TangleView{rootID: tg},
		}
		if mut != nil {
			mut(&o)
		}
		m, err := msg.Create(o)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return m
	}

	ok := build(nil)
	if err := Validate(ok, ok.MustID(), tg, keys, rootID); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	m := build(func(o *msg.CreateOpts) { o.Account = msg.AccountAny() })
	wantRule(t, Validate(m, m.MustID(), tg, keys, rootID), RuleAccountMustBeSelfInAccount)

	m = build(func(o *msg.CreateOpts) { o.AccountTips = []msg.MsgID{rootID} })
	wantRule(t, Validate(m, m.MustID(), tg, keys, rootID), RuleAccountTipsInAccountTangle)

	// Key authority inside an account is decided by replay, not here.
	m = build(func(o *msg.CreateOpts) { o.Keypair = mustKeypair(t, 5) })
	if err := Validate(m, m.MustID(), tg, keys, rootID); err != nil {
		t.Fatalf("Validate(foreign signer): %v", err)
	}
	if err := Validate(ok, ok.MustID(), tg, nil, rootID); err != nil {
		t.Fatalf("Validate(no keys): %v", err)
	}
}

func TestNilApplyRule(t *testing.T) {
	err := ValidateRules(&Check{}, []Rule{{ID: "x"}})
	if !IsKind(err, KindInternal) {
		t.Fatalf("err = %v", err)
	}
}
