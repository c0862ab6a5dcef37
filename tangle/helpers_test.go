package tangle

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
)

func mustKeypair(t *testing.T, seedByte byte) ident.SignKeypair {
	t.Helper()
	var seed [ident.SigningKeySize]byte
	for i := range seed {
		seed[i] = seedByte
	}
	return ident.KeypairFromSeed(seed)
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

type feed struct {
	t       *testing.T
	kp      ident.SignKeypair
	account msg.AccountID
	domain  msg.MsgDomain
	tangle  *Tangle
	rootID  msg.MsgID
}

func newFeed(t *testing.T) *feed {
	t.Helper()
	kp := mustKeypair(t, 1)
	account := msg.AccountTangle(msg.MsgIDFromHash(ident.Sum([]byte("account"))))
	domain := msg.MustDomain("post")
	moot, err := msg.CreateMoot(account, domain, kp)
	if err != nil {
		t.Fatalf("CreateMoot: %v", err)
	}
	id := moot.MustID()
	tg := New(id, WithLogger(quietLogger()))
	tg.Add(id, moot)
	return &feed{t: t, kp: kp, account: account, domain: domain, tangle: tg, rootID: id}
}

// next builds a message on top of the current tangle state without adding it.
func (f *feed) next(text string) (msg.MsgID, *msg.Msg) {
	f.t.Helper()
	m, err := msg.Create(msg.CreateOpts{
		Data:    msg.StringData(text),
		Domain:  f.domain,
		Keypair: f.kp,
		Account: f.account,
		Tangles: map[msg.MsgID]msg.TangleView{f.rootID: f.tangle},
	})
	if err != nil {
		f.t.Fatalf("Create: %v", err)
	}
	return m.MustID(), m
}

func (f *feed) append(text string) msg.MsgID {
	f.t.Helper()
	id, m := f.next(text)
	f.tangle.Add(id, m)
	return id
}

func idsEqual(a, b []msg.MsgID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
