// Package testkit holds the conformance suite every storage.Store must pass.
package testkit

import (
	"testing"

	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/storage"
)

// NewStore constructs a fresh, empty Store for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

// Message returns a deterministic signed moot for seedByte.
func Message(t *testing.T, seedByte byte) *msg.Msg {
	t.Helper()
	var seed [ident.SigningKeySize]byte
	for i := range seed {
		seed[i] = seedByte
	}
	m, err := msg.CreateMoot(msg.AccountAny(), msg.MustDomain("testkit"), ident.KeypairFromSeed(seed))
	if err != nil {
		t.Fatalf("CreateMoot: %v", err)
	}
	return m
}

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := Message(t, 1)

		id, err := s.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if id != want.MustID() {
			t.Fatalf("Put id mismatch: got %s want %s", id, want.MustID())
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.MustID() != id {
			t.Fatalf("Get returned a message with a different id")
		}
		if got.Sig != want.Sig {
			t.Fatalf("Get returned a different signature")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		m := Message(t, 2)

		id1, err := s.Put(m)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := s.Put(m)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		m := Message(t, 3)
		id := m.MustID()

		if s.Has(id) {
			t.Fatalf("Has returned true for missing id")
		}
		if _, err := s.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
		if _, err := s.Put(m); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectConflictingContent", func(t *testing.T) {
		s := newStore(t)
		// Same metadata (and so the same id) signed by a different key.
		a, b := Message(t, 4), Message(t, 5)
		if a.MustID() != b.MustID() {
			t.Fatalf("fixture: moots should share an id")
		}
		if _, err := s.Put(a); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := s.Put(b); err != storage.ErrImmutable {
			t.Fatalf("Put conflicting: got err=%v want ErrImmutable", err)
		}
	})
}
