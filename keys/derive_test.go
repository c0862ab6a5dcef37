package keys

import (
	"testing"

	"xdao.co/tanglemsg/ident"
)

func TestDeriveRoleSeedDeterministic(t *testing.T) {
	var root [ident.SigningKeySize]byte
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "device")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "device")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if a != b {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DeriveRoleSeed(root, "internal")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if a == c {
		t.Fatalf("expected different roles to derive different seeds")
	}
	if a == root {
		t.Fatalf("derived seed equals root seed")
	}
}

func TestDeriveRoleSeedRejectsBadRole(t *testing.T) {
	var root [ident.SigningKeySize]byte
	if _, err := DeriveRoleSeed(root, "bad role"); err == nil {
		t.Fatalf("expected error for role with a space")
	}
	if _, err := DeriveRoleSeed(root, ""); err == nil {
		t.Fatalf("expected error for empty role")
	}
}
