package keys

import (
	"os"
	"strings"
	"testing"

	"xdao.co/tanglemsg/ident"
)

func TestKeyStoreRoundTrip(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	var seed [ident.SigningKeySize]byte
	for i := range seed {
		seed[i] = 0x42
	}

	pub, path, err := ks.InitializeRootKey("alice", seed, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(raw)) != ident.EncodeBase58(seed[:]) {
		t.Fatalf("seed file = %q", raw)
	}
	if _, _, err := ks.InitializeRootKey("alice", seed, false); err == nil {
		t.Fatalf("expected refusal to overwrite without force")
	}

	kp, err := ks.Keypair("alice", "")
	if err != nil {
		t.Fatalf("Keypair: %v", err)
	}
	if kp.Verifying.Bytes() != pub.Bytes() {
		t.Fatalf("loaded key differs")
	}

	rolePub, _, err := ks.DeriveKeyFromRole("alice", "device", false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	exp, err := ks.ExportKey("alice", "device")
	if err != nil {
		t.Fatalf("ExportKey: %v", err)
	}
	if exp.Pubkey.Bytes() != rolePub.Bytes() || exp.Pubkey.Bytes() == pub.Bytes() {
		t.Fatalf("role export mismatch")
	}

	names, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("ListKeys = %v", names)
	}
}

func TestKeyStoreRejectsBadNames(t *testing.T) {
	ks := &KeyStore{Directory: t.TempDir()}
	var seed [ident.SigningKeySize]byte
	if _, _, err := ks.InitializeRootKey("../escape", seed, false); err == nil {
		t.Fatalf("expected invalid name error")
	}
	if _, err := ks.Keypair("missing", ""); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestParseSeedRejectsWrongSize(t *testing.T) {
	if _, err := ParseSeed(ident.EncodeBase58([]byte{1, 2, 3})); ident.RuleID(err) != ident.RuleSize {
		t.Fatalf("err = %v", err)
	}
}
