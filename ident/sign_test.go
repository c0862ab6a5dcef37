package ident

import (
	"encoding/json"
	"testing"
)

func mustKeypair(t *testing.T, seedByte byte) SignKeypair {
	t.Helper()
	var seed [SigningKeySize]byte
	for i := range seed {
		seed[i] = seedByte
	}
	return KeypairFromSeed(seed)
}

func TestSignVerify(t *testing.T) {
	kp := mustKeypair(t, 1)
	msg := []byte(":msg-v3:{}")
	sig := kp.Signing.Sign(msg)
	if err := kp.Verifying.Verify(msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsFlippedBit(t *testing.T) {
	kp := mustKeypair(t, 2)
	msg := []byte("payload")
	sig := kp.Signing.Sign(msg)
	sig[40] ^= 0x01
	if err := kp.Verifying.Verify(msg, sig); err == nil {
		t.Fatalf("expected flipped signature to fail")
	}
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	a := mustKeypair(t, 3)
	b := mustKeypair(t, 4)
	msg := []byte("payload")
	sig := a.Signing.Sign(msg)
	err := b.Verifying.Verify(msg, sig)
	if RuleID(err) != RuleSignatureInvalid {
		t.Fatalf("expected RuleSignatureInvalid, got %v", err)
	}
	if !IsKind(err, KindSignature) {
		t.Fatalf("expected KindSignature")
	}
}

func TestWeakKeyRejected(t *testing.T) {
	// The identity point (y = 1) has order one.
	var b [VerifyingKeySize]byte
	b[0] = 1
	vk, err := NewVerifyingKey(b)
	if err != nil {
		t.Fatalf("NewVerifyingKey: %v", err)
	}
	if !vk.IsWeak() {
		t.Fatalf("identity point should be weak")
	}
	if err := vk.Verify([]byte("x"), Signature{}); RuleID(err) != RuleWeakKey {
		t.Fatalf("expected RuleWeakKey, got %v", err)
	}
	if mustKeypair(t, 5).Verifying.IsWeak() {
		t.Fatalf("derived key should not be weak")
	}
}

func TestKeyTextRoundTrip(t *testing.T) {
	kp := mustKeypair(t, 6)

	b, err := json.Marshal(struct {
		SK SigningKey   `json:"sk"`
		VK VerifyingKey `json:"vk"`
	}{kp.Signing, kp.Verifying})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back struct {
		SK SigningKey   `json:"sk"`
		VK VerifyingKey `json:"vk"`
	}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.VK != kp.Verifying {
		t.Fatalf("verifying key mismatch")
	}
	if back.SK.Bytes() != kp.Signing.Bytes() {
		t.Fatalf("signing key mismatch")
	}
	if back.SK.VerifyingKey() != kp.Verifying {
		t.Fatalf("signing key does not derive the same verifying key")
	}

	sig := kp.Signing.Sign([]byte("m"))
	parsed, err := FromBase58[Signature](sig.String())
	if err != nil {
		t.Fatalf("FromBase58: %v", err)
	}
	if parsed != sig {
		t.Fatalf("signature round trip mismatch")
	}
}
