package ident

import (
	"fmt"
	"testing"
)

func TestHasherCountsBytes(t *testing.T) {
	h := NewHasher()
	fmt.Fprint(h, "hello")
	fmt.Fprint(h, " world")
	if h.Count() != 11 {
		t.Fatalf("Count: got %d want 11", h.Count())
	}
	if h.Finalize() != Sum([]byte("hello world")) {
		t.Fatalf("streaming digest differs from one-shot digest")
	}
}

func TestHashHelloWorld(t *testing.T) {
	h := NewHasher()
	fmt.Fprint(h, "hello world")
	if got := h.Finalize().String(); got != "FVPfbg9bK7mj7jnaSRXhuVcVakkXcjMPgSwxmauUofYf" {
		t.Fatalf("unexpected digest %s", got)
	}
}
