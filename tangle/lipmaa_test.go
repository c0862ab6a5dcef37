package tangle

import (
	"math"
	"testing"
)

func TestLipmaaKnownValues(t *testing.T) {
	cases := map[uint64]uint64{0: 0, 1: 0, 2: 1, 3: 2, 4: 1, 5: 4, 6: 5, 13: 4, 40: 13}
	for n, want := range cases {
		if got := Lipmaa(n); got != want {
			t.Fatalf("Lipmaa(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestLipmaaPointsBackwards(t *testing.T) {
	for n := uint64(1); n <= 5000; n++ {
		if l := Lipmaa(n); l >= n {
			t.Fatalf("Lipmaa(%d) = %d, not lower", n, l)
		}
	}
}

func TestLipmaaLargePositions(t *testing.T) {
	if got, want := Lipmaa(MaxLipmaa), MaxLipmaa-4052555153018976267; got != want {
		t.Fatalf("Lipmaa(MaxLipmaa) = %d, want %d", got, want)
	}
	for _, n := range []uint64{MaxLipmaa + 1, math.MaxUint64} {
		if got := Lipmaa(n); got != n-1 {
			t.Fatalf("Lipmaa(%d) = %d, want %d", n, got, n-1)
		}
	}
}
