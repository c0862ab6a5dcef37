package tangle

// MaxLipmaa is (3^40 - 1) / 2, the largest position with a full skip link.
const MaxLipmaa uint64 = 6078832729528464400

// Lipmaa returns the backlink target of position n in a ternary skip list
// (Lipmaa, "Secure Accumulators from Euclidean Rings"). Lipmaa(n) < n for
// every n > 0, and the chain n, Lipmaa(n), Lipmaa(Lipmaa(n)), ... reaches 0 in
// O(log n) steps. Lipmaa(0) is 0.
//
// Positions above MaxLipmaa link to their predecessor, since the next power
// of three no longer fits in a uint64.
func Lipmaa(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	if n > MaxLipmaa {
		return n - 1
	}
	var m, po3, u uint64 = 1, 3, n

	// Smallest (3^k - 1)/2 that is >= n.
	for m < n {
		po3 *= 3
		m = (po3 - 1) / 2
	}
	po3 /= 3
	if m != n {
		for u != 0 {
			m = (po3 - 1) / 2
			po3 /= 3
			u %= m
		}
		if m != po3 {
			po3 = m
		}
	}
	return n - po3
}
