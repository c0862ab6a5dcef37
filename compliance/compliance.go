// Package compliance selects how ingest reacts to rejected messages.
package compliance

import "fmt"

// ComplianceMode selects how aggressively ingest rejects bad input.
//
// Strict mode stops at the first rejected message.
// Permissive mode skips rejected messages, recording each as an exclusion.
type ComplianceMode int

const (
	Permissive ComplianceMode = iota
	Strict
)

func (m ComplianceMode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("ComplianceMode(%d)", int(m))
	}
}

// Parse accepts "strict" or "permissive". The empty string means strict.
func Parse(s string) (ComplianceMode, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "permissive":
		return Permissive, nil
	default:
		return 0, fmt.Errorf("invalid compliance mode %q (want strict or permissive)", s)
	}
}
