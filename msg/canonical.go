package msg

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// CanonicalJSON encodes v as RFC 8785 canonical JSON: sorted keys, no
// insignificant whitespace, ECMAScript number formatting.
//
// Integers above 2^53 are not representable exactly in this form.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, wrapError(KindCanonical, RuleJSONCanon, "failed to serialize to canonical json", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, wrapError(KindCanonical, RuleJSONCanon, "failed to serialize to canonical json", err)
	}
	return out, nil
}
