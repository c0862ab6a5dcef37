package msg

import (
	"bytes"
	"encoding/json"

	"xdao.co/tanglemsg/ident"
)

// MsgData is the payload of a message: JSON null, a string, or an object.
//
// The zero value is null. Decoding accepts any JSON value so that the
// validator can report the shape violation; NewMsgData enforces it up front.
type MsgData struct {
	v any
}

// NullData is the payload of moots.
func NullData() MsgData { return MsgData{} }

// StringData wraps a string payload.
func StringData(s string) MsgData { return MsgData{v: s} }

// NewMsgData normalizes v through JSON and requires null, string or object.
func NewMsgData(v any) (MsgData, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return MsgData{}, wrapError(KindData, RuleDataShape, "data is not JSON-serializable", err)
	}
	var d MsgData
	if err := d.UnmarshalJSON(raw); err != nil {
		return MsgData{}, err
	}
	if !d.Valid() {
		return MsgData{}, newError(KindData, RuleDataShape, "invalid data, must be JSON object, string, or null")
	}
	return d, nil
}

// ParseMsgData decodes a JSON document into MsgData and checks its shape.
func ParseMsgData(raw []byte) (MsgData, error) {
	var d MsgData
	if err := d.UnmarshalJSON(raw); err != nil {
		return MsgData{}, err
	}
	if !d.Valid() {
		return MsgData{}, newError(KindData, RuleDataShape, "invalid data, must be JSON object, string, or null")
	}
	return d, nil
}

// Valid reports whether the payload is null, a string, or an object.
func (d MsgData) Valid() bool {
	return d.IsNull() || d.IsString() || d.IsObject()
}

func (d MsgData) IsNull() bool { return d.v == nil }

func (d MsgData) IsString() bool {
	_, ok := d.v.(string)
	return ok
}

func (d MsgData) IsObject() bool {
	_, ok := d.v.(map[string]any)
	return ok
}

func (d MsgData) AsString() (string, bool) {
	s, ok := d.v.(string)
	return s, ok
}

// AsObject exposes the decoded object. Numbers are json.Number.
func (d MsgData) AsObject() (map[string]any, bool) {
	m, ok := d.v.(map[string]any)
	return m, ok
}

// Value returns the underlying decoded JSON value.
func (d MsgData) Value() any { return d.v }

// Decode re-decodes the payload into dst.
func (d MsgData) Decode(dst any) error {
	raw, err := json.Marshal(d.v)
	if err != nil {
		return wrapError(KindData, RuleDataShape, "failed to encode data", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return wrapError(KindData, RuleDataShape, "failed to decode data", err)
	}
	return nil
}

// Hash returns the short BLAKE3 hash of the canonical JSON encoding of the
// payload and the length of that encoding.
func (d MsgData) Hash() (MsgDataHash, uint64, error) {
	canon, err := CanonicalJSON(d)
	if err != nil {
		return MsgDataHash{}, 0, err
	}
	h := ident.NewHasher()
	_, _ = h.Write(canon)
	return MsgDataHashFromHash(h.Finalize()), h.Count(), nil
}

func (d MsgData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.v)
}

func (d *MsgData) UnmarshalJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return wrapError(KindDecode, RuleDecode, "failed to decode data", err)
	}
	d.v = v
	return nil
}
