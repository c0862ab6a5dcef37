package account

import (
	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
)

// Purpose says what a key in an account may be used for.
type Purpose string

const (
	// PurposeShsAndExternalSignature keys run secret handshakes and sign
	// feed messages.
	PurposeShsAndExternalSignature Purpose = "shs-and-external-signature"
	// PurposeExternalEncryption keys receive asymmetrically encrypted data.
	PurposeExternalEncryption Purpose = "external-encryption"
	// PurposeInternalSignature keys sign the account's internal messages.
	PurposeInternalSignature Purpose = "internal-signature"
)

const (
	AlgorithmEd25519 = "ed25519"
	AlgorithmX25519  = "x25519-xsalsa20-poly1305"
)

// Power is a capability granted to a key within its account.
type Power string

const (
	PowerAdd                Power = "add"
	PowerDel                Power = "del"
	PowerInternalEncryption Power = "internal-encryption"
	PowerExternalEncryption Power = "external-encryption"
)

// AllPowers is granted to the key that creates an account.
var AllPowers = []Power{PowerAdd, PowerDel, PowerInternalEncryption, PowerExternalEncryption}

const (
	ActionAdd = "add"
	ActionDel = "del"
)

// Key is a public key entry. Bytes is base58.
type Key struct {
	Purpose   Purpose `json:"purpose"`
	Algorithm string  `json:"algorithm"`
	Bytes     string  `json:"bytes"`
}

// SigningKeyEntry describes an ed25519 key that signs on behalf of the account.
func SigningKeyEntry(purpose Purpose, vk ident.VerifyingKey) Key {
	return Key{Purpose: purpose, Algorithm: AlgorithmEd25519, Bytes: vk.String()}
}

// Signs reports whether the key is an ed25519 signing key.
func (k Key) Signs() bool {
	return k.Purpose == PurposeShsAndExternalSignature || k.Purpose == PurposeInternalSignature
}

func (k Key) validate() error {
	want := AlgorithmEd25519
	switch k.Purpose {
	case PurposeShsAndExternalSignature, PurposeInternalSignature:
	case PurposeExternalEncryption:
		want = AlgorithmX25519
	default:
		return newError(KindKey, RuleKeyAlgorithm, "unknown key purpose "+string(k.Purpose))
	}
	if k.Algorithm != want {
		return newError(KindKey, RuleKeyAlgorithm,
			"key purpose "+string(k.Purpose)+" requires algorithm "+want+", got "+k.Algorithm)
	}
	if k.Signs() {
		if _, err := k.VerifyingKey(); err != nil {
			return err
		}
	}
	return nil
}

// VerifyingKey parses Bytes for signing keys.
func (k Key) VerifyingKey() (ident.VerifyingKey, error) {
	if !k.Signs() {
		return ident.VerifyingKey{}, newError(KindKey, RuleKeyAlgorithm, "key purpose "+string(k.Purpose)+" does not sign")
	}
	vk, err := ident.FromBase58[ident.VerifyingKey](k.Bytes)
	if err != nil {
		return ident.VerifyingKey{}, wrapError(KindKey, RuleKeyAlgorithm, "invalid ed25519 key bytes", err)
	}
	return vk, nil
}

// Add grants a key. Nonce is set only on the account root; Consent only on
// later additions.
type Add struct {
	Key     Key              `json:"key"`
	Nonce   *ident.Nonce     `json:"nonce,omitempty"`
	Consent *ident.Signature `json:"consent,omitempty"`
	Powers  []Power          `json:"accountPowers,omitempty"`
}

// Del revokes a key.
type Del struct {
	Key Key `json:"key"`
}

// Data is the payload of every account-tangle message.
type Data struct {
	Action string `json:"action"`
	Add    *Add   `json:"add,omitempty"`
	Del    *Del   `json:"del,omitempty"`
}

func (d Data) toMsgData() (msg.MsgData, error) {
	return msg.NewMsgData(d)
}

// ParseData decodes and checks an account-tangle payload.
func ParseData(m *msg.Msg) (Data, error) {
	if !m.Data.IsObject() {
		return Data{}, newError(KindData, RuleNotAccountData, "account data must be an object")
	}
	var d Data
	if err := m.Data.Decode(&d); err != nil {
		return Data{}, wrapError(KindData, RuleNotAccountData, "invalid account data", err)
	}
	switch {
	case d.Action == ActionAdd && d.Add != nil && d.Del == nil:
		return d, d.Add.Key.validate()
	case d.Action == ActionDel && d.Del != nil && d.Add == nil:
		return d, d.Del.Key.validate()
	default:
		return Data{}, newError(KindData, RuleUnknownAction, "unknown account action "+d.Action)
	}
}

// ConsentPayload is what an added key signs to agree to join accountID.
func ConsentPayload(accountID msg.MsgID) []byte {
	return []byte(":account-add:" + accountID.String())
}

// Consent signs the consent payload with the key being added.
func Consent(added ident.SigningKey, accountID msg.MsgID) ident.Signature {
	return added.Sign(ConsentPayload(accountID))
}
