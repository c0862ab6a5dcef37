// Package validate decides whether a message may be added to a tangle.
//
// Validation is read-only: it never modifies the tangle. Callers add accepted
// messages themselves.
package validate

import (
	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/tangle"
)

// Validate runs DefaultRules for m, claimed to have id, against the tangle
// rooted at rootID. keys are the verifying keys authorized for the message's
// account.
func Validate(m *msg.Msg, id msg.MsgID, t *tangle.Tangle, keys []ident.VerifyingKey, rootID msg.MsgID) error {
	if m == nil || t == nil {
		return newError(KindInternal, ruleNilApply, "nil message or tangle")
	}
	c := &Check{Msg: m, ID: id, Tangle: t, Keys: keys, RootID: rootID}
	return ValidateRules(c, DefaultRules())
}
