package msg

import (
	"bytes"

	"xdao.co/tanglemsg/ident"
)

type accountKind uint8

const (
	accountTangle accountKind = iota
	accountSelf
	accountAny
)

const (
	selfLiteral = "self"
	anyLiteral  = "any"
)

// AccountID names the account that authored a message.
//
// It is either the root MsgID of an account tangle, the "self" sentinel used
// inside an account tangle, or the "any" sentinel.
type AccountID struct {
	kind accountKind
	id   MsgID
}

// AccountTangle returns the account identified by its root message id.
func AccountTangle(id MsgID) AccountID { return AccountID{kind: accountTangle, id: id} }

// AccountSelf is the account tangle currently being built or validated.
func AccountSelf() AccountID { return AccountID{kind: accountSelf} }

// AccountAny accepts any account.
func AccountAny() AccountID { return AccountID{kind: accountAny} }

// ParseAccountID accepts a base58 MsgID, "self", or "any".
func ParseAccountID(s string) (AccountID, error) {
	var a AccountID
	if err := a.UnmarshalText([]byte(s)); err != nil {
		return AccountID{}, err
	}
	return a, nil
}

func (a AccountID) IsSelf() bool { return a.kind == accountSelf }

func (a AccountID) IsAny() bool { return a.kind == accountAny }

// TangleID returns the account root id when a names a concrete account.
func (a AccountID) TangleID() (MsgID, bool) {
	if a.kind != accountTangle {
		return MsgID{}, false
	}
	return a.id, true
}

func (a AccountID) Equal(o AccountID) bool {
	return a.kind == o.kind && bytes.Equal(a.id[:], o.id[:])
}

func (a AccountID) String() string {
	switch a.kind {
	case accountSelf:
		return selfLiteral
	case accountAny:
		return anyLiteral
	default:
		return a.id.String()
	}
}

func (a AccountID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AccountID) UnmarshalText(text []byte) error {
	var id MsgID
	if err := ident.UnmarshalBase58(&id, text); err == nil {
		*a = AccountTangle(id)
		return nil
	}
	switch string(text) {
	case selfLiteral:
		*a = AccountSelf()
	case anyLiteral:
		*a = AccountAny()
	default:
		return newError(KindAccount, RuleAccountID,
			"account must be a message id, \"self\", or \"any\": "+string(text))
	}
	return nil
}
