package tangle

import (
	"errors"

	"xdao.co/tanglemsg/msg"
)

type Kind string

const KindMissingRoot Kind = "MissingRoot"

const RuleMissingRoot = "TANGLE-ROOT-001"

// Error is the package's structured error type.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Root    msg.MsgID
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func missingRoot(root msg.MsgID) error {
	return &Error{
		Kind:    KindMissingRoot,
		RuleID:  RuleMissingRoot,
		Message: "tangle is missing root message: " + root.String(),
		Root:    root,
	}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
