package ident

import "errors"

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	KindDecode    Kind = "Decode"
	KindKey       Kind = "Key"
	KindSignature Kind = "Signature"
)

// Stable rule identifiers. Callers should branch on these, not on messages.
const (
	RuleDecodeBase58     = "IDENT-DEC-001"
	RuleSize             = "IDENT-DEC-002"
	RuleInvalidPoint     = "IDENT-KEY-001"
	RuleWeakKey          = "IDENT-SIG-001"
	RuleSmallOrderR      = "IDENT-SIG-002"
	RuleSignatureInvalid = "IDENT-SIG-003"
)

// Error is the package's structured error type.
//
// Size is only meaningful for RuleSize, where it holds the decoded length.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Size    int
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
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
