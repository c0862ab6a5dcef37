package msg

import "errors"

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	KindDomain    Kind = "Domain"
	KindData      Kind = "Data"
	KindAccount   Kind = "Account"
	KindCanonical Kind = "Canonical"
	KindDecode    Kind = "Decode"
	KindSignature Kind = "Signature"
)

const (
	RuleDomainTooLong       = "MSG-DOM-001"
	RuleDomainTooShort      = "MSG-DOM-002"
	RuleDomainBadCharacters = "MSG-DOM-003"
	RuleDataShape           = "MSG-DATA-001"
	RuleAccountID           = "MSG-ACC-001"
	RuleJSONCanon           = "MSG-CANON-001"
	RuleDecode              = "MSG-DEC-001"
	RuleSignature           = "MSG-SIG-001"
)

// Error is the package's structured error type.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
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
