package account

import "errors"

type Kind string

const (
	KindData    Kind = "Data"
	KindKey     Kind = "Key"
	KindConsent Kind = "Consent"
	KindPower   Kind = "Power"
	KindTangle  Kind = "Tangle"
)

const (
	RuleNotAccountData   = "ACC-DATA-001"
	RuleUnknownAction    = "ACC-DATA-002"
	RuleKeyAlgorithm     = "ACC-KEY-001"
	RuleConsentMissing   = "ACC-CONSENT-001"
	RuleConsentInvalid   = "ACC-CONSENT-002"
	RuleMissingPower     = "ACC-POW-001"
	RuleNotAccountTangle = "ACC-TAN-001"
	RuleMissingMsg       = "ACC-TAN-002"
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
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
