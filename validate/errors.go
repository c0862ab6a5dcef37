package validate

import (
	"errors"

	"xdao.co/tanglemsg/msg"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindVersion   Kind = "Version"
	KindData      Kind = "Data"
	KindAccount   Kind = "Account"
	KindTangle    Kind = "Tangle"
	KindSignature Kind = "Signature"
	KindCanonical Kind = "Canonical"
	KindInternal  Kind = "Internal"
)

// One RuleID per rejection reason.
const (
	RuleVersion                      = "VAL-VER-001"
	RuleDataMustBeNullStringOrObject = "VAL-DATA-001"
	RuleDataHashMismatch             = "VAL-DATA-002"
	RuleDataSizeMismatch             = "VAL-DATA-003"
	RuleAccountCannotBeSelfInFeed    = "VAL-ACC-001"
	RuleVerifyingKeyNotFromAccount   = "VAL-ACC-002"
	RuleAccountMustBeSelfInAccount   = "VAL-ACC-003"
	RuleAccountTipsInAccountTangle   = "VAL-ACC-004"
	RuleRootHasSelfTangle            = "VAL-TAN-001"
	RuleEmptyTangleIDMismatch        = "VAL-TAN-002"
	RuleMissingTangleEntry           = "VAL-TAN-003"
	RuleDomainMustBeFeedDomain       = "VAL-TAN-004"
	RuleAccountMustBeFeedAccount     = "VAL-TAN-005"
	RulePrevDepthNotLower            = "VAL-TAN-006"
	RuleAllPrevUnknown               = "VAL-TAN-007"
	RuleDepthMustBeMaxPlusOne        = "VAL-TAN-008"
	RuleSignature                    = "VAL-SIG-001"
	RuleJSONCanon                    = "VAL-CANON-001"
	ruleNilApply                     = "VAL-INTERNAL-001"
)

// Error is a validation failure.
//
// Version is set for RuleVersion, Prev for RulePrevDepthNotLower, and Root for
// RuleMissingTangleEntry.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Version uint8
	Prev    *msg.MsgID
	Root    *msg.MsgID
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

func newError(kind Kind, ruleID, msg string) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) *Error {
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
