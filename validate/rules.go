package validate

import (
	"fmt"

	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/tangle"
)

// Check is the state shared by the rules of one validation run.
type Check struct {
	Msg    *msg.Msg
	ID     msg.MsgID
	Tangle *tangle.Tangle
	Keys   []ident.VerifyingKey
	RootID msg.MsgID

	// Type is resolved by the tangle-type rule.
	Type tangle.Type
	// Done ends the run early with success.
	Done bool
}

// Rule is an explicit, named validation rule.
//
// ID must be stable across versions.
// Apply must be deterministic and must not modify the tangle.
type Rule struct {
	ID    string
	Apply func(*Check) error
}

func (r Rule) apply(c *Check) error {
	if r.Apply == nil {
		return newError(KindInternal, ruleNilApply, "nil rule Apply")
	}
	return r.Apply(c)
}

// ValidateRules runs rules in order, returning the first failure. A rule that
// sets Check.Done ends the run with success.
func ValidateRules(c *Check, rules []Rule) error {
	for _, r := range rules {
		if err := r.apply(c); err != nil {
			return err
		}
		if c.Done {
			return nil
		}
	}
	return nil
}

// DefaultRules is the admission pipeline, in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{ID: RuleVersion, Apply: checkVersion},
		{ID: RuleDataMustBeNullStringOrObject, Apply: checkDataShape},
		{ID: RuleEmptyTangleIDMismatch, Apply: resolveType},
		{ID: RuleDataHashMismatch, Apply: checkDataHash},
		{ID: RuleVerifyingKeyNotFromAccount, Apply: checkAccount},
		{ID: RuleMissingTangleEntry, Apply: checkPlacement},
		{ID: RuleSignature, Apply: checkSignature},
	}
}

func checkVersion(c *Check) error {
	if v := c.Msg.Metadata.Version; v != msg.Version {
		e := newError(KindVersion, RuleVersion, fmt.Sprintf("invalid version: %d", v))
		e.Version = v
		return e
	}
	return nil
}

func checkDataShape(c *Check) error {
	if !c.Msg.Data.Valid() {
		return newError(KindData, RuleDataMustBeNullStringOrObject, "data must be null, string, or object")
	}
	return nil
}

// resolveType classifies the target tangle. While the tangle has no root, only
// the root message itself can be validated, and its own shape decides the type.
// Moots in feed tangles are accepted without further checks.
func resolveType(c *Check) error {
	typ, err := c.Tangle.Type()
	if err != nil {
		if c.ID != c.RootID {
			return newError(KindTangle, RuleEmptyTangleIDMismatch,
				"if tangle empty, msg id must match tangle root msg id")
		}
		typ = typeOf(c.Msg)
	}
	c.Type = typ
	if typ == tangle.TypeFeed && c.Msg.IsMoot(msg.MootFilter{}) {
		c.Done = true
	}
	return nil
}

func typeOf(m *msg.Msg) tangle.Type {
	switch {
	case m.IsMoot(msg.MootFilter{}):
		return tangle.TypeFeed
	case m.Metadata.Account.IsSelf():
		return tangle.TypeAccount
	default:
		return tangle.TypeWeave
	}
}

func checkDataHash(c *Check) error {
	if c.Msg.Data.IsNull() {
		return nil
	}
	hash, size, err := c.Msg.Data.Hash()
	if err != nil {
		return wrapError(KindCanonical, RuleJSONCanon, "failed to serialize to canonical json", err)
	}
	md := c.Msg.Metadata
	if md.DataHash == nil || *md.DataHash != hash {
		return newError(KindData, RuleDataHashMismatch, "data hash does not match metadata.dataHash")
	}
	if md.DataSize != size {
		return newError(KindData, RuleDataSizeMismatch, "data size does not match metadata.dataSize")
	}
	return nil
}

func checkAccount(c *Check) error {
	md := c.Msg.Metadata
	switch c.Type {
	case tangle.TypeAccount:
		if !md.Account.IsSelf() {
			return newError(KindAccount, RuleAccountMustBeSelfInAccount, "account must be self in an account tangle")
		}
		if md.AccountTips != nil {
			return newError(KindAccount, RuleAccountTipsInAccountTangle, "account tips must be null in an account tangle")
		}
	default:
		if md.Account.IsSelf() {
			return newError(KindAccount, RuleAccountCannotBeSelfInFeed, "account cannot be self in a "+c.Type.String()+" tangle")
		}
		if _, ok := md.Account.TangleID(); ok && !hasKey(c.Keys, c.Msg.Pubkey) {
			return newError(KindAccount, RuleVerifyingKeyNotFromAccount,
				"verifying key "+c.Msg.Pubkey.String()+" is not in account "+md.Account.String())
		}
	}
	return nil
}

func hasKey(keys []ident.VerifyingKey, k ident.VerifyingKey) bool {
	for _, have := range keys {
		if have.Bytes() == k.Bytes() {
			return true
		}
	}
	return false
}

func checkPlacement(c *Check) error {
	if c.ID == c.RootID {
		if _, ok := c.Msg.Metadata.Tangles[c.RootID]; ok {
			return newError(KindTangle, RuleRootHasSelfTangle, "tangle root must not have self tangles")
		}
		return nil
	}
	return checkTangle(c.Msg, c.Tangle, c.RootID)
}

// checkTangle verifies the message's placement in t.
//
// Depth is compared only against prevs known locally. When some prevs are
// unknown, the max-plus-one rule is not enforced.
func checkTangle(m *msg.Msg, t *tangle.Tangle, rootID msg.MsgID) error {
	md := m.Metadata
	entry, ok := md.Tangles[rootID]
	if !ok {
		root := rootID
		e := newError(KindTangle, RuleMissingTangleEntry, "tangle missing root message id: "+rootID.String())
		e.Root = &root
		return e
	}

	if details, ok := t.MootDetails(); ok {
		if md.Domain != details.Domain {
			return newError(KindTangle, RuleDomainMustBeFeedDomain,
				fmt.Sprintf("domain %q must be the feed domain %q", md.Domain, details.Domain))
		}
		if !md.Account.Equal(details.Account) {
			return newError(KindTangle, RuleAccountMustBeFeedAccount,
				fmt.Sprintf("account %s must be the feed account %s", md.Account, details.Account))
		}
	}

	var (
		minDiff uint64
		haveMin bool
		unknown int
	)
	for _, p := range entry.Prev {
		prevDepth, known := t.Depth(p)
		if !known {
			unknown++
			continue
		}
		if prevDepth >= entry.Depth {
			prev := p
			e := newError(KindTangle, RulePrevDepthNotLower, "depth of prev "+p.String()+" is not lower")
			e.Prev = &prev
			return e
		}
		if diff := entry.Depth - prevDepth; !haveMin || diff < minDiff {
			minDiff, haveMin = diff, true
		}
	}
	if unknown == len(entry.Prev) {
		return newError(KindTangle, RuleAllPrevUnknown, "all prev are locally unknown")
	}
	if unknown == 0 && minDiff != 1 {
		return newError(KindTangle, RuleDepthMustBeMaxPlusOne, "depth must be the largest prev depth plus one")
	}
	return nil
}

func checkSignature(c *Check) error {
	signable, err := c.Msg.Metadata.Signable()
	if err != nil {
		return wrapError(KindCanonical, RuleJSONCanon, "failed to serialize to canonical json", err)
	}
	if err := c.Msg.Pubkey.Verify(signable, c.Msg.Sig); err != nil {
		return wrapError(KindSignature, RuleSignature, "invalid signature", err)
	}
	return nil
}
