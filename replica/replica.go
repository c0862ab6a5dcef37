// Package replica owns the tangles of one node: it validates incoming
// messages, adds accepted ones to every tangle they name, and persists them.
//
// A Replica is the single writer of its tangles. Readers get snapshots.
package replica

import (
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xdao.co/tanglemsg/account"
	"xdao.co/tanglemsg/compliance"
	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/storage"
	"xdao.co/tanglemsg/tangle"
	"xdao.co/tanglemsg/validate"
)

var (
	ErrUnknownTangle = errors.New("replica: unknown tangle")
	// ErrSignerNotInAccount rejects account tangle messages signed by a key
	// the account does not hold.
	ErrSignerNotInAccount = errors.New("replica: signer is not in the account")
)

// Exclusion records a message that was not admitted.
type Exclusion struct {
	ID     msg.MsgID
	Reason string
	RuleID string
}

type Options struct {
	// Store persists accepted messages. Defaults to storage.NewMemory().
	Store  storage.Store
	Mode   compliance.ComplianceMode
	Logger logrus.FieldLogger
}

type Replica struct {
	mu         sync.RWMutex
	tangles    map[msg.MsgID]*tangle.Tangle
	store      storage.Store
	mode       compliance.ComplianceMode
	log        logrus.FieldLogger
	exclusions []Exclusion
}

func New(opts Options) *Replica {
	r := &Replica{
		tangles: make(map[msg.MsgID]*tangle.Tangle),
		store:   opts.Store,
		mode:    opts.Mode,
		log:     opts.Logger,
	}
	if r.store == nil {
		r.store = storage.NewMemory()
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	return r
}

// Ingest validates m against every tangle it belongs to and, if all accept it,
// persists it and adds it to each of them. A message with no tangle entries
// roots its own tangle.
func (r *Replica) Ingest(m *msg.Msg) (msg.MsgID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ingest(m)
}

func (r *Replica) ingest(m *msg.Msg) (msg.MsgID, error) {
	id, err := m.ID()
	if err != nil {
		return msg.MsgID{}, err
	}
	roots := targetRoots(id, m)

	targets := make([]*tangle.Tangle, 0, len(roots))
	known := true
	for _, root := range roots {
		t, ok := r.tangles[root]
		if !ok {
			t = tangle.New(root, tangle.WithLogger(r.log))
		}
		if !t.Has(id) {
			known = false
		}
		targets = append(targets, t)
	}
	if known && r.store.Has(id) {
		return id, nil
	}

	for _, t := range targets {
		keys := r.keysFor(m, t)
		if err := validate.Validate(m, id, t, keys, t.ID()); err != nil {
			return id, pkgerrors.Wrapf(err, "message %s rejected by tangle %s", id, t.ID())
		}
		if typ, err := t.Type(); err == nil && typ == tangle.TypeAccount && !holds(keys, m.Pubkey) {
			return id, pkgerrors.Wrapf(ErrSignerNotInAccount, "message %s signed by %s", id, m.Pubkey)
		}
	}

	if _, err := r.store.Put(m); err != nil {
		return id, pkgerrors.Wrapf(err, "persist %s", id)
	}
	for _, t := range targets {
		t.Add(id, m)
		r.tangles[t.ID()] = t
		r.log.WithFields(logrus.Fields{"msg_id": id.String(), "root": t.ID().String()}).Debug("message admitted")
	}
	return id, nil
}

func targetRoots(id msg.MsgID, m *msg.Msg) []msg.MsgID {
	if len(m.Metadata.Tangles) == 0 {
		return []msg.MsgID{id}
	}
	roots := make([]msg.MsgID, 0, len(m.Metadata.Tangles))
	for root := range m.Metadata.Tangles {
		roots = append(roots, root)
	}
	return msg.SortIDs(roots)
}

func holds(keys []ident.VerifyingKey, k ident.VerifyingKey) bool {
	for _, have := range keys {
		if have.Bytes() == k.Bytes() {
			return true
		}
	}
	return false
}

// keysFor returns the signing keys of the account that m claims to come from.
func (r *Replica) keysFor(m *msg.Msg, target *tangle.Tangle) []ident.VerifyingKey {
	var accountTangle *tangle.Tangle
	if m.Metadata.Account.IsSelf() {
		accountTangle = target
	} else if accID, ok := m.Metadata.Account.TangleID(); ok {
		accountTangle = r.tangles[accID]
	}
	if accountTangle == nil {
		return nil
	}
	if _, err := accountTangle.Root(); err != nil {
		return nil
	}
	keys, err := account.AuthorizedKeys(accountTangle, r.store)
	if err != nil {
		r.log.WithError(err).WithField("account", accountTangle.ID().String()).Debug("account keys unavailable")
		return nil
	}
	return keys
}

// IngestAll admits msgs in any order. Messages that cannot be placed yet are
// retried after later messages are admitted. Whatever is still rejected when
// no more progress is possible is an exclusion; in Strict mode the first of
// those, in input order, is returned as the error.
func (r *Replica) IngestAll(msgs []*msg.Msg) ([]msg.MsgID, []Exclusion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accepted []msg.MsgID
	pending := append([]*msg.Msg(nil), msgs...)
	lastErr := make([]error, len(pending))
	for {
		progress := false
		next := pending[:0]
		nextErr := lastErr[:0]
		for _, m := range pending {
			id, err := r.ingest(m)
			if err == nil {
				accepted = append(accepted, id)
				progress = true
				continue
			}
			next = append(next, m)
			nextErr = append(nextErr, err)
		}
		pending, lastErr = next, nextErr
		if !progress || len(pending) == 0 {
			break
		}
	}

	var excluded []Exclusion
	for i, m := range pending {
		id, _ := m.ID()
		ex := Exclusion{ID: id, Reason: lastErr[i].Error(), RuleID: validate.RuleID(lastErr[i])}
		r.log.WithFields(logrus.Fields{"msg_id": id.String(), "rule": ex.RuleID}).Warn("message excluded")
		excluded = append(excluded, ex)
	}
	r.exclusions = append(r.exclusions, excluded...)
	if r.mode == compliance.Strict && len(pending) > 0 {
		return accepted, excluded, lastErr[0]
	}
	return accepted, excluded, nil
}

// Tangle returns a snapshot of the tangle rooted at root.
func (r *Replica) Tangle(root msg.MsgID) (*tangle.Tangle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tangles[root]
	if !ok {
		return nil, pkgerrors.Wrap(ErrUnknownTangle, root.String())
	}
	return t.Clone(), nil
}

// Roots lists the known tangle roots in byte order.
func (r *Replica) Roots() []msg.MsgID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]msg.MsgID, 0, len(r.tangles))
	for root := range r.tangles {
		out = append(out, root)
	}
	return msg.SortIDs(out)
}

// Get returns a stored message.
func (r *Replica) Get(id msg.MsgID) (*msg.Msg, error) {
	return r.store.Get(id)
}

// Messages returns the messages of a tangle in topological order.
func (r *Replica) Messages(root msg.MsgID) ([]*msg.Msg, error) {
	t, err := r.Tangle(root)
	if err != nil {
		return nil, err
	}
	ids := t.TopoSort()
	out := make([]*msg.Msg, 0, len(ids))
	for _, id := range ids {
		m, err := r.store.Get(id)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "load %s", id)
		}
		out = append(out, m)
	}
	return out, nil
}

// Exclusions returns every exclusion recorded by IngestAll.
func (r *Replica) Exclusions() []Exclusion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Exclusion(nil), r.exclusions...)
}
