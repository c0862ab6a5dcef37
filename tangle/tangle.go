package tangle

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"xdao.co/tanglemsg/msg"
)

// Type classifies a tangle by its root message.
type Type int

const (
	// TypeFeed tangles are rooted at a moot.
	TypeFeed Type = iota
	// TypeAccount tangles are rooted at a message authored by "self".
	TypeAccount
	// TypeWeave is any other shared tangle.
	TypeWeave
)

func (t Type) String() string {
	switch t {
	case TypeFeed:
		return "feed"
	case TypeAccount:
		return "account"
	case TypeWeave:
		return "weave"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Tangle is the in-memory index of one tangle.
type Tangle struct {
	rootID     msg.MsgID
	root       *msg.Msg
	tips       msg.IDSet
	prev       map[msg.MsgID][]msg.MsgID
	depth      map[msg.MsgID]uint64
	perDepth   map[uint64]msg.IDSet
	referenced msg.IDSet
	maxDepth   uint64
	log        logrus.FieldLogger
}

// Option configures a Tangle.
type Option func(*Tangle)

// WithLogger sets the logger used for soft failures. Defaults to the logrus
// standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Tangle) {
		if l != nil {
			t.log = l
		}
	}
}

// New returns an empty tangle that knows only its root id.
func New(rootID msg.MsgID, opts ...Option) *Tangle {
	t := &Tangle{
		rootID:     rootID,
		tips:       msg.NewIDSet(),
		prev:       make(map[msg.MsgID][]msg.MsgID),
		depth:      make(map[msg.MsgID]uint64),
		perDepth:   make(map[uint64]msg.IDSet),
		referenced: msg.NewIDSet(),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add indexes m under id. The root is recorded at depth 0; other messages are
// recorded at the depth they claim for this tangle. Messages without an entry
// for this tangle, and ids already indexed, are ignored.
func (t *Tangle) Add(id msg.MsgID, m *msg.Msg) {
	if id == t.rootID {
		if t.root != nil {
			return
		}
		t.root = m
		t.index(id, 0, nil)
		return
	}
	entry, ok := m.Metadata.Tangles[t.rootID]
	if !ok {
		return
	}
	if _, dup := t.depth[id]; dup {
		return
	}
	t.index(id, entry.Depth, entry.Prev)
}

func (t *Tangle) index(id msg.MsgID, depth uint64, prev []msg.MsgID) {
	for _, p := range prev {
		delete(t.tips, p)
		t.referenced.Add(p)
	}
	if !t.referenced.Has(id) {
		t.tips.Add(id)
	}
	if prev != nil {
		t.prev[id] = append([]msg.MsgID(nil), prev...)
	}
	t.depth[id] = depth
	if depth > t.maxDepth {
		t.maxDepth = depth
	}
	at, ok := t.perDepth[depth]
	if !ok {
		at = msg.NewIDSet()
		t.perDepth[depth] = at
	}
	at.Add(id)
}

func (t *Tangle) missingRoot(op string) bool {
	if t.root != nil {
		return false
	}
	t.log.WithFields(logrus.Fields{
		"root": t.rootID.String(),
		"op":   op,
	}).Warn("tangle is missing root message")
	return true
}

func (t *Tangle) atDepth(depth uint64) []msg.MsgID {
	at, ok := t.perDepth[depth]
	if !ok {
		return nil
	}
	return at.Sorted()
}

// TopoSort lists ids by ascending depth, byte order within a depth.
func (t *Tangle) TopoSort() []msg.MsgID {
	if t.missingRoot("topo_sort") {
		return []msg.MsgID{}
	}
	out := make([]msg.MsgID, 0, len(t.depth))
	for d := uint64(0); d <= t.maxDepth; d++ {
		out = append(out, t.atDepth(d)...)
	}
	return out
}

// Tips returns the ids no indexed message names as prev, in byte order.
func (t *Tangle) Tips() []msg.MsgID {
	if t.missingRoot("tips") {
		return []msg.MsgID{}
	}
	return t.tips.Sorted()
}

// LipmaaSet returns the ids at depth Lipmaa(depth+1)-1: the skip-link targets
// for a message placed at depth.
func (t *Tangle) LipmaaSet(depth uint64) []msg.MsgID {
	if t.missingRoot("lipmaa_set") {
		return []msg.MsgID{}
	}
	if depth == 0 {
		return []msg.MsgID{}
	}
	out := t.atDepth(Lipmaa(depth+1) - 1)
	if out == nil {
		out = []msg.MsgID{}
	}
	return out
}

func (t *Tangle) Has(id msg.MsgID) bool {
	_, ok := t.depth[id]
	return ok
}

// Depth returns the recorded depth of id.
func (t *Tangle) Depth(id msg.MsgID) (uint64, bool) {
	d, ok := t.depth[id]
	return d, ok
}

// Prev returns the prev links recorded for id.
func (t *Tangle) Prev(id msg.MsgID) []msg.MsgID {
	return append([]msg.MsgID(nil), t.prev[id]...)
}

// Size is the number of indexed messages, root included.
func (t *Tangle) Size() int { return len(t.depth) }

func (t *Tangle) MaxDepth() uint64 { return t.maxDepth }

// ID returns the root id.
func (t *Tangle) ID() msg.MsgID { return t.rootID }

// Root returns the root message.
func (t *Tangle) Root() (*msg.Msg, error) {
	if t.root == nil {
		return nil, missingRoot(t.rootID)
	}
	return t.root, nil
}

// IsFeed reports whether the root is a moot.
func (t *Tangle) IsFeed() bool {
	if t.missingRoot("is_feed") {
		return false
	}
	return t.root.IsMoot(msg.MootFilter{})
}

// Type classifies the tangle. It fails while the root is unknown.
func (t *Tangle) Type() (Type, error) {
	if t.root == nil {
		return 0, missingRoot(t.rootID)
	}
	switch {
	case t.root.IsMoot(msg.MootFilter{}):
		return TypeFeed, nil
	case t.root.Metadata.Account.IsSelf():
		return TypeAccount, nil
	default:
		return TypeWeave, nil
	}
}

// MootDetails returns the (account, domain) a feed tangle belongs to.
func (t *Tangle) MootDetails() (msg.MootDetails, bool) {
	if !t.IsFeed() {
		return msg.MootDetails{}, false
	}
	return msg.MootDetails{
		Account: t.root.Metadata.Account,
		Domain:  t.root.Metadata.Domain,
		ID:      t.rootID,
	}, true
}

// Precedes reports whether a is a strict ancestor of b through prev links.
func (t *Tangle) Precedes(a, b msg.MsgID) bool {
	if a == b || b == t.rootID {
		return false
	}
	seen := msg.NewIDSet(b)
	stack := []msg.MsgID{b}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range t.prev[cur] {
			if p == a {
				return true
			}
			if !seen.Has(p) {
				seen.Add(p)
				stack = append(stack, p)
			}
		}
	}
	return false
}

// MinimumAmong returns the members of ids that have no other member as an
// ancestor, in byte order. For a chain a < b < c it returns [a].
func (t *Tangle) MinimumAmong(ids []msg.MsgID) []msg.MsgID {
	set := msg.NewIDSet(ids...)
	candidates := set.Sorted()
	for _, a := range candidates {
		for _, b := range candidates {
			if t.Precedes(a, b) {
				delete(set, b)
			}
		}
	}
	return set.Sorted()
}

// ShortestPathToRoot walks prev links from id, always stepping to the
// shallowest predecessor (byte order breaks ties, unknown ids count as
// deepest). The result excludes id itself.
func (t *Tangle) ShortestPathToRoot(id msg.MsgID) []msg.MsgID {
	if t.missingRoot("shortest_path_to_root") {
		return []msg.MsgID{}
	}
	path := []msg.MsgID{}
	seen := msg.NewIDSet(id)
	cur := id
	for {
		prev, ok := t.prev[cur]
		if !ok || len(prev) == 0 {
			return path
		}
		var (
			best      msg.MsgID
			bestDepth uint64 = math.MaxUint64
			found     bool
		)
		for _, p := range prev {
			d, known := t.depth[p]
			if !known {
				d = math.MaxUint64
			}
			if !found || d < bestDepth || (d == bestDepth && p.Compare(best) < 0) {
				best, bestDepth, found = p, d, true
			}
		}
		if seen.Has(best) {
			return path
		}
		seen.Add(best)
		path = append(path, best)
		cur = best
	}
}

// Debug renders one line per depth.
func (t *Tangle) Debug() string {
	var b strings.Builder
	for d := uint64(0); d <= t.maxDepth; d++ {
		ids := t.atDepth(d)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = id.String()
		}
		fmt.Fprintf(&b, "Depth %d: %s\n", d, strings.Join(parts, ", "))
	}
	return b.String()
}

// Clone returns an independent copy sharing only the immutable root message.
func (t *Tangle) Clone() *Tangle {
	c := &Tangle{
		rootID:     t.rootID,
		root:       t.root,
		tips:       msg.NewIDSet(t.tips.Sorted()...),
		prev:       make(map[msg.MsgID][]msg.MsgID, len(t.prev)),
		depth:      make(map[msg.MsgID]uint64, len(t.depth)),
		perDepth:   make(map[uint64]msg.IDSet, len(t.perDepth)),
		referenced: msg.NewIDSet(t.referenced.Sorted()...),
		maxDepth:   t.maxDepth,
		log:        t.log,
	}
	for id, p := range t.prev {
		c.prev[id] = append([]msg.MsgID(nil), p...)
	}
	for id, d := range t.depth {
		c.depth[id] = d
	}
	for d, at := range t.perDepth {
		c.perDepth[d] = msg.NewIDSet(at.Sorted()...)
	}
	return c
}

var _ msg.TangleView = (*Tangle)(nil)
