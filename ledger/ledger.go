// Package ledger implements the append-only single-parent event DAG.
//
// The ledger is the single source of event identity: it computes
// SHA-256(canonical bytes ‖ signature) exactly once when an event is
// accepted, and collaborators must treat the returned hash as canonical.
// Events are never mutated or removed; forks (multiple children of one
// parent) are permitted; tips are the accepted events with no accepted child.
//
// A Ledger instance is not safe for concurrent mutation. Independent
// instances share no state and may be used from different goroutines.
package ledger

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"sort"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/dvel-foundation/go-dvel/inter"
)

// Linkage errors.
var (
	// ErrDuplicateEvent means the event is already accepted; callers treat
	// it as a no-op, not a failure.
	ErrDuplicateEvent = errors.New("event already exists")
	// ErrMissingParent means the parent is not accepted yet; callers may
	// queue the event and retry after observing the parent.
	ErrMissingParent = errors.New("parent event not found")
)

var log = logrus.WithField("module", "ledger")

// HashEvent computes the identity hash of an event: SHA-256 over the
// 169-byte identity material. The ledger calls this once on accept;
// off-ledger recomputation must produce the same bytes but is never
// authoritative.
func HashEvent(e *inter.Event) hash.Hash {
	h := sha256.Sum256(e.IdentityMaterial())
	return hash.BytesToHash(h[:])
}

// Ledger is the append-only DAG store.
type Ledger struct {
	events      map[hash.Hash]inter.Event
	parentIndex map[hash.Hash][]hash.Hash
	tips        map[hash.Hash]struct{}
	order       []hash.Hash
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		events:      make(map[hash.Hash]inter.Event),
		parentIndex: make(map[hash.Hash][]hash.Hash),
		tips:        make(map[hash.Hash]struct{}),
	}
}

// LinkEvent performs a linkage-aware insert.
//
// It computes the identity hash, rejects duplicates and events whose non-zero
// parent is unknown, and otherwise accepts the event, maintaining the parent
// index and the tip set. The ledger state is unchanged on rejection.
func (l *Ledger) LinkEvent(e *inter.Event) (hash.Hash, error) {
	h := HashEvent(e)
	if _, ok := l.events[h]; ok {
		return h, ErrDuplicateEvent
	}
	if e.PrevHash != hash.Zero {
		if _, ok := l.events[e.PrevHash]; !ok {
			return hash.Zero, ErrMissingParent
		}
	}
	l.insert(h, e)
	return h, nil
}

// AddEventUnchecked inserts without parent checks, for integrators that
// separately proved validity. The tip set is still maintained consistently.
// An already accepted event is left as it is. Returns the identity hash.
func (l *Ledger) AddEventUnchecked(e *inter.Event) hash.Hash {
	h := HashEvent(e)
	if _, ok := l.events[h]; ok {
		return h
	}
	l.insert(h, e)
	return h
}

// insert stores the event under h and updates the parent index and tips.
// A hash is a tip iff no accepted event names it as parent.
func (l *Ledger) insert(h hash.Hash, e *inter.Event) {
	l.events[h] = *e
	l.order = append(l.order, h)

	if e.PrevHash != hash.Zero {
		l.parentIndex[e.PrevHash] = append(l.parentIndex[e.PrevHash], h)
		delete(l.tips, e.PrevHash)
	}
	if len(l.parentIndex[h]) == 0 {
		l.tips[h] = struct{}{}
	}

	log.WithFields(logrus.Fields{
		"event":  hexutil.Encode(h.Bytes()),
		"author": e.Author.String(),
	}).Debug("event accepted")
}

// GetEvent returns a copy of the accepted event with the given identity, or
// false if it is unknown.
func (l *Ledger) GetEvent(h hash.Hash) (inter.Event, bool) {
	e, ok := l.events[h]
	return e, ok
}

// Has reports whether the hash is accepted.
func (l *Ledger) Has(h hash.Hash) bool {
	_, ok := l.events[h]
	return ok
}

// Len returns the number of accepted events.
func (l *Ledger) Len() int {
	return len(l.events)
}

// Order returns the accepted identity hashes in acceptance order. The slice
// is owned by the caller. Merkle leaves do not depend on this order.
func (l *Ledger) Order() []hash.Hash {
	out := make([]hash.Hash, len(l.order))
	copy(out, l.order)
	return out
}

// Tips returns the current tip hashes in lexicographic order. The slice is
// owned by the caller.
func (l *Ledger) Tips() []hash.Hash {
	out := make([]hash.Hash, 0, len(l.tips))
	for h := range l.tips {
		out = append(out, h)
	}
	sortHashes(out)
	return out
}

// CopyTips fills buf with tips in lexicographic order and returns how many
// were copied along with the total tip count, which may exceed len(buf).
func (l *Ledger) CopyTips(buf []hash.Hash) (copied int, total int) {
	tips := l.Tips()
	copied = copy(buf, tips)
	return copied, len(tips)
}

// IsAncestor walks the parent chain from descendant for up to maxSteps hops
// and reports whether it encounters ancestor. The zero hash is never an
// ancestor. A walk that exceeds maxSteps or reaches genesis without a hit
// returns false; that is a bounded negative, not an error.
//
// The walk is iterative: under the linkage invariant cycles cannot occur,
// and the step bound caps the cost either way.
func (l *Ledger) IsAncestor(ancestor, descendant hash.Hash, maxSteps int) bool {
	if ancestor == hash.Zero {
		return false
	}
	cur := descendant
	for step := 0; step <= maxSteps; step++ {
		if cur == ancestor {
			return true
		}
		e, ok := l.events[cur]
		if !ok || e.PrevHash == hash.Zero {
			return false
		}
		cur = e.PrevHash
	}
	return false
}

// Checkpoint summarizes the accepted set at the given tick: event count,
// Merkle root, and the tip frontier.
func (l *Ledger) Checkpoint(tick inter.Timestamp) inter.Checkpoint {
	root, _ := l.MerkleRoot()
	return inter.Checkpoint{
		Tick:       tick,
		EventCount: uint64(len(l.events)),
		Root:       root,
		Tips:       l.Tips(),
	}
}

func sortHashes(hh []hash.Hash) {
	sort.Slice(hh, func(i, j int) bool {
		return bytes.Compare(hh[i].Bytes(), hh[j].Bytes()) < 0
	})
}
