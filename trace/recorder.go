// Package trace records one deterministic row per observed ledger accept.
//
// Rows carry the full event fields plus the overlay decision around the
// observation (ancestor check outcome, quarantine window before and after,
// author weight), so an external checker can rebuild every decision from the
// row stream alone. Rows are appended in the exact order ObserveEvent is
// called and are never reordered or dropped.
//
// A Recorder owns its rows. The sybil overlay holds a non-owning reference
// to an attached recorder; detach it before releasing the recorder.
package trace

import (
	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
)

// Row is the per-accept record.
//
// MerkleRoot and PreferredTip are nullable: they are populated only when the
// observer computed them anyway, and checkers must not depend on them being
// set unless explicitly requested.
type Row struct {
	PrevHash    hash.Hash
	Author      authorpk.PubKey
	Timestamp   inter.Timestamp
	PayloadHash hash.Hash
	Signature   inter.Signature

	// ParentPresent is true iff the event names a non-zero parent.
	ParentPresent bool

	// AncestorCheck is false iff the author's new and previous tips were
	// found unrelated within the walk bound, i.e. the author equivocated.
	AncestorCheck bool

	// Quarantine window (exclusive upper bound tick) bracketing the
	// observation.
	QuarantinedUntilBefore uint64
	QuarantinedUntilAfter  uint64

	// MerkleRoot is the ledger commitment after the accept, if computed.
	MerkleRoot *hash.Hash

	// PreferredTip is the sybil-policy preferred tip at the observation
	// tick, if computed.
	PreferredTip *hash.Hash

	// AuthorWeightFP is the author's fixed-point weight at the
	// observation tick, after any quarantine update.
	AuthorWeightFP uint64
}

// Recorder is an append-only sequence of rows.
type Recorder struct {
	rows []Row
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds a row at the end of the sequence.
func (r *Recorder) Append(row Row) {
	r.rows = append(r.rows, row)
}

// Len returns the number of recorded rows.
func (r *Recorder) Len() int {
	return len(r.rows)
}

// Get returns the i-th row, or false if the index is out of range.
func (r *Recorder) Get(i int) (Row, bool) {
	if i < 0 || i >= len(r.rows) {
		return Row{}, false
	}
	return r.rows[i], true
}

// Clear drops all rows; the recorder stays usable.
func (r *Recorder) Clear() {
	r.rows = r.rows[:0]
}

// Rows returns a copy of the full row sequence.
func (r *Recorder) Rows() []Row {
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out
}
