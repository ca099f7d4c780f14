// Package sybil implements the sybil-aware preference overlay.
//
// The overlay observes events the ledger has already accepted and maintains
// per-author state: the latest accepted event, the first-seen tick, and an
// equivocation quarantine window. From that state it answers fixed-point
// weight queries used by tip selection. The overlay is purely a preference
// input — it never invalidates events and never mutates the ledger.
//
// Equivocation is detected through the ledger's bounded ancestor predicate:
// if an author's new tip and previous tip are unrelated within the walk
// bound, the author is quarantined and its weight drops to zero until the
// window expires, after which the warmup ramp applies from first-seen.
package sybil

import (
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/ledger"
	"github.com/dvel-foundation/go-dvel/tipselect"
	"github.com/dvel-foundation/go-dvel/trace"
)

var log = logrus.WithField("module", "sybil")

// Config tunes the overlay. The zero value is unusable; start from
// DefaultConfig.
type Config struct {
	// WarmupTicks is the length of the linear weight ramp from first-seen
	// to full weight.
	WarmupTicks uint64

	// QuarantineTicks is the length of the weight-zeroing window applied
	// on each detected equivocation.
	QuarantineTicks uint64

	// FixedPointScale is the full author weight. All weights are integer
	// fixed-point against this scale; no floating point anywhere in the
	// preference path.
	FixedPointScale uint64

	// MaxLinkWalk bounds the ancestor walks used for equivocation
	// detection and trace-row tip selection.
	MaxLinkWalk int

	// TraceCommitments controls whether observed trace rows carry the
	// ledger Merkle root and the sybil preferred tip. Rows leave both
	// unset when disabled; checkers must not rely on them being present.
	TraceCommitments bool
}

// DefaultConfig returns the reference overlay parameters.
func DefaultConfig() Config {
	return Config{
		WarmupTicks:      4,
		QuarantineTicks:  12,
		FixedPointScale:  1000,
		MaxLinkWalk:      128,
		TraceCommitments: true,
	}
}

// authorState is the per-author overlay record.
type authorState struct {
	latestTip        hash.Hash
	hasTip           bool
	firstSeenTick    uint64
	quarantinedUntil uint64 // exclusive upper bound tick
}

// Overlay holds the observer-scoped sybil state.
//
// An Overlay is bound to the observation sequence of a single observer; it
// is not safe for concurrent mutation. The attached trace recorder is a
// non-owning reference: detach it before the recorder is released.
type Overlay struct {
	cfg    Config
	state  map[authorpk.PubKey]*authorState
	rec    *trace.Recorder
	proofs []EquivocationProof
}

// NewOverlay creates an overlay with the given config.
func NewOverlay(cfg Config) *Overlay {
	return &Overlay{
		cfg:   cfg,
		state: make(map[authorpk.PubKey]*authorState),
	}
}

// Config returns the current overlay configuration.
func (o *Overlay) Config() Config {
	return o.cfg
}

// SetConfig overrides the overlay configuration in place. It affects future
// observations and weight queries only; accumulated state is kept.
func (o *Overlay) SetConfig(cfg Config) {
	o.cfg = cfg
}

// AttachTraceRecorder attaches a recorder; each subsequent observation
// appends exactly one row. The overlay does not own the recorder.
func (o *Overlay) AttachTraceRecorder(rec *trace.Recorder) {
	o.rec = rec
}

// DetachTraceRecorder drops the recorder reference.
func (o *Overlay) DetachTraceRecorder() {
	o.rec = nil
}

// ObserveEvent processes an accept that already happened in the ledger.
//
// The observation updates the author's latest tip, runs the mutual ancestor
// check against the previous tip, extends the quarantine window on
// equivocation, and appends one trace row if a recorder is attached.
// Observing a hash the ledger does not know is a caller contract violation:
// it is logged and ignored, and never corrupts state.
func (o *Overlay) ObserveEvent(l *ledger.Ledger, tick uint64, observerNode uint32, h hash.Hash) {
	e, ok := l.GetEvent(h)
	if !ok {
		log.WithFields(logrus.Fields{
			"observer": observerNode,
			"event":    hexutil.Encode(h.Bytes()),
		}).Warn("observation of unknown event hash ignored")
		return
	}

	st := o.state[e.Author]
	preQuarantine := uint64(0)
	if st != nil {
		preQuarantine = st.quarantinedUntil
	}

	ancestorCheck := true
	if st == nil || !st.hasTip {
		// first observation of this author: no equivocation possible yet
		if st == nil {
			st = &authorState{firstSeenTick: tick}
			o.state[e.Author] = st
		} else {
			st.firstSeenTick = tick
		}
	} else {
		prevTip := st.latestTip
		ancestorCheck = l.IsAncestor(prevTip, h, o.cfg.MaxLinkWalk) ||
			l.IsAncestor(h, prevTip, o.cfg.MaxLinkWalk)
		if !ancestorCheck {
			until := tick + o.cfg.QuarantineTicks
			if until > st.quarantinedUntil {
				st.quarantinedUntil = until
			}
			o.recordProof(l, e.Author, prevTip, h)
			log.WithFields(logrus.Fields{
				"observer":          observerNode,
				"author":            e.Author.String(),
				"quarantined_until": st.quarantinedUntil,
			}).Warn("equivocation detected, author quarantined")
		}
	}

	st.latestTip = h
	st.hasTip = true

	if o.rec != nil {
		row := trace.Row{
			PrevHash:               e.PrevHash,
			Author:                 e.Author,
			Timestamp:              e.Timestamp,
			PayloadHash:            e.PayloadHash,
			Signature:              e.Sig,
			ParentPresent:          e.PrevHash != hash.Zero,
			AncestorCheck:          ancestorCheck,
			QuarantinedUntilBefore: preQuarantine,
			QuarantinedUntilAfter:  st.quarantinedUntil,
			AuthorWeightFP:         o.AuthorWeightFP(tick, e.Author),
		}
		if o.cfg.TraceCommitments {
			if root, has := l.MerkleRoot(); has {
				r := root
				row.MerkleRoot = &r
			}
			if tip, _, has := tipselect.PreferredTipSybil(l, o, tick, o.cfg.MaxLinkWalk); has {
				tp := tip
				row.PreferredTip = &tp
			}
		}
		o.rec.Append(row)
	}
}

// AuthorWeightFP returns the author's fixed-point weight at the given tick:
// zero for unknown or quarantined authors, a linear integer ramp over
// WarmupTicks from first-seen, and FixedPointScale thereafter.
func (o *Overlay) AuthorWeightFP(tick uint64, author authorpk.PubKey) uint64 {
	st, ok := o.state[author]
	if !ok {
		return 0
	}
	if tick < st.quarantinedUntil {
		return 0
	}
	var age uint64
	if tick > st.firstSeenTick {
		age = tick - st.firstSeenTick
	}
	if age >= o.cfg.WarmupTicks {
		return o.cfg.FixedPointScale
	}
	return o.cfg.FixedPointScale * age / o.cfg.WarmupTicks
}

// Quarantined reports whether the author's weight is forced to zero at the
// given tick.
func (o *Overlay) Quarantined(tick uint64, author authorpk.PubKey) bool {
	st, ok := o.state[author]
	return ok && tick < st.quarantinedUntil
}

// LatestTip returns the author's most recent observed event hash.
// Implements tipselect.WeightSource.
func (o *Overlay) LatestTip(author authorpk.PubKey) (hash.Hash, bool) {
	st, ok := o.state[author]
	if !ok || !st.hasTip {
		return hash.Zero, false
	}
	return st.latestTip, true
}

// QuarantinedUntil returns the author's quarantine window upper bound
// (exclusive), or zero if the author is unknown.
func (o *Overlay) QuarantinedUntil(author authorpk.PubKey) uint64 {
	st, ok := o.state[author]
	if !ok {
		return 0
	}
	return st.quarantinedUntil
}
