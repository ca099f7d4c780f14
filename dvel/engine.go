package dvel

import (
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/sirupsen/logrus"

	"github.com/dvel-foundation/go-dvel/eventcheck"
	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/ledger"
	"github.com/dvel-foundation/go-dvel/sybil"
	"github.com/dvel-foundation/go-dvel/tipselect"
	"github.com/dvel-foundation/go-dvel/trace"
)

var log = logrus.WithField("module", "dvel")

// Engine is the capability surface collaborators drive: one observer node's
// ledger, sybil overlay, trace recorder, and per-author validation contexts,
// wired validate → link → observe.
//
// Every operation is synchronous and deterministic. An Engine is not safe
// for concurrent mutation; independent engines share no state.
type Engine struct {
	rules    Rules
	observer uint32

	ledger   *ledger.Ledger
	overlay  *sybil.Overlay
	recorder *trace.Recorder
	ctxs     map[authorpk.PubKey]*eventcheck.ValidationContext
}

// NewEngine assembles an engine for one observer node. The rules are
// validated and fixed for the engine's lifetime; the trace recorder is
// attached from the start, so every accepted event produces a row with
// ledger commitments populated.
func NewEngine(rules Rules, observer uint32) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	en := &Engine{
		rules:    rules,
		observer: observer,
		ledger:   ledger.New(),
		overlay:  sybil.NewOverlay(rules.OverlayConfig(true)),
		recorder: trace.NewRecorder(),
		ctxs:     make(map[authorpk.PubKey]*eventcheck.ValidationContext),
	}
	en.overlay.AttachTraceRecorder(en.recorder)

	log.WithFields(logrus.Fields{
		"rules":    rules.Name,
		"observer": observer,
	}).Debug("engine assembled")
	return en, nil
}

// Rules returns the engine's configuration.
func (en *Engine) Rules() Rules {
	return en.rules
}

// Ledger returns the engine-owned ledger handle.
func (en *Engine) Ledger() *ledger.Ledger {
	return en.ledger
}

// Overlay returns the engine-owned sybil overlay handle.
func (en *Engine) Overlay() *sybil.Overlay {
	return en.overlay
}

// Recorder returns the engine-owned trace recorder handle.
func (en *Engine) Recorder() *trace.Recorder {
	return en.recorder
}

// ValidationContext returns the per-author context, creating it on first
// use with the engine's validation rules.
func (en *Engine) ValidationContext(author authorpk.PubKey) *eventcheck.ValidationContext {
	ctx, ok := en.ctxs[author]
	if !ok {
		ctx = eventcheck.NewValidationContextWithRules(en.rules.EventcheckRules())
		en.ctxs[author] = ctx
	}
	return ctx
}

// Submit runs the full accept path for one event at the given observer tick:
// validation against the author's context, linkage into the ledger, and
// overlay observation (which appends the trace row).
//
// On a validation error the engine state is unchanged. On a linkage error
// the ledger, overlay and trace are unchanged, but the author's validation
// context keeps the timestamp it advanced to when validation passed.
// ledger.ErrDuplicateEvent additionally returns the existing identity hash
// so callers can treat the duplicate as a no-op.
func (en *Engine) Submit(e *inter.Event, tick uint64) (hash.Hash, error) {
	if err := eventcheck.Validate(e, en.ValidationContext(e.Author)); err != nil {
		return hash.Zero, err
	}

	h, err := en.ledger.LinkEvent(e)
	if err != nil {
		return h, err
	}

	en.overlay.ObserveEvent(en.ledger, tick, en.observer, h)
	return h, nil
}

// PreferredTip selects the preferred tip at the given tick under the
// sybil-aware policy, the engine's production default.
func (en *Engine) PreferredTip(tick uint64) (hash.Hash, uint64, bool) {
	return tipselect.PreferredTipSybil(en.ledger, en.overlay, tick, int(en.rules.Sybil.MaxLinkWalk))
}

// PreferredTipUnit selects the preferred tip under a unit-weight policy.
func (en *Engine) PreferredTipUnit(policy tipselect.Policy) (hash.Hash, uint64, bool) {
	return tipselect.PreferredTip(en.ledger, policy, int(en.rules.Sybil.MaxLinkWalk))
}

// Checkpoint summarizes the engine's accepted state at the given tick.
func (en *Engine) Checkpoint(tick inter.Timestamp) inter.Checkpoint {
	return en.ledger.Checkpoint(tick)
}

// Close detaches the trace recorder from the overlay. The engine must not
// submit events afterwards.
func (en *Engine) Close() {
	en.overlay.DetachTraceRecorder()
}
