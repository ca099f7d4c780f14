// Package eventcheck validates events against per-author contexts before the
// ledger links them.
//
// Validation is stateless with respect to ledger linkage: it checks the
// layout version, the signature over the canonical bytes, and per-author
// timestamp monotonicity within a bounded backward skew. Parent existence is
// the ledger's concern (see ledger.LinkEvent).
//
// The backward-skew bound is carried as an immutable field of each
// ValidationContext, fixed at construction time. There is no mutable
// process-wide state.
package eventcheck

import (
	"errors"

	"github.com/dvel-foundation/go-dvel/inter"
)

// Validation errors. A nil return from Validate means the event passed.
var (
	ErrInvalidVersion        = errors.New("invalid event version")
	ErrInvalidSignature      = errors.New("invalid event signature")
	ErrTimestampNonMonotonic = errors.New("event timestamp is non-monotonic for its author")
)

// DefaultMaxBackwardSkew tolerates adversarial delivery reordering: an event
// may arrive with a timestamp up to this many ticks behind the author's
// latest accepted timestamp.
const DefaultMaxBackwardSkew uint64 = 1000000

// Rules is the validation configuration.
type Rules struct {
	// MaxBackwardSkew is the tolerated backward timestamp distance, in
	// ticks. Values below 1 are treated as 1.
	MaxBackwardSkew uint64
}

// DefaultRules returns the default validation rules.
func DefaultRules() Rules {
	return Rules{
		MaxBackwardSkew: DefaultMaxBackwardSkew,
	}
}

// ValidationContext tracks the highest accepted timestamp of one author.
// Conceptually there is one context per author. The skew bound is fixed when
// the context is created and cannot change afterwards.
type ValidationContext struct {
	LastTimestamp inter.Timestamp

	maxBackwardSkew uint64
}

// NewValidationContext returns a fresh per-author context with the default
// rules.
func NewValidationContext() *ValidationContext {
	return NewValidationContextWithRules(DefaultRules())
}

// NewValidationContextWithRules returns a fresh per-author context with the
// given rules. The skew is clamped to a minimum of 1.
func NewValidationContextWithRules(r Rules) *ValidationContext {
	skew := r.MaxBackwardSkew
	if skew < 1 {
		skew = 1
	}
	return &ValidationContext{
		maxBackwardSkew: skew,
	}
}

// MaxBackwardSkew returns the context's effective skew bound.
func (ctx *ValidationContext) MaxBackwardSkew() uint64 {
	if ctx.maxBackwardSkew < 1 {
		// zero-value context: fall back to the default rules
		return DefaultMaxBackwardSkew
	}
	return ctx.maxBackwardSkew
}

// Validate checks an event against its author's context.
//
// Checks, in order: layout version, signature over canonical bytes, bounded
// timestamp monotonicity. On success the context's LastTimestamp advances to
// the maximum of itself and the event's timestamp; on failure the context is
// unchanged and the caller may retry with a different event.
func Validate(e *inter.Event, ctx *ValidationContext) error {
	if e.Version != inter.ProtocolVersion {
		return ErrInvalidVersion
	}
	if !inter.VerifyEventSignature(e) {
		return ErrInvalidSignature
	}

	skew := ctx.MaxBackwardSkew()
	if ctx.LastTimestamp > 0 && uint64(e.Timestamp)+skew < uint64(ctx.LastTimestamp) {
		return ErrTimestampNonMonotonic
	}

	if e.Timestamp > ctx.LastTimestamp {
		ctx.LastTimestamp = e.Timestamp
	}
	return nil
}
