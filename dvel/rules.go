// Package dvel defines the network rules and the engine assembly of the
// verifiable event ledger.
//
// This package provides:
//   - Network identification constants (main, test, fake)
//   - Validation rules (timestamp skew bound)
//   - Sybil overlay rules (warmup, quarantine, fixed-point scale, walk bound)
//   - The Engine, which wires validation, linkage, and observation behind a
//     single stable surface for collaborators
//
// The Rules type is the central configuration structure: it is what
// simulators and tools pass around, persist, and fingerprint.
package dvel

import (
	"crypto/sha256"
	"encoding/json"
	"errors"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dvel-foundation/go-dvel/eventcheck"
	"github.com/dvel-foundation/go-dvel/sybil"
)

// Network identification constants.
const (
	// MainNetworkID identifies the reference research network.
	MainNetworkID uint64 = 0xd5e1

	// TestNetworkID identifies shared test deployments.
	TestNetworkID uint64 = 0xd5e2

	// FakeNetworkID identifies local single-process networks used in
	// simulations and unit tests.
	FakeNetworkID uint64 = 0xd5e3
)

// Rule validation errors.
var (
	ErrZeroScale    = errors.New("rules: fixed-point scale must be non-zero")
	ErrZeroLinkWalk = errors.New("rules: max link walk must be non-zero")
	ErrZeroSkew     = errors.New("rules: max backward skew must be non-zero")
	ErrNoName       = errors.New("rules: name must be set")
)

// RulesRLP is the serializable form of Rules. Every field is part of the
// rules fingerprint (see Rules.Hash).
type RulesRLP struct {
	// Name is the human-readable rules identifier (e.g. "default").
	Name string

	// NetworkID distinguishes deployments that must not share events.
	NetworkID uint64

	// Validation bundles the event validation parameters.
	Validation ValidationRules

	// Sybil bundles the preference overlay parameters.
	Sybil SybilRules
}

// Rules describes the complete configuration of a ledger deployment.
type Rules RulesRLP

// ValidationRules defines the event validation parameters.
type ValidationRules struct {
	// MaxBackwardSkew is the tolerated per-author backward timestamp
	// distance in ticks, minimum 1.
	MaxBackwardSkew uint64
}

// SybilRules defines the preference overlay parameters.
type SybilRules struct {
	// WarmupTicks is the length of the linear weight ramp for new
	// authors.
	WarmupTicks uint64

	// QuarantineTicks is the weight-zeroing window applied per detected
	// equivocation.
	QuarantineTicks uint64

	// FixedPointScale is the full author weight; all weights are integer
	// fixed-point against it.
	FixedPointScale uint64

	// MaxLinkWalk bounds ancestor walks in equivocation detection and tip
	// selection.
	MaxLinkWalk uint64
}

// DefaultRules returns the reference configuration.
func DefaultRules() Rules {
	return Rules{
		Name:      "default",
		NetworkID: MainNetworkID,
		Validation: ValidationRules{
			MaxBackwardSkew: eventcheck.DefaultMaxBackwardSkew,
		},
		Sybil: SybilRules{
			WarmupTicks:     4,
			QuarantineTicks: 12,
			FixedPointScale: 1000,
			MaxLinkWalk:     128,
		},
	}
}

// FakeNetRules returns a configuration for local simulation runs: a tight
// skew so scenario mistakes surface, and short overlay windows so attack
// scenarios play out in few ticks.
func FakeNetRules() Rules {
	r := DefaultRules()
	r.Name = "fake"
	r.NetworkID = FakeNetworkID
	r.Validation.MaxBackwardSkew = 16
	r.Sybil.WarmupTicks = 2
	r.Sybil.QuarantineTicks = 6
	return r
}

// Validate checks internal consistency of the rules.
func (r Rules) Validate() error {
	if r.Name == "" {
		return ErrNoName
	}
	if r.Validation.MaxBackwardSkew == 0 {
		return ErrZeroSkew
	}
	if r.Sybil.FixedPointScale == 0 {
		return ErrZeroScale
	}
	if r.Sybil.MaxLinkWalk == 0 {
		return ErrZeroLinkWalk
	}
	return nil
}

// Copy returns a deep copy of the rules.
func (r Rules) Copy() Rules {
	cp := r
	return cp
}

// Hash calculates the SHA-256 hash of the RLP-encoded rules. Two deployments
// agree on configuration iff their rules hashes match.
func (r Rules) Hash() hash.Hash {
	hasher := sha256.New()
	err := rlp.Encode(hasher, (*RulesRLP)(&r))
	if err != nil {
		panic("can't hash: " + err.Error())
	}
	return hash.BytesToHash(hasher.Sum(nil))
}

// String returns the JSON representation, for logs and config dumps.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}

// EventcheckRules converts the validation section into the eventcheck form.
func (r Rules) EventcheckRules() eventcheck.Rules {
	return eventcheck.Rules{
		MaxBackwardSkew: r.Validation.MaxBackwardSkew,
	}
}

// OverlayConfig converts the sybil section into the overlay form.
// traceCommitments controls whether observed trace rows carry ledger
// commitments.
func (r Rules) OverlayConfig(traceCommitments bool) sybil.Config {
	return sybil.Config{
		WarmupTicks:      r.Sybil.WarmupTicks,
		QuarantineTicks:  r.Sybil.QuarantineTicks,
		FixedPointScale:  r.Sybil.FixedPointScale,
		MaxLinkWalk:      int(r.Sybil.MaxLinkWalk),
		TraceCommitments: traceCommitments,
	}
}
