package sybil

import (
	"bytes"
	"errors"

	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/ledger"
)

// Proof validation errors.
var (
	ErrProofAuthorMismatch = errors.New("equivocation proof: events not authored by the offender")
	ErrProofBadSignature   = errors.New("equivocation proof: invalid event signature")
	ErrProofSameEvent      = errors.New("equivocation proof: the two events are identical")
	ErrProofRelatedEvents  = errors.New("equivocation proof: events are ancestors of each other")
	ErrProofUnknownEvents  = errors.New("equivocation proof: events are not accepted by the ledger")
)

// EquivocationProof is the evidence of a doublesign: two accepted events by
// one author, neither an ancestor of the other within the walk bound. The
// pair always holds exactly two events, ordered by identity hash so equal
// proofs compare equal.
//
// A proof is portable: any party holding a ledger that accepted both events
// can re-validate it without overlay state.
type EquivocationProof struct {
	Offender authorpk.PubKey
	Pair     [2]inter.Event
}

// recordProof assembles and stores a proof for a detected equivocation.
// Both hashes are accepted by the time detection runs, so lookups succeed.
func (o *Overlay) recordProof(l *ledger.Ledger, offender authorpk.PubKey, a, b hash.Hash) {
	ea, okA := l.GetEvent(a)
	eb, okB := l.GetEvent(b)
	if !okA || !okB {
		return
	}
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		ea, eb = eb, ea
	}
	o.proofs = append(o.proofs, EquivocationProof{
		Offender: offender,
		Pair:     [2]inter.Event{ea, eb},
	})
}

// Proofs returns a copy of the equivocation proofs accumulated so far, in
// detection order.
func (o *Overlay) Proofs() []EquivocationProof {
	out := make([]EquivocationProof, len(o.proofs))
	copy(out, o.proofs)
	return out
}

// Validate re-checks the proof against a ledger that accepted both events:
// authorship, signatures, distinctness, acceptance, and mutual non-ancestry
// within maxSteps. A nil return means the proof stands.
func (p *EquivocationProof) Validate(l *ledger.Ledger, maxSteps int) error {
	for i := range p.Pair {
		e := p.Pair[i]
		if e.Author != p.Offender {
			return ErrProofAuthorMismatch
		}
		if !inter.VerifyEventSignature(&e) {
			return ErrProofBadSignature
		}
	}

	ha := ledger.HashEvent(&p.Pair[0])
	hb := ledger.HashEvent(&p.Pair[1])
	if ha == hb {
		return ErrProofSameEvent
	}
	if !l.Has(ha) || !l.Has(hb) {
		return ErrProofUnknownEvents
	}
	if l.IsAncestor(ha, hb, maxSteps) || l.IsAncestor(hb, ha, maxSteps) {
		return ErrProofRelatedEvents
	}
	return nil
}
