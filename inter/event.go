// Package inter defines the core data structures of the verifiable event
// ledger. An Event is an atomic signed record with a single parent hash; the
// ledger (see the ledger package) links events into an append-only DAG and is
// the only component that assigns identity hashes.
//
// Key concepts:
//   - Event: fixed-layout record (version, parent, author, timestamp,
//     payload hash, signature)
//   - Canonical bytes: the exact 105-byte encoding that is signed and hashed
//   - Identity: SHA-256 over canonical bytes plus the 64-byte signature
//   - Checkpoint: a deterministic summary of the accepted set
package inter

import (
	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/dvel-foundation/go-dvel/inter/authorpk"
)

// ProtocolVersion is the current event layout version.
const ProtocolVersion uint8 = 1

// Timestamp is an opaque tick supplied by the event producer. The core never
// consults a wall clock; monotonicity is enforced per author by eventcheck.
type Timestamp uint64

// SigSize is the width of an event signature in bytes.
const SigSize = 64

// Signature is a raw ed25519 signature over the canonical event bytes.
type Signature [SigSize]byte

// BytesToSignature converts a byte slice into a Signature, truncating or
// zero-padding as needed.
func BytesToSignature(b []byte) (sig Signature) {
	copy(sig[:], b)
	return sig
}

// Bytes returns the signature as a byte slice.
func (s Signature) Bytes() []byte {
	return s[:]
}

// Event is an atomic signed ledger record.
//
// PrevHash is the identity hash of the single parent event; hash.Zero marks a
// genesis event with no parent. The signature covers the canonical bytes of
// the other five fields. Events are value types: once linked into a ledger
// they are never mutated.
type Event struct {
	// Version is the layout version; validation rejects anything other
	// than ProtocolVersion.
	Version uint8

	// PrevHash is the parent event identity, or hash.Zero for genesis.
	PrevHash hash.Hash

	// Author is the ed25519 public key of the event producer.
	Author authorpk.PubKey

	// Timestamp is the producer-supplied tick. Monotonic per author within
	// a bounded backward skew.
	Timestamp Timestamp

	// PayloadHash commits to the event payload; the payload itself never
	// enters the core.
	PayloadHash hash.Hash

	// Sig is the ed25519 signature over CanonicalBytes().
	Sig Signature
}

// NewEvent constructs an unsigned event at the current protocol version from
// trusted local inputs. Validity remains a separate check.
func NewEvent(prev hash.Hash, author authorpk.PubKey, ts Timestamp, payload hash.Hash) *Event {
	return &Event{
		Version:     ProtocolVersion,
		PrevHash:    prev,
		Author:      author,
		Timestamp:   ts,
		PayloadHash: payload,
	}
}

// IsGenesis reports whether the event claims no parent.
func (e *Event) IsGenesis() bool {
	return e.PrevHash == hash.Zero
}
