package inter

import (
	"crypto/sha256"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/rlp"
)

// Checkpoint is a deterministic summary of a ledger's accepted set at a given
// observer tick. It is produced on demand by the ledger and is the record
// collaborators anchor or exchange when they want a compact commitment to
// history without shipping events.
//
// Tips and the Merkle root depend only on the accepted hash set, so two
// ledgers that accepted the same events produce byte-equal checkpoints for
// the same tick.
type Checkpoint struct {
	// Tick is the observer tick the summary was taken at.
	Tick Timestamp

	// EventCount is the number of accepted events.
	EventCount uint64

	// Root is the Merkle root over the accepted identity hashes, or
	// hash.Zero for an empty ledger.
	Root hash.Hash

	// Tips lists the current tip hashes in lexicographic order.
	Tips []hash.Hash
}

// Hash computes the SHA-256 hash of the RLP-encoded checkpoint. This
// fingerprints the entire summary, including the tip frontier.
func (c Checkpoint) Hash() hash.Hash {
	hasher := sha256.New()
	err := rlp.Encode(hasher, &c)
	if err != nil {
		panic("can't hash: " + err.Error())
	}
	return hash.BytesToHash(hasher.Sum(nil))
}

// EstimateSize returns an approximate in-memory size of the checkpoint in
// bytes: one 32-byte hash per tip plus the root, and the two fixed fields.
func (c Checkpoint) EstimateSize() int {
	hashBytes := (len(c.Tips) + 1) * 32
	fixedBytes := 8 + 8
	return hashBytes + fixedBytes
}
