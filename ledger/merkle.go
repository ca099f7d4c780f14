package ledger

import (
	"crypto/sha256"

	"github.com/Fantom-foundation/lachesis-base/hash"
)

// MerkleRoot folds the accepted identity hashes into a single commitment.
//
// Leaves are the accepted hashes in lexicographic order, so the root depends
// only on the accepted set, never on insertion order. At each level an odd
// tail node is paired with itself; parent = SHA-256(left ‖ right). Returns
// false iff the ledger is empty. A single accepted event is its own root.
func (l *Ledger) MerkleRoot() (hash.Hash, bool) {
	if len(l.events) == 0 {
		return hash.Zero, false
	}

	level := make([]hash.Hash, 0, len(l.events))
	for h := range l.events {
		level = append(level, h)
	}
	sortHashes(level)

	return foldMerkleLevels(level), true
}

// MerkleRootOfLeaves folds an arbitrary leaf set with the same rule the
// ledger uses for accepted hashes. Returns false for an empty set.
func MerkleRootOfLeaves(leaves []hash.Hash) (hash.Hash, bool) {
	if len(leaves) == 0 {
		return hash.Zero, false
	}
	level := make([]hash.Hash, len(leaves))
	copy(level, leaves)
	sortHashes(level)
	return foldMerkleLevels(level), true
}

func foldMerkleLevels(level []hash.Hash) hash.Hash {
	for len(level) > 1 {
		next := make([]hash.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, merkleParent(left, right))
		}
		level = next
	}
	return level[0]
}

func merkleParent(left, right hash.Hash) hash.Hash {
	hasher := sha256.New()
	hasher.Write(left.Bytes())
	hasher.Write(right.Bytes())
	return hash.BytesToHash(hasher.Sum(nil))
}
