// Package tipselect chooses a preferred tip over the ledger's current tip
// set. Preference is local and non-consensus: it never affects what the
// ledger accepts.
//
// Two policies are provided. The unit policy scores a tip by its bounded
// chain length. The latest-per-author policy scores a tip by its authors,
// counting each author's current contribution at most once — optionally
// weighted by a sybil overlay (see PreferredTipSybil). All ties break toward
// the lexicographically smallest tip hash, so results are deterministic.
package tipselect

import (
	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/ledger"
)

// Policy selects the per-tip scoring rule.
type Policy uint8

const (
	// PolicyUnit scores a tip by its chain length toward genesis, bounded
	// by maxSteps.
	PolicyUnit Policy = iota
	// PolicyLatestPerAuthorUnit scores a tip by the number of distinct
	// authors on its bounded ancestor chain.
	PolicyLatestPerAuthorUnit
)

// WeightSource supplies per-author weights and latest-tip assignments for
// the sybil-aware policy. The sybil overlay implements it.
type WeightSource interface {
	// AuthorWeightFP returns the author's fixed-point weight at the tick.
	AuthorWeightFP(tick uint64, author authorpk.PubKey) uint64
	// LatestTip returns the hash of the author's most recent observed
	// event, or false if the author is unknown.
	LatestTip(author authorpk.PubKey) (hash.Hash, bool)
}

// PreferredTip selects a tip under the given unit-weight policy.
// Returns false iff the ledger is empty.
func PreferredTip(l *ledger.Ledger, policy Policy, maxSteps int) (hash.Hash, uint64, bool) {
	best := hash.Zero
	bestScore := uint64(0)
	found := false

	for _, tip := range l.Tips() {
		var score uint64
		switch policy {
		case PolicyLatestPerAuthorUnit:
			score = distinctAuthorScore(l, tip, maxSteps, nil, 0)
		default:
			score = chainLength(l, tip, maxSteps)
		}
		// Tips() is lexicographically sorted, so a strict comparison
		// keeps the smallest hash on ties.
		if !found || score > bestScore {
			best = tip
			bestScore = score
			found = true
		}
	}
	return best, bestScore, found
}

// PreferredTipSybil selects a tip under the sybil-aware latest-per-author
// policy: each distinct author on a tip's bounded ancestor chain contributes
// its overlay weight at most once, at the event that is the author's latest
// observed tip. Returns false iff the ledger is empty.
func PreferredTipSybil(l *ledger.Ledger, src WeightSource, tick uint64, maxSteps int) (hash.Hash, uint64, bool) {
	best := hash.Zero
	bestScore := uint64(0)
	found := false

	for _, tip := range l.Tips() {
		score := distinctAuthorScore(l, tip, maxSteps, src, tick)
		if !found || score > bestScore {
			best = tip
			bestScore = score
			found = true
		}
	}
	return best, bestScore, found
}

// chainLength walks the parent chain from t and returns the number of events
// visited, at most maxSteps.
func chainLength(l *ledger.Ledger, t hash.Hash, maxSteps int) uint64 {
	var count uint64
	cur := t
	for count < uint64(maxSteps) {
		e, ok := l.GetEvent(cur)
		if !ok {
			break
		}
		count++
		if e.PrevHash == hash.Zero {
			break
		}
		cur = e.PrevHash
	}
	return count
}

// distinctAuthorScore walks the parent chain from t, visiting at most
// maxSteps events, and sums per-author contributions. With a nil source
// every distinct author contributes one unit. With a source, an author
// contributes its weight only at the event that the source reports as the
// author's latest tip, so each author's current contribution is counted at
// most once.
func distinctAuthorScore(l *ledger.Ledger, t hash.Hash, maxSteps int, src WeightSource, tick uint64) uint64 {
	var score uint64
	seen := make(map[authorpk.PubKey]struct{})

	cur := t
	for steps := 0; steps < maxSteps; steps++ {
		e, ok := l.GetEvent(cur)
		if !ok {
			break
		}
		if _, dup := seen[e.Author]; !dup {
			seen[e.Author] = struct{}{}
			if src == nil {
				score++
			} else if latest, known := src.LatestTip(e.Author); known && latest == cur {
				score += src.AuthorWeightFP(tick, e.Author)
			}
		}
		if e.PrevHash == hash.Zero {
			break
		}
		cur = e.PrevHash
	}
	return score
}
