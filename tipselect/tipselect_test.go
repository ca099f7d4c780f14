package tipselect_test

import (
	"bytes"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/ledger"
	"github.com/dvel-foundation/go-dvel/sybil"
	"github.com/dvel-foundation/go-dvel/tipselect"
)

func testSecret(fill byte) authorpk.Secret {
	var s authorpk.Secret
	for i := range s {
		s[i] = fill
	}
	return s
}

func linkEvent(t *testing.T, l *ledger.Ledger, sec authorpk.Secret, prev hash.Hash, ts inter.Timestamp, payload byte) hash.Hash {
	t.Helper()
	e := inter.NewEvent(prev, authorpk.FromSecret(sec), ts, hash.Hash{payload})
	inter.SignEvent(e, sec)
	h, err := l.LinkEvent(e)
	require.NoError(t, err)
	return h
}

func overlayConfig() sybil.Config {
	return sybil.Config{
		WarmupTicks:      4,
		QuarantineTicks:  12,
		FixedPointScale:  1000,
		MaxLinkWalk:      128,
		TraceCommitments: false,
	}
}

func TestEmptyLedgerHasNoPreferredTip(t *testing.T) {
	l := ledger.New()
	_, _, ok := tipselect.PreferredTip(l, tipselect.PolicyUnit, 64)
	assert.False(t, ok)

	o := sybil.NewOverlay(overlayConfig())
	_, _, ok = tipselect.PreferredTipSybil(l, o, 0, 64)
	assert.False(t, ok)
}

func TestUnitPolicyPrefersLongerChain(t *testing.T) {
	l := ledger.New()
	sec := testSecret(1)

	// fork: one branch of length 3, one of length 2 off the same root
	h0 := linkEvent(t, l, sec, hash.Zero, 1, 0x00)
	h1 := linkEvent(t, l, sec, h0, 2, 0x01)
	h2 := linkEvent(t, l, sec, h1, 3, 0x02)
	hShort := linkEvent(t, l, sec, h0, 4, 0x03)

	tip, score, ok := tipselect.PreferredTip(l, tipselect.PolicyUnit, 64)
	require.True(t, ok)
	assert.Equal(t, h2, tip)
	assert.Equal(t, uint64(3), score)
	_ = hShort
}

func TestUnitPolicyBoundedByMaxSteps(t *testing.T) {
	l := ledger.New()
	sec := testSecret(2)

	prev := hash.Zero
	for i := 0; i < 10; i++ {
		prev = linkEvent(t, l, sec, prev, inter.Timestamp(i+1), byte(i))
	}

	_, score, ok := tipselect.PreferredTip(l, tipselect.PolicyUnit, 4)
	require.True(t, ok)
	assert.Equal(t, uint64(4), score)
}

func TestUnitPolicyTieBreaksLexicographically(t *testing.T) {
	l := ledger.New()

	// several genesis events: every tip has score 1
	var tips []hash.Hash
	for i := byte(0); i < 4; i++ {
		tips = append(tips, linkEvent(t, l, testSecret(i+1), hash.Zero, 1, i))
	}

	smallest := tips[0]
	for _, h := range tips[1:] {
		if bytes.Compare(h.Bytes(), smallest.Bytes()) < 0 {
			smallest = h
		}
	}

	tip, score, ok := tipselect.PreferredTip(l, tipselect.PolicyUnit, 64)
	require.True(t, ok)
	assert.Equal(t, uint64(1), score)
	assert.Equal(t, smallest, tip)
}

func TestLatestPerAuthorUnitCountsDistinctAuthors(t *testing.T) {
	l := ledger.New()
	secA := testSecret(1)
	secB := testSecret(2)

	// chain authored alternately by two authors, length 4
	h0 := linkEvent(t, l, secA, hash.Zero, 1, 0x00)
	h1 := linkEvent(t, l, secB, h0, 2, 0x01)
	h2 := linkEvent(t, l, secA, h1, 3, 0x02)
	h3 := linkEvent(t, l, secB, h2, 4, 0x03)

	tip, score, ok := tipselect.PreferredTip(l, tipselect.PolicyLatestPerAuthorUnit, 64)
	require.True(t, ok)
	assert.Equal(t, h3, tip)
	// two distinct authors, each counted once
	assert.Equal(t, uint64(2), score)
}

func TestSybilPolicyWeightsLatestPerAuthor(t *testing.T) {
	l := ledger.New()
	o := sybil.NewOverlay(overlayConfig())
	secA := testSecret(1)
	secB := testSecret(2)

	// two authors build one chain; observe every accept at tick 0, then
	// query late enough that both are past warmup
	h0 := linkEvent(t, l, secA, hash.Zero, 1, 0x00)
	o.ObserveEvent(l, 0, 0, h0)
	h1 := linkEvent(t, l, secB, h0, 2, 0x01)
	o.ObserveEvent(l, 0, 0, h1)
	h2 := linkEvent(t, l, secA, h1, 3, 0x02)
	o.ObserveEvent(l, 0, 0, h2)

	const tick = uint64(100)

	tip, score, ok := tipselect.PreferredTipSybil(l, o, tick, 64)
	require.True(t, ok)
	assert.Equal(t, h2, tip)
	// both authors' latest events lie on the single chain: 1000 + 1000
	assert.Equal(t, uint64(2000), score)
}

func TestSybilPolicyCountsAuthorAtLatestEventOnly(t *testing.T) {
	l := ledger.New()
	o := sybil.NewOverlay(overlayConfig())
	secA := testSecret(1)
	secB := testSecret(2)

	// author A starts a chain, then A's LATEST event moves to a fork;
	// the old branch keeps only B's latest
	h0 := linkEvent(t, l, secA, hash.Zero, 1, 0x00)
	o.ObserveEvent(l, 0, 0, h0)
	hOld := linkEvent(t, l, secB, h0, 2, 0x01)
	o.ObserveEvent(l, 0, 0, hOld)
	hNew := linkEvent(t, l, secA, h0, 3, 0x02)
	o.ObserveEvent(l, 0, 0, hNew)

	const tick = uint64(100)

	// branch hOld carries B(latest=hOld) but not A (A's latest is hNew);
	// branch hNew carries A only
	tipOld := scoreOf(t, l, o, tick, hOld)
	tipNew := scoreOf(t, l, o, tick, hNew)
	assert.Equal(t, uint64(1000), tipOld)
	assert.Equal(t, uint64(1000), tipNew)
}

// scoreOf returns the selected score when the wanted branch won. When it
// lost, it checks that the winner has the smaller hash and returns the
// winner's score, which stands for the branch's score only because both
// branches carry equal weight in the calling test.
func scoreOf(t *testing.T, l *ledger.Ledger, o *sybil.Overlay, tick uint64, want hash.Hash) uint64 {
	t.Helper()
	tip, score, ok := tipselect.PreferredTipSybil(l, o, tick, 64)
	require.True(t, ok)
	if tip == want {
		return score
	}
	// losing branch: both branches carry equal weight here, so the winner
	// must have the same score and a smaller hash
	require.Equal(t, -1, bytes.Compare(tip.Bytes(), want.Bytes()))
	return score
}

func TestSybilPolicyIgnoresQuarantinedAuthors(t *testing.T) {
	l := ledger.New()
	cfg := overlayConfig()
	o := sybil.NewOverlay(cfg)
	secGood := testSecret(1)
	secEvil := testSecret(2)

	// honest chain
	h0 := linkEvent(t, l, secGood, hash.Zero, 1, 0x00)
	o.ObserveEvent(l, 0, 0, h0)

	// equivocating author forks twice off genesis
	e1 := linkEvent(t, l, secEvil, hash.Zero, 2, 0x01)
	o.ObserveEvent(l, 1, 0, e1)
	e2 := linkEvent(t, l, secEvil, hash.Zero, 3, 0x02)
	o.ObserveEvent(l, 1, 0, e2)

	require.True(t, o.Quarantined(5, authorpk.FromSecret(secEvil)))

	// during quarantine the honest tip wins despite the fork count
	tip, score, ok := tipselect.PreferredTipSybil(l, o, 5, 64)
	require.True(t, ok)
	assert.Equal(t, h0, tip)
	assert.Equal(t, o.AuthorWeightFP(5, authorpk.FromSecret(secGood)), score)
}

func TestUnitPolicyIgnoresTick(t *testing.T) {
	l := ledger.New()
	linkEvent(t, l, testSecret(1), hash.Zero, 1, 0x00)

	// PreferredTip takes no tick at all, so repeated calls must agree
	tip1, s1, ok1 := tipselect.PreferredTip(l, tipselect.PolicyUnit, 64)
	tip2, s2, ok2 := tipselect.PreferredTip(l, tipselect.PolicyUnit, 64)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, tip1, tip2)
	assert.Equal(t, s1, s2)
}
