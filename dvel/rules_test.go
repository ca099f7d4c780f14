package dvel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvel-foundation/go-dvel/eventcheck"
)

func TestDefaultRulesAreValid(t *testing.T) {
	r := DefaultRules()
	require.NoError(t, r.Validate())

	assert.Equal(t, "default", r.Name)
	assert.Equal(t, MainNetworkID, r.NetworkID)
	assert.Equal(t, eventcheck.DefaultMaxBackwardSkew, r.Validation.MaxBackwardSkew)
	assert.Equal(t, uint64(1000), r.Sybil.FixedPointScale)
	assert.NotZero(t, r.Sybil.MaxLinkWalk)
}

func TestFakeNetRulesOverrideDefaults(t *testing.T) {
	def := DefaultRules()
	fake := FakeNetRules()
	require.NoError(t, fake.Validate())

	assert.Equal(t, "fake", fake.Name)
	assert.Equal(t, FakeNetworkID, fake.NetworkID)
	assert.Less(t, fake.Validation.MaxBackwardSkew, def.Validation.MaxBackwardSkew)
	assert.Less(t, fake.Sybil.WarmupTicks, def.Sybil.WarmupTicks)
	assert.Less(t, fake.Sybil.QuarantineTicks, def.Sybil.QuarantineTicks)
}

func TestRulesValidateRejectsZeroes(t *testing.T) {
	r := DefaultRules()
	r.Name = ""
	assert.Equal(t, ErrNoName, r.Validate())

	r = DefaultRules()
	r.Validation.MaxBackwardSkew = 0
	assert.Equal(t, ErrZeroSkew, r.Validate())

	r = DefaultRules()
	r.Sybil.FixedPointScale = 0
	assert.Equal(t, ErrZeroScale, r.Validate())

	r = DefaultRules()
	r.Sybil.MaxLinkWalk = 0
	assert.Equal(t, ErrZeroLinkWalk, r.Validate())
}

func TestRulesHashFingerprintsEveryField(t *testing.T) {
	base := DefaultRules()
	require.Equal(t, base.Hash(), DefaultRules().Hash())

	mutations := []func(*Rules){
		func(r *Rules) { r.Name = "other" },
		func(r *Rules) { r.NetworkID = TestNetworkID },
		func(r *Rules) { r.Validation.MaxBackwardSkew++ },
		func(r *Rules) { r.Sybil.WarmupTicks++ },
		func(r *Rules) { r.Sybil.QuarantineTicks++ },
		func(r *Rules) { r.Sybil.FixedPointScale++ },
		func(r *Rules) { r.Sybil.MaxLinkWalk++ },
	}
	for i, mutate := range mutations {
		r := base.Copy()
		mutate(&r)
		assert.NotEqual(t, base.Hash(), r.Hash(), "mutation %d must change the fingerprint", i)
	}
}

func TestRulesConversions(t *testing.T) {
	r := DefaultRules()

	ec := r.EventcheckRules()
	assert.Equal(t, r.Validation.MaxBackwardSkew, ec.MaxBackwardSkew)

	oc := r.OverlayConfig(true)
	assert.Equal(t, r.Sybil.WarmupTicks, oc.WarmupTicks)
	assert.Equal(t, r.Sybil.QuarantineTicks, oc.QuarantineTicks)
	assert.Equal(t, r.Sybil.FixedPointScale, oc.FixedPointScale)
	assert.Equal(t, int(r.Sybil.MaxLinkWalk), oc.MaxLinkWalk)
	assert.True(t, oc.TraceCommitments)
	assert.False(t, r.OverlayConfig(false).TraceCommitments)
}

func TestRulesStringIsJSON(t *testing.T) {
	s := DefaultRules().String()
	assert.True(t, strings.HasPrefix(s, "{"))
	assert.Contains(t, s, "default")
}
