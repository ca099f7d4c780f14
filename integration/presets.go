package integration

import (
	"fmt"

	"github.com/dvel-foundation/go-dvel/dvel"
)

// Package integration provides configuration presets and assembly helpers
// for building ledger engines. Presets bundle common settings (rules,
// tracing, storage chunking) into named profiles so research runs can be
// reproduced from a single identifier instead of a dozen flags.
//
// Usage:
//
//	cfg := integration.ResearchPreset() // short windows, full tracing
//	cfg := integration.AuditPreset()    // reference rules, full tracing
//	en, err := integration.NewEngine(cfg, observer)

// PresetConfig captures the tunable parameters that vary across profiles.
// It intentionally excludes anything derivable from the rules themselves,
// so a preset plus an observer id fully determines an engine.
type PresetConfig struct {
	Name             string     // human-readable identifier (e.g. "research")
	Rules            dvel.Rules // network rules the engine runs under
	EnableTrace      bool       // whether accepts produce trace rows
	TraceCommitments bool       // whether rows carry merkle root / preferred tip
	ChunkSizeBytes   int        // storage subsystem chunk size
}

// DefaultPreset returns the baseline profile: reference rules, tracing off.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:             "default",
		Rules:            dvel.DefaultRules(),
		EnableTrace:      false,
		TraceCommitments: false,
		ChunkSizeBytes:   64 * 1024,
	}
}

// ResearchPreset returns a profile for local simulation runs: the fake
// network rules (short warmup/quarantine windows, tight skew) and full
// tracing, so attack scenarios play out and are checkable in few ticks.
func ResearchPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "research"
	cfg.Rules = dvel.FakeNetRules()
	cfg.EnableTrace = true
	cfg.TraceCommitments = true
	cfg.ChunkSizeBytes = 4 * 1024
	return cfg
}

// AuditPreset returns a profile for trace-producing runs under the
// reference rules: every accept is recorded with ledger commitments, at the
// cost of a Merkle fold and a tip selection per observation.
func AuditPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "audit"
	cfg.EnableTrace = true
	cfg.TraceCommitments = true
	return cfg
}

// GetPresetByName looks up a preset by its identifier. This helper enables
// CLI flags like --preset=research to select configurations dynamically.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "default":
		return DefaultPreset(), nil
	case "research":
		return ResearchPreset(), nil
	case "audit":
		return AuditPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: default, research, audit)", name)
	}
}

// ApplyPreset merges a preset into an existing config. Set fields override
// the target; boolean flags are always applied. This allows presets to be
// layered on top of CLI overrides without clobbering unrelated settings.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Name != "" {
		target.Name = preset.Name
	}
	if preset.Rules.Name != "" {
		target.Rules = preset.Rules
	}
	if preset.ChunkSizeBytes > 0 {
		target.ChunkSizeBytes = preset.ChunkSizeBytes
	}
	target.EnableTrace = preset.EnableTrace
	target.TraceCommitments = preset.TraceCommitments
}

// NewEngine assembles an engine from a preset. With tracing disabled the
// engine's recorder is detached so observations append no rows.
func NewEngine(cfg PresetConfig, observer uint32) (*dvel.Engine, error) {
	en, err := dvel.NewEngine(cfg.Rules, observer)
	if err != nil {
		return nil, err
	}
	if !cfg.EnableTrace {
		en.Overlay().DetachTraceRecorder()
	} else {
		oc := cfg.Rules.OverlayConfig(cfg.TraceCommitments)
		en.Overlay().SetConfig(oc)
	}
	return en, nil
}
