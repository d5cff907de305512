package ast

import (
	"testing"

	"github.com/evmts/dev/pkg/solc"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsSafe(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Safe, cfg.ResolveConflict)
	_, ok := cfg.TargetContract()
	assert.False(t, ok)
}

func TestConfigMergeOverridesOnlySetFields(t *testing.T) {
	base := DefaultConfig()
	base.Solc = solc.Settings{"evmVersion": "shanghai"}

	name := "Counter"
	replace := Replace
	merged := base.Merge(Options{
		InstrumentedContract: &name,
		ResolveConflict:      &replace,
	})

	got, ok := merged.TargetContract()
	assert.True(t, ok)
	assert.Equal(t, "Counter", got)
	assert.Equal(t, Replace, merged.ResolveConflict)
	assert.Equal(t, "shanghai", merged.Solc["evmVersion"])

	// base untouched
	_, ok = base.TargetContract()
	assert.False(t, ok)
	assert.Equal(t, Safe, base.ResolveConflict)
}

func TestConfigMergeSolcSettingsAreOverlaidNotReplaced(t *testing.T) {
	base := DefaultConfig()
	base.Solc = solc.Settings{"evmVersion": "shanghai"}

	merged := base.Merge(Options{Solc: solc.Settings{"viaIR": true}})

	assert.Equal(t, "shanghai", merged.Solc["evmVersion"])
	assert.Equal(t, true, merged.Solc["viaIR"])
	assert.NotContains(t, base.Solc, "viaIR")
}
