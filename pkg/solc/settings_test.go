package solc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeForParse(t *testing.T) {
	base := Settings{
		"evmVersion": "shanghai",
		"optimizer":  map[string]interface{}{"enabled": true},
	}

	sanitized := SanitizeForParse(base)

	assert.Equal(t, "parsing", sanitized[stopAfterKey])
	assert.NotContains(t, sanitized, evmVersionKey)
	require.Contains(t, sanitized, outputSelectionKey)
	assert.Equal(t, map[string]interface{}{"enabled": true}, sanitized["optimizer"])

	// caller's settings are untouched
	assert.Equal(t, "shanghai", base["evmVersion"])
	assert.NotContains(t, base, stopAfterKey)
}

func TestSanitizeForValidate(t *testing.T) {
	base := Settings{"stopAfter": "parsing"}

	sanitized := SanitizeForValidate(base)

	assert.NotContains(t, sanitized, stopAfterKey)
	selection, ok := sanitized[outputSelectionKey].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, selection, "*")
}
