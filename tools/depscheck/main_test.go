package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReportsUpwardImports(t *testing.T) {
	stream := `
{"ImportPath": "hold-the-line/server/internal/sim", "Imports": ["hold-the-line/server/internal/ai"]}
{"ImportPath": "hold-the-line/server/internal/ai", "Imports": ["hold-the-line/server/internal/sim", "context"]}
{"ImportPath": "hold-the-line/server/internal/world", "Imports": ["hold-the-line/server/internal/state"]}
{"ImportPath": "hold-the-line/server/internal/simutil", "Imports": ["math"]}
{"ImportPath": "hold-the-line/server/logging", "Imports": ["hold-the-line/server/internal/app"]}
`
	violations, err := check(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"hold-the-line/server/internal/ai -> hold-the-line/server/internal/sim",
		"hold-the-line/server/logging -> hold-the-line/server/internal/app",
	}, violations)
}

func TestIsUpperMatchesWholeSegments(t *testing.T) {
	assert.True(t, isUpper("hold-the-line/server/internal/sim"))
	assert.True(t, isUpper("hold-the-line/server/cmd/server"))
	assert.False(t, isUpper("hold-the-line/server/internal/simutil"))
	assert.False(t, isUpper("hold-the-line/server/internal/state"))
}

func TestCheckRejectsGarbage(t *testing.T) {
	_, err := check(strings.NewReader("{not json"))
	assert.Error(t, err)
}
