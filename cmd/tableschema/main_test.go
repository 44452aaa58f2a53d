package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/catalog"
)

func TestExecuteWritesEveryTable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")
	require.NoError(t, execute([]string{"-out", dir}, &bytes.Buffer{}))

	for _, name := range catalog.TableNames() {
		raw, err := os.ReadFile(filepath.Join(dir, name+".schema.json"))
		require.NoError(t, err, name)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc), name)
		assert.NotEmpty(t, doc["title"], name)
	}
}

func TestExecuteSingleTableToStdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, execute([]string{"-out", "-", "-table", "waves"}, &out))
	assert.Contains(t, out.String(), `"Wave schedule"`)
}

func TestExecuteRejections(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{name: "stdout without table", args: []string{"-out", "-"}},
		{name: "unknown table", args: []string{"-out", "-", "-table", "spells"}},
		{name: "unknown flag", args: []string{"-verbose"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, execute(tc.args, &bytes.Buffer{}))
		})
	}
}
