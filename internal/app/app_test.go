package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/internal/catalog"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/telemetry"
	"hold-the-line/server/logging/lifecycle"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return Config{
		Seed:         "app-test",
		TickRate:     100,
		Duration:     250 * time.Millisecond,
		MemoryEvents: true,
		Logger:       logger,
		Lookup:       env(map[string]string{"EVENT_MIN_SEVERITY": "debug"}),
	}
}

func TestRunStopsAfterDuration(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, a.Events())

	require.NoError(t, a.Run(context.Background()))

	assert.Positive(t, a.Engine().Clock().Tick())
	assert.Equal(t, a.Engine().Clock().Tick(), a.Metrics().Get(telemetry.MetricTicks))
	assert.Equal(t, 4, a.Engine().Registry().CountKind(state.KindHero))
	assert.NotEmpty(t, a.Events().OfType(lifecycle.EventSpawn), "opening population published")
}

func TestRunReturnsCancellation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 0
	a, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
}

func TestEventFileReceivesEvents(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventsPath = filepath.Join(t.TempDir(), "events.jsonl")
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	raw, err := os.ReadFile(cfg.EventsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], `"type":`)
	assert.Contains(t, string(raw), string(lifecycle.EventSpawn))
}

func TestMinimumSeverityFiltersEvents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Lookup = env(map[string]string{"EVENT_MIN_SEVERITY": "error"})
	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, a.Events().OfType(lifecycle.EventSpawn))
}

func TestNewRejectsInvalidTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waves.yaml"), []byte("waves: 3\n"), 0o644))

	cfg := testConfig(t)
	cfg.TablesDir = dir
	_, err := New(cfg)
	require.ErrorIs(t, err, catalog.ErrInvalidTable)
}

func TestScenarioFileReplacesDefaultOpening(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `buildings:
  - {type: guild, dx: -220, dy: -40, guild: ranger, constructed: true}
heroes: [ranger, ranger, ranger]
workers: 1
waves: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ranger", "ranger", "ranger"}, sc.Heroes)
	assert.Equal(t, state.BuildingGuild, sc.Buildings[0].Type)

	cfg := testConfig(t)
	cfg.ScenarioPath = path
	a, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.shutdown()) }()

	reg := a.Engine().Registry()
	assert.Equal(t, 3, reg.CountKind(state.KindHero))
	assert.Equal(t, 1, reg.CountKind(state.KindWorker))
	assert.Len(t, reg.Buildings(), 2)
}

func TestLoadScenarioRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dragons: 3\n"), 0o644))

	_, err := LoadScenario(path)
	assert.Error(t, err)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
