package telemetry

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerConfigFromEnv(t *testing.T) {
	env := map[string]string{"LOG_LEVEL": "debug", "LOG_FORMAT": "JSON"}
	cfg := LoggerConfigFromEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	cfg = LoggerConfigFromEnv(func(string) (string, bool) { return "", false })
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "bogus", Format: "json", Output: &buf})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.WithField("tick", 3).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"tick":3`)

	logger.Debug("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestCounters(t *testing.T) {
	var c Counters
	c.Add(MetricTicks, 2)
	c.Store(MetricTicks, 5)
	c.Add(MetricTicks, 3)
	c.Add(MetricDeaths, 1)

	assert.Equal(t, uint64(8), c.Get(MetricTicks))
	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, []string{MetricDeaths, MetricTicks}, c.Keys())

	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	assert.Zero(t, nilCounters.Get("ignored"))
}
