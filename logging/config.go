package logging

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config tunes the event router and its stock sinks.
type Config struct {
	// BufferSize bounds the router queue. A full queue drops events.
	BufferSize      int
	MinimumSeverity Severity
	// Fields are stamped into the Extra map of every routed event.
	Fields           map[string]any
	DropWarnInterval time.Duration
	// JSONFlushInterval batches JSON sink writes. Zero flushes every event.
	JSONFlushInterval time.Duration
	ConsoleColor      bool
}

// DefaultConfig returns the router settings used by the server.
func DefaultConfig() Config {
	return Config{
		BufferSize:        512,
		MinimumSeverity:   SeverityInfo,
		DropWarnInterval:  5 * time.Second,
		JSONFlushInterval: 2 * time.Second,
	}
}

// ConfigFromEnv overlays EVENT_MIN_SEVERITY, EVENT_BUFFER and EVENT_COLOR on
// the defaults. Malformed numbers and booleans keep the default.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := DefaultConfig()
	if level, ok := lookup("EVENT_MIN_SEVERITY"); ok && level != "" {
		cfg.MinimumSeverity = ParseSeverity(strings.ToLower(strings.TrimSpace(level)))
	}
	if raw, ok := lookup("EVENT_BUFFER"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			cfg.BufferSize = n
		}
	}
	if raw, ok := lookup("EVENT_COLOR"); ok {
		if color, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			cfg.ConsoleColor = color
		}
	}
	return cfg
}

func (c Config) fieldsCopy() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		out[k] = v
	}
	return out
}
