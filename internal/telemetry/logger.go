package telemetry

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggerConfig selects the level and output format of the process logger.
type LoggerConfig struct {
	Level  string
	Format string
	Output io.Writer
}

// LoggerConfigFromEnv reads LOG_LEVEL and LOG_FORMAT.
func LoggerConfigFromEnv(lookup func(string) (string, bool)) LoggerConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := LoggerConfig{Level: "info", Format: "text"}
	if level, ok := lookup("LOG_LEVEL"); ok && level != "" {
		cfg.Level = level
	}
	if format, ok := lookup("LOG_FORMAT"); ok && format != "" {
		cfg.Format = strings.ToLower(format)
	}
	return cfg
}

// NewLogger builds a logrus logger. Unknown levels fall back to info.
func NewLogger(cfg LoggerConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)
	return logger
}

// Discard returns a logger that drops everything, for tests and tools.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
