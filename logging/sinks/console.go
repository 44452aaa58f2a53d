package sinks

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/logging"
)

var consoleLevels = map[logging.Severity]logrus.Level{
	logging.SeverityDebug: logrus.DebugLevel,
	logging.SeverityInfo:  logrus.InfoLevel,
	logging.SeverityWarn:  logrus.WarnLevel,
	logging.SeverityError: logrus.ErrorLevel,
}

// ConsoleSink renders events as logrus entries, one per event, with the
// event type as the message.
type ConsoleSink struct {
	logger logrus.FieldLogger
}

// NewConsoleSink renders through logger, or the standard logger when nil.
// color forces colored text output on a *logrus.Logger.
func NewConsoleSink(logger logrus.FieldLogger, color bool) *ConsoleSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if l, ok := logger.(*logrus.Logger); ok && color {
		l.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	}
	return &ConsoleSink{logger: logger}
}

func (s *ConsoleSink) Write(event logging.Event) error {
	fields := make(logrus.Fields, len(event.Extra)+5)
	for k, v := range event.Extra {
		fields[k] = v
	}
	fields["tick"] = event.Tick
	fields["category"] = event.Category
	fields["actor"] = refString(event.Actor)
	if n := len(event.Targets); n > 0 {
		names := make([]string, n)
		for i, t := range event.Targets {
			names[i] = refString(t)
		}
		fields["targets"] = strings.Join(names, ",")
	}
	if event.Payload != nil {
		fields["payload"] = fmt.Sprintf("%+v", event.Payload)
	}

	level, ok := consoleLevels[event.Severity]
	if !ok {
		level = logrus.InfoLevel
	}
	s.logger.WithFields(fields).Log(level, event.Type)
	return nil
}

func (s *ConsoleSink) Close(context.Context) error { return nil }

// refString renders kind:id, or whichever half is set.
func refString(ref logging.EntityRef) string {
	switch {
	case ref.ID == "":
		return string(ref.Kind)
	case ref.Kind == "":
		return ref.ID
	}
	return string(ref.Kind) + ":" + ref.ID
}
