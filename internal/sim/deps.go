package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/telemetry"
	"hold-the-line/server/logging"
)

// Deps carries shared infrastructure dependencies required by the simulation engine.
type Deps struct {
	Logger    logrus.FieldLogger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	// Emitter observes feedback labels and spawn requests on their way out
	// of the core.
	Emitter state.Emitter
	// Clock is wall time, used by the loop for tick budgets.
	Clock logging.Clock
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = telemetry.Discard()
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NopMetrics{}
	}
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Emitter == nil {
		d.Emitter = state.NopEmitter{}
	}
	if d.Clock == nil {
		d.Clock = logging.ClockFunc(time.Now)
	}
	return d
}
