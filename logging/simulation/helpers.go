package simulation

import (
	"context"

	"hold-the-line/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a step exceeds the tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventNaNRecovered is emitted when integration snaps a body back from a non-finite state.
	EventNaNRecovered logging.EventType = "simulation.nan_recovered"
	// EventConfigFallback is emitted when a lookup uses the default entry.
	EventConfigFallback logging.EventType = "simulation.config_fallback"
	// EventWave is emitted when a monster wave begins.
	EventWave logging.EventType = "simulation.wave"
	// EventGameOver is emitted once when the castle falls.
	EventGameOver logging.EventType = "simulation.game_over"
)

var (
	tickBudgetOverrun = logging.Template{Type: EventTickBudgetOverrun, Category: logging.CategorySystem, Severity: logging.SeverityWarn}
	nanRecovered      = logging.Template{Type: EventNaNRecovered, Category: logging.CategorySystem, Severity: logging.SeverityWarn}
	configFallback    = logging.Template{Type: EventConfigFallback, Category: logging.CategorySystem, Severity: logging.SeverityWarn}
	wave              = logging.Template{Type: EventWave, Category: logging.CategorySystem, Severity: logging.SeverityInfo}
	gameOver          = logging.Template{Type: EventGameOver, Category: logging.CategorySystem, Severity: logging.SeverityError}
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// NaNRecoveredPayload records where the body was snapped to.
type NaNRecoveredPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConfigFallbackPayload names the missing key and the default used.
type ConfigFallbackPayload struct {
	Table    string `json:"table"`
	Key      string `json:"key"`
	Fallback string `json:"fallback"`
}

// WavePayload describes a starting wave.
type WavePayload struct {
	Wave     int `json:"wave"`
	Monsters int `json:"monsters"`
}

// GameOverPayload summarizes the run.
type GameOverPayload struct {
	Seconds float64 `json:"seconds"`
	Wave    int     `json:"wave"`
}

// TickBudgetOverrun publishes a warning when a step exceeds its budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	tickBudgetOverrun.Emit(ctx, pub, tick, logging.WorldRef(), nil, payload, extra)
}

// NaNRecovered publishes a numeric recovery for actor.
func NaNRecovered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload NaNRecoveredPayload, extra map[string]any) {
	nanRecovered.Emit(ctx, pub, tick, actor, nil, payload, extra)
}

// ConfigFallback publishes an unknown configuration key.
func ConfigFallback(ctx context.Context, pub logging.Publisher, tick uint64, payload ConfigFallbackPayload, extra map[string]any) {
	configFallback.Emit(ctx, pub, tick, logging.WorldRef(), nil, payload, extra)
}

// Wave publishes the start of a wave.
func Wave(ctx context.Context, pub logging.Publisher, tick uint64, payload WavePayload, extra map[string]any) {
	wave.Emit(ctx, pub, tick, logging.WorldRef(), nil, payload, extra)
}

// GameOver publishes the castle's fall.
func GameOver(ctx context.Context, pub logging.Publisher, tick uint64, castle logging.EntityRef, payload GameOverPayload, extra map[string]any) {
	gameOver.Emit(ctx, pub, tick, castle, nil, payload, extra)
}
