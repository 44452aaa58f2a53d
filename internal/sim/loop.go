package sim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/telemetry"
	"hold-the-line/server/logging"
	"hold-the-line/server/logging/simulation"
)

const (
	// CommandRejectQueueFull indicates the command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
	// CommandRejectStopped indicates the loop is not accepting commands.
	CommandRejectStopped = "stopped"

	defaultCommandCapacity = 64
)

// LoopConfig tunes the command buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	CommandCapacity int
	WarningStep     int
}

// LoopHooks observe the loop.
type LoopHooks struct {
	AfterStep      func(LoopStepResult)
	OnCommandDrop  func(reason string, cmd Command)
	OnQueueWarning func(length int)
}

// LoopTickContext describes the tick about to run.
type LoopTickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// LoopStepResult reports what one tick did.
type LoopStepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Snapshot     Snapshot
	Commands     []Command
	CommandErr   error
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	MaxDelta     float64
}

// Loop coordinates command ingestion and the fixed-timestep simulation runner.
type Loop struct {
	engine  *Engine
	buffer  *CommandBuffer
	hooks   LoopHooks
	config  LoopConfig
	logger  logrus.FieldLogger
	metrics telemetry.Metrics
	clock   logging.Clock

	overrunStreak uint64
}

// NewLoop wraps the engine with a bounded command queue.
func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if engine == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = engine.Config().TickRate
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = defaultCommandCapacity
	}
	deps := engine.Deps()
	return &Loop{
		engine:  engine,
		buffer:  NewCommandBuffer(cfg.CommandCapacity, deps.Metrics),
		hooks:   hooks,
		config:  cfg,
		logger:  deps.Logger.WithField("component", "loop"),
		metrics: deps.Metrics,
		clock:   deps.Clock,
	}
}

// Engine returns the wrapped engine.
func (l *Loop) Engine() *Engine {
	if l == nil {
		return nil
	}
	return l.engine
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Enqueue stages a command for the next tick. It is safe to call from any
// goroutine.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectStopped
	}
	if !l.buffer.Push(cmd) {
		if l.hooks.OnCommandDrop != nil {
			l.hooks.OnCommandDrop(CommandRejectQueueFull, cmd)
		}
		l.logger.WithField("type", cmd.Type).Warn("dropping command, queue full")
		return false, CommandRejectQueueFull
	}
	if step := l.config.WarningStep; step > 0 {
		if length := l.buffer.Len(); length >= step && length%step == 0 && l.hooks.OnQueueWarning != nil {
			l.hooks.OnQueueWarning(length)
		}
	}
	return true, ""
}

// Advance applies the staged commands and executes a single simulation step.
func (l *Loop) Advance(ctx LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	commands := l.buffer.Drain()
	for i := range commands {
		commands[i].OriginTick = ctx.Tick
	}
	err := l.engine.Apply(commands)
	l.engine.Step(ctx.Delta)
	return LoopStepResult{
		Tick:       l.engine.Clock().Tick(),
		Now:        ctx.Now,
		Delta:      ctx.Delta,
		Snapshot:   l.engine.Snapshot(),
		Commands:   commands,
		CommandErr: err,
	}
}

// Run drives the fixed-timestep loop until ctx is done or the game is over.
// It returns ctx.Err() on cancellation and nil when the castle falls.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	tickRate := l.config.TickRate
	budget := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	budgetSeconds := budget.Seconds()
	maxDt := budgetSeconds
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budgetSeconds * float64(l.config.CatchupMaxTicks)
	}
	last := l.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := l.clock.Now()
			dt := now.Sub(last).Seconds()
			clamped := false
			if dt <= 0 {
				dt = budgetSeconds
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now

			start := l.clock.Now()
			result := l.Advance(LoopTickContext{Tick: l.engine.Clock().Tick() + 1, Now: now, Delta: dt})
			result.Duration = l.clock.Now().Sub(start)
			result.Budget = budget
			result.ClampedDelta = clamped
			result.MaxDelta = maxDt
			l.checkBudget(result)

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
			if result.Snapshot.GameOver {
				return nil
			}
		}
	}
}

// checkBudget reports ticks that ran longer than the budget.
func (l *Loop) checkBudget(result LoopStepResult) {
	if result.Budget <= 0 || result.Duration <= result.Budget {
		l.overrunStreak = 0
		return
	}
	l.overrunStreak++
	l.metrics.Add(telemetry.MetricTickOverruns, 1)
	simulation.TickBudgetOverrun(context.Background(), l.engine.Deps().Publisher, result.Tick,
		simulation.TickBudgetOverrunPayload{
			DurationMillis: result.Duration.Milliseconds(),
			BudgetMillis:   result.Budget.Milliseconds(),
			Ratio:          float64(result.Duration) / float64(result.Budget),
			Streak:         l.overrunStreak,
		}, nil)
	if s := l.overrunStreak; s&(s-1) == 0 {
		l.logger.WithFields(logrus.Fields{
			"tick":     result.Tick,
			"duration": result.Duration,
			"budget":   result.Budget,
			"streak":   s,
		}).Warn("tick over budget")
	}
}
