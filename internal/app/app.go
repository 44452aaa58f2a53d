// Package app wires the process: logger, event router, tables, engine and
// the real-time loop.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"hold-the-line/server/internal/catalog"
	"hold-the-line/server/internal/sim"
	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/telemetry"
	"hold-the-line/server/logging"
	"hold-the-line/server/logging/sinks"
)

const (
	defaultSnapshotEvery = 5 * time.Second
	routerCloseTimeout   = 2 * time.Second
)

// Config selects what the process simulates and where events go.
type Config struct {
	Seed     string
	TickRate int
	// Duration bounds the run. Zero runs until the castle falls or ctx ends.
	Duration time.Duration
	// TablesDir overrides the embedded tables with <name>.yaml files.
	TablesDir string
	// ScenarioPath replaces the default opening with a YAML scenario.
	ScenarioPath string
	// EventsPath enables the json event sink writing to the file.
	EventsPath string
	// MemoryEvents enables the in-memory event sink.
	MemoryEvents  bool
	SnapshotEvery time.Duration

	Logger *logrus.Logger
	// Lookup reads environment settings. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// App is a wired process ready to run.
type App struct {
	cfg     Config
	log     *logrus.Logger
	router  *logging.Router
	metrics *telemetry.Counters
	engine  *sim.Engine
	loop    *sim.Loop
	closers []io.Closer

	lastSnapshot time.Time
}

// New builds the router, loads the tables and populates the engine.
func New(cfg Config) (*App, error) {
	if cfg.Lookup == nil {
		cfg.Lookup = os.LookupEnv
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = defaultSnapshotEvery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NewLogger(telemetry.LoggerConfigFromEnv(cfg.Lookup))
	}
	a := &App{cfg: cfg, log: logger, metrics: &telemetry.Counters{}}

	router, err := a.newRouter()
	if err != nil {
		a.closeFiles()
		return nil, err
	}
	a.router = router

	tables, err := catalog.Load(catalog.Options{Dir: cfg.TablesDir, Logger: logger, Publisher: router})
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("load tables: %w", err)
	}

	scenario := sim.DefaultScenario()
	if cfg.ScenarioPath != "" {
		if scenario, err = LoadScenario(cfg.ScenarioPath); err != nil {
			a.shutdown()
			return nil, err
		}
	}

	simCfg := sim.DefaultConfig()
	simCfg.World.Seed = cfg.Seed
	if cfg.TickRate > 0 {
		simCfg.TickRate = cfg.TickRate
	}
	engine, err := sim.NewEngine(
		sim.WithConfig(simCfg),
		sim.WithCatalog(tables),
		sim.WithDeps(sim.Deps{
			Logger:    logger,
			Metrics:   a.metrics,
			Publisher: router,
		}),
	)
	if err != nil {
		a.shutdown()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	engine.Populate(scenario)
	a.engine = engine
	a.loop = sim.NewLoop(engine, sim.LoopConfig{TickRate: simCfg.TickRate, CatchupMaxTicks: 3}, sim.LoopHooks{
		AfterStep: a.afterStep,
		OnCommandDrop: func(reason string, cmd sim.Command) {
			logger.WithFields(logrus.Fields{"reason": reason, "type": cmd.Type}).Warn("command dropped")
		},
	})

	logger.WithFields(logrus.Fields{
		"seed":      cfg.Seed,
		"tickRate":  simCfg.TickRate,
		"tables":    cfg.TablesDir,
		"scenario":  cfg.ScenarioPath,
		"heroes":    engine.Registry().CountKind(state.KindHero),
		"buildings": len(engine.Registry().Buildings()),
	}).Info("simulation ready")
	return a, nil
}

func (a *App) newRouter() (*logging.Router, error) {
	cfg := logging.ConfigFromEnv(a.cfg.Lookup)
	cfg.Fields = map[string]any{"seed": a.cfg.Seed}

	named := []logging.NamedSink{{
		Name: "console",
		Sink: sinks.NewConsoleSink(a.log, cfg.ConsoleColor),
	}}
	if a.cfg.EventsPath != "" {
		file, err := os.Create(a.cfg.EventsPath)
		if err != nil {
			return nil, fmt.Errorf("open event file: %w", err)
		}
		a.closers = append(a.closers, file)
		named = append(named, logging.NamedSink{Name: "json", Sink: sinks.NewJSON(file, cfg.JSONFlushInterval)})
	}
	if a.cfg.MemoryEvents {
		named = append(named, logging.NamedSink{Name: "memory", Sink: sinks.NewMemorySink()})
	}
	router, err := logging.NewRouter(logging.ClockFunc(time.Now), cfg, a.log, named)
	if err != nil {
		return nil, fmt.Errorf("construct event router: %w", err)
	}
	return router, nil
}

// Engine exposes the populated engine.
func (a *App) Engine() *sim.Engine { return a.engine }

// Loop exposes the command queue and tick driver.
func (a *App) Loop() *sim.Loop { return a.loop }

// Metrics exposes the process counters.
func (a *App) Metrics() *telemetry.Counters { return a.metrics }

// Events returns the in-memory sink when enabled.
func (a *App) Events() *sinks.MemorySink {
	if a.router == nil {
		return nil
	}
	mem, _ := a.router.Sink("memory").(*sinks.MemorySink)
	return mem
}

// Run drives the loop until the duration elapses, ctx ends or the castle
// falls, then flushes the event sinks. Reaching the configured duration is
// not an error.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Duration)
		defer cancel()
	}
	err := a.loop.Run(ctx)
	a.logSnapshot(a.engine.Snapshot(), "simulation stopped")
	if errors.Is(err, context.DeadlineExceeded) && a.cfg.Duration > 0 {
		err = nil
	}
	if cerr := a.shutdown(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *App) afterStep(result sim.LoopStepResult) {
	if result.CommandErr != nil {
		a.log.WithError(result.CommandErr).Warn("commands rejected")
	}
	if result.Now.Sub(a.lastSnapshot) < a.cfg.SnapshotEvery {
		return
	}
	a.lastSnapshot = result.Now
	a.logSnapshot(result.Snapshot, "snapshot")
}

func (a *App) logSnapshot(snap sim.Snapshot, msg string) {
	a.log.WithFields(logrus.Fields{
		"tick":      snap.Tick,
		"time":      fmt.Sprintf("%.1fs", snap.Time),
		"wave":      snap.Wave,
		"treasury":  snap.Treasury,
		"heroes":    snap.Heroes,
		"monsters":  snap.Monsters,
		"buildings": snap.Buildings,
		"castleHp":  snap.CastleHP,
		"gameOver":  snap.GameOver,
		"events":    a.router.Stats().EventsTotal,
	}).Info(msg)
}

// shutdown closes the router and the files behind its sinks.
func (a *App) shutdown() error {
	var err error
	if a.router != nil {
		ctx, cancel := context.WithTimeout(context.Background(), routerCloseTimeout)
		err = a.router.Close(ctx)
		cancel()
	}
	if cerr := a.closeFiles(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) closeFiles() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// LoadScenario reads an opening population from a YAML file.
func LoadScenario(path string) (sim.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sim.Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc sim.Scenario
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return sim.Scenario{}, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return sc, nil
}
