package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/app"
	"hold-the-line/server/internal/telemetry"
)

func main() {
	var (
		seed     = flag.String("seed", "hold-the-line", "deterministic seed for spawns and personalities")
		duration = flag.Duration("duration", 0, "stop after this much wall time (0 runs until the castle falls)")
		tickRate = flag.Int("tick-rate", 0, "simulation ticks per second (default 30)")
		tables   = flag.String("tables", "", "directory of <table>.yaml overrides")
		scenario = flag.String("scenario", "", "opening population YAML (default: built-in scenario)")
		events   = flag.String("events", "", "write newline-delimited JSON events to this file")
	)
	flag.Parse()

	logger := telemetry.NewLogger(telemetry.LoggerConfigFromEnv(os.LookupEnv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(app.Config{
		Seed:         *seed,
		TickRate:     *tickRate,
		Duration:     *duration,
		TablesDir:    *tables,
		ScenarioPath: *scenario,
		EventsPath:   *events,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("simulation failed")
	}
	logger.WithFields(logrus.Fields{"ticks": a.Engine().Clock().Tick(), "gameOver": a.Engine().GameOver()}).Info("bye")
}
