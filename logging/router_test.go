package logging_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hold-the-line/server/logging"
	"hold-the-line/server/logging/combat"
	"hold-the-line/server/logging/economy"
	"hold-the-line/server/logging/sinks"
)

type kindName string

func (k kindName) String() string { return string(k) }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func closeRouter(t *testing.T, r *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
}

func TestRouterDeliversToMemorySinkAboveMinimumSeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityInfo
	cfg.Fields = map[string]any{"run": "test"}
	router, err := logging.NewRouter(nil, cfg, quietLogger(), []logging.NamedSink{{Name: "memory", Sink: memory}})
	require.NoError(t, err)

	hero := logging.Ref(kindName("hero"), 3)
	monster := logging.Ref(kindName("monster"), 9)
	combat.Damage(context.Background(), router, 1, hero, monster, combat.DamagePayload{Amount: 5}, nil)
	combat.Defeat(context.Background(), router, 2, hero, monster, combat.DefeatPayload{Reward: 100}, nil)
	closeRouter(t, router)

	events := memory.Events()
	require.Len(t, events, 1, "debug damage events are below the minimum")
	assert.Equal(t, combat.EventDefeat, events[0].Type)
	assert.Equal(t, "test", events[0].Extra["run"])
	assert.Equal(t, logging.EntityRef{ID: "3", Kind: logging.EntityKindHero}, events[0].Actor)
	assert.Equal(t, logging.RouterStats{EventsTotal: 1, FilteredTotal: 1}, router.Stats())
	assert.Same(t, memory, router.Sink("memory"))
}

func TestHelpersIgnoreNilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		economy.TreasuryCredit(context.Background(), nil, 1, logging.WorldRef(), economy.TreasuryPayload{Amount: 5}, nil)
		combat.RewardSplit(context.Background(), nil, 1, logging.WorldRef(), nil, combat.RewardSplitPayload{}, nil)
	})
}

func TestTemplateFillsSharedFields(t *testing.T) {
	var got logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, e logging.Event) { got = e })
	hero := logging.Ref(kindName("hero"), 4)
	shop := logging.Ref(kindName("building"), 11)

	economy.Purchase(context.Background(), pub, 8, hero, shop, economy.PurchasePayload{Item: "potion", Quantity: 2, Cost: 20}, nil)

	assert.Equal(t, economy.EventPurchase, got.Type)
	assert.Equal(t, logging.CategoryEconomy, got.Category)
	assert.Equal(t, logging.SeverityInfo, got.Severity)
	assert.Equal(t, uint64(8), got.Tick)
	assert.Equal(t, hero, got.Actor)
	assert.Equal(t, []logging.EntityRef{shop}, got.Targets)
}

func TestWithFieldsDoesNotOverrideEventExtra(t *testing.T) {
	var got []logging.Event
	pub := logging.WithFields(logging.PublisherFunc(func(_ context.Context, e logging.Event) {
		got = append(got, e)
	}), map[string]any{"seed": 7, "wave": 1})

	pub.Publish(context.Background(), logging.Event{Type: "x", Extra: map[string]any{"wave": 3}})
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Extra["seed"])
	assert.Equal(t, 3, got[0].Extra["wave"])
}

func TestRefAndSeverityNames(t *testing.T) {
	assert.Equal(t, logging.EntityRef{Kind: logging.EntityKindUnknown}, logging.Ref(nil, 0))
	assert.Equal(t, logging.EntityKind("tax_collector"), logging.Ref(kindName("tax_collector"), 1).Kind)

	for _, name := range []string{"debug", "info", "warn", "error"} {
		assert.Equal(t, name, logging.ParseSeverity(name).String())
	}
	assert.Equal(t, logging.SeverityInfo, logging.ParseSeverity("loud"))
	assert.Equal(t, logging.SeverityWarn, logging.ParseSeverity(" Warning "))
	assert.Equal(t, "unknown", logging.Severity(9).String())
}

func TestConsoleSinkRendersThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	sink := sinks.NewConsoleSink(logger, false)

	require.NoError(t, sink.Write(logging.Event{
		Type:     economy.EventTreasuryDebit,
		Tick:     12,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityWarn,
		Payload:  economy.TreasuryPayload{Amount: 40, Balance: 10},
	}))
	out := buf.String()
	assert.Contains(t, out, `"level":"warning"`)
	assert.Contains(t, out, `"msg":"economy.treasury_debit"`)
	assert.Contains(t, out, `"tick":12`)
}

func TestJSONSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := sinks.NewJSON(&buf, 0)
	require.NoError(t, sink.Write(logging.Event{Type: "a", Time: time.Unix(0, 0)}))
	require.NoError(t, sink.Write(logging.Event{Type: "b", Time: time.Unix(0, 0)}))
	require.NoError(t, sink.Close(context.Background()))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestJSONSinkBuffersUntilClose(t *testing.T) {
	var buf bytes.Buffer
	sink := sinks.NewJSON(&buf, time.Hour)
	require.NoError(t, sink.Write(logging.Event{Type: "economy.purchase", Tick: 7, Severity: logging.SeverityWarn, Time: time.Unix(0, 0)}))
	assert.Zero(t, buf.Len(), "buffered until flushed")

	require.NoError(t, sink.Close(context.Background()))
	require.NoError(t, sink.Close(context.Background()), "second close is harmless")
	line := buf.String()
	assert.Contains(t, line, `"type":"economy.purchase"`)
	assert.Contains(t, line, `"severity":"warn"`)
	assert.Contains(t, line, `"tick":7`)
}

func TestConfigFromEnv(t *testing.T) {
	values := map[string]string{"EVENT_MIN_SEVERITY": " Debug ", "EVENT_BUFFER": "64", "EVENT_COLOR": "nope"}
	cfg := logging.ConfigFromEnv(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
	assert.Equal(t, logging.SeverityDebug, cfg.MinimumSeverity)
	assert.Equal(t, 64, cfg.BufferSize)
	assert.False(t, cfg.ConsoleColor)

	defaults := logging.ConfigFromEnv(func(string) (string, bool) { return "", false })
	assert.Equal(t, logging.DefaultConfig().BufferSize, defaults.BufferSize)
	assert.Equal(t, logging.SeverityInfo, defaults.MinimumSeverity)
}

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	written int
}

func (s *blockingSink) Write(logging.Event) error {
	<-s.release
	s.mu.Lock()
	s.written++
	s.mu.Unlock()
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }

func TestRouterDropsInsteadOfBlocking(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	cfg := logging.DefaultConfig()
	cfg.BufferSize = 1
	cfg.MinimumSeverity = logging.SeverityDebug
	router, err := logging.NewRouter(nil, cfg, quietLogger(), []logging.NamedSink{{Name: "slow", Sink: sink}})
	require.NoError(t, err)

	const sent = 100
	for i := 0; i < sent; i++ {
		economy.TreasuryCredit(context.Background(), router, uint64(i), logging.WorldRef(), economy.TreasuryPayload{Amount: 1}, nil)
	}
	close(sink.release)
	closeRouter(t, router)

	dropped := router.Stats().DroppedTotal
	assert.Positive(t, dropped)
	assert.Equal(t, uint64(sent), uint64(sink.written)+dropped)
}

func TestRouterRejectsDuplicateSinkNames(t *testing.T) {
	memory := sinks.NewMemorySink()
	_, err := logging.NewRouter(nil, logging.DefaultConfig(), quietLogger(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
		{Name: "memory", Sink: memory},
	})
	assert.Error(t, err)
}

func TestRouterIgnoresEventsAfterClose(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityDebug
	router, err := logging.NewRouter(nil, cfg, quietLogger(), []logging.NamedSink{{Name: "memory", Sink: memory}})
	require.NoError(t, err)
	closeRouter(t, router)
	closeRouter(t, router)

	economy.TreasuryCredit(context.Background(), router, 1, logging.WorldRef(), economy.TreasuryPayload{Amount: 1}, nil)
	assert.Empty(t, memory.Events())
}
