package telemetry

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics exposes the counters updated by the simulation.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// Well-known counter keys.
const (
	MetricTicks          = "sim_ticks"
	MetricTickOverruns   = "sim_tick_overruns"
	MetricPathSearches   = "nav_path_searches"
	MetricFlowRecomputes = "nav_flow_recomputes"
	MetricNaNRecoveries  = "sim_nan_recoveries"
	MetricDeaths         = "sim_deaths"
	MetricHeroes         = "sim_heroes"
	MetricMonsters       = "sim_monsters"
	MetricCommandDepth   = "sim_command_queue_depth"
	MetricCommandDrops   = "sim_command_drops"
	MetricCommands       = "sim_commands"
)

// Counters is an in-process Metrics implementation.
type Counters struct {
	values sync.Map
}

func (c *Counters) counter(key string) *atomic.Uint64 {
	if v, ok := c.values.Load(key); ok {
		return v.(*atomic.Uint64)
	}
	v, _ := c.values.LoadOrStore(key, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

func (c *Counters) Add(key string, delta uint64) {
	if c == nil || key == "" {
		return
	}
	c.counter(key).Add(delta)
}

func (c *Counters) Store(key string, value uint64) {
	if c == nil || key == "" {
		return
	}
	c.counter(key).Store(value)
}

// Get returns the current value of key.
func (c *Counters) Get(key string) uint64 {
	if c == nil {
		return 0
	}
	if v, ok := c.values.Load(key); ok {
		return v.(*atomic.Uint64).Load()
	}
	return 0
}

// Snapshot copies every counter.
func (c *Counters) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	if c == nil {
		return out
	}
	c.values.Range(func(k, v any) bool {
		out[k.(string)] = v.(*atomic.Uint64).Load()
		return true
	})
	return out
}

// Keys lists the counter names in sorted order.
func (c *Counters) Keys() []string {
	snap := c.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NopMetrics discards updates.
type NopMetrics struct{}

func (NopMetrics) Add(string, uint64)   {}
func (NopMetrics) Store(string, uint64) {}
