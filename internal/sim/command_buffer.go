package sim

import (
	"sync"

	"hold-the-line/server/internal/telemetry"
)

// CommandBuffer is a bounded FIFO between command producers and the tick
// loop. Producers may call Push from any goroutine; one consumer drains it.
// Drain hands out the filled slice and keeps the previous one for reuse, so
// a drained batch is only valid until the next Drain.
type CommandBuffer struct {
	mu      sync.Mutex
	limit   int
	filling []Command
	spare   []Command
	metrics telemetry.Metrics
}

// NewCommandBuffer bounds the buffer at capacity commands (at least one).
func NewCommandBuffer(capacity int, metrics telemetry.Metrics) *CommandBuffer {
	if capacity < 1 {
		capacity = 1
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	return &CommandBuffer{
		limit:   capacity,
		filling: make([]Command, 0, capacity),
		spare:   make([]Command, 0, capacity),
		metrics: metrics,
	}
}

// Capacity reports the bound.
func (b *CommandBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	return b.limit
}

// Push stages cmd. A full buffer rejects it and counts the drop.
func (b *CommandBuffer) Push(cmd Command) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.filling) >= b.limit {
		b.metrics.Add(telemetry.MetricCommandDrops, 1)
		return false
	}
	b.filling = append(b.filling, cmd)
	b.metrics.Add(telemetry.MetricCommands, 1)
	b.metrics.Store(telemetry.MetricCommandDepth, uint64(len(b.filling)))
	return true
}

// Drain returns the staged commands in push order, or nil when empty.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.filling) == 0 {
		return nil
	}
	batch := b.filling
	b.filling = b.spare[:0]
	b.spare = batch
	b.metrics.Store(telemetry.MetricCommandDepth, 0)
	return batch
}

// Len reports the number of staged commands.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.filling)
}
