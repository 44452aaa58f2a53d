package logging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Clock supplies event timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink consumes routed events on its own goroutine.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// NamedSink registers a sink with the router.
type NamedSink struct {
	Name string
	Sink Sink
}

// RouterStats counts what the router has seen.
type RouterStats struct {
	EventsTotal   uint64
	DroppedTotal  uint64
	FilteredTotal uint64
	SinkFailures  uint64
}

// Router fans events out to sinks without blocking publishers. Events are
// stamped with the router time and fields, filtered by severity and queued;
// a full queue drops the event and warns at most once per DropWarnInterval.
type Router struct {
	clock       Clock
	fallback    logrus.FieldLogger
	minSeverity Severity
	fields      map[string]any
	dropEvery   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event

	workers []*sinkWorker
	done    chan struct{}

	events   atomic.Uint64
	dropped  atomic.Uint64
	filtered atomic.Uint64
	failures atomic.Uint64
	nextWarn atomic.Int64
}

// NewRouter starts the dispatcher and one worker per sink. Router problems
// such as dropped events are reported to fallback, which defaults to the
// standard logrus logger.
func NewRouter(clock Clock, cfg Config, fallback logrus.FieldLogger, named []NamedSink) (*Router, error) {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if fallback == nil {
		fallback = logrus.StandardLogger()
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultConfig().BufferSize
	}
	dropEvery := cfg.DropWarnInterval
	if dropEvery <= 0 {
		dropEvery = DefaultConfig().DropWarnInterval
	}
	r := &Router{
		clock:       clock,
		fallback:    fallback.WithField("component", "event_router"),
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.fieldsCopy(),
		dropEvery:   dropEvery,
		queue:       make(chan Event, size),
		done:        make(chan struct{}),
	}

	seen := make(map[string]bool, len(named))
	for _, n := range named {
		if n.Sink == nil {
			continue
		}
		if seen[n.Name] {
			return nil, errors.New("logging: duplicate sink " + n.Name)
		}
		seen[n.Name] = true
		r.workers = append(r.workers, newSinkWorker(n.Name, n.Sink, min(max(size, 32), 1024), r))
	}

	for _, w := range r.workers {
		go w.run()
	}
	go r.dispatch()
	return r, nil
}

// Publish queues event for delivery. It never blocks.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" {
		return
	}
	if event.Severity < r.minSeverity {
		r.filtered.Add(1)
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.drop(event, "event queue full")
	}
}

func (r *Router) dispatch() {
	defer close(r.done)
	for event := range r.queue {
		event = r.stamp(event)
		r.events.Add(1)
		for _, w := range r.workers {
			w.enqueue(event)
		}
	}
	for _, w := range r.workers {
		close(w.events)
	}
}

func (r *Router) stamp(event Event) Event {
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) == 0 {
		return event
	}
	event = event.Clone()
	if event.Extra == nil {
		event.Extra = make(map[string]any, len(r.fields))
	}
	for k, v := range r.fields {
		if _, ok := event.Extra[k]; !ok {
			event.Extra[k] = v
		}
	}
	return event
}

// drop counts a lost event and warns when the rate limit allows.
func (r *Router) drop(event Event, reason string) {
	r.dropped.Add(1)
	now := time.Now().UnixNano()
	next := r.nextWarn.Load()
	if now < next || !r.nextWarn.CompareAndSwap(next, now+r.dropEvery.Nanoseconds()) {
		return
	}
	r.fallback.WithFields(logrus.Fields{
		"type":    event.Type,
		"tick":    event.Tick,
		"dropped": r.dropped.Load(),
	}).Warn(reason)
}

// Close stops accepting events, delivers what is queued and closes every
// sink. It returns ctx.Err() if delivery does not finish in time.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var errs []error
	for _, w := range r.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		errs = append(errs, w.sink.Close(ctx))
	}
	return errors.Join(errs...)
}

// Stats returns the router counters.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:   r.events.Load(),
		DroppedTotal:  r.dropped.Load(),
		FilteredTotal: r.filtered.Load(),
		SinkFailures:  r.failures.Load(),
	}
}

// Sink returns the sink registered under name, or nil.
func (r *Router) Sink(name string) Sink {
	for _, w := range r.workers {
		if w.name == name {
			return w.sink
		}
	}
	return nil
}
