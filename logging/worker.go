package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

const maxSinkBackoff = 32 * time.Second

// sinkWorker feeds one sink from its own backlog. A failing sink is retried
// with exponential backoff; events arriving while it backs off queue up and
// overflow is dropped.
type sinkWorker struct {
	name   string
	sink   Sink
	events chan Event
	done   chan struct{}
	router *Router

	failures  int
	nextRetry time.Time
}

func newSinkWorker(name string, sink Sink, backlog int, router *Router) *sinkWorker {
	return &sinkWorker{
		name:   name,
		sink:   sink,
		events: make(chan Event, backlog),
		done:   make(chan struct{}),
		router: router,
	}
}

func (w *sinkWorker) enqueue(event Event) {
	select {
	case w.events <- event.Clone():
	default:
		w.router.drop(event, "sink backlog full")
	}
}

func (w *sinkWorker) run() {
	defer close(w.done)
	for event := range w.events {
		if wait := time.Until(w.nextRetry); wait > 0 {
			time.Sleep(wait)
		}
		if err := w.sink.Write(event); err != nil {
			w.fail(err)
			continue
		}
		w.failures = 0
		w.nextRetry = time.Time{}
	}
}

func (w *sinkWorker) fail(err error) {
	w.failures++
	w.router.failures.Add(1)
	delay := time.Second << min(w.failures-1, 5)
	if delay > maxSinkBackoff {
		delay = maxSinkBackoff
	}
	w.nextRetry = time.Now().Add(delay)
	w.router.fallback.WithError(err).WithFields(logrus.Fields{
		"sink":  w.name,
		"retry": delay,
	}).Error("sink write failed")
}
