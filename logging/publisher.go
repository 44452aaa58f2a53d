// Package logging carries structured simulation events from the engine to
// pluggable sinks. Producers publish through the Publisher interface; the
// Router fans events out to sinks on background workers.
package logging

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventType names an event, namespaced by category ("combat.damage").
type EventType string

// Severity orders events for filtering. Higher is more urgent.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

var severityNames = [...]string{"debug", "info", "warn", "error"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity maps a level name to a Severity. Unknown names mean info.
func ParseSeverity(name string) Severity {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return SeverityWarn
	}
	for i, n := range severityNames {
		if n == name {
			return Severity(i)
		}
	}
	return SeverityInfo
}

const (
	CategoryGameplay  = "gameplay"
	CategoryCombat    = "combat"
	CategoryEconomy   = "economy"
	CategoryLifecycle = "lifecycle"
	CategorySystem    = "system"
)

// EntityKind mirrors the simulation's entity kinds as strings.
type EntityKind string

const (
	EntityKindUnknown  EntityKind = "unknown"
	EntityKindHero     EntityKind = "hero"
	EntityKindMonster  EntityKind = "monster"
	EntityKindBuilding EntityKind = "building"
	EntityKindWorld    EntityKind = "world"
)

// EntityRef points at the subject or object of an event.
type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

// Ref builds an entity reference from a simulation kind and numeric id.
// A zero id leaves ID empty.
func Ref(kind fmt.Stringer, id uint64) EntityRef {
	ref := EntityRef{Kind: EntityKindUnknown}
	if kind != nil {
		ref.Kind = EntityKind(kind.String())
	}
	if id != 0 {
		ref.ID = strconv.FormatUint(id, 10)
	}
	return ref
}

// WorldRef references the simulation itself.
func WorldRef() EntityRef { return EntityRef{Kind: EntityKindWorld} }

// Event is one structured record. Time is stamped by the router.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Clone copies the event with its own Targets slice and Extra map.
func (e Event) Clone() Event {
	out := e
	if len(e.Targets) > 0 {
		out.Targets = append([]EntityRef(nil), e.Targets...)
	}
	if e.Extra != nil {
		out.Extra = make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Publisher accepts events. Implementations must not block the caller for
// long; the simulation publishes from inside its tick.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f != nil {
		f(ctx, event)
	}
}

// NopPublisher discards everything.
func NopPublisher() Publisher {
	return PublisherFunc(func(context.Context, Event) {})
}

// WithFields decorates p so every event carries fields in Extra. Keys the
// event already sets win.
func WithFields(p Publisher, fields map[string]any) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if len(fields) == 0 {
		return p
	}
	defaults := make(map[string]any, len(fields))
	for k, v := range fields {
		defaults[k] = v
	}
	return PublisherFunc(func(ctx context.Context, event Event) {
		event = event.Clone()
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			if _, set := event.Extra[k]; !set {
				event.Extra[k] = v
			}
		}
		p.Publish(ctx, event)
	})
}

// Template fixes the type, category and severity shared by every event of
// one kind. Helper packages declare one per event type.
type Template struct {
	Type     EventType
	Category string
	Severity Severity
}

// Emit fills in the template and publishes it. A nil pub is ignored.
func (t Template) Emit(ctx context.Context, pub Publisher, tick uint64, actor EntityRef, targets []EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, Event{
		Type:     t.Type,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: t.Severity,
		Category: t.Category,
		Payload:  payload,
		Extra:    extra,
	})
}
