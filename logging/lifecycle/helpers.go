package lifecycle

import (
	"context"

	"hold-the-line/server/logging"
)

const (
	// EventSpawn is emitted when an entity enters the simulation.
	EventSpawn logging.EventType = "lifecycle.spawn"
	// EventRemoved is emitted when the sweep drops a dead entity.
	EventRemoved logging.EventType = "lifecycle.removed"
	// EventBuildingEnter is emitted when a hero goes inside a building.
	EventBuildingEnter logging.EventType = "lifecycle.building_enter"
	// EventBuildingExit is emitted when a hero leaves a building.
	EventBuildingExit logging.EventType = "lifecycle.building_exit"
	// EventBuildingComplete is emitted when construction finishes.
	EventBuildingComplete logging.EventType = "lifecycle.building_complete"
	// EventLevelUp is emitted when a hero gains a level.
	EventLevelUp logging.EventType = "lifecycle.level_up"
	// EventStateChange is emitted on hero state transitions.
	EventStateChange logging.EventType = "lifecycle.state_change"
)

var (
	spawn            = logging.Template{Type: EventSpawn, Category: logging.CategoryLifecycle, Severity: logging.SeverityInfo}
	removed          = logging.Template{Type: EventRemoved, Category: logging.CategoryLifecycle, Severity: logging.SeverityDebug}
	buildingEnter    = logging.Template{Type: EventBuildingEnter, Category: logging.CategoryLifecycle, Severity: logging.SeverityDebug}
	buildingExit     = logging.Template{Type: EventBuildingExit, Category: logging.CategoryLifecycle, Severity: logging.SeverityDebug}
	buildingComplete = logging.Template{Type: EventBuildingComplete, Category: logging.CategoryLifecycle, Severity: logging.SeverityInfo}
	levelUp          = logging.Template{Type: EventLevelUp, Category: logging.CategoryLifecycle, Severity: logging.SeverityInfo}
	stateChange      = logging.Template{Type: EventStateChange, Category: logging.CategoryLifecycle, Severity: logging.SeverityDebug}
)

// SpawnPayload captures spawn metadata.
type SpawnPayload struct {
	Variant string  `json:"variant,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Reason  string  `json:"reason,omitempty"`
}

// BuildingPayload names the building type involved.
type BuildingPayload struct {
	Building string `json:"building"`
}

// LevelUpPayload captures the new level.
type LevelUpPayload struct {
	Level int `json:"level"`
}

// StateChangePayload captures a transition.
type StateChangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Spawn publishes an entity spawn.
func Spawn(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnPayload, extra map[string]any) {
	spawn.Emit(ctx, pub, tick, actor, nil, payload, extra)
}

// Removed publishes the sweep of a dead entity.
func Removed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	removed.Emit(ctx, pub, tick, actor, nil, nil, extra)
}

// BuildingEnter publishes a hero entering a building.
func BuildingEnter(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, building logging.EntityRef, payload BuildingPayload, extra map[string]any) {
	buildingEnter.Emit(ctx, pub, tick, actor, []logging.EntityRef{building}, payload, extra)
}

// BuildingExit publishes a hero leaving a building.
func BuildingExit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, building logging.EntityRef, payload BuildingPayload, extra map[string]any) {
	buildingExit.Emit(ctx, pub, tick, actor, []logging.EntityRef{building}, payload, extra)
}

// BuildingComplete publishes a finished construction.
func BuildingComplete(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, building logging.EntityRef, payload BuildingPayload, extra map[string]any) {
	buildingComplete.Emit(ctx, pub, tick, actor, []logging.EntityRef{building}, payload, extra)
}

// LevelUp publishes a hero level gain.
func LevelUp(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LevelUpPayload, extra map[string]any) {
	levelUp.Emit(ctx, pub, tick, actor, nil, payload, extra)
}

// StateChange publishes a hero state transition.
func StateChange(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StateChangePayload, extra map[string]any) {
	stateChange.Emit(ctx, pub, tick, actor, nil, payload, extra)
}
