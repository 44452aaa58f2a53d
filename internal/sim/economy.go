package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/logging"
	loggingeconomy "hold-the-line/server/logging/economy"
)

var (
	// ErrInsufficientGold indicates the treasury cannot cover a command.
	ErrInsufficientGold = errors.New("sim: insufficient gold")
	// ErrUnknownBuilding indicates a building type missing from the tables.
	ErrUnknownBuilding = errors.New("sim: unknown building type")
	// ErrBlockedPlacement indicates a footprint outside the world or over
	// another building.
	ErrBlockedPlacement = errors.New("sim: placement blocked")
	// ErrNoGuild indicates no constructed guild can train the class.
	ErrNoGuild = errors.New("sim: no guild")
	// ErrInvalidCommand indicates a command without its payload.
	ErrInvalidCommand = errors.New("sim: invalid command")
)

const placementGap = 4.0

// Apply executes player commands in order. A failing command does not stop
// the rest; the failures are joined.
func (e *Engine) Apply(cmds []Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := e.apply(cmd); err != nil {
			e.log.WithFields(logrus.Fields{"command": cmd.Type, "error": err}).Debug("command rejected")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) apply(cmd Command) error {
	switch cmd.Type {
	case CommandRecruit:
		if cmd.Recruit == nil {
			return fmt.Errorf("%w: recruit without payload", ErrInvalidCommand)
		}
		return e.Recruit(cmd.Recruit.Class)
	case CommandBuild:
		if cmd.Build == nil {
			return fmt.Errorf("%w: build without payload", ErrInvalidCommand)
		}
		b, err := e.PlaceBuilding(state.BuildingType(cmd.Build.Type), state.V(cmd.Build.X, cmd.Build.Y))
		if err == nil {
			b.Guild = state.HeroClass(cmd.Build.Guild)
		}
		return err
	case CommandFlag:
		if cmd.Flag == nil {
			return fmt.Errorf("%w: flag without payload", ErrInvalidCommand)
		}
		_, err := e.PlaceFlag(state.V(cmd.Flag.X, cmd.Flag.Y), cmd.Flag.Reward)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Type)
	}
}

// debit takes gold from the treasury and publishes the mutation.
func (e *Engine) debit(amount int, reason string) error {
	if !e.treasury.Debit(amount) {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientGold, amount, e.treasury.Balance())
	}
	if amount > 0 {
		loggingeconomy.TreasuryDebit(context.Background(), e.deps.Publisher, e.clock.Tick(), logging.WorldRef(),
			loggingeconomy.TreasuryPayload{Amount: amount, Balance: e.treasury.Balance(), Reason: reason}, nil)
	}
	return nil
}

// Recruit pays the hire cost of class and queues a recruit that appears at
// its guild once trained. Unknown classes fall back to the default class.
func (e *Engine) Recruit(class string) error {
	entry := e.catalog.Class(class)
	guild, ok := e.guildFor(entry.Name)
	if !ok {
		return fmt.Errorf("%w for %s", ErrNoGuild, entry.Name)
	}
	if err := e.debit(entry.HireCost, "recruit "+entry.Name); err != nil {
		return err
	}
	e.schedule(entry.TrainTime, state.SpawnRequest{
		Kind:   state.KindHero,
		Class:  state.HeroClass(entry.Name),
		Home:   guild.ID(),
		Pos:    guild.DoorPoint(),
		Reason: "recruit",
	})
	return nil
}

// PlaceBuilding pays for and lays out a construction site centered on pos.
// Workers finish it. The footprint blocks navigation immediately.
func (e *Engine) PlaceBuilding(typ state.BuildingType, pos state.Vec2) (*state.Building, error) {
	entry, ok := e.catalog.Building(string(typ))
	if !ok || typ == state.BuildingCastle {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuilding, typ)
	}
	footprint := state.Rect{Center: pos, Width: entry.Width, Height: entry.Height}
	if !e.footprintFree(footprint) {
		return nil, fmt.Errorf("%w at (%.0f, %.0f)", ErrBlockedPlacement, pos.X, pos.Y)
	}
	if err := e.debit(entry.Cost, "build "+string(typ)); err != nil {
		return nil, err
	}
	b, _ := e.env.SpawnBuilding(typ, pos, false)
	e.nav.MarkBuilding(b)
	e.nav.TopologyChanged()
	return b, nil
}

// footprintFree reports whether r lies inside the world and clear of every
// standing building.
func (e *Engine) footprintFree(r state.Rect) bool {
	bounds := e.nav.Bounds()
	if !bounds.Contains(r.Min()) || !bounds.Contains(r.Max()) {
		return false
	}
	grown := r.Inflate(placementGap)
	for _, b := range e.registry.Buildings() {
		if overlaps(grown, b.Bounds()) {
			return false
		}
	}
	return true
}

func overlaps(a, b state.Rect) bool {
	amin, amax := a.Min(), a.Max()
	bmin, bmax := b.Min(), b.Max()
	return amin.X < bmax.X && bmin.X < amax.X && amin.Y < bmax.Y && bmin.Y < amax.Y
}

// CompleteBuilding finishes construction of b.
func (e *Engine) CompleteBuilding(b *state.Building) {
	if b == nil || b.Constructed {
		return
	}
	b.Constructed = true
	b.Progress = b.BuildCost
	e.nav.TopologyChanged()
	e.log.WithFields(logrus.Fields{"building": b.ID(), "type": b.Type}).Info("construction complete")
}

// PlaceFlag posts a bounty flag. The reward is paid from the treasury up
// front and handed to the hero who completes it.
func (e *Engine) PlaceFlag(pos state.Vec2, reward int) (*state.Flag, error) {
	if reward <= 0 || !e.nav.Bounds().Contains(pos) {
		return nil, fmt.Errorf("%w: flag reward %d at (%.0f, %.0f)", ErrInvalidCommand, reward, pos.X, pos.Y)
	}
	if err := e.debit(reward, "flag"); err != nil {
		return nil, err
	}
	f := state.NewFlag(e.registry.AllocateID(), pos, reward)
	e.registry.Add(f)
	return f, nil
}
