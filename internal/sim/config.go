package sim

import (
	"math"

	"hold-the-line/server/internal/state"
	"hold-the-line/server/internal/world"
)

const (
	DefaultTickRate     = 30
	DefaultMaxDelta     = 0.1
	DefaultStartingGold = 300
	DefaultNPCRespawn   = 20.0
	DefaultWaveInset    = 16.0
)

// Config tunes the engine. Zero values are replaced with defaults by
// Normalized.
type Config struct {
	World        world.Config `json:"world" yaml:"world"`
	TickRate     int          `json:"tickRate" yaml:"tickRate"`
	MaxDelta     float64      `json:"maxDelta" yaml:"maxDelta"`
	StartingGold int          `json:"startingGold" yaml:"startingGold"`
	NPCRespawn   float64      `json:"npcRespawn" yaml:"npcRespawn"`
	WaveInset    float64      `json:"waveInset" yaml:"waveInset"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{}.Normalized()
}

// Normalized fills missing values with defaults.
func (cfg Config) Normalized() Config {
	out := cfg
	out.World = cfg.World.Normalized()
	if out.TickRate <= 0 {
		out.TickRate = DefaultTickRate
	}
	if !(out.MaxDelta > 0) || math.IsInf(out.MaxDelta, 0) {
		out.MaxDelta = DefaultMaxDelta
	}
	switch {
	case out.StartingGold == 0:
		out.StartingGold = DefaultStartingGold
	case out.StartingGold < 0:
		// Negative asks for an empty treasury.
		out.StartingGold = 0
	}
	if !(out.NPCRespawn > 0) {
		out.NPCRespawn = DefaultNPCRespawn
	}
	if !(out.WaveInset > 0) {
		out.WaveInset = DefaultWaveInset
	}
	return out
}

// Placement positions a building relative to the castle.
type Placement struct {
	Type        state.BuildingType `json:"type" yaml:"type"`
	DX          float64            `json:"dx" yaml:"dx"`
	DY          float64            `json:"dy" yaml:"dy"`
	Guild       string             `json:"guild,omitempty" yaml:"guild,omitempty"`
	Constructed bool               `json:"constructed" yaml:"constructed"`
}

// Scenario is the opening population placed by Populate.
type Scenario struct {
	Buildings     []Placement `json:"buildings" yaml:"buildings"`
	Heroes        []string    `json:"heroes" yaml:"heroes"`
	Workers       int         `json:"workers" yaml:"workers"`
	Guards        int         `json:"guards" yaml:"guards"`
	TaxCollectors int         `json:"taxCollectors" yaml:"taxCollectors"`
	Treasures     int         `json:"treasures" yaml:"treasures"`
	Waves         bool        `json:"waves" yaml:"waves"`
}

// DefaultScenario is the standard opening: a guild for each class, the shops,
// a tower, some taxable buildings and a small garrison.
func DefaultScenario() Scenario {
	return Scenario{
		Buildings: []Placement{
			{Type: state.BuildingGuild, DX: -220, DY: -40, Guild: "warrior", Constructed: true},
			{Type: state.BuildingGuild, DX: 220, DY: -40, Guild: "ranger", Constructed: true},
			{Type: state.BuildingMarket, DX: -160, DY: 150, Constructed: true},
			{Type: state.BuildingBlacksmith, DX: 160, DY: 150, Constructed: true},
			{Type: state.BuildingTower, DX: 0, DY: -190, Constructed: true},
			{Type: state.BuildingHouse, DX: -320, DY: 140, Constructed: true},
			{Type: state.BuildingFarm, DX: 330, DY: 150, Constructed: true},
			{Type: state.BuildingHouse, DX: 0, DY: 260},
		},
		Heroes:        []string{"warrior", "warrior", "ranger", "ranger"},
		Workers:       2,
		Guards:        2,
		TaxCollectors: 1,
		Treasures:     4,
		Waves:         true,
	}
}
