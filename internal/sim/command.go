package sim

import "time"

// CommandType enumerates the supported player commands.
type CommandType string

const (
	CommandRecruit CommandType = "Recruit"
	CommandBuild   CommandType = "Build"
	CommandFlag    CommandType = "Flag"
)

// RecruitCommand hires a hero of the named class at a guild.
type RecruitCommand struct {
	Class string `json:"class"`
}

// BuildCommand places a construction site.
type BuildCommand struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Guild string  `json:"guild,omitempty"`
}

// FlagCommand posts a bounty flag paid from the treasury.
type FlagCommand struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Reward int     `json:"reward"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64          `json:"originTick"`
	Type       CommandType     `json:"type"`
	IssuedAt   time.Time       `json:"issuedAt"`
	Recruit    *RecruitCommand `json:"recruit,omitempty"`
	Build      *BuildCommand   `json:"build,omitempty"`
	Flag       *FlagCommand    `json:"flag,omitempty"`
}
