package world

import (
	"math"
	"strings"
)

const (
	DefaultSeed       = "hold-the-line"
	DefaultWidth      = 2400.0
	DefaultHeight     = 1600.0
	DefaultCellSize   = 20.0
	DefaultViewWidth  = 1280.0
	DefaultViewHeight = 800.0
)

// Config describes the world rectangle, the navigation resolution and the
// visible canvas over which flow fields are computed.
type Config struct {
	Seed       string  `json:"seed" yaml:"seed"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	CellSize   float64 `json:"cellSize" yaml:"cellSize"`
	ViewX      float64 `json:"viewX" yaml:"viewX"`
	ViewY      float64 `json:"viewY" yaml:"viewY"`
	ViewWidth  float64 `json:"viewWidth" yaml:"viewWidth"`
	ViewHeight float64 `json:"viewHeight" yaml:"viewHeight"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if !(normalized.Width > 0) || math.IsInf(normalized.Width, 0) {
		normalized.Width = DefaultWidth
	}
	if !(normalized.Height > 0) || math.IsInf(normalized.Height, 0) {
		normalized.Height = DefaultHeight
	}
	if !(normalized.CellSize > 0) {
		normalized.CellSize = DefaultCellSize
	}
	if !(normalized.ViewWidth > 0) {
		normalized.ViewWidth = math.Min(DefaultViewWidth, normalized.Width)
	}
	if !(normalized.ViewHeight > 0) {
		normalized.ViewHeight = math.Min(DefaultViewHeight, normalized.Height)
	}
	normalized.ViewWidth = math.Min(normalized.ViewWidth, normalized.Width)
	normalized.ViewHeight = math.Min(normalized.ViewHeight, normalized.Height)
	normalized.ViewX = Clamp(normalized.ViewX, 0, normalized.Width-normalized.ViewWidth)
	normalized.ViewY = Clamp(normalized.ViewY, 0, normalized.Height-normalized.ViewHeight)
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

// Bounds returns the world rectangle.
func (cfg Config) Bounds() Rect {
	return Rect{Center: Vec2{X: cfg.Width / 2, Y: cfg.Height / 2}, Width: cfg.Width, Height: cfg.Height}
}

// View returns the visible canvas rectangle.
func (cfg Config) View() Rect {
	return Rect{
		Center: Vec2{X: cfg.ViewX + cfg.ViewWidth/2, Y: cfg.ViewY + cfg.ViewHeight/2},
		Width:  cfg.ViewWidth,
		Height: cfg.ViewHeight,
	}
}

func DefaultConfig() Config {
	return Config{
		Seed:       DefaultSeed,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		CellSize:   DefaultCellSize,
		ViewX:      (DefaultWidth - DefaultViewWidth) / 2,
		ViewY:      (DefaultHeight - DefaultViewHeight) / 2,
		ViewWidth:  DefaultViewWidth,
		ViewHeight: DefaultViewHeight,
	}
}
