// Package config provides YAML-based configuration loading and named game
// presets for tilt2048.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/tilt2048/internal/engine"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the full application configuration.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// GameConfig defines board and spawn parameters.
type GameConfig struct {
	Size          int     `yaml:"size"`
	Target        int     `yaml:"target"`
	Spawn4        float64 `yaml:"spawn4"`        // Probability of spawning 4 instead of 2 (0.0-1.0)
	Seed          int64   `yaml:"seed"`          // 0 = time based
	Deterministic bool    `yaml:"deterministic"` // Take tiles from Script instead of the RNG
	Script        string  `yaml:"script"`
}

// DisplayConfig defines terminal rendering parameters.
type DisplayConfig struct {
	TickRate   int  `yaml:"tick_rate"`   // Animation frames per second
	Animate    bool `yaml:"animate"`     // Slide tiles between positions
	SlideTicks int  `yaml:"slide_ticks"` // Frames per slide animation
	PopTicks   int  `yaml:"pop_ticks"`   // Frames per spawn animation
}

// StorageConfig defines where final scores are kept.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// ServerConfig defines the SSH and HTTP front-ends.
type ServerConfig struct {
	SSHAddr     string        `yaml:"ssh_addr"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	HTTPAddr    string        `yaml:"http_addr"`
	MaxGames    int           `yaml:"max_games"` // Concurrent HTTP games
}

// LogConfig defines logging output.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	g := c.Game
	if g.Size < engine.MinSize || g.Size > engine.MaxSize {
		return fmt.Errorf("%w: game.size %d outside %d..%d", ErrInvalidConfig, g.Size, engine.MinSize, engine.MaxSize)
	}
	if g.Target < 4 || !engine.IsTileValue(g.Target) {
		return fmt.Errorf("%w: game.target %d is not a power of two >= 4", ErrInvalidConfig, g.Target)
	}
	if g.Spawn4 < 0 || g.Spawn4 > 1 {
		return fmt.Errorf("%w: game.spawn4 %.2f outside 0..1", ErrInvalidConfig, g.Spawn4)
	}
	if g.Deterministic && g.Script == "" {
		return fmt.Errorf("%w: game.deterministic requires game.script", ErrInvalidConfig)
	}
	if c.Display.TickRate <= 0 {
		return fmt.Errorf("%w: display.tick_rate must be positive", ErrInvalidConfig)
	}
	if c.Display.SlideTicks < 0 || c.Display.PopTicks < 0 {
		return fmt.Errorf("%w: animation ticks must not be negative", ErrInvalidConfig)
	}
	if c.Server.MaxGames < 0 {
		return fmt.Errorf("%w: server.max_games must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// Variant names the leaderboard bucket for this configuration: scores are
// only comparable between games with the same size and target.
func (c Config) Variant() string {
	return VariantName(c.Game.Size, c.Game.Target)
}

// VariantName formats a leaderboard bucket such as "4x4-2048".
func VariantName(size, target int) string {
	return fmt.Sprintf("%dx%d-%d", size, size, target)
}

// Preset is a named board configuration.
type Preset struct {
	ID     string
	Name   string
	Size   int
	Target int
	Spawn4 float64
}

// Presets lists the built-in board configurations, easiest first.
var Presets = []Preset{
	{ID: "tiny", Name: "Tiny", Size: 3, Target: 256, Spawn4: 0.10},
	{ID: "quick", Name: "Quick", Size: 4, Target: 512, Spawn4: 0.10},
	{ID: "classic", Name: "Classic 2048", Size: 4, Target: 2048, Spawn4: 0.10},
	{ID: "big", Name: "Big Board", Size: 5, Target: 4096, Spawn4: 0.10},
	{ID: "marathon", Name: "Marathon", Size: 6, Target: 8192, Spawn4: 0.12},
	{ID: "expert", Name: "Expert", Size: 4, Target: 4096, Spawn4: 0.20},
	{ID: "champion", Name: "Ultimate Champion", Size: 4, Target: 8192, Spawn4: 0.25},
}

// DefaultPresetID is the preset matching Default().
const DefaultPresetID = "classic"

// FindPreset looks a preset up by ID (case-insensitive).
func FindPreset(id string) (Preset, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetIDs returns the IDs of all presets.
func PresetIDs() []string {
	ids := make([]string, len(Presets))
	for i, p := range Presets {
		ids[i] = p.ID
	}
	return ids
}

// Apply copies the preset's board parameters into cfg.
func (p Preset) Apply(cfg *Config) {
	cfg.Game.Size = p.Size
	cfg.Game.Target = p.Target
	cfg.Game.Spawn4 = p.Spawn4
}

// ApplyPreset applies the preset with the given ID.
func ApplyPreset(cfg *Config, id string) error {
	p, ok := FindPreset(id)
	if !ok {
		return fmt.Errorf("%w: unknown preset %q (available: %s)", ErrInvalidConfig, id, strings.Join(PresetIDs(), ", "))
	}
	p.Apply(cfg)
	return nil
}
