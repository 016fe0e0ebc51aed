package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

//go:embed defaults/tilt2048.yaml
var defaultYAML []byte

// Default returns the built-in configuration: the classic 4x4 board played
// to 2048.
func Default() Config {
	return Config{
		Game: GameConfig{
			Size:   engine.DefaultSize,
			Target: engine.DefaultTarget,
			Spawn4: spawn.DefaultSpawn4,
		},
		Display: DisplayConfig{
			TickRate:   60,
			Animate:    true,
			SlideTicks: 8, // ~133ms at 60fps
			PopTicks:   6, // ~100ms at 60fps
		},
		Storage: StorageConfig{
			DBPath: "~/.tilt2048/scores.db",
		},
		Server: ServerConfig{
			SSHAddr:     ":23234",
			IdleTimeout: 30 * time.Minute,
			HTTPAddr:    ":8048",
			MaxGames:    256,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
