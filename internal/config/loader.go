package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TILT2048_"

// Load reads the configuration.
// Search order: customPath -> ~/.tilt2048/config.yaml -> ./configs/tilt2048.yaml -> embedded default
// Files are applied on top of Default(), so they may set only some fields.
// A customPath that cannot be read or parsed is an error; the other
// locations are skipped when missing or malformed.
func Load(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(ExpandHome(customPath))
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	if path := userConfigPath("config.yaml"); path != "" {
		if ok := loadOptional(path, &cfg); ok {
			return cfg, nil
		}
	}

	if ok := loadOptional(filepath.Join("configs", "tilt2048.yaml"), &cfg); ok {
		return cfg, nil
	}

	parsed := Default()
	if err := yaml.Unmarshal(defaultYAML, &parsed); err != nil {
		return Default(), nil
	}
	return parsed, nil
}

// loadOptional applies the file at path to cfg, leaving cfg untouched when
// the file is missing or malformed.
func loadOptional(path string, cfg *Config) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	next := *cfg
	if err := yaml.Unmarshal(data, &next); err != nil {
		return false
	}
	*cfg = next
	return true
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Variables already set win. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from TILT2048_* variables read through lookup
// (usually os.LookupEnv).
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidConfig, EnvPrefix, name, v, err)
		}
		*dst = n
		return nil
	}

	// A preset sets size, target and spawn4 together; individual variables
	// below refine it.
	if v, ok := lookup(EnvPrefix + "PRESET"); ok {
		if err := ApplyPreset(cfg, v); err != nil {
			return err
		}
	}

	if err := num("SIZE", &cfg.Game.Size); err != nil {
		return err
	}
	if err := num("TARGET", &cfg.Game.Target); err != nil {
		return err
	}
	if err := num("TICK_RATE", &cfg.Display.TickRate); err != nil {
		return err
	}
	if err := num("MAX_GAMES", &cfg.Server.MaxGames); err != nil {
		return err
	}

	if v, ok := lookup(EnvPrefix + "SPAWN4"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %sSPAWN4=%q: %v", ErrInvalidConfig, EnvPrefix, v, err)
		}
		cfg.Game.Spawn4 = f
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSEED=%q: %v", ErrInvalidConfig, EnvPrefix, v, err)
		}
		cfg.Game.Seed = n
	}
	if v, ok := lookup(EnvPrefix + "ANIMATE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sANIMATE=%q: %v", ErrInvalidConfig, EnvPrefix, v, err)
		}
		cfg.Display.Animate = b
	}
	if v, ok := lookup(EnvPrefix + "IDLE_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sIDLE_TIMEOUT=%q: %v", ErrInvalidConfig, EnvPrefix, v, err)
		}
		cfg.Server.IdleTimeout = d
	}

	if v, ok := lookup(EnvPrefix + "SCRIPT"); ok && v != "" {
		cfg.Game.Script = v
		cfg.Game.Deterministic = true
	}
	str("DB", &cfg.Storage.DBPath)
	str("SSH_ADDR", &cfg.Server.SSHAddr)
	str("HOST_KEY", &cfg.Server.HostKeyPath)
	str("HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("LOG_LEVEL", &cfg.Log.Level)
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Dir returns the per-user data directory (~/.tilt2048), or "" if the home
// directory is unavailable.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tilt2048")
}

// userConfigPath returns the path to a user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, filename)
}
