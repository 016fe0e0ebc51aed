// Package replay stores played games as YAML scripts and re-runs them
// deterministically. A script holds the exact tile feed and command stream of
// a session.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/session"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

// ErrInvalidScript is wrapped by every script validation failure.
var ErrInvalidScript = errors.New("replay: invalid script")

// Script is a recorded game.
type Script struct {
	Size     int          `yaml:"size"`
	Target   int          `yaml:"target"`
	Seed     int64        `yaml:"seed,omitempty"` // Informational; the feed is authoritative
	Tiles    []spawn.Tile `yaml:"tiles"`
	Commands []string     `yaml:"commands"`
}

// ParseYAML decodes and validates a script.
func ParseYAML(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("replay: parse: %w", err)
	}
	if s.Target == 0 {
		s.Target = engine.DefaultTarget
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// Load reads a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("replay: failed to read %s: %w", path, err)
	}
	s, err := ParseYAML(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes the script as YAML.
func (s Script) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("replay: encode: %w", err)
	}
	return data, nil
}

// Save writes the script to path.
func (s Script) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("replay: failed to write %s: %w", path, err)
	}
	return nil
}

// Validate checks the board parameters and that every tile fits the board.
// Unknown command tokens are allowed; the controller ignores them.
func (s Script) Validate() error {
	if s.Size < engine.MinSize || s.Size > engine.MaxSize {
		return fmt.Errorf("%w: size %d outside %d..%d", ErrInvalidScript, s.Size, engine.MinSize, engine.MaxSize)
	}
	if s.Target < 4 || !engine.IsTileValue(s.Target) {
		return fmt.Errorf("%w: target %d", ErrInvalidScript, s.Target)
	}
	for i, t := range s.Tiles {
		if t.Row < 0 || t.Row >= s.Size || t.Col < 0 || t.Col >= s.Size {
			return fmt.Errorf("%w: tile %d at (%d, %d) outside %dx%d board", ErrInvalidScript, i, t.Row, t.Col, s.Size, s.Size)
		}
		if t.Value == 0 || !engine.IsTileValue(t.Value) {
			return fmt.Errorf("%w: tile %d value %d", ErrInvalidScript, i, t.Value)
		}
	}
	return nil
}

// Spawner returns a spawner fed by the script's tiles.
func (s Script) Spawner() *spawn.Spawner {
	return spawn.New(spawn.NewScriptedSource(s.Tiles))
}

// CommandSource returns the script's commands as a finite source.
func (s Script) CommandSource() *session.SliceSource {
	return session.ParseSliceSource(s.Commands)
}

// Play runs the script headless and returns the final snapshot.
// Running out of commands ends the replay normally; running out of tiles
// while the game still needs one is an error.
func Play(ctx context.Context, s Script, sink session.Sink, logger *log.Logger) (session.Snapshot, error) {
	c := session.New(session.Options{
		Size:    s.Size,
		Target:  s.Target,
		Spawner: s.Spawner(),
		Sink:    sink,
		Logger:  logger,
	})

	err := c.Run(ctx, s.CommandSource())
	if err != nil && !errors.Is(err, session.ErrInputExhausted) {
		return c.Snapshot(), fmt.Errorf("replay: %w", err)
	}
	return c.Snapshot(), nil
}
