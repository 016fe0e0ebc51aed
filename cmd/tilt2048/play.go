package main

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tilt2048/internal/config"
	"github.com/vovakirdan/tilt2048/internal/platform/tui"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

type playFlags struct {
	preset string
	choose bool
	script string
	record string
	player string
	noAnim bool
}

func newPlayCmd(a *app) *cobra.Command {
	f := &playFlags{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in this terminal",
		Long: `Start a game in this terminal.

Controls:
  Arrows/WASD/HJKL  - Tilt the board
  N/R               - New game
  ?                 - Toggle help
  Q/Ctrl+C          - Quit

Presets:
  tiny, quick, classic, big, marathon, expert, champion

Examples:
  tilt2048 play
  tilt2048 play --preset big
  tilt2048 play --select
  tilt2048 play --size 5 --target 4096
  tilt2048 play --record game.yaml
  tilt2048 play --script game.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd, a, f)
		},
	}

	cmd.Flags().StringVar(&f.preset, "preset", "", "Board preset")
	cmd.Flags().BoolVar(&f.choose, "select", false, "Pick a preset from a menu first")
	cmd.Flags().StringVar(&f.script, "script", "", "Take spawned tiles from a recorded script")
	cmd.Flags().StringVar(&f.record, "record", "", "Save the game as a replay script on exit")
	cmd.Flags().StringVar(&f.player, "player", "", "Name on the leaderboard (default: current user)")
	cmd.Flags().BoolVar(&f.noAnim, "no-animation", false, "Disable tile animations")
	return cmd
}

func runPlay(cmd *cobra.Command, a *app, f *playFlags) error {
	cfg := a.cfg

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	if f.choose {
		p, ok, err := tui.RunPresetSelector(f.preset, width, height)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		p.Apply(&cfg)
	} else if f.preset != "" {
		if err := config.ApplyPreset(&cfg, f.preset); err != nil {
			return err
		}
	}
	// Explicit board flags refine the preset.
	if cmd.Flags().Changed("size") {
		cfg.Game.Size = a.size
	}
	if cmd.Flags().Changed("target") {
		cfg.Game.Target = a.target
	}
	if f.script != "" {
		cfg.Game.Deterministic = true
		cfg.Game.Script = f.script
	}
	if f.noAnim {
		cfg.Display.Animate = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The terminal belongs to the game; logs go to a file.
	logger, closeLog := fileLogger(cfg.Log.Level)
	defer closeLog()

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not open scores database: %v\n", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	return tui.Run(tui.GameOptions{
		Context:    cmd.Context(),
		Config:     cfg,
		Store:      store,
		Player:     playerName(f.player),
		Logger:     logger,
		Width:      width,
		Height:     height,
		RecordPath: f.record,
	})
}

// fileLogger writes to ~/.tilt2048/tilt2048.log, or discards output when the
// file cannot be opened.
func fileLogger(level string) (*log.Logger, func()) {
	dir := config.Dir()
	if dir == "" {
		return newLogger(io.Discard, level), func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newLogger(io.Discard, level), func() {}
	}
	file, err := os.OpenFile(filepath.Join(dir, "tilt2048.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return newLogger(io.Discard, level), func() {}
	}
	return newLogger(file, level), func() { file.Close() }
}

// playerName returns name, or the current user's login.
func playerName(name string) string {
	if name != "" {
		return name
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
