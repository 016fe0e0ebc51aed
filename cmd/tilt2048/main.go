// tilt2048 plays the 2048 tile-merging game in the terminal, over SSH and
// over HTTP.
//
// Usage:
//
//	tilt2048 play              - Play in this terminal
//	tilt2048 replay <script>   - Re-run a recorded game without a display
//	tilt2048 scores [variant]  - Show high scores
//	tilt2048 serve             - Start the SSH and HTTP servers
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.tilt2048/config.yaml)
//	--seed <value>      - RNG seed for reproducible games
//	--db <path>         - Scores database (default: ~/.tilt2048/scores.db)
//	--size, --target    - Board dimension and winning tile
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tilt2048/internal/config"
)

// app holds the global flags and what they resolve to.
type app struct {
	configPath string
	seed       int64
	dbPath     string
	size       int
	target     int
	logLevel   string

	cfg    config.Config
	logger *log.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tilt2048",
		Short: "tilt2048 - slide and merge tiles until you reach 2048",
		Long: `tilt2048 is the 2048 sliding-tile game for the terminal.

Tilt the board to slide every tile as far as it goes. Two equal tiles that
collide merge into their sum; reach the target tile to win.

Available commands:
  play     - Play in this terminal
  replay   - Re-run a recorded game without a display
  scores   - View high scores
  serve    - Start the SSH and HTTP servers

Examples:
  tilt2048 play
  tilt2048 play --preset big
  tilt2048 play --record game.yaml
  tilt2048 replay game.yaml
  tilt2048 scores 4x4-2048
  tilt2048 serve --ssh :2222 --http :8048`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config YAML")
	pf.Int64Var(&a.seed, "seed", 0, "RNG seed (0 = random based on time)")
	pf.StringVar(&a.dbPath, "db", "", "Path to scores database")
	pf.IntVar(&a.size, "size", 0, "Board dimension (2-8)")
	pf.IntVar(&a.target, "target", 0, "Winning tile value")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(newPlayCmd(a))
	root.AddCommand(newReplayCmd(a))
	root.AddCommand(newScoresCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

// setup resolves the configuration: defaults, then the config file, then
// .env and TILT2048_* variables, then explicit flags.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Game.Seed = a.seed
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = a.dbPath
	}
	if flags.Changed("size") {
		cfg.Game.Size = a.size
	}
	if flags.Changed("target") {
		cfg.Game.Target = a.target
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	return nil
}

// newLogger builds the process logger at the given level.
func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "tilt2048",
	})
	if lvl, err := log.ParseLevel(strings.ToLower(level)); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
