// Package session runs games turn by turn: it owns the grid and scores,
// applies player commands through the engine, spawns tiles and publishes a
// snapshot after every change.
package session

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

// Options configures a Controller.
type Options struct {
	Size    int            // Board dimension, fixed for the controller's lifetime
	Target  int            // Winning tile value (default 2048)
	Spawner *spawn.Spawner // Required
	Sink    Sink           // Optional observer
	Logger  *log.Logger    // Optional; nil discards
}

// Controller is the turn state machine. It is not safe for concurrent use:
// a single goroutine must own it, either through Run or by calling Start and
// Handle directly.
type Controller struct {
	size    int
	target  int
	spawner *spawn.Spawner
	sink    Sink
	logger  *log.Logger
	state   State
}

// New creates a controller in the Idle phase.
// Panics if Size is outside the engine's supported range or Spawner is nil.
func New(opts Options) *Controller {
	if opts.Spawner == nil {
		panic("session: nil spawner")
	}
	if opts.Target == 0 {
		opts.Target = engine.DefaultTarget
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Controller{
		size:    opts.Size,
		target:  opts.Target,
		spawner: opts.Spawner,
		sink:    opts.Sink,
		logger:  opts.Logger,
		state: State{
			Grid:  engine.NewGrid(opts.Size),
			Phase: PhaseIdle,
		},
	}
}

// Size returns the board dimension.
func (c *Controller) Size() int {
	return c.size
}

// Target returns the winning tile value.
func (c *Controller) Target() int {
	return c.target
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	return c.state.snapshot(c.target)
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.state.Phase
}

// Run starts a game and processes commands from src until Quit.
// It blocks only inside src.Next. A nil return means the player quit; any
// other error (context cancellation, an exhausted tile feed or command
// input) aborts the session.
func (c *Controller) Run(ctx context.Context, src CommandSource) error {
	if err := c.Start(); err != nil {
		return err
	}

	for {
		cmd, err := src.Next(ctx)
		if err != nil {
			return fmt.Errorf("session: reading command: %w", err)
		}

		quit, err := c.Handle(cmd)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// Start resets the board and score and begins a new game: one initial tile,
// then the first turn's spawn.
func (c *Controller) Start() error {
	c.state.Grid = engine.NewGrid(c.size)
	c.state.Score = 0
	c.state.TileCount = 0
	c.state.Moves = 0
	c.state.Games++
	c.state.Phase = PhasePlaying

	c.logger.Debug("new game", "game", c.state.Games, "size", c.size, "target", c.target)
	c.publish(Event{Type: EventNewGame})

	if err := c.spawn(); err != nil {
		return err
	}
	return c.beginTurn()
}

// Handle applies one command. It returns quit=true after Quit.
// Invalid commands, moves after the game ended and tilts that change nothing
// are ignored and do not advance the turn.
func (c *Controller) Handle(cmd Command) (quit bool, err error) {
	switch cmd {
	case Quit:
		c.state.Phase = PhaseQuit
		c.logger.Debug("quit", "score", c.state.Score, "max_score", c.state.MaxScore)
		return true, nil
	case NewGame:
		return false, c.Start()
	}

	dir, ok := cmd.Direction()
	if !ok || c.state.Phase != PhasePlaying {
		return false, nil
	}

	res := engine.Tilt(c.state.Grid, dir)
	if !res.Changed {
		return false, nil
	}

	c.state.Grid = res.Grid
	c.state.Score += res.ScoreDelta
	c.state.TileCount -= res.Merges
	c.state.Moves++

	c.logger.Debug("tilt", "dir", dir, "gained", res.ScoreDelta, "merges", res.Merges, "score", c.state.Score)
	c.publish(Event{Type: EventMove, Move: &res})

	return false, c.beginTurn()
}

// beginTurn spawns the turn's tile unless the game is already decided, then
// ends the game if no further move is possible.
func (c *Controller) beginTurn() error {
	if !c.over() {
		if err := c.spawn(); err != nil {
			return err
		}
	}
	if c.over() {
		c.finish()
	}
	return nil
}

func (c *Controller) spawn() error {
	grid, placement, err := c.spawner.Spawn(c.state.Grid)
	if err != nil {
		return fmt.Errorf("session: spawning tile: %w", err)
	}
	if !placement.Placed {
		return nil
	}

	c.state.Grid = grid
	c.state.TileCount++
	c.publish(Event{Type: EventSpawn, Spawn: &placement})
	return nil
}

func (c *Controller) over() bool {
	return engine.IsOver(c.state.Grid, c.target)
}

func (c *Controller) finish() {
	c.state.Phase = PhaseOver
	if c.state.Score > c.state.MaxScore {
		c.state.MaxScore = c.state.Score
	}

	c.logger.Info("game over",
		"score", c.state.Score,
		"max_score", c.state.MaxScore,
		"max_tile", c.state.Grid.MaxTile(),
		"won", engine.Won(c.state.Grid, c.target),
	)
	c.publish(Event{Type: EventOver})
}

func (c *Controller) publish(e Event) {
	e.Snapshot = c.Snapshot()
	c.sink.Publish(e)
}
