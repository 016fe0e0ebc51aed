package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tilt2048/internal/config"
	"github.com/vovakirdan/tilt2048/internal/core"
	"github.com/vovakirdan/tilt2048/internal/replay"
	"github.com/vovakirdan/tilt2048/internal/session"
	"github.com/vovakirdan/tilt2048/internal/spawn"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	eventBuffer   = 256
	inputBuffer   = 16
)

// GameOptions configures a GameModel.
type GameOptions struct {
	Context    context.Context // Parent of the controller's context; nil means Background
	Config     config.Config
	Store      *storage.Store // Optional leaderboard
	Player     string
	Logger     *log.Logger
	Width      int
	Height     int
	RecordPath string // Save the played game as a replay script on exit
}

// eventMsg carries a controller event into the Bubble Tea loop.
type eventMsg session.Event

// sessionDoneMsg reports that the controller goroutine has returned.
type sessionDoneMsg struct {
	err error
}

// GameModel is the Bubble Tea model for one game session. The controller
// runs in its own goroutine; the model pushes commands to it and renders the
// snapshots it publishes.
type GameModel struct {
	keys   GameKeyMap
	help   help.Model
	screen *core.Screen
	logger *log.Logger

	ctrl   *session.Controller
	input  *session.ChanSource
	cmds   session.CommandSource
	events *session.ChanSink
	done   chan error
	ctx    context.Context
	cancel context.CancelFunc

	recorder   *replay.Recorder
	recordPath string

	variant  string
	best     int
	tickRate int
	animate  bool

	snap     session.Snapshot
	anim     *animation
	err      error
	finished bool
	quitting bool
}

// NewGameModel builds the controller and its channels from the
// configuration. With Game.Deterministic the tiles come from the script at
// Game.Script; otherwise from a random source seeded by Game.Seed (or the
// clock when zero).
func NewGameModel(opts GameOptions) (GameModel, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = defaultWidth, defaultHeight
	}

	size, target, seed := cfg.Game.Size, cfg.Game.Target, cfg.Game.Seed
	var tiles spawn.Source
	if cfg.Game.Deterministic {
		script, err := replay.Load(cfg.Game.Script)
		if err != nil {
			return GameModel{}, err
		}
		size, target, seed = script.Size, script.Target, script.Seed
		tiles = spawn.NewScriptedSource(script.Tiles)
	} else {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		tiles = spawn.NewRandomSource(seed, size, cfg.Game.Spawn4)
	}

	input := session.NewChanSource(inputBuffer)
	var cmds session.CommandSource = input
	spawner := spawn.New(tiles)

	var recorder *replay.Recorder
	if opts.RecordPath != "" {
		recorder = replay.NewRecorder(size, target, seed, tiles, input)
		spawner = recorder.Spawner()
		cmds = recorder
	}

	variant := config.VariantName(size, target)
	events := session.NewChanSink(eventBuffer)
	// Scores are written before the UI sees the final event.
	sink := session.MultiSink{
		storage.NewScoreSink(opts.Store, variant, opts.Player, logger),
		events,
	}

	best := 0
	if opts.Store != nil {
		if hs, err := opts.Store.HighScore(variant); err == nil {
			best = hs
		} else {
			logger.Warn("could not read high score", "variant", variant, "error", err)
		}
	}

	ctrl := session.New(session.Options{
		Size:    size,
		Target:  target,
		Spawner: spawner,
		Sink:    sink,
		Logger:  logger,
	})

	anim := newAnimation(cfg.Display.SlideTicks, cfg.Display.PopTicks)
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	h := help.New()
	h.Width = opts.Width

	return GameModel{
		keys:       DefaultGameKeyMap(),
		help:       h,
		screen:     core.NewScreen(opts.Width, opts.Height-1),
		logger:     logger,
		ctrl:       ctrl,
		input:      input,
		cmds:       cmds,
		events:     events,
		done:       make(chan error, 1),
		ctx:        ctx,
		cancel:     cancel,
		recorder:   recorder,
		recordPath: opts.RecordPath,
		variant:    variant,
		best:       best,
		tickRate:   cfg.Display.TickRate,
		animate:    cfg.Display.Animate,
		snap:       ctrl.Snapshot(),
		anim:       &anim,
	}, nil
}

// Init starts the controller goroutine, the event pump and the frame ticker.
func (m GameModel) Init() tea.Cmd {
	go m.run()
	return tea.Batch(m.waitForEvent(), tickCmd(m.tickRate))
}

// run owns the controller until the player quits or the session fails.
func (m GameModel) run() {
	err := m.ctrl.Run(m.ctx, m.cmds)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("session ended", "error", err)
	}

	if m.recorder != nil {
		if saveErr := m.recorder.Script().Save(m.recordPath); saveErr != nil {
			m.logger.Error("could not save recording", "path", m.recordPath, "error", saveErr)
		} else {
			m.logger.Info("recording saved", "path", m.recordPath)
		}
	}

	m.done <- err
}

// waitForEvent blocks until the controller publishes an event or returns.
// Queued events are delivered before the done message.
func (m GameModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		events := m.events.Events()
		select {
		case e := <-events:
			return eventMsg(e)
		case err := <-m.done:
			if len(events) > 0 {
				m.done <- err
				return eventMsg(<-events)
			}
			return sessionDoneMsg{err: err}
		}
	}
}

// Update handles messages.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, max(0, msg.Height-1))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.anim.step()
		return m, tickCmd(m.tickRate)

	case eventMsg:
		m.handleEvent(session.Event(msg))
		return m, m.waitForEvent()

	case sessionDoneMsg:
		m.finished = true
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// handleKey forwards game keys to the controller.
func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	cmd := m.keys.Command(msg)
	if cmd == session.Invalid {
		return m, nil
	}

	if cmd == session.Quit {
		m.quitting = true
		if m.finished {
			return m, tea.Quit
		}
	}

	if m.finished {
		return m, nil
	}
	if !m.input.Push(cmd) {
		m.logger.Debug("input dropped", "command", cmd)
		if cmd == session.Quit {
			m.cancel()
		}
	}
	return m, nil
}

// handleEvent starts animations and records the latest snapshot.
func (m *GameModel) handleEvent(e session.Event) {
	switch e.Type {
	case session.EventNewGame:
		m.anim.skip()
	case session.EventMove:
		if m.animate && e.Move != nil {
			m.anim.startMove(m.snap.Grid, e.Move)
		}
	case session.EventSpawn:
		if m.animate && e.Spawn != nil {
			m.anim.startSpawn(e.Spawn.Tile)
		}
	case session.EventOver:
		m.best = max(m.best, e.Snapshot.Score)
	}
	m.snap = e.Snapshot
}

// View renders the board and the help line.
func (m GameModel) View() string {
	if m.quitting && m.finished {
		return ""
	}

	drawBoard(m.screen, boardView{
		Snap:    m.snap,
		Variant: m.variant,
		Best:    m.best,
		Anim:    m.anim,
		Err:     m.err,
	})
	return RenderScreen(m.screen) + "\n" + m.help.View(m.keys)
}

// Snapshot returns the latest state received from the controller.
func (m GameModel) Snapshot() session.Snapshot {
	return m.snap
}

// Err returns the error that ended the session, if any.
func (m GameModel) Err() error {
	return m.err
}

// Done reports whether the player quit and the controller has stopped.
func (m GameModel) Done() bool {
	return m.quitting && m.finished
}

// IsQuitting returns true if the player asked to quit.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// Stop cancels the controller goroutine if it is still running.
func (m GameModel) Stop() {
	m.cancel()
}

// Run starts a local game in the alternate screen and blocks until the
// player quits.
func Run(opts GameOptions) error {
	model, err := NewGameModel(opts)
	if err != nil {
		return err
	}
	defer model.Stop()

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if gm, ok := final.(GameModel); ok {
		return gm.Err()
	}
	return nil
}
