package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tilt2048/internal/config"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

// SessionOptions configures a SessionModel.
type SessionOptions struct {
	Context context.Context // Cancelled when the connection closes
	Config  config.Config
	Store   *storage.Store
	Player  string
	Logger  *log.Logger
	Width   int
	Height  int
}

type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenGame
	screenScores
)

// SessionModel manages the full session flow used over SSH:
// preset menu -> game -> menu, with the scoreboard reachable from the menu.
type SessionModel struct {
	opts     SessionOptions
	current  sessionScreen
	presetID string // Menu cursor restored when returning from a game or the scoreboard
	menu     PresetModel
	game     GameModel
	scores   ScoreboardModel
	quitting bool
}

// NewSessionModel creates a session that opens on the preset menu.
func NewSessionModel(opts SessionOptions) SessionModel {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return SessionModel{
		opts:     opts,
		presetID: config.DefaultPresetID,
		menu:     NewPresetModel(config.DefaultPresetID, opts.Width, opts.Height),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update routes messages to the active screen. Child models end their own
// programs with tea.Quit; the session swallows those and switches screens.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.opts.Width = wsm.Width
		m.opts.Height = wsm.Height
	}

	switch m.current {
	case screenGame:
		return m.updateGame(msg)
	case screenScores:
		return m.updateScores(msg)
	}
	return m.updateMenu(msg)
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if pm, ok := next.(PresetModel); ok {
		m.menu = pm
	}

	switch {
	case m.menu.IsQuitting(), m.menu.back:
		m.quitting = true
		return m, tea.Quit

	case m.menu.WantsScores():
		p := m.menu.Highlighted()
		m.presetID = p.ID
		m.scores = NewScoreboardModel(m.opts.Store, config.VariantName(p.Size, p.Target), m.opts.Width, m.opts.Height)
		m.current = screenScores
		return m, nil
	}

	if p, ok := m.menu.Selected(); ok {
		return m.startGame(p)
	}
	return m, cmd
}

func (m SessionModel) startGame(p config.Preset) (tea.Model, tea.Cmd) {
	cfg := m.opts.Config
	p.Apply(&cfg)
	cfg.Game.Deterministic = false
	cfg.Game.Script = ""

	game, err := NewGameModel(GameOptions{
		Context: m.opts.Context,
		Config:  cfg,
		Store:   m.opts.Store,
		Player:  m.opts.Player,
		Logger:  m.opts.Logger,
		Width:   m.opts.Width,
		Height:  m.opts.Height,
	})
	if err != nil {
		m.opts.Logger.Error("could not start game", "preset", p.ID, "error", err)
		return m.backToMenu()
	}

	m.opts.Logger.Info("game started", "preset", p.ID, "variant", cfg.Variant())
	m.presetID = p.ID
	m.game = game
	m.current = screenGame
	return m, m.game.Init()
}

func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.game.Update(msg)
	if gm, ok := next.(GameModel); ok {
		m.game = gm
	}

	if m.game.Done() {
		m.game.Stop()
		return m.backToMenu()
	}
	return m, cmd
}

func (m SessionModel) updateScores(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.scores.Update(msg)
	if sm, ok := next.(ScoreboardModel); ok {
		m.scores = sm
	}

	switch {
	case m.scores.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.scores.IsGoingBack():
		return m.backToMenu()
	}
	return m, cmd
}

func (m SessionModel) backToMenu() (tea.Model, tea.Cmd) {
	m.menu = NewPresetModel(m.presetID, m.opts.Width, m.opts.Height)
	m.current = screenMenu
	return m, m.menu.Init()
}

// View renders the active screen.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.current {
	case screenGame:
		return m.game.View()
	case screenScores:
		return m.scores.View()
	}
	return m.menu.View()
}
