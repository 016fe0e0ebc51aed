package web

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tilt2048/internal/config"
	"github.com/vovakirdan/tilt2048/internal/session"
	"github.com/vovakirdan/tilt2048/internal/spawn"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

var (
	ErrGameNotFound = errors.New("web: game not found")
	ErrTooManyGames = errors.New("web: too many games")
	ErrBadRequest   = errors.New("web: bad request")
)

// CreateRequest selects the board for a new game. Zero fields fall back to
// the preset, then to the server defaults.
type CreateRequest struct {
	Preset string `json:"preset,omitempty"`
	Size   int    `json:"size,omitempty"`
	Target int    `json:"target,omitempty"`
	Seed   int64  `json:"seed,omitempty"`
	Player string `json:"player,omitempty"`
}

// GameState is the JSON view of one game.
type GameState struct {
	ID        string    `json:"id"`
	Variant   string    `json:"variant"`
	Player    string    `json:"player,omitempty"`
	Grid      [][]int   `json:"grid"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"max_score"`
	MaxTile   int       `json:"max_tile"`
	TileCount int       `json:"tile_count"`
	Moves     int       `json:"moves"`
	Games     int       `json:"games"`
	Target    int       `json:"target"`
	Phase     string    `json:"phase"`
	Won       bool      `json:"won"`
	CreatedAt time.Time `json:"created_at"`
}

// Game is one HTTP-driven session. The controller is driven synchronously
// under mu.
type Game struct {
	ID        string
	Variant   string
	Player    string
	CreatedAt time.Time

	mu         sync.Mutex
	ctrl       *session.Controller
	seq        uint64 // Events emitted so far
	lastActive time.Time
	closed     bool
}

// State returns the current view of the game.
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateOf(g.ctrl.Snapshot())
}

func (g *Game) stateOf(snap session.Snapshot) GameState {
	return GameState{
		ID:        g.ID,
		Variant:   g.Variant,
		Player:    g.Player,
		Grid:      snap.Grid.Rows(),
		Score:     snap.Score,
		MaxScore:  snap.MaxScore,
		MaxTile:   snap.MaxTile,
		TileCount: snap.TileCount,
		Moves:     snap.Moves,
		Games:     snap.Games,
		Target:    snap.Target,
		Phase:     string(snap.Phase),
		Won:       snap.Won,
		CreatedAt: g.CreatedAt,
	}
}

// ManagerConfig bounds the games a Manager keeps.
type ManagerConfig struct {
	Defaults    config.Config // Board used when a request names nothing
	MaxGames    int           // 0 = unlimited
	IdleTimeout time.Duration // Games untouched for this long are removed; 0 = never
}

// Manager owns the games served over HTTP.
type Manager struct {
	cfg    ManagerConfig
	store  *storage.Store
	hub    *Hub
	logger *log.Logger
	now    func() time.Time

	mu    sync.RWMutex
	games map[string]*Game

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager. store and hub may be nil.
func NewManager(cfg ManagerConfig, store *storage.Store, hub *Hub, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		cfg:    cfg,
		store:  store,
		hub:    hub,
		logger: logger,
		now:    time.Now,
		games:  make(map[string]*Game),
		done:   make(chan struct{}),
	}
}

// Start begins removing idle games in the background.
func (m *Manager) Start() {
	if m.cfg.IdleTimeout > 0 {
		go m.cleanupLoop()
	}
}

// Stop ends the cleanup loop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) cleanupLoop() {
	period := max(m.cfg.IdleTimeout/4, time.Second)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

// sweep removes games idle for longer than IdleTimeout.
func (m *Manager) sweep() int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	var idle []string
	m.mu.RLock()
	for id, g := range m.games {
		g.mu.Lock()
		if g.lastActive.Before(cutoff) {
			idle = append(idle, id)
		}
		g.mu.Unlock()
	}
	m.mu.RUnlock()

	for _, id := range idle {
		if m.Delete(id) == nil {
			m.logger.Info("idle game removed", "game", id)
		}
	}
	return len(idle)
}

// resolve turns a request into a validated configuration.
func (m *Manager) resolve(req CreateRequest) (config.Config, error) {
	cfg := m.cfg.Defaults
	cfg.Game.Deterministic = false
	cfg.Game.Script = ""
	if req.Preset != "" {
		if err := config.ApplyPreset(&cfg, req.Preset); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	if req.Size != 0 {
		cfg.Game.Size = req.Size
	}
	if req.Target != 0 {
		cfg.Game.Target = req.Target
	}
	if req.Seed != 0 {
		cfg.Game.Seed = req.Seed
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return cfg, nil
}

// Create starts a new game and returns its initial state.
func (m *Manager) Create(req CreateRequest) (GameState, error) {
	cfg, err := m.resolve(req)
	if err != nil {
		return GameState{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.MaxGames > 0 && len(m.games) >= m.cfg.MaxGames {
		return GameState{}, ErrTooManyGames
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = m.now().UnixNano()
	}

	g := &Game{
		ID:         uuid.NewString(),
		Variant:    cfg.Variant(),
		Player:     req.Player,
		CreatedAt:  m.now(),
		lastActive: m.now(),
	}
	logger := m.logger.With("game", g.ID)
	g.ctrl = session.New(session.Options{
		Size:    cfg.Game.Size,
		Target:  cfg.Game.Target,
		Spawner: spawn.New(spawn.NewRandomSource(seed, cfg.Game.Size, cfg.Game.Spawn4)),
		Sink: session.MultiSink{
			storage.NewScoreSink(m.store, g.Variant, g.Player, logger),
			session.SinkFunc(func(e session.Event) { m.broadcast(g, e) }),
		},
		Logger: logger,
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ctrl.Start(); err != nil {
		return GameState{}, err
	}
	m.games[g.ID] = g

	m.logger.Info("game created", "game", g.ID, "variant", g.Variant, "player", g.Player)
	return g.stateOf(g.ctrl.Snapshot()), nil
}

// broadcast forwards a controller event to websocket watchers. It runs with
// g.mu held.
func (m *Manager) broadcast(g *Game, e session.Event) {
	g.seq++
	if m.hub == nil {
		return
	}
	state := g.stateOf(e.Snapshot)
	msg := &Message{GameID: g.ID, Seq: g.seq, Event: string(e.Type), State: &state}
	if e.Spawn != nil {
		tile := e.Spawn.Tile
		msg.Spawn = &tile
	}
	if e.Move != nil {
		msg.Gained = e.Move.ScoreDelta
	}
	m.hub.Broadcast(msg)
}

// Get returns a game by ID.
func (m *Manager) Get(id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Watch calls fn with the current state and the sequence number of the last
// event. The game is locked while fn runs, so no event is emitted until it
// returns.
func (m *Manager) Watch(id string, fn func(state GameState, seq uint64)) error {
	g, err := m.Get(id)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGameNotFound
	}
	fn(g.stateOf(g.ctrl.Snapshot()), g.seq)
	return nil
}

// List returns the state of every game, oldest first.
func (m *Manager) List() []GameState {
	m.mu.RLock()
	games := make([]*Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	m.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	out := make([]GameState, len(games))
	for i, g := range games {
		out[i] = g.State()
	}
	return out
}

// Len returns the number of live games.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Apply runs command tokens against a game in order. Unknown tokens reject
// the whole batch before anything is applied.
func (m *Manager) Apply(id string, tokens []string) (GameState, error) {
	cmds := make([]session.Command, len(tokens))
	for i, tok := range tokens {
		cmds[i] = session.ParseCommand(tok)
		if cmds[i] == session.Invalid {
			return GameState{}, fmt.Errorf("%w: unknown command %q", ErrBadRequest, tok)
		}
	}

	g, err := m.Get(id)
	if err != nil {
		return GameState{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return GameState{}, ErrGameNotFound
	}
	g.lastActive = m.now()

	for _, cmd := range cmds {
		quit, err := g.ctrl.Handle(cmd)
		if err != nil {
			return g.stateOf(g.ctrl.Snapshot()), err
		}
		if quit {
			break
		}
	}
	return g.stateOf(g.ctrl.Snapshot()), nil
}

// Delete removes a game and disconnects its watchers.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	g, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if !ok {
		return ErrGameNotFound
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	if m.hub != nil {
		m.hub.CloseGame(id)
	}
	return nil
}
