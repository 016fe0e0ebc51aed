package session

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

func scripted(tiles ...spawn.Tile) *spawn.Spawner {
	return spawn.New(spawn.NewScriptedSource(tiles))
}

func tile(v, r, c int) spawn.Tile {
	return spawn.Tile{Value: v, Row: r, Col: c}
}

type eventLog struct {
	events []Event
}

func (l *eventLog) Publish(e Event) {
	l.events = append(l.events, e)
}

func (l *eventLog) types() []EventType {
	out := make([]EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func assertOccupancy(t *testing.T, c *Controller) {
	t.Helper()
	s := c.Snapshot()
	if s.TileCount != s.Grid.Occupied() {
		t.Fatalf("TileCount = %d, grid has %d tiles:\n%v", s.TileCount, s.Grid.Occupied(), s.Grid)
	}
}

func TestStartSpawnsTwoTiles(t *testing.T) {
	c := New(Options{
		Size:    4,
		Spawner: scripted(tile(2, 0, 0), tile(4, 2, 3)),
	})
	if c.Phase() != PhaseIdle {
		t.Fatalf("Phase() before Start = %s, want idle", c.Phase())
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != PhasePlaying {
		t.Errorf("Phase = %s, want playing", s.Phase)
	}
	if s.Grid.At(0, 0) != 2 || s.Grid.At(2, 3) != 4 {
		t.Errorf("unexpected grid:\n%v", s.Grid)
	}
	if s.TileCount != 2 || s.Score != 0 || s.Games != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Target != engine.DefaultTarget {
		t.Errorf("Target = %d, want %d", s.Target, engine.DefaultTarget)
	}
}

func TestMoveMergesAndSpawns(t *testing.T) {
	events := &eventLog{}
	c := New(Options{
		Size:    4,
		Spawner: scripted(tile(2, 0, 0), tile(2, 0, 1), tile(2, 3, 3)),
		Sink:    events,
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	quit, err := c.Handle(West)
	if err != nil || quit {
		t.Fatalf("Handle(West) = %v, %v", quit, err)
	}

	want := engine.MustGrid([][]int{
		{4, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 2},
	})
	s := c.Snapshot()
	if !s.Grid.Equal(want) {
		t.Errorf("grid after West:\n%v\nwant:\n%v", s.Grid, want)
	}
	if s.Score != 4 || s.Moves != 1 {
		t.Errorf("Score = %d, Moves = %d; want 4, 1", s.Score, s.Moves)
	}
	assertOccupancy(t, c)

	wantTypes := []EventType{EventNewGame, EventSpawn, EventSpawn, EventMove, EventSpawn}
	got := events.types()
	if len(got) != len(wantTypes) {
		t.Fatalf("events = %v, want %v", got, wantTypes)
	}
	for i := range wantTypes {
		if got[i] != wantTypes[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], wantTypes[i])
		}
	}

	move := events.events[3]
	if move.Move == nil || move.Move.ScoreDelta != 4 {
		t.Errorf("move event = %+v", move.Move)
	}
	if move.Snapshot.Score != 4 || move.Snapshot.TileCount != 1 {
		t.Errorf("move snapshot score=%d tiles=%d", move.Snapshot.Score, move.Snapshot.TileCount)
	}
}

func TestIneffectiveTiltDoesNotAdvance(t *testing.T) {
	// The feed holds only the two opening tiles, so advancing the turn
	// would fail with an exhausted feed.
	c := New(Options{
		Size:    4,
		Spawner: scripted(tile(2, 0, 0), tile(4, 0, 1)),
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	before := c.Snapshot()

	for _, cmd := range []Command{North, West} {
		if _, err := c.Handle(cmd); err != nil {
			t.Fatalf("Handle(%s) failed: %v", cmd, err)
		}
	}

	after := c.Snapshot()
	if !after.Grid.Equal(before.Grid) || after.Moves != 0 {
		t.Errorf("ineffective tilt changed state:\n%v", after.Grid)
	}
}

func TestInvalidCommandIgnored(t *testing.T) {
	c := New(Options{
		Size:    3,
		Spawner: scripted(tile(2, 1, 1), tile(2, 2, 2)),
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	before := c.Snapshot()

	quit, err := c.Handle(Invalid)
	if quit || err != nil {
		t.Fatalf("Handle(Invalid) = %v, %v", quit, err)
	}
	if !c.Snapshot().Grid.Equal(before.Grid) {
		t.Error("Invalid command changed the grid")
	}
}

func TestDirectionIgnoredBeforeStart(t *testing.T) {
	c := New(Options{Size: 4, Spawner: scripted()})
	if _, err := c.Handle(East); err != nil {
		t.Fatalf("Handle(East) failed: %v", err)
	}
	if c.Phase() != PhaseIdle || c.Snapshot().Grid.Occupied() != 0 {
		t.Error("move before Start should be ignored")
	}
}

func TestGameOverAndMaxScore(t *testing.T) {
	events := &eventLog{}
	c := New(Options{
		Size:   2,
		Target: 4,
		Spawner: scripted(
			tile(2, 0, 0), tile(2, 0, 1), // game 1
			tile(4, 1, 1), // game 2 opens on the target
		),
		Sink: events,
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if _, err := c.Handle(West); err != nil {
		t.Fatalf("Handle(West) failed: %v", err)
	}
	s := c.Snapshot()
	if s.Phase != PhaseOver || !s.Won {
		t.Fatalf("Phase = %s, Won = %v; want over, true", s.Phase, s.Won)
	}
	if s.Score != 4 || s.MaxScore != 4 {
		t.Errorf("Score = %d, MaxScore = %d; want 4, 4", s.Score, s.MaxScore)
	}
	if last := events.events[len(events.events)-1]; last.Type != EventOver {
		t.Errorf("last event = %s, want game_over", last.Type)
	}

	// Moves after the end are ignored.
	if _, err := c.Handle(East); err != nil {
		t.Fatalf("Handle(East) after over failed: %v", err)
	}
	if !c.Snapshot().Grid.Equal(s.Grid) {
		t.Error("move after game over changed the grid")
	}

	if _, err := c.Handle(NewGame); err != nil {
		t.Fatalf("Handle(NewGame) failed: %v", err)
	}
	s = c.Snapshot()
	if s.Games != 2 || s.Score != 0 {
		t.Errorf("Games = %d, Score = %d; want 2, 0", s.Games, s.Score)
	}
	if s.Phase != PhaseOver {
		t.Errorf("Phase = %s, want over", s.Phase)
	}
	if s.MaxScore != 4 {
		t.Errorf("MaxScore = %d, want 4 (lower score must not replace it)", s.MaxScore)
	}
	assertOccupancy(t, c)
}

func TestFeedExhaustedMidGame(t *testing.T) {
	c := New(Options{
		Size:    2,
		Spawner: scripted(tile(2, 0, 0), tile(4, 1, 0), tile(8, 0, 1), tile(16, 1, 1)),
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// [[2,0],[4,0]] tilts East to [[0,2],[0,4]]; both remaining tiles
	// target occupied cells and are discarded.
	if _, err := c.Handle(East); !errors.Is(err, spawn.ErrFeedExhausted) {
		t.Fatalf("Handle(East) error = %v, want ErrFeedExhausted", err)
	}
}

func TestFullBoardWithoutPairsIsOver(t *testing.T) {
	c := New(Options{
		Size: 2,
		Spawner: scripted(
			tile(2, 0, 0), tile(4, 0, 1),
			tile(8, 0, 0), tile(16, 0, 0),
		),
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// [[2,4],[0,0]] -> South -> [[0,0],[2,4]] + 8 at (0,0)
	if _, err := c.Handle(South); err != nil {
		t.Fatalf("Handle(South) failed: %v", err)
	}
	// [[8,0],[2,4]] -> East -> [[0,8],[2,4]] + 16 at (0,0)
	if _, err := c.Handle(East); err != nil {
		t.Fatalf("Handle(East) failed: %v", err)
	}

	s := c.Snapshot()
	want := engine.MustGrid([][]int{
		{16, 8},
		{2, 4},
	})
	if !s.Grid.Equal(want) {
		t.Fatalf("grid:\n%v\nwant:\n%v", s.Grid, want)
	}
	if s.Phase != PhaseOver || s.Won {
		t.Errorf("Phase = %s, Won = %v; want over, false", s.Phase, s.Won)
	}
	if s.Score != 0 || s.MaxScore != 0 {
		t.Errorf("Score = %d, MaxScore = %d; want 0, 0", s.Score, s.MaxScore)
	}
}

func TestFeedExhaustionIsFatal(t *testing.T) {
	c := New(Options{Size: 4, Spawner: scripted(tile(2, 0, 0))})
	err := c.Start()
	if !errors.Is(err, spawn.ErrFeedExhausted) {
		t.Fatalf("Start() error = %v, want ErrFeedExhausted", err)
	}
}

func TestQuit(t *testing.T) {
	c := New(Options{Size: 4, Spawner: scripted(tile(2, 0, 0), tile(2, 1, 1))})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	quit, err := c.Handle(Quit)
	if err != nil || !quit {
		t.Fatalf("Handle(Quit) = %v, %v; want true, nil", quit, err)
	}
	if c.Phase() != PhaseQuit {
		t.Errorf("Phase = %s, want quit", c.Phase())
	}
}

func TestRunUntilQuit(t *testing.T) {
	c := New(Options{
		Size:    4,
		Spawner: scripted(tile(2, 0, 0), tile(2, 0, 1), tile(2, 3, 3)),
	})
	src := NewSliceSource(Invalid, North, West, Quit)

	if err := c.Run(context.Background(), src); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if s := c.Snapshot(); s.Score != 4 || s.Moves != 1 || s.Phase != PhaseQuit {
		t.Errorf("snapshot after Run = %+v", s)
	}
}

func TestRunInputExhausted(t *testing.T) {
	c := New(Options{Size: 4, Spawner: scripted(tile(2, 0, 0), tile(2, 1, 1))})
	err := c.Run(context.Background(), NewSliceSource())
	if !errors.Is(err, ErrInputExhausted) {
		t.Fatalf("Run() error = %v, want ErrInputExhausted", err)
	}
}

func TestRunContextCancelled(t *testing.T) {
	c := New(Options{Size: 4, Spawner: scripted(tile(2, 0, 0), tile(2, 1, 1))})
	ctx, cancel := context.WithCancel(context.Background())
	src := NewChanSource(1)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, src) }()
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestChanSourceDeliversInOrder(t *testing.T) {
	src := NewChanSource(3)
	for _, cmd := range []Command{East, NewGame, Quit} {
		if !src.Push(cmd) {
			t.Fatalf("Push(%s) dropped", cmd)
		}
	}
	if src.Push(West) {
		t.Error("Push() on a full buffer should report a drop")
	}

	ctx := context.Background()
	for _, want := range []Command{East, NewGame, Quit} {
		got, err := src.Next(ctx)
		if err != nil || got != want {
			t.Errorf("Next() = %s, %v; want %s", got, err, want)
		}
	}
}

func TestOccupancyTracksRandomPlay(t *testing.T) {
	c := New(Options{
		Size:    4,
		Spawner: spawn.New(spawn.NewRandomSource(2024, 4, spawn.DefaultSpawn4)),
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cmds := []Command{North, East, South, West, West, South}
	lastScore := 0
	for i := range 600 {
		if c.Phase() == PhaseOver {
			if _, err := c.Handle(NewGame); err != nil {
				t.Fatalf("NewGame failed: %v", err)
			}
			lastScore = 0
		}
		if _, err := c.Handle(cmds[i%len(cmds)]); err != nil {
			t.Fatalf("Handle() %d failed: %v", i, err)
		}
		assertOccupancy(t, c)

		s := c.Snapshot()
		if s.Score < lastScore {
			t.Fatalf("score went down: %d -> %d", lastScore, s.Score)
		}
		if s.MaxScore < s.Score && s.Phase == PhaseOver {
			t.Fatalf("MaxScore %d below final score %d", s.MaxScore, s.Score)
		}
		if err := s.Grid.Validate(); err != nil {
			t.Fatalf("invalid grid: %v", err)
		}
		lastScore = s.Score
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"north", North},
		{"UP", North},
		{"l", East},
		{"down", South},
		{"west", West},
		{"w", North},
		{"n", Invalid},
		{"new", NewGame},
		{"restart", NewGame},
		{"quit", Quit},
		{"exit", Quit},
		{"sideways", Invalid},
		{"", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCommand(tt.in); got != tt.want {
				t.Errorf("ParseCommand(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	sink := NewChanSink(1)
	sink.Publish(Event{Type: EventSpawn})
	sink.Publish(Event{Type: EventMove})

	if sink.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", sink.Dropped())
	}
	if e := <-sink.Events(); e.Type != EventSpawn {
		t.Errorf("first event = %s, want spawn", e.Type)
	}
}
