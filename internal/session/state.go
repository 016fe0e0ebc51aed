package session

import "github.com/vovakirdan/tilt2048/internal/engine"

// Phase is the controller's position in its state machine.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhaseOver    Phase = "over"
	PhaseQuit    Phase = "quit"
)

// State is the mutable session state owned by the controller.
type State struct {
	Grid      engine.Grid
	Score     int
	MaxScore  int
	TileCount int
	Moves     int // Effective tilts in the current game
	Games     int // Games started in this process
	Phase     Phase
}

// Snapshot is an immutable copy of the session state for observers.
type Snapshot struct {
	Grid      engine.Grid
	Score     int
	MaxScore  int
	TileCount int
	Moves     int
	Games     int
	MaxTile   int
	Target    int
	Phase     Phase
	Won       bool
}

func (s State) snapshot(target int) Snapshot {
	return Snapshot{
		Grid:      s.Grid.Clone(),
		Score:     s.Score,
		MaxScore:  s.MaxScore,
		TileCount: s.TileCount,
		Moves:     s.Moves,
		Games:     s.Games,
		MaxTile:   s.Grid.MaxTile(),
		Target:    target,
		Phase:     s.Phase,
		Won:       engine.Won(s.Grid, target),
	}
}
