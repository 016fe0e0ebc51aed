// Package spawn places the new tile each turn. Positions and values come from
// a Source: a seeded random generator for live play or a pre-recorded feed
// for deterministic replay.
package spawn

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tilt2048/internal/engine"
)

var (
	// ErrFeedExhausted is returned when a scripted feed has no tiles left.
	ErrFeedExhausted = errors.New("spawn: tile feed exhausted")

	// ErrInvalidTile is returned when a source yields a tile that cannot be
	// placed on the grid.
	ErrInvalidTile = errors.New("spawn: invalid tile")
)

// Tile is a (value, row, col) triple supplied by a Source.
type Tile struct {
	Value int `yaml:"value" json:"value"`
	Row   int `yaml:"row" json:"row"`
	Col   int `yaml:"col" json:"col"`
}

// Source supplies candidate tiles on demand. Positions are not restricted to
// empty cells; the Spawner retries until it draws one.
type Source interface {
	Next() (Tile, error)
}

// Placement reports what a Spawn call did. Placed is false when the grid had
// no empty cell.
type Placement struct {
	Tile   Tile
	Placed bool
}

// Spawner places tiles drawn from a Source.
type Spawner struct {
	src Source
}

// New creates a spawner reading from src.
func New(src Source) *Spawner {
	return &Spawner{src: src}
}

// Source returns the underlying tile source.
func (s *Spawner) Source() Source {
	return s.src
}

// Spawn places one tile on a copy of g and returns it.
// A full grid is left untouched. Candidates landing on occupied cells are
// discarded and the next one is drawn, so a scripted feed is consumed
// strictly in order.
func (s *Spawner) Spawn(g engine.Grid) (engine.Grid, Placement, error) {
	if !engine.HasEmptyCell(g) {
		return g, Placement{}, nil
	}

	for {
		t, err := s.src.Next()
		if err != nil {
			return g, Placement{}, err
		}
		if !g.InBounds(t.Row, t.Col) {
			return g, Placement{}, fmt.Errorf("%w: (%d, %d) outside %dx%d grid", ErrInvalidTile, t.Row, t.Col, g.Size(), g.Size())
		}
		if t.Value == 0 || !engine.IsTileValue(t.Value) {
			return g, Placement{}, fmt.Errorf("%w: value %d", ErrInvalidTile, t.Value)
		}
		if g.At(t.Row, t.Col) != 0 {
			continue
		}

		next := g.Clone()
		next.Set(t.Row, t.Col, t.Value)
		return next, Placement{Tile: t, Placed: true}, nil
	}
}
