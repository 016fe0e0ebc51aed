package spawn

import (
	"math/rand"
)

// DefaultSpawn4 is the probability of a new tile being a 4 instead of a 2.
const DefaultSpawn4 = 0.10

// RandomSource draws uniformly distributed positions over the whole grid from
// a seeded generator. The same seed always yields the same sequence.
type RandomSource struct {
	rng    *rand.Rand
	size   int
	spawn4 float64
}

// NewRandomSource creates a source for a size×size grid.
// spawn4 is the probability (0..1) of producing a 4.
func NewRandomSource(seed int64, size int, spawn4 float64) *RandomSource {
	return &RandomSource{
		rng:    rand.New(rand.NewSource(seed)),
		size:   size,
		spawn4: spawn4,
	}
}

// Next returns a random tile. It never fails.
func (s *RandomSource) Next() (Tile, error) {
	row := s.rng.Intn(s.size)
	col := s.rng.Intn(s.size)

	value := 2
	if s.rng.Float64() < s.spawn4 {
		value = 4
	}
	return Tile{Value: value, Row: row, Col: col}, nil
}

// ScriptedSource replays a fixed list of tiles in order.
type ScriptedSource struct {
	tiles []Tile
	pos   int
}

// NewScriptedSource creates a source that yields tiles verbatim.
func NewScriptedSource(tiles []Tile) *ScriptedSource {
	return &ScriptedSource{tiles: tiles}
}

// Next returns the next recorded tile or ErrFeedExhausted.
func (s *ScriptedSource) Next() (Tile, error) {
	if s.pos >= len(s.tiles) {
		return Tile{}, ErrFeedExhausted
	}
	t := s.tiles[s.pos]
	s.pos++
	return t, nil
}

// Remaining returns the number of unread tiles.
func (s *ScriptedSource) Remaining() int {
	return len(s.tiles) - s.pos
}

// RecordingSource passes tiles through from another source and keeps a copy
// of every tile drawn, including discarded candidates, so the feed can be
// replayed exactly.
type RecordingSource struct {
	src   Source
	tiles []Tile
}

// NewRecordingSource wraps src.
func NewRecordingSource(src Source) *RecordingSource {
	return &RecordingSource{src: src}
}

// Next draws from the wrapped source and records the result.
func (s *RecordingSource) Next() (Tile, error) {
	t, err := s.src.Next()
	if err != nil {
		return t, err
	}
	s.tiles = append(s.tiles, t)
	return t, nil
}

// Tiles returns a copy of everything drawn so far.
func (s *RecordingSource) Tiles() []Tile {
	out := make([]Tile, len(s.tiles))
	copy(out, s.tiles)
	return out
}
