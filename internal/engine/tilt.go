package engine

import "fmt"

// TileMove describes one tile travelling during a tilt, in physical
// coordinates. A merge is reported as the absorbed tile moving onto the
// surviving one with Merged set; Value is the value before the merge.
type TileMove struct {
	From   Cell
	To     Cell
	Value  int
	Merged bool
}

// MoveResult is the outcome of a single tilt.
type MoveResult struct {
	Direction  Direction
	Grid       Grid
	ScoreDelta int        // Sum of values created by merges
	Changed    bool       // Whether any tile moved or merged
	Merges     int        // Number of merges performed
	Tiles      int        // Occupied cells after the move
	Moves      []TileMove // Per-tile movement for renderers
}

// Tilt slides every tile toward d and merges equal neighbours.
// The input grid is never modified. When Changed is false the returned grid
// equals g cell for cell.
//
// Each column of the oriented view is scanned from row 0 downward. An
// occupied cell moves into the first empty row above it, then absorbs the
// next occupied cell below it if the values are equal. A merged cell is never
// revisited, so no tile takes part in more than one merge per tilt and
// [2 2 2] yields [4 2], not [8] or [2 4].
func Tilt(g Grid, d Direction) MoveResult {
	if !d.Valid() {
		panic(fmt.Sprintf("engine: unknown direction %d", int(d)))
	}

	n := g.Size()
	view := orient(g, d)
	res := MoveResult{Direction: d, Tiles: g.Occupied()}

	phys := func(r, c int) Cell {
		pr, pc := Physical(d, n, r, c)
		return Cell{Row: pr, Col: pc}
	}

	for c := range n {
		for r := range n {
			v := view[r][c]
			if v == 0 {
				continue
			}

			gap := firstEmptyAbove(view, r, c)
			next := firstOccupiedBelow(view, r, c)

			dest := r
			if gap >= 0 {
				view[gap][c] = v
				view[r][c] = 0
				dest = gap
				res.Changed = true
				res.Moves = append(res.Moves, TileMove{From: phys(r, c), To: phys(gap, c), Value: v})
			}

			if next >= 0 && view[next][c] == view[dest][c] {
				merged := 2 * view[dest][c]
				res.Moves = append(res.Moves, TileMove{From: phys(next, c), To: phys(dest, c), Value: view[next][c], Merged: true})
				view[dest][c] = merged
				view[next][c] = 0
				res.ScoreDelta += merged
				res.Merges++
				res.Tiles--
				res.Changed = true
			}
		}
	}

	if !res.Changed {
		res.Grid = g.Clone()
		return res
	}
	res.Grid = unorient(view, d)
	return res
}

// firstEmptyAbove returns the lowest-indexed empty row above row in column
// col, or -1.
func firstEmptyAbove(view [][]int, row, col int) int {
	for r := 0; r < row; r++ {
		if view[r][col] == 0 {
			return r
		}
	}
	return -1
}

// firstOccupiedBelow returns the first occupied row below row in column col,
// or -1.
func firstOccupiedBelow(view [][]int, row, col int) int {
	for r := row + 1; r < len(view); r++ {
		if view[r][col] != 0 {
			return r
		}
	}
	return -1
}
