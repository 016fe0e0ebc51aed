package engine

import "fmt"

// PhysicalRow maps row r, column c of a board turned so that row 0 faces d
// to the row of the untilted board of size n.
func PhysicalRow(d Direction, n, r, c int) int {
	switch d {
	case North:
		return r
	case East:
		return c
	case South:
		return n - 1 - r
	case West:
		return n - 1 - c
	default:
		panic(fmt.Sprintf("engine: unknown direction %d", int(d)))
	}
}

// PhysicalCol is the column counterpart of PhysicalRow.
func PhysicalCol(d Direction, n, r, c int) int {
	switch d {
	case North:
		return c
	case East:
		return n - 1 - r
	case South:
		return c
	case West:
		return r
	default:
		panic(fmt.Sprintf("engine: unknown direction %d", int(d)))
	}
}

// Physical maps an oriented coordinate to the untilted board.
func Physical(d Direction, n, r, c int) (int, int) {
	return PhysicalRow(d, n, r, c), PhysicalCol(d, n, r, c)
}

// Logical is the inverse of Physical: it maps a coordinate of the untilted
// board to the view in which d is north.
func Logical(d Direction, n, pr, pc int) (int, int) {
	switch d {
	case North:
		return pr, pc
	case East:
		return n - 1 - pc, pr
	case South:
		return n - 1 - pr, pc
	case West:
		return pc, n - 1 - pr
	default:
		panic(fmt.Sprintf("engine: unknown direction %d", int(d)))
	}
}

// orient copies g into a view where d is north: view[r][c] holds the tile
// at Physical(d, n, r, c).
func orient(g Grid, d Direction) [][]int {
	n := g.Size()
	view := make([][]int, n)
	for r := range view {
		view[r] = make([]int, n)
		for c := range view[r] {
			view[r][c] = g.At(Physical(d, n, r, c))
		}
	}
	return view
}

// unorient writes an oriented view back into a physical grid.
func unorient(view [][]int, d Direction) Grid {
	n := len(view)
	g := NewGrid(n)
	for r := range view {
		for c, v := range view[r] {
			pr, pc := Physical(d, n, r, c)
			g.Set(pr, pc, v)
		}
	}
	return g
}
