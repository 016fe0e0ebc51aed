// Package engine implements the tile-merging board: the grid, the orientation
// mapper, the slide-merge algorithm and game-over detection.
// It has no dependencies outside the standard library and performs no I/O.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSize is the classic board dimension.
const DefaultSize = 4

// MinSize and MaxSize bound the configurable board dimension.
const (
	MinSize = 2
	MaxSize = 8
)

// ErrInvalidGrid is returned when external input does not describe a valid grid.
var ErrInvalidGrid = errors.New("engine: invalid grid")

// Cell is a (row, column) position on the grid.
type Cell struct {
	Row int
	Col int
}

// Grid is a square board of tile values. Zero means empty.
// The size is fixed when the grid is created.
type Grid struct {
	size  int
	cells []int
}

// NewGrid creates an empty size×size grid.
// Panics if size is outside [MinSize, MaxSize].
func NewGrid(size int) Grid {
	if size < MinSize || size > MaxSize {
		panic(fmt.Sprintf("engine: grid size %d out of range [%d, %d]", size, MinSize, MaxSize))
	}
	return Grid{size: size, cells: make([]int, size*size)}
}

// GridFromRows builds a grid from row-major values.
// Returns ErrInvalidGrid if the rows are not square or hold a value that is
// neither zero nor a power of two.
func GridFromRows(rows [][]int) (Grid, error) {
	n := len(rows)
	if n < MinSize || n > MaxSize {
		return Grid{}, fmt.Errorf("%w: %d rows", ErrInvalidGrid, n)
	}
	g := NewGrid(n)
	for r, row := range rows {
		if len(row) != n {
			return Grid{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidGrid, r, len(row), n)
		}
		for c, v := range row {
			if !IsTileValue(v) {
				return Grid{}, fmt.Errorf("%w: value %d at (%d, %d)", ErrInvalidGrid, v, r, c)
			}
			g.cells[r*n+c] = v
		}
	}
	return g, nil
}

// MustGrid is GridFromRows for literals in tests and defaults.
func MustGrid(rows [][]int) Grid {
	g, err := GridFromRows(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// IsTileValue reports whether v may be stored in a cell: 0 or a power of two ≥ 2.
func IsTileValue(v int) bool {
	if v == 0 {
		return true
	}
	return v >= 2 && v&(v-1) == 0
}

// Size returns the board dimension.
func (g Grid) Size() int {
	return g.size
}

// InBounds reports whether (r, c) lies on the board.
func (g Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.size && c >= 0 && c < g.size
}

// At returns the value at (r, c).
// Panics on out-of-range coordinates.
func (g Grid) At(r, c int) int {
	g.check(r, c)
	return g.cells[r*g.size+c]
}

// Set stores v at (r, c). Set mutates the receiver's backing storage, so it
// must only be called on a grid the caller owns (see Clone).
func (g Grid) Set(r, c, v int) {
	g.check(r, c)
	g.cells[r*g.size+c] = v
}

func (g Grid) check(r, c int) {
	if !g.InBounds(r, c) {
		panic(fmt.Sprintf("engine: cell (%d, %d) outside %dx%d grid", r, c, g.size, g.size))
	}
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	cells := make([]int, len(g.cells))
	copy(cells, g.cells)
	return Grid{size: g.size, cells: cells}
}

// Equal reports whether both grids have the same size and cell values.
func (g Grid) Equal(other Grid) bool {
	if g.size != other.size {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

// Occupied returns the number of non-empty cells.
func (g Grid) Occupied() int {
	n := 0
	for _, v := range g.cells {
		if v != 0 {
			n++
		}
	}
	return n
}

// EmptyCells returns the coordinates of all empty cells in row-major order.
func (g Grid) EmptyCells() []Cell {
	var cells []Cell
	for i, v := range g.cells {
		if v == 0 {
			cells = append(cells, Cell{Row: i / g.size, Col: i % g.size})
		}
	}
	return cells
}

// MaxTile returns the highest tile value on the board.
func (g Grid) MaxTile() int {
	maxVal := 0
	for _, v := range g.cells {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// Sum returns the total of all tile values.
func (g Grid) Sum() int {
	total := 0
	for _, v := range g.cells {
		total += v
	}
	return total
}

// Rows returns a row-major copy of the cell values.
func (g Grid) Rows() [][]int {
	rows := make([][]int, g.size)
	for r := range rows {
		rows[r] = make([]int, g.size)
		copy(rows[r], g.cells[r*g.size:(r+1)*g.size])
	}
	return rows
}

// Validate checks the tile-value invariant.
func (g Grid) Validate() error {
	for i, v := range g.cells {
		if !IsTileValue(v) {
			return fmt.Errorf("%w: value %d at (%d, %d)", ErrInvalidGrid, v, i/g.size, i%g.size)
		}
	}
	return nil
}

// String renders the grid as right-aligned rows, "." for empty cells.
func (g Grid) String() string {
	width := len(strconv.Itoa(g.MaxTile()))
	if width < 1 {
		width = 1
	}

	var sb strings.Builder
	for r := 0; r < g.size; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < g.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			cell := "."
			if v := g.At(r, c); v != 0 {
				cell = strconv.Itoa(v)
			}
			sb.WriteString(strings.Repeat(" ", width-len(cell)))
			sb.WriteString(cell)
		}
	}
	return sb.String()
}
