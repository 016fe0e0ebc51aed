package engine

// DefaultTarget is the tile value that wins the classic game.
const DefaultTarget = 2048

// HasEmptyCell returns true if there's at least one empty cell.
func HasEmptyCell(g Grid) bool {
	for _, v := range g.cells {
		if v == 0 {
			return true
		}
	}
	return false
}

// HasAdjacentPair returns true if two orthogonally adjacent tiles hold the
// same non-zero value.
func HasAdjacentPair(g Grid) bool {
	n := g.Size()
	for r := range n {
		for c := range n {
			v := g.At(r, c)
			if v == 0 {
				continue
			}
			// Right neighbour
			if c < n-1 && g.At(r, c+1) == v {
				return true
			}
			// Bottom neighbour
			if r < n-1 && g.At(r+1, c) == v {
				return true
			}
		}
	}
	return false
}

// CanMove returns true if the game can continue: a cell is free for a spawn
// or a pair of tiles can still merge.
func CanMove(g Grid) bool {
	return HasEmptyCell(g) || HasAdjacentPair(g)
}

// Won reports whether a tile has reached target.
func Won(g Grid, target int) bool {
	for _, v := range g.cells {
		if v == target {
			return true
		}
	}
	return false
}

// IsOver decides whether the game has ended: a tile equals target, or the
// grid is full with no adjacent equal pair left to merge.
func IsOver(g Grid, target int) bool {
	if Won(g, target) {
		return true
	}
	if HasEmptyCell(g) {
		return false
	}
	return !HasAdjacentPair(g)
}
