package engine

import (
	"math/rand"
	"testing"
)

// rowGrid places row as the top row of an otherwise empty 4x4 grid.
func rowGrid(row [4]int) Grid {
	g := NewGrid(4)
	for c, v := range row {
		g.Set(0, c, v)
	}
	return g
}

func topRow(g Grid) [4]int {
	var row [4]int
	for c := range row {
		row[c] = g.At(0, c)
	}
	return row
}

func TestTiltRowWest(t *testing.T) {
	tests := []struct {
		name     string
		input    [4]int
		expected [4]int
		score    int
	}{
		{
			name:     "simple merge",
			input:    [4]int{2, 2, 0, 0},
			expected: [4]int{4, 0, 0, 0},
			score:    4,
		},
		{
			name:     "merge across gap",
			input:    [4]int{2, 0, 2, 0},
			expected: [4]int{4, 0, 0, 0},
			score:    4,
		},
		{
			name:     "merge with trailing tile",
			input:    [4]int{2, 2, 2, 0},
			expected: [4]int{4, 2, 0, 0},
			score:    4,
		},
		{
			name:     "merge result next to equal tile",
			input:    [4]int{2, 2, 4, 0},
			expected: [4]int{4, 4, 0, 0},
			score:    4,
		},
		{
			name:     "double merge",
			input:    [4]int{2, 2, 2, 2},
			expected: [4]int{4, 4, 0, 0},
			score:    8,
		},
		{
			name:     "no merge possible",
			input:    [4]int{2, 4, 8, 16},
			expected: [4]int{2, 4, 8, 16},
			score:    0,
		},
		{
			name:     "slide with gap",
			input:    [4]int{0, 0, 2, 2},
			expected: [4]int{4, 0, 0, 0},
			score:    4,
		},
		{
			name:     "slide with multiple gaps",
			input:    [4]int{2, 0, 0, 2},
			expected: [4]int{4, 0, 0, 0},
			score:    4,
		},
		{
			name:     "merged tile does not merge again",
			input:    [4]int{2, 2, 4, 0},
			expected: [4]int{4, 4, 0, 0},
			score:    4,
		},
		{
			name:     "moved tile merges with follower",
			input:    [4]int{4, 0, 2, 2},
			expected: [4]int{4, 4, 0, 0},
			score:    4,
		},
		{
			name:     "no change needed",
			input:    [4]int{4, 2, 0, 0},
			expected: [4]int{4, 2, 0, 0},
			score:    0,
		},
		{
			name:     "empty row",
			input:    [4]int{0, 0, 0, 0},
			expected: [4]int{0, 0, 0, 0},
			score:    0,
		},
		{
			name:     "single tile",
			input:    [4]int{0, 4, 0, 0},
			expected: [4]int{4, 0, 0, 0},
			score:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Tilt(rowGrid(tt.input), West)
			if got := topRow(res.Grid); got != tt.expected {
				t.Errorf("Tilt(%v, West) = %v, want %v", tt.input, got, tt.expected)
			}
			if res.ScoreDelta != tt.score {
				t.Errorf("Tilt(%v, West) score = %d, want %d", tt.input, res.ScoreDelta, tt.score)
			}
			if res.Changed != (tt.input != tt.expected) {
				t.Errorf("Tilt(%v, West) changed = %v", tt.input, res.Changed)
			}
		})
	}
}

func TestTiltMergeCascadesOverRepeatedMoves(t *testing.T) {
	steps := []struct {
		want    [4]int
		score   int
		changed bool
	}{
		{want: [4]int{4, 4, 0, 0}, score: 4, changed: true},
		{want: [4]int{8, 0, 0, 0}, score: 8, changed: true},
		{want: [4]int{8, 0, 0, 0}, score: 0, changed: false},
	}

	g := rowGrid([4]int{2, 2, 4, 0})
	for i, step := range steps {
		res := Tilt(g, West)
		if got := topRow(res.Grid); got != step.want || res.ScoreDelta != step.score || res.Changed != step.changed {
			t.Fatalf("tilt %d: row %v score %d changed %v, want %v score %d changed %v",
				i+1, got, res.ScoreDelta, res.Changed, step.want, step.score, step.changed)
		}
		g = res.Grid
	}
}

func TestTiltScenarioWestMerge(t *testing.T) {
	g := MustGrid([][]int{
		{2, 2, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	want := MustGrid([][]int{
		{4, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	res := Tilt(g, West)
	if !res.Grid.Equal(want) {
		t.Errorf("Tilt West: got\n%v\nwant\n%v", res.Grid, want)
	}
	if res.ScoreDelta != 4 || !res.Changed {
		t.Errorf("Tilt West: score=%d changed=%v, want 4 true", res.ScoreDelta, res.Changed)
	}
	if res.Merges != 1 || res.Tiles != 1 {
		t.Errorf("Tilt West: merges=%d tiles=%d, want 1 1", res.Merges, res.Tiles)
	}
}

func TestTiltAllDirections(t *testing.T) {
	board := MustGrid([][]int{
		{2, 2, 0, 0},
		{4, 0, 4, 0},
		{2, 2, 2, 2},
		{0, 0, 0, 2},
	})

	tests := []struct {
		dir      Direction
		expected [][]int
		score    int
	}{
		{
			dir: West,
			expected: [][]int{
				{4, 0, 0, 0},
				{8, 0, 0, 0},
				{4, 4, 0, 0},
				{2, 0, 0, 0},
			},
			score: 4 + 8 + 4 + 4,
		},
		{
			dir: East,
			expected: [][]int{
				{0, 0, 0, 4},
				{0, 0, 0, 8},
				{0, 0, 4, 4},
				{0, 0, 0, 2},
			},
			score: 4 + 8 + 4 + 4,
		},
		{
			dir: North,
			expected: [][]int{
				{2, 4, 4, 4},
				{4, 0, 2, 0},
				{2, 0, 0, 0},
				{0, 0, 0, 0},
			},
			score: 4 + 4,
		},
		{
			dir: South,
			expected: [][]int{
				{0, 0, 0, 0},
				{2, 0, 0, 0},
				{4, 0, 4, 0},
				{2, 4, 2, 4},
			},
			score: 4 + 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			res := Tilt(board, tt.dir)
			want := MustGrid(tt.expected)
			if !res.Grid.Equal(want) {
				t.Errorf("Tilt %v: got\n%v\nwant\n%v", tt.dir, res.Grid, want)
			}
			if res.ScoreDelta != tt.score {
				t.Errorf("Tilt %v score = %d, want %d", tt.dir, res.ScoreDelta, tt.score)
			}
			if !res.Changed {
				t.Errorf("Tilt %v should indicate board changed", tt.dir)
			}
		})
	}
}

func TestTiltDoesNotMutateInput(t *testing.T) {
	g := MustGrid([][]int{
		{2, 2, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	before := g.Clone()

	Tilt(g, East)

	if !g.Equal(before) {
		t.Errorf("Tilt mutated its input:\n%v", g)
	}
}

func TestTiltUnchangedReturnsIdenticalGrid(t *testing.T) {
	g := MustGrid([][]int{
		{4, 2, 0, 0},
		{8, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	res := Tilt(g, West)
	if res.Changed {
		t.Error("Tilt West should not change already left-aligned tiles")
	}
	if !res.Grid.Equal(g) {
		t.Errorf("unchanged tilt returned different grid:\n%v", res.Grid)
	}
	if len(res.Moves) != 0 {
		t.Errorf("unchanged tilt reported %d moves", len(res.Moves))
	}
}

func TestTiltReportsMoves(t *testing.T) {
	g := MustGrid([][]int{
		{0, 0, 2, 2},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	res := Tilt(g, West)
	want := []TileMove{
		{From: Cell{0, 2}, To: Cell{0, 0}, Value: 2},
		{From: Cell{0, 3}, To: Cell{0, 0}, Value: 2, Merged: true},
	}
	if len(res.Moves) != len(want) {
		t.Fatalf("Moves = %+v, want %+v", res.Moves, want)
	}
	for i := range want {
		if res.Moves[i] != want[i] {
			t.Errorf("Moves[%d] = %+v, want %+v", i, res.Moves[i], want[i])
		}
	}
}

func TestTiltLargerGrid(t *testing.T) {
	g := MustGrid([][]int{
		{2, 0, 2, 0, 4},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 4},
	})

	res := Tilt(g, South)
	if got := res.Grid.At(4, 4); got != 8 {
		t.Errorf("5x5 South: (4,4) = %d, want 8", got)
	}
	if got := res.Grid.At(4, 0); got != 2 {
		t.Errorf("5x5 South: (4,0) = %d, want 2", got)
	}

	res = Tilt(g, West)
	if got := res.Grid.At(0, 0); got != 4 {
		t.Errorf("5x5 West: (0,0) = %d, want 4", got)
	}
	if got := res.Grid.At(0, 1); got != 4 {
		t.Errorf("5x5 West: (0,1) = %d, want 4", got)
	}
}

func TestTiltUnknownDirectionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Tilt with unknown direction should panic")
		}
	}()
	Tilt(NewGrid(4), Direction(9))
}

// randomGrid fills roughly half of a size×size grid with small powers of two.
func randomGrid(rng *rand.Rand, size int) Grid {
	g := NewGrid(size)
	for r := range size {
		for c := range size {
			if rng.Intn(2) == 0 {
				g.Set(r, c, 1<<(1+rng.Intn(4)))
			}
		}
	}
	return g
}

func TestTiltProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := range 500 {
		size := MinSize + i%(MaxSize-MinSize+1)
		g := randomGrid(rng, size)

		for _, d := range Directions() {
			res := Tilt(g, d)

			// A merge can leave equal neighbours behind, so tilt until
			// nothing moves; from then on the grid stays put.
			settled := res
			for n := 0; settled.Changed; n++ {
				if n > size*size {
					t.Fatalf("%v tilts never settled from\n%v", d, g)
				}
				settled = Tilt(settled.Grid, d)
			}
			if again := Tilt(settled.Grid, d); again.Changed || !again.Grid.Equal(settled.Grid) {
				t.Fatalf("%v tilt changed settled grid\n%v\n->\n%v", d, settled.Grid, again.Grid)
			}
			if res.Merges == 0 && Tilt(res.Grid, d).Changed {
				t.Fatalf("%v tilt without merges did not settle\n%v", d, res.Grid)
			}

			if err := res.Grid.Validate(); err != nil {
				t.Fatalf("tilt produced invalid grid: %v", err)
			}

			// Merging conserves the tile sum.
			if res.Grid.Sum() != g.Sum() {
				t.Fatalf("sum changed: %d -> %d", g.Sum(), res.Grid.Sum())
			}

			// Each merge removes exactly one tile.
			if res.Grid.Occupied() != g.Occupied()-res.Merges || res.Tiles != res.Grid.Occupied() {
				t.Fatalf("occupied %d -> %d with %d merges (Tiles=%d)",
					g.Occupied(), res.Grid.Occupied(), res.Merges, res.Tiles)
			}

			if !res.Changed && !res.Grid.Equal(g) {
				t.Fatalf("unchanged tilt altered grid")
			}
			if res.Changed && res.Grid.Equal(g) {
				t.Fatalf("changed tilt left grid identical")
			}
		}
	}
}
