package engine

import (
	"errors"
	"testing"
)

func TestIsOver(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]int
		target int
		want   bool
	}{
		{
			name: "full grid without pairs",
			rows: [][]int{
				{2, 4, 8, 16},
				{32, 64, 128, 256},
				{512, 1024, 4, 4096},
				{8192, 16384, 32768, 65536},
			},
			target: 2048,
			want:   true,
		},
		{
			name: "full grid with horizontal pair",
			rows: [][]int{
				{2, 2, 8, 16},
				{32, 64, 128, 256},
				{512, 1024, 4, 4096},
				{8192, 16384, 32768, 65536},
			},
			target: 2048,
			want:   false,
		},
		{
			name: "full grid with vertical pair",
			rows: [][]int{
				{2, 4, 8, 16},
				{32, 64, 128, 16},
				{512, 1024, 4, 4096},
				{8192, 16384, 32768, 65536},
			},
			target: 2048,
			want:   false,
		},
		{
			name: "empty cell",
			rows: [][]int{
				{2, 4, 8, 16},
				{32, 64, 128, 256},
				{512, 1024, 0, 4096},
				{8192, 16384, 32768, 65536},
			},
			target: 2048,
			want:   false,
		},
		{
			name: "target reached with space left",
			rows: [][]int{
				{2048, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			},
			target: 2048,
			want:   true,
		},
		{
			name: "smaller target",
			rows: [][]int{
				{128, 2, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			},
			target: 128,
			want:   true,
		},
		{
			name: "tile above target does not win",
			rows: [][]int{
				{256, 2, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			},
			target: 128,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOver(MustGrid(tt.rows), tt.target); got != tt.want {
				t.Errorf("IsOver() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxTileAndEmptyCells(t *testing.T) {
	g := MustGrid([][]int{
		{2, 0, 8, 0},
		{0, 64, 0, 256},
		{512, 0, 2048, 0},
		{0, 16, 0, 64},
	})

	if got := g.MaxTile(); got != 2048 {
		t.Errorf("MaxTile = %d, want 2048", got)
	}
	if got := len(g.EmptyCells()); got != 8 {
		t.Errorf("EmptyCells count = %d, want 8", got)
	}
	if got := g.Occupied(); got != 8 {
		t.Errorf("Occupied = %d, want 8", got)
	}
}

func TestGridFromRowsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
	}{
		{"not square", [][]int{{2, 0}, {0, 0, 0}}},
		{"too small", [][]int{{2}}},
		{"not power of two", [][]int{{3, 0}, {0, 0}}},
		{"one is not a tile", [][]int{{1, 0}, {0, 0}}},
		{"negative", [][]int{{-2, 0}, {0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GridFromRows(tt.rows)
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("GridFromRows() error = %v, want ErrInvalidGrid", err)
			}
		})
	}
}

func TestGridAtOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("At out of range should panic")
		}
	}()
	NewGrid(4).At(4, 0)
}

func TestGridString(t *testing.T) {
	g := MustGrid([][]int{
		{2, 0},
		{16, 4},
	})
	want := " 2  .\n16  4"
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
