package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/tilt2048/internal/core"
	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/session"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

func snapshotOf(rows [][]int, phase session.Phase) session.Snapshot {
	g := engine.MustGrid(rows)
	return session.Snapshot{
		Grid:    g,
		Score:   12,
		Moves:   3,
		MaxTile: g.MaxTile(),
		Target:  engine.DefaultTarget,
		Phase:   phase,
		Won:     engine.Won(g, engine.DefaultTarget),
	}
}

func TestRenderScreenPlain(t *testing.T) {
	s := core.NewScreen(6, 2)
	s.DrawText(0, 0, "tilt")
	s.DrawText(1, 1, "2048")

	if got := RenderScreen(s); got != s.String() {
		t.Errorf("RenderScreen() = %q, want %q", got, s.String())
	}
}

func TestRenderScreenKeepsStyledText(t *testing.T) {
	s := core.NewScreen(10, 1)
	s.DrawStyledText(0, 0, "2048", tileStyle(2048))
	s.DrawStyledText(5, 0, "4", tileStyle(4))

	out := RenderScreen(s)
	if !strings.Contains(out, "2048") || !strings.Contains(out, "4") {
		t.Errorf("RenderScreen() lost text: %q", out)
	}
}

func TestDrawBoardShowsTilesAndHUD(t *testing.T) {
	screen := core.NewScreen(60, 20)
	drawBoard(screen, boardView{
		Snap: snapshotOf([][]int{
			{2, 0, 0, 0},
			{0, 128, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 1024},
		}, session.PhasePlaying),
		Variant: "4x4-2048",
		Best:    500,
	})

	out := screen.String()
	for _, want := range []string{"2048", "Score: 12", "Best: 500", "Moves: 3", "4x4-2048", "128", "1024", "┌", "┘"} {
		if !strings.Contains(out, want) {
			t.Errorf("board is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "GAME OVER") {
		t.Error("overlay shown while playing")
	}
}

func TestDrawBoardBestUsesSessionMax(t *testing.T) {
	screen := core.NewScreen(60, 20)
	snap := snapshotOf([][]int{{2, 0}, {0, 0}}, session.PhasePlaying)
	snap.MaxScore = 900
	drawBoard(screen, boardView{Snap: snap, Best: 100})

	if !strings.Contains(screen.String(), "Best: 900") {
		t.Errorf("expected session max score as best:\n%s", screen.String())
	}
}

func TestDrawBoardOverlays(t *testing.T) {
	tests := []struct {
		name string
		view boardView
		want string
	}{
		{
			name: "game over",
			view: boardView{Snap: snapshotOf([][]int{{2, 4}, {4, 2}}, session.PhaseOver)},
			want: "GAME OVER",
		},
		{
			name: "won",
			view: boardView{Snap: snapshotOf([][]int{{2048, 0}, {0, 0}}, session.PhaseOver)},
			want: "YOU WIN!",
		},
		{
			name: "error",
			view: boardView{
				Snap: snapshotOf([][]int{{2, 0}, {0, 0}}, session.PhasePlaying),
				Err:  errors.New("feed exhausted"),
			},
			want: "SESSION ENDED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := core.NewScreen(60, 20)
			drawBoard(screen, tt.view)
			if !strings.Contains(screen.String(), tt.want) {
				t.Errorf("expected %q:\n%s", tt.want, screen.String())
			}
		})
	}
}

func TestDrawBoardTooSmall(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          []string
	}{
		{name: "full message", width: 24, height: 5, want: []string{"Window too small", "Please resize terminal"}},
		{name: "narrow screen", width: 10, height: 5, want: []string{"Too small", "Resize"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := core.NewScreen(tt.width, tt.height)
			drawBoard(screen, boardView{Snap: snapshotOf([][]int{{2, 0}, {0, 0}}, session.PhasePlaying)})

			for _, want := range tt.want {
				if !strings.Contains(screen.String(), want) {
					t.Errorf("expected %q:\n%s", want, screen.String())
				}
			}
		})
	}
}

func TestLayoutWidensForLongTargets(t *testing.T) {
	small := layoutFor(4, 2048, 80)
	big := layoutFor(4, 131072, 80)
	if big.cellW <= small.cellW {
		t.Errorf("cell width for 131072 (%d) should exceed 2048 (%d)", big.cellW, small.cellW)
	}
	if small.cellW-1 < len("2048") {
		t.Errorf("cell interior %d cannot hold 2048", small.cellW-1)
	}
}

func TestDrawSlideShowsMovingTiles(t *testing.T) {
	before := engine.MustGrid([][]int{
		{0, 0, 0, 8},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	res := engine.Tilt(before, engine.West)

	anim := newAnimation(4, 2)
	anim.startMove(before, &res)
	anim.startSpawn(spawn.Tile{Value: 2, Row: 3, Col: 3})

	screen := core.NewScreen(60, 20)
	v := boardView{Snap: snapshotOf(res.Grid.Rows(), session.PhasePlaying), Anim: &anim}
	drawBoard(screen, v)
	if !strings.Contains(screen.String(), "8") {
		t.Errorf("sliding tile not drawn:\n%s", screen.String())
	}

	for anim.step() {
	}
	if anim.active() {
		t.Error("animation should finish")
	}
}
