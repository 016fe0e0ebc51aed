package tui

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vovakirdan/tilt2048/internal/core"
	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/session"
)

const (
	cellHeight = 2 // Height of each cell (including the top border)
	hudHeight  = 3
	minInner   = 4 // Narrowest tile interior
)

var (
	titleStyle  = core.Style{Fg: core.ColorGold, Bold: true}
	borderStyle = core.Style{Fg: core.ColorDarkGray}
	dimStyle    = core.Style{Fg: core.ColorGray}
	alertStyle  = core.Style{Fg: core.ColorRed, Bold: true}
)

// tileStyles colours tiles by value; larger values use the last entry.
var tileStyles = map[int]core.Style{
	2:    {Fg: core.ColorBlack, Bg: core.ColorBeige},
	4:    {Fg: core.ColorBlack, Bg: core.ColorSand},
	8:    {Fg: core.ColorBrightWhite, Bg: core.ColorOrange},
	16:   {Fg: core.ColorBrightWhite, Bg: core.ColorDarkOrange},
	32:   {Fg: core.ColorBrightWhite, Bg: core.ColorPink},
	64:   {Fg: core.ColorBrightWhite, Bg: core.ColorRed},
	128:  {Fg: core.ColorBlack, Bg: core.ColorYellow},
	256:  {Fg: core.ColorBlack, Bg: core.ColorGold},
	512:  {Fg: core.ColorBlack, Bg: core.ColorGold, Bold: true},
	1024: {Fg: core.ColorBrightWhite, Bg: core.ColorGreen, Bold: true},
	2048: {Fg: core.ColorBrightWhite, Bg: core.ColorMagenta, Bold: true},
}

var bigTileStyle = core.Style{Fg: core.ColorBrightWhite, Bg: core.ColorBlue, Bold: true}

func tileStyle(v int) core.Style {
	if st, ok := tileStyles[v]; ok {
		return st
	}
	return bigTileStyle
}

// popStyle inverts a tile's colours for the pop highlight.
func popStyle(v int) core.Style {
	st := tileStyle(v)
	return core.Style{Fg: st.Bg, Bg: core.ColorBrightWhite, Bold: true}
}

// boardView is everything the renderer needs for one frame.
type boardView struct {
	Snap    session.Snapshot
	Variant string
	Best    int
	Anim    *animation
	Err     error
}

// boardLayout is the geometry of the board for a given size and target.
type boardLayout struct {
	size  int
	cellW int // Including the left border
	rect  core.Rect
}

func layoutFor(size, target, screenW int) boardLayout {
	inner := max(minInner, len(strconv.Itoa(target))+2)
	cellW := inner + 1
	w := size*cellW + 1
	h := size*cellHeight + 1
	return boardLayout{
		size:  size,
		cellW: cellW,
		rect:  core.NewRect((screenW-w)/2, hudHeight+1, w, h),
	}
}

// minScreen returns the smallest screen that fits the board and HUD.
func (l boardLayout) minScreen() (int, int) {
	return l.rect.W + 2, l.rect.Bottom() + 1
}

// cellOrigin returns the top-left interior position of a board cell, with
// fractional row and column for sliding tiles.
func (l boardLayout) cellOrigin(row, col float64) (int, int) {
	x := l.rect.X + 1 + int(math.Round(col*float64(l.cellW)))
	y := l.rect.Y + 1 + int(math.Round(row*float64(cellHeight)))
	return x, y
}

// drawBoard renders the HUD, the grid and any overlay.
func drawBoard(dst *core.Screen, v boardView) {
	dst.Clear()

	size := v.Snap.Grid.Size()
	l := layoutFor(size, v.Snap.Target, dst.Width())

	if w, h := l.minScreen(); dst.Width() < w || dst.Height() < h {
		drawTooSmall(dst)
		return
	}

	drawHUD(dst, l, v)
	drawGridLines(dst, l)

	if v.Anim != nil && v.Anim.phase == animSlide {
		drawSlide(dst, l, v.Anim)
	} else {
		drawTiles(dst, l, v.Snap.Grid, v.Anim)
	}

	drawOverlays(dst, l, v)
}

// drawTooSmall shows a "window too small" message, shortened to fit narrow
// screens.
func drawTooSmall(dst *core.Screen) {
	y := dst.Height() / 2
	dst.DrawTextCentered(y, fitText(dst.Width(), "Window too small", "Too small"), alertStyle)
	dst.DrawTextCentered(y+1, fitText(dst.Width(), "Please resize terminal", "Resize"), core.Plain)
}

// fitText returns the first candidate no wider than width, else the last.
func fitText(width int, candidates ...string) string {
	for _, c := range candidates {
		if len(c) <= width {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

func drawHUD(dst *core.Screen, l boardLayout, v boardView) {
	r := l.rect
	title := strconv.Itoa(v.Snap.Target)
	dst.DrawStyledText(r.X+(r.W-len(title))/2, 0, title, titleStyle)

	dst.DrawText(r.X, 1, fmt.Sprintf("Score: %d", v.Snap.Score))
	best := fmt.Sprintf("Best: %d", max(v.Best, v.Snap.MaxScore))
	dst.DrawText(max(r.X, r.Right()-len(best)), 1, best)

	dst.DrawStyledText(r.X, 2, v.Variant, dimStyle)
	moves := fmt.Sprintf("Moves: %d", v.Snap.Moves)
	dst.DrawStyledText(max(r.X, r.Right()-len(moves)), 2, moves, dimStyle)
}

// drawGridLines draws the cell borders.
func drawGridLines(dst *core.Screen, l boardLayout) {
	n := l.size
	for y := range n + 1 {
		for x := range n + 1 {
			px := l.rect.X + x*l.cellW
			py := l.rect.Y + y*cellHeight

			var corner rune
			switch {
			case y == 0 && x == 0:
				corner = '┌'
			case y == 0 && x == n:
				corner = '┐'
			case y == n && x == 0:
				corner = '└'
			case y == n && x == n:
				corner = '┘'
			case y == 0:
				corner = '┬'
			case y == n:
				corner = '┴'
			case x == 0:
				corner = '├'
			case x == n:
				corner = '┤'
			default:
				corner = '┼'
			}
			dst.SetCell(px, py, core.Cell{Rune: corner, Style: borderStyle})

			if x < n {
				for i := 1; i < l.cellW; i++ {
					dst.SetCell(px+i, py, core.Cell{Rune: '─', Style: borderStyle})
				}
			}
			if y < n {
				for i := 1; i < cellHeight; i++ {
					dst.SetCell(px, py+i, core.Cell{Rune: '│', Style: borderStyle})
				}
			}
		}
	}
}

// drawTile fills one tile interior at screen position (x, y).
func drawTile(dst *core.Screen, l boardLayout, x, y, value int, st core.Style) {
	inner := l.cellW - 1
	dst.FillRect(core.NewRect(x, y, inner, cellHeight-1), core.Cell{Rune: ' ', Style: st})

	label := strconv.Itoa(value)
	pad := max(0, (inner-len(label))/2)
	dst.DrawStyledText(x+pad, y, label, st)
}

func drawTiles(dst *core.Screen, l boardLayout, g engine.Grid, anim *animation) {
	for r := range g.Size() {
		for c := range g.Size() {
			v := g.At(r, c)
			if v == 0 {
				continue
			}
			st := tileStyle(v)
			if anim != nil && anim.popping(engine.Cell{Row: r, Col: c}) {
				st = popStyle(v)
			}
			x, y := l.cellOrigin(float64(r), float64(c))
			drawTile(dst, l, x, y, v, st)
		}
	}
}

// drawSlide draws the pre-tilt board with travelling tiles at their
// interpolated positions.
func drawSlide(dst *core.Screen, l boardLayout, anim *animation) {
	g := anim.before
	for r := range g.Size() {
		for c := range g.Size() {
			v := g.At(r, c)
			if v == 0 || anim.moving[engine.Cell{Row: r, Col: c}] {
				continue
			}
			x, y := l.cellOrigin(float64(r), float64(c))
			drawTile(dst, l, x, y, v, tileStyle(v))
		}
	}

	t := easeOutQuad(anim.progress)
	for _, m := range anim.moves {
		row := core.Lerp(m.From.Row, m.To.Row, t)
		col := core.Lerp(m.From.Col, m.To.Col, t)
		x, y := l.cellOrigin(row, col)
		drawTile(dst, l, x, y, m.Value, tileStyle(m.Value))
	}
}

func drawOverlays(dst *core.Screen, l boardLayout, v boardView) {
	cx, cy := l.rect.Center()

	switch {
	case v.Err != nil:
		drawOverlay(dst, cx, cy, alertStyle, "SESSION ENDED", v.Err.Error(), "Press Q to quit")
	case v.Snap.Phase == session.PhaseOver && v.Snap.Won:
		drawOverlay(dst, cx, cy, titleStyle, "YOU WIN!", fmt.Sprintf("Score: %d", v.Snap.Score), "Press N for a new game")
	case v.Snap.Phase == session.PhaseOver:
		drawOverlay(dst, cx, cy, alertStyle, "GAME OVER", fmt.Sprintf("Max tile: %d", v.Snap.MaxTile), "Press N for a new game")
	}
}

// drawOverlay draws a centered text box; the first line uses headStyle.
func drawOverlay(dst *core.Screen, centerX, centerY int, headStyle core.Style, lines ...string) {
	maxLen := 0
	for _, line := range lines {
		maxLen = max(maxLen, len([]rune(line)))
	}

	box := core.NewRect(centerX-(maxLen+4)/2, centerY-(len(lines)+2)/2, maxLen+4, len(lines)+2)
	dst.FillRect(box, core.Cell{Rune: ' '})
	dst.DrawBox(box, core.Plain)

	for i, line := range lines {
		st := core.Plain
		if i == 0 {
			st = headStyle
		}
		x := centerX - len([]rune(line))/2
		dst.DrawStyledText(x, box.Y+1+i, line, st)
	}
}
