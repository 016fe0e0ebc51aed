package tui

import (
	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

// animPhase is the current phase of a board animation.
type animPhase int

const (
	animNone animPhase = iota
	animSlide
	animPop
)

// animation plays a tilt as a slide followed by a pop of the spawned tile
// and the merged cells. Durations are in ticks; zero disables a phase.
type animation struct {
	slideTicks int
	popTicks   int

	phase    animPhase
	ticks    int
	progress float64

	before engine.Grid       // Board before the tilt
	moves  []engine.TileMove // Tiles travelling during the slide
	moving map[engine.Cell]bool
	merged map[engine.Cell]bool
	spawn  *spawn.Tile // New tile, popped after the slide
}

func newAnimation(slideTicks, popTicks int) animation {
	return animation{slideTicks: slideTicks, popTicks: popTicks}
}

// active reports whether a phase is running.
func (a *animation) active() bool {
	return a.phase != animNone
}

// startMove begins the slide for a tilt of before into res.
func (a *animation) startMove(before engine.Grid, res *engine.MoveResult) {
	a.reset()
	a.before = before
	a.moves = res.Moves
	for _, m := range res.Moves {
		a.moving[m.From] = true
		if m.Merged {
			a.merged[m.To] = true
		}
	}
	a.begin(animSlide)
}

// startSpawn queues the pop for a new tile. During a slide it waits until
// the slide completes.
func (a *animation) startSpawn(t spawn.Tile) {
	a.spawn = &t
	if a.phase != animSlide {
		a.begin(animPop)
	}
}

// step advances the animation by one tick.
// Returns true while the animation is still in progress.
func (a *animation) step() bool {
	if !a.active() {
		return false
	}

	a.ticks++
	duration := a.slideTicks
	if a.phase == animPop {
		duration = a.popTicks
	}

	a.progress = float64(a.ticks) / float64(duration)
	if a.progress > 1.0 {
		a.progress = 1.0
	}

	if a.ticks >= duration {
		a.finish()
	}
	return a.active()
}

// finish completes the current phase, moving from slide to pop when there is
// something to pop.
func (a *animation) finish() {
	if a.phase == animSlide && (a.spawn != nil || len(a.merged) > 0) {
		a.begin(animPop)
		return
	}
	a.reset()
}

// skip drops any running animation.
func (a *animation) skip() {
	a.reset()
}

func (a *animation) begin(p animPhase) {
	duration := a.slideTicks
	if p == animPop {
		duration = a.popTicks
	}
	a.phase = p
	a.ticks = 0
	a.progress = 0
	if duration <= 0 {
		a.finish()
	}
}

func (a *animation) reset() {
	a.phase = animNone
	a.ticks = 0
	a.progress = 0
	a.moves = nil
	a.moving = make(map[engine.Cell]bool)
	a.merged = make(map[engine.Cell]bool)
	a.spawn = nil
}

// popping reports whether cell is highlighted in the pop phase.
func (a *animation) popping(c engine.Cell) bool {
	if a.phase != animPop {
		return false
	}
	if a.spawn != nil && a.spawn.Row == c.Row && a.spawn.Col == c.Col {
		return true
	}
	return a.merged[c]
}

// easeOutQuad provides smooth deceleration for animation.
func easeOutQuad(t float64) float64 {
	return t * (2 - t)
}
