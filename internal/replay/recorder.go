package replay

import (
	"context"

	"github.com/vovakirdan/tilt2048/internal/session"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

// Recorder captures the tile feed and command stream of a live game so it
// can be saved as a Script.
type Recorder struct {
	size   int
	target int
	seed   int64
	tiles  *spawn.RecordingSource
	cmds   *session.RecordingCommands
}

// NewRecorder wraps the live sources of a game.
func NewRecorder(size, target int, seed int64, tiles spawn.Source, cmds session.CommandSource) *Recorder {
	return &Recorder{
		size:   size,
		target: target,
		seed:   seed,
		tiles:  spawn.NewRecordingSource(tiles),
		cmds:   session.NewRecordingCommands(cmds),
	}
}

// Spawner returns a spawner drawing from the recorded tile source.
func (r *Recorder) Spawner() *spawn.Spawner {
	return spawn.New(r.tiles)
}

// Next reads the next command through the recorder.
func (r *Recorder) Next(ctx context.Context) (session.Command, error) {
	return r.cmds.Next(ctx)
}

// Script returns everything captured so far.
func (r *Recorder) Script() Script {
	cmds := r.cmds.Commands()
	tokens := make([]string, len(cmds))
	for i, c := range cmds {
		tokens[i] = c.String()
	}
	return Script{
		Size:     r.size,
		Target:   r.target,
		Seed:     r.seed,
		Tiles:    r.tiles.Tiles(),
		Commands: tokens,
	}
}
