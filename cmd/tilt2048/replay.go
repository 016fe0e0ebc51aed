package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tilt2048/internal/replay"
	"github.com/vovakirdan/tilt2048/internal/session"
)

func newReplayCmd(a *app) *cobra.Command {
	var events bool
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Re-run a recorded game without a display",
		Long: `Play a recorded script headless and print the final board.

A script lists the board size and target, every spawned tile in order and
every command. Scripts are written by 'tilt2048 play --record'.

Commands are north/east/south/west, up/right/down/left, the vim keys
h/j/k/l or the WASD keys (w is north, a is west), plus new and quit.
Unknown commands are skipped.

Running out of commands ends the replay normally. Running out of tiles while
the game still needs one is an error.

Examples:
  tilt2048 replay game.yaml
  tilt2048 replay game.yaml --events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := replay.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var sink session.Sink = session.NopSink{}
			if events {
				sink = session.SinkFunc(func(e session.Event) { printEvent(out, e) })
			}

			snap, err := replay.Play(cmd.Context(), script, sink, a.logger)
			printSnapshot(out, snap)
			return err
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "Print every event as it happens")
	return cmd
}

func printEvent(w io.Writer, e session.Event) {
	switch e.Type {
	case session.EventSpawn:
		t := e.Spawn.Tile
		fmt.Fprintf(w, "spawn %d at (%d,%d)\n", t.Value, t.Row, t.Col)
	case session.EventMove:
		fmt.Fprintf(w, "move %s +%d (score %d)\n", e.Move.Direction, e.Move.ScoreDelta, e.Snapshot.Score)
	default:
		fmt.Fprintf(w, "%s\n", e.Type)
	}
}

func printSnapshot(w io.Writer, s session.Snapshot) {
	fmt.Fprint(w, s.Grid.String())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Score:    %d\n", s.Score)
	fmt.Fprintf(w, "Moves:    %d\n", s.Moves)
	fmt.Fprintf(w, "Max tile: %d\n", s.MaxTile)
	switch {
	case s.Won:
		fmt.Fprintln(w, "Result:   won")
	case s.Phase == session.PhaseOver:
		fmt.Fprintln(w, "Result:   game over")
	default:
		fmt.Fprintf(w, "Result:   %s\n", s.Phase)
	}
}
