package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tilt2048/internal/platform/tui"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

func newScoresCmd(a *app) *cobra.Command {
	var (
		browse   bool
		clearAll bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "scores [variant]",
		Short: "Show high scores",
		Long: `Display the top scores for a board variant such as 4x4-2048.
Without a variant, the configured board is shown.

Scores are only compared between games with the same board size and target.

Examples:
  tilt2048 scores
  tilt2048 scores 5x5-4096
  tilt2048 scores --browse
  tilt2048 scores 3x3-256 --clear`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := a.cfg.Variant()
			if len(args) == 1 {
				variant = args[0]
			}

			store, err := storage.Open(a.cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			switch {
			case clearAll:
				if err := store.ClearScores(variant); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared scores for %s\n", variant)
				return nil
			case browse:
				width, height := 80, 24
				if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					width, height = w, h
				}
				_, err := tui.RunScoreboard(store, variant, width, height)
				return err
			}
			return printScores(cmd, store, variant, limit)
		},
	}
	cmd.Flags().BoolVar(&browse, "browse", false, "Browse all variants interactively")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every score for the variant")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of scores to show")
	return cmd
}

func printScores(cmd *cobra.Command, store *storage.Store, variant string, limit int) error {
	out := cmd.OutOrStdout()

	scores, err := store.TopScores(variant, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "High Scores - %s\n", variant)
	fmt.Fprintln(out)

	if len(scores) == 0 {
		fmt.Fprintln(out, "No scores recorded yet.")
		if variants, err := store.Variants(); err == nil && len(variants) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Recorded variants:")
			for _, v := range variants {
				fmt.Fprintf(out, "  %s\n", v)
			}
		}
		return nil
	}

	fmt.Fprintf(out, "  %-4s  %-8s  %-6s  %-5s  %-12s  %s\n", "Rank", "Score", "Tile", "Moves", "Player", "Date")
	fmt.Fprintf(out, "  %-4s  %-8s  %-6s  %-5s  %-12s  %s\n", "----", "-----", "----", "-----", "------", "----")
	for i, e := range scores {
		tile := fmt.Sprintf("%d", e.MaxTile)
		if e.Won {
			tile += "*"
		}
		fmt.Fprintf(out, "  %-4d  %-8d  %-6s  %-5d  %-12s  %s\n",
			i+1, e.Score, tile, e.Moves, e.Player, e.CreatedAt.Format("2006-01-02 15:04"))
	}

	if st, err := store.Stats(variant); err == nil && st != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Games: %d  Wins: %d  Best tile: %d  Average: %.0f\n",
			st.GamesCount, st.Wins, st.BestTile, st.AvgScore)
	}
	return nil
}
