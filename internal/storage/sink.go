package storage

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tilt2048/internal/session"
)

// ScoreSink records every finished game to the store. It implements
// session.Sink and ignores all other events.
type ScoreSink struct {
	store   *Store
	variant string
	player  string
	logger  *log.Logger
}

// NewScoreSink creates a sink writing scores for one variant and player.
// A nil store makes the sink a no-op.
func NewScoreSink(store *Store, variant, player string, logger *log.Logger) *ScoreSink {
	return &ScoreSink{store: store, variant: variant, player: player, logger: logger}
}

// Publish saves the final score on game over. Games ending at zero are not
// recorded.
func (s *ScoreSink) Publish(e session.Event) {
	if s.store == nil || e.Type != session.EventOver || e.Snapshot.Score <= 0 {
		return
	}

	entry := ScoreEntry{
		Variant: s.variant,
		Player:  s.player,
		Score:   e.Snapshot.Score,
		MaxTile: e.Snapshot.MaxTile,
		Moves:   e.Snapshot.Moves,
		Won:     e.Snapshot.Won,
	}
	if _, err := s.store.SaveScore(entry); err != nil && s.logger != nil {
		s.logger.Warn("could not save score", "variant", s.variant, "score", entry.Score, "error", err)
	}
}
