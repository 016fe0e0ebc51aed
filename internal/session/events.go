package session

import (
	"sync"

	"github.com/vovakirdan/tilt2048/internal/engine"
	"github.com/vovakirdan/tilt2048/internal/spawn"
)

// EventType identifies what changed.
type EventType string

const (
	EventNewGame EventType = "new_game"
	EventSpawn   EventType = "spawn"
	EventMove    EventType = "move"
	EventOver    EventType = "game_over"
)

// Event is published after every state change. Its Snapshot is an
// independent copy; consumers may keep it.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Spawn    *spawn.Placement   // Set for EventSpawn
	Move     *engine.MoveResult // Set for EventMove
}

// Sink receives events. Publish must not block the controller for long.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) {
	f(e)
}

// NopSink discards events.
type NopSink struct{}

// Publish does nothing.
func (NopSink) Publish(Event) {}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

// Publish forwards e to every sink.
func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}

// ChanSink delivers events over a buffered channel. When the buffer is full
// the event is dropped and counted; every snapshot is complete, so a reader
// that falls behind only misses intermediate frames.
type ChanSink struct {
	ch      chan Event
	mu      sync.Mutex
	dropped int
}

// NewChanSink creates a sink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{ch: make(chan Event, buffer)}
}

// Publish queues e without blocking.
func (s *ChanSink) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// Events returns the receive side of the channel.
func (s *ChanSink) Events() <-chan Event {
	return s.ch
}

// Dropped returns the number of events discarded so far.
func (s *ChanSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
