package session

import (
	"context"
	"errors"
	"strings"

	"github.com/vovakirdan/tilt2048/internal/engine"
)

// ErrInputExhausted is returned by a finite CommandSource with nothing left.
var ErrInputExhausted = errors.New("session: command input exhausted")

// Command is a player input token.
type Command int

const (
	Invalid Command = iota
	North
	East
	South
	West
	NewGame
	Quit
)

// String returns the token name.
func (c Command) String() string {
	switch c {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case NewGame:
		return "new"
	case Quit:
		return "quit"
	default:
		return "invalid"
	}
}

// Direction returns the tilt direction for a move command.
func (c Command) Direction() (engine.Direction, bool) {
	switch c {
	case North:
		return engine.North, true
	case East:
		return engine.East, true
	case South:
		return engine.South, true
	case West:
		return engine.West, true
	}
	return 0, false
}

// CommandFor returns the move command for a direction.
func CommandFor(d engine.Direction) Command {
	switch d {
	case engine.North:
		return North
	case engine.East:
		return East
	case engine.South:
		return South
	case engine.West:
		return West
	}
	return Invalid
}

// ParseCommand converts a token to a Command. Unknown tokens yield Invalid,
// which the controller ignores.
func ParseCommand(token string) Command {
	if d, ok := engine.ParseDirection(token); ok {
		return CommandFor(d)
	}
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "new", "newgame", "new game", "new_game", "restart":
		return NewGame
	case "quit", "exit":
		return Quit
	}
	return Invalid
}

// CommandSource is the input stream. Next blocks until a command is
// available or ctx is done.
type CommandSource interface {
	Next(ctx context.Context) (Command, error)
}

// ChanSource is a CommandSource fed by another goroutine, typically a UI
// event loop.
type ChanSource struct {
	ch chan Command
}

// NewChanSource creates a source with the given buffer size.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan Command, buffer)}
}

// Push queues a command without blocking. Returns false if the buffer is
// full and the command was dropped.
func (s *ChanSource) Push(c Command) bool {
	select {
	case s.ch <- c:
		return true
	default:
		return false
	}
}

// Next waits for the next pushed command.
func (s *ChanSource) Next(ctx context.Context) (Command, error) {
	select {
	case c := <-s.ch:
		return c, nil
	case <-ctx.Done():
		return Invalid, ctx.Err()
	}
}

// SliceSource replays a fixed list of commands, then returns
// ErrInputExhausted.
type SliceSource struct {
	cmds []Command
	pos  int
}

// NewSliceSource creates a source over cmds.
func NewSliceSource(cmds ...Command) *SliceSource {
	return &SliceSource{cmds: cmds}
}

// ParseSliceSource builds a SliceSource from tokens. Unknown tokens are kept
// as Invalid so they are ignored in order.
func ParseSliceSource(tokens []string) *SliceSource {
	cmds := make([]Command, len(tokens))
	for i, tok := range tokens {
		cmds[i] = ParseCommand(tok)
	}
	return NewSliceSource(cmds...)
}

// Next returns the next command.
func (s *SliceSource) Next(ctx context.Context) (Command, error) {
	if err := ctx.Err(); err != nil {
		return Invalid, err
	}
	if s.pos >= len(s.cmds) {
		return Invalid, ErrInputExhausted
	}
	c := s.cmds[s.pos]
	s.pos++
	return c, nil
}

// RecordingCommands passes commands through from another source and keeps a
// copy of each one.
type RecordingCommands struct {
	src  CommandSource
	cmds []Command
}

// NewRecordingCommands wraps src.
func NewRecordingCommands(src CommandSource) *RecordingCommands {
	return &RecordingCommands{src: src}
}

// Next reads from the wrapped source and records the command.
func (r *RecordingCommands) Next(ctx context.Context) (Command, error) {
	c, err := r.src.Next(ctx)
	if err != nil {
		return c, err
	}
	r.cmds = append(r.cmds, c)
	return c, nil
}

// Commands returns a copy of everything read so far.
func (r *RecordingCommands) Commands() []Command {
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}
