package engine

import (
	"fmt"
	"strings"
)

// Direction is the edge the grid is tilted toward.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions returns all four directions in declaration order.
func Directions() []Direction {
	return []Direction{North, East, South, West}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// String returns the lower-case direction name.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts compass names, arrow names and the vim (hjkl) and
// WASD keys. Single letters are keys, not compass initials: "w" is north.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "up", "k", "w":
		return North, true
	case "east", "right", "l", "d":
		return East, true
	case "south", "s", "down", "j":
		return South, true
	case "west", "left", "h", "a":
		return West, true
	}
	return 0, false
}
