package route

import (
	"fmt"
	"math"
)

// Side is the edge of a table box a line attaches to.
type Side int

const (
	Left Side = iota
	Right
	Top
	Bottom
)

var sideNames = [...]string{Left: "Left", Right: "Right", Top: "Top", Bottom: "Bottom"}

// String returns "Left", "Right", "Top" or "Bottom".
func (s Side) String() string {
	if s < 0 || int(s) >= len(sideNames) {
		return fmt.Sprintf("Side(%d)", int(s))
	}
	return sideNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// IsHorizontal reports whether s is Left or Right.
func (s Side) IsHorizontal() bool { return s == Left || s == Right }

// Angle returns the outward direction in radians: Right 0, Left π,
// Bottom π/2, Top −π/2 (y grows downward).
func (s Side) Angle() float64 {
	switch s {
	case Left:
		return math.Pi
	case Bottom:
		return math.Pi / 2
	case Top:
		return -math.Pi / 2
	default:
		return 0
	}
}

// Direction returns the outward unit vector.
func (s Side) Direction() (dx, dy float64) {
	switch s {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Top:
		return 0, -1
	default:
		return 0, 1
	}
}
