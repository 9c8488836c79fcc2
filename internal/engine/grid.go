package engine

import (
	"fmt"
	"math"
)

// Cell is a grid position in whole cells.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Manhattan is |dx| + |dy| in cells; movement allowance is measured with it.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Distance is the straight-line distance in cells; weapon range uses it.
func Distance(a, b Cell) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// InRange reports whether b lies within r cells of a.
func InRange(a, b Cell, r float64) bool {
	return Distance(a, b) <= r
}

// StepToward moves one cell along the sign of each axis toward target.
// Both axes move when both differ, so the step may be diagonal.
func StepToward(from, target Cell) Cell {
	return Cell{X: from.X + sign(target.X-from.X), Y: from.Y + sign(target.Y-from.Y)}
}

// Heading returns the facing angle in radians from a toward b.
func Heading(a, b Cell) float64 {
	return math.Atan2(float64(b.Y-a.Y), float64(b.X-a.X))
}

// Grid bounds the playable area.
type Grid struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Contains reports whether c is on the grid. A zero-sized grid is unbounded.
func (g Grid) Contains(c Cell) bool {
	if g.Width <= 0 || g.Height <= 0 {
		return true
	}
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
