// Package hud defines the on-screen button regions, hit-testing against them,
// and rendering of the overlay drawn over each camera frame.
package hud

import (
	"errors"
	"fmt"

	"github.com/ayusman/handtune/internal/dispatch"
	"github.com/ayusman/handtune/internal/gesture"
)

// ErrInvalidLayout is returned when a set of regions cannot form a layout.
var ErrInvalidLayout = errors.New("invalid layout")

// Rect is an axis-aligned rectangle in frame pixels. All four edges are
// part of the rectangle.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Contains reports whether the cursor lies inside or on the edge of r.
func (r Rect) Contains(c gesture.Cursor) bool {
	return r.X1 <= c.X && c.X <= r.X2 && r.Y1 <= c.Y && c.Y <= r.Y2
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns the vertical extent of r.
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Region is a named clickable area bound to a command.
type Region struct {
	Name    string
	Command dispatch.Command
	Bounds  Rect
}

// Layout is an ordered, immutable set of regions with unique names.
// Regions may overlap; hit-testing resolves overlaps by insertion order.
type Layout struct {
	regions []Region
}

// NewLayout validates and freezes the given regions in order.
func NewLayout(regions ...Region) (*Layout, error) {
	seen := make(map[string]bool, len(regions))
	for i, r := range regions {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: region %d has no name", ErrInvalidLayout, i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidLayout, r.Name)
		}
		if r.Bounds.X2 < r.Bounds.X1 || r.Bounds.Y2 < r.Bounds.Y1 {
			return nil, fmt.Errorf("%w: region %q has inverted bounds %+v", ErrInvalidLayout, r.Name, r.Bounds)
		}
		if !r.Command.Valid() {
			return nil, fmt.Errorf("%w: region %q has no command", ErrInvalidLayout, r.Name)
		}
		seen[r.Name] = true
	}

	frozen := make([]Region, len(regions))
	copy(frozen, regions)
	return &Layout{regions: frozen}, nil
}

// RegionAt returns the first region, in insertion order, containing the cursor.
func (l *Layout) RegionAt(c gesture.Cursor) (Region, bool) {
	for _, r := range l.regions {
		if r.Bounds.Contains(c) {
			return r, true
		}
	}
	return Region{}, false
}

// Regions returns a copy of the regions in insertion order.
func (l *Layout) Regions() []Region {
	out := make([]Region, len(l.regions))
	copy(out, l.regions)
	return out
}

// Len returns the number of regions.
func (l *Layout) Len() int {
	return len(l.regions)
}

// DefaultLayout lays out the Find, Play, Pause, Next and Prev buttons in a row
// along the top of a width x height frame.
func DefaultLayout(width, height int) *Layout {
	baseX := width / 10
	baseY := height / 20
	buttonW := width / 10
	buttonH := height / 8

	commands := []dispatch.Command{
		dispatch.Find,
		dispatch.Play,
		dispatch.Pause,
		dispatch.Next,
		dispatch.Prev,
	}

	regions := make([]Region, len(commands))
	for i, cmd := range commands {
		x1 := (2*i + 1) * baseX
		regions[i] = Region{
			Name:    cmd.String(),
			Command: cmd,
			Bounds:  Rect{X1: x1, Y1: baseY, X2: x1 + buttonW, Y2: baseY + buttonH},
		}
	}

	// Built from constants above; cannot fail validation.
	l, _ := NewLayout(regions...)
	return l
}
