package hud

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/handtune/internal/dispatch"
)

// Layout file units.
const (
	UnitsPixels   = "pixels"
	UnitsRelative = "relative"
)

// layoutFile is the on-disk YAML shape of a layout.
//
//	units: relative
//	regions:
//	  - name: Find
//	    command: find
//	    rect: [0.1, 0.05, 0.2, 0.175]
type layoutFile struct {
	Units   string       `yaml:"units"`
	Regions []regionFile `yaml:"regions"`
}

type regionFile struct {
	Name    string    `yaml:"name"`
	Command string    `yaml:"command"`
	Rect    []float64 `yaml:"rect"`
}

// LayoutTemplate is a validated layout file that has not been placed on a
// frame yet. Relative templates need the delivered frame size, which is only
// known once the camera yields its first frame.
type LayoutTemplate struct {
	relative bool
	regions  []regionTemplate
}

type regionTemplate struct {
	name           string
	command        dispatch.Command
	x1, y1, x2, y2 float64
}

// ReadLayoutTemplate reads and validates a YAML layout file.
func ReadLayoutTemplate(path string) (*LayoutTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayoutTemplate(data)
}

// ParseLayoutTemplate decodes a YAML layout document. Region order in the
// document is the hit-test order.
func ParseLayoutTemplate(data []byte) (*LayoutTemplate, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	t := &LayoutTemplate{}
	switch f.Units {
	case "", UnitsPixels:
	case UnitsRelative:
		t.relative = true
	default:
		return nil, fmt.Errorf("%w: unknown units %q", ErrInvalidLayout, f.Units)
	}

	seen := make(map[string]bool, len(f.Regions))
	for i, rf := range f.Regions {
		switch {
		case rf.Name == "":
			return nil, fmt.Errorf("%w: region %d has no name", ErrInvalidLayout, i)
		case seen[rf.Name]:
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidLayout, rf.Name)
		case len(rf.Rect) != 4:
			return nil, fmt.Errorf("%w: region %q rect needs 4 values, got %d", ErrInvalidLayout, rf.Name, len(rf.Rect))
		case rf.Rect[2] < rf.Rect[0] || rf.Rect[3] < rf.Rect[1]:
			return nil, fmt.Errorf("%w: region %q has inverted rect %v", ErrInvalidLayout, rf.Name, rf.Rect)
		}
		seen[rf.Name] = true

		command := rf.Command
		if command == "" {
			command = rf.Name
		}
		cmd, err := dispatch.ParseCommand(command)
		if err != nil {
			return nil, fmt.Errorf("%w: region %q: %v", ErrInvalidLayout, rf.Name, err)
		}

		t.regions = append(t.regions, regionTemplate{
			name:    rf.Name,
			command: cmd,
			x1:      rf.Rect[0],
			y1:      rf.Rect[1],
			x2:      rf.Rect[2],
			y2:      rf.Rect[3],
		})
	}
	return t, nil
}

// Relative reports whether the template scales with the frame.
func (t *LayoutTemplate) Relative() bool {
	return t.relative
}

// Len returns the number of regions.
func (t *LayoutTemplate) Len() int {
	return len(t.regions)
}

// Build places the template on a width x height frame. Pixel templates ignore
// the size.
func (t *LayoutTemplate) Build(width, height int) (*Layout, error) {
	sx, sy := 1.0, 1.0
	if t.relative {
		sx, sy = float64(width), float64(height)
	}

	regions := make([]Region, len(t.regions))
	for i, rt := range t.regions {
		regions[i] = Region{
			Name:    rt.name,
			Command: rt.command,
			Bounds: Rect{
				X1: int(math.Round(rt.x1 * sx)),
				Y1: int(math.Round(rt.y1 * sy)),
				X2: int(math.Round(rt.x2 * sx)),
				Y2: int(math.Round(rt.y2 * sy)),
			},
		}
	}
	return NewLayout(regions...)
}

// LoadLayout reads a layout file and places it on a width x height frame.
func LoadLayout(path string, width, height int) (*Layout, error) {
	t, err := ReadLayoutTemplate(path)
	if err != nil {
		return nil, err
	}
	return t.Build(width, height)
}

// ParseLayout decodes a layout document and places it on a width x height frame.
func ParseLayout(data []byte, width, height int) (*Layout, error) {
	t, err := ParseLayoutTemplate(data)
	if err != nil {
		return nil, err
	}
	return t.Build(width, height)
}
