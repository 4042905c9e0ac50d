package hud

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/handtune/internal/dispatch"
)

func TestParseLayout_Pixels(t *testing.T) {
	data := []byte(`
regions:
  - name: Play
    rect: [10, 20, 110, 70]
  - name: Louder
    command: Vol +
    rect: [120, 20, 220, 70]
`)

	l, err := ParseLayout(data, 1280, 720)
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}

	regions := l.Regions()
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	if regions[0].Command != dispatch.Play || regions[0].Bounds != (Rect{10, 20, 110, 70}) {
		t.Errorf("region 0 = %+v", regions[0])
	}
	if regions[1].Name != "Louder" || regions[1].Command != dispatch.VolumeUp {
		t.Errorf("region 1 = %+v", regions[1])
	}
}

func TestParseLayout_Relative(t *testing.T) {
	data := []byte(`
units: relative
regions:
  - name: Find
    rect: [0.1, 0.05, 0.2, 0.175]
`)

	l, err := ParseLayout(data, 1280, 720)
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}

	want := Rect{X1: 128, Y1: 36, X2: 256, Y2: 126}
	if got := l.Regions()[0].Bounds; got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestParseLayout_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short rect", "regions:\n  - name: Play\n    rect: [1, 2, 3]\n"},
		{"unknown command", "regions:\n  - name: Rewind\n    rect: [0, 0, 1, 1]\n"},
		{"unknown units", "units: inches\nregions: []\n"},
		{"duplicate", "regions:\n  - name: Play\n    rect: [0, 0, 1, 1]\n  - name: Play\n    rect: [2, 2, 3, 3]\n"},
		{"inverted", "units: relative\nregions:\n  - name: Play\n    rect: [0.4, 0.1, 0.3, 0.2]\n"},
		{"unnamed", "regions:\n  - rect: [0, 0, 1, 1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLayout([]byte(tt.data), 100, 100); !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("ParseLayout() error = %v, want ErrInvalidLayout", err)
			}
		})
	}

	if _, err := ParseLayout([]byte("regions: [oops"), 100, 100); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte("regions:\n  - name: Next\n    rect: [0, 0, 50, 50]\n"), 0644); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	l, err := LoadLayout(path, 640, 480)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if l.Len() != 1 || l.Regions()[0].Command != dispatch.Next {
		t.Errorf("layout = %+v", l.Regions())
	}

	if _, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"), 640, 480); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLayoutTemplate_Build(t *testing.T) {
	tmpl, err := ParseLayoutTemplate([]byte(`
units: relative
regions:
  - name: Play
    rect: [0.3, 0.05, 0.4, 0.175]
`))
	if err != nil {
		t.Fatalf("ParseLayoutTemplate() error = %v", err)
	}
	if !tmpl.Relative() || tmpl.Len() != 1 {
		t.Fatalf("template relative=%v len=%d", tmpl.Relative(), tmpl.Len())
	}

	tests := []struct {
		name          string
		width, height int
		want          Rect
	}{
		{"720p", 1280, 720, Rect{X1: 384, Y1: 36, X2: 512, Y2: 126}},
		{"vga", 640, 480, Rect{X1: 192, Y1: 24, X2: 256, Y2: 84}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := tmpl.Build(tt.width, tt.height)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got := l.Regions()[0].Bounds; got != tt.want {
				t.Errorf("bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLayoutTemplate_PixelsIgnoreSize(t *testing.T) {
	tmpl, err := ParseLayoutTemplate([]byte("regions:\n  - name: Next\n    rect: [10, 10, 60, 40]\n"))
	if err != nil {
		t.Fatalf("ParseLayoutTemplate() error = %v", err)
	}

	for _, size := range [][2]int{{1280, 720}, {640, 480}} {
		l, err := tmpl.Build(size[0], size[1])
		if err != nil {
			t.Fatalf("Build(%v) error = %v", size, err)
		}
		if got := l.Regions()[0].Bounds; got != (Rect{10, 10, 60, 40}) {
			t.Errorf("Build(%v) bounds = %+v", size, got)
		}
	}
}
