package hud

import (
	"image"
	"testing"
)

func TestPlacement_Origin(t *testing.T) {
	tests := []struct {
		name          string
		placement     Placement
		width, height int
		want          image.Point
		wantMove      bool
	}{
		{"centered on screen", Placement{ScreenWidth: 1920, ScreenHeight: 1080}, 1280, 720, image.Pt(320, 180), true},
		{"centering wins over position", Placement{X: 5, Y: 5, ScreenWidth: 1920, ScreenHeight: 1080}, 640, 480, image.Pt(640, 300), true},
		{"frame larger than screen", Placement{ScreenWidth: 1280, ScreenHeight: 720}, 1920, 1080, image.Pt(0, 0), true},
		{"fixed position", Placement{X: 40, Y: 20}, 1280, 720, image.Pt(40, 20), true},
		{"left to the window manager", Placement{}, 1280, 720, image.Point{}, false},
		{"half a screen size is ignored", Placement{ScreenWidth: 1920}, 1280, 720, image.Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, move := tt.placement.Origin(tt.width, tt.height)
			if move != tt.wantMove || got != tt.want {
				t.Errorf("Origin() = %v, %v, want %v, %v", got, move, tt.want, tt.wantMove)
			}
		})
	}
}
