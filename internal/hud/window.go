package hud

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// WindowTitle is the title of the camera window.
const WindowTitle = "Camera Feed"

// KeyQuit is the key that ends the frame loop.
const KeyQuit = 'q'

// NoKey is returned by Show when no key was pressed.
const NoKey = -1

// Display shows rendered frames and reports key presses.
type Display interface {
	// Show displays frame and returns the key pressed, or NoKey.
	Show(frame *gocv.Mat) int
	Close() error
}

// Placement positions the window on screen. With a screen size the window
// is centered on it once the first frame's size is known; otherwise a
// non-zero X or Y moves it there.
type Placement struct {
	X, Y         int
	ScreenWidth  int
	ScreenHeight int
}

// Origin returns the top-left corner for a width x height window, and false
// when the window should be left where the window manager put it.
func (p Placement) Origin(width, height int) (image.Point, bool) {
	if p.ScreenWidth > 0 && p.ScreenHeight > 0 {
		return image.Pt(max(0, (p.ScreenWidth-width)/2), max(0, (p.ScreenHeight-height)/2)), true
	}
	if p.X != 0 || p.Y != 0 {
		return image.Pt(p.X, p.Y), true
	}
	return image.Point{}, false
}

// Window is a HighGUI window. It must be used from the main goroutine.
type Window struct {
	win       *gocv.Window
	placement Placement
	placed    bool
}

func NewWindow(title string, placement Placement) *Window {
	return &Window{win: gocv.NewWindow(title), placement: placement}
}

// Show implements Display.
func (w *Window) Show(frame *gocv.Mat) int {
	if frame != nil && !frame.Empty() {
		if !w.placed {
			if origin, ok := w.placement.Origin(frame.Cols(), frame.Rows()); ok {
				w.win.MoveWindow(origin.X, origin.Y)
			}
			w.placed = true
		}
		w.win.IMShow(*frame)
	}
	key := w.win.WaitKey(1)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

// Close implements Display.
func (w *Window) Close() error {
	return w.win.Close()
}

// HeadlessDisplay discards frames. It replays scripted key presses, one per
// frame, then reports NoKey.
type HeadlessDisplay struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	closed bool
}

// NewHeadlessDisplay creates a HeadlessDisplay that returns keys in order.
func NewHeadlessDisplay(keys ...int) *HeadlessDisplay {
	return &HeadlessDisplay{keys: keys}
}

// Show implements Display.
func (d *HeadlessDisplay) Show(frame *gocv.Mat) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := NoKey
	if d.shown < len(d.keys) {
		key = d.keys[d.shown]
	}
	d.shown++
	return key
}

// Close implements Display.
func (d *HeadlessDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Shown returns how many frames were shown.
func (d *HeadlessDisplay) Shown() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

// Closed reports whether Close was called.
func (d *HeadlessDisplay) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
