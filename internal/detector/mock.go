package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed set of hands or, when a sequence is configured,
// one entry of the sequence per Detect call (repeating the last entry).
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	calls    int
	err      error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence sets per-frame results. Frame i of Detect returns sequence[i];
// after the sequence is exhausted the last entry is repeated.
func (m *MockDetector) SetSequence(sequence [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = sequence
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		if i >= len(m.sequence) {
			i = len(m.sequence) - 1
		}
		return m.sequence[i], nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchLandmarks returns a right hand whose index fingertip sits at (x, y) in
// normalized coordinates with the thumb tip touching it.
func PinchLandmarks(x, y float64) HandLandmarks {
	h := handAt(x, y)
	h.Points[ThumbIP] = Point3D{X: x + 0.04, Y: y + 0.05, Z: -0.01}
	h.Points[ThumbTip] = Point3D{X: x + 0.01, Y: y + 0.01, Z: -0.02}
	return h
}

// OpenHandLandmarks returns a right hand pointing at (x, y) with the thumb
// spread well away from the index fingertip.
func OpenHandLandmarks(x, y float64) HandLandmarks {
	h := handAt(x, y)
	h.Points[ThumbIP] = Point3D{X: x + 0.12, Y: y + 0.14, Z: 0.02}
	h.Points[ThumbTip] = Point3D{X: x + 0.16, Y: y + 0.10, Z: 0.03}
	return h
}

// handAt lays out an index-pointing hand below and to the right of the tip.
func handAt(x, y float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: x + 0.05, Y: y + 0.30}
	h.Points[ThumbCMC] = Point3D{X: x + 0.10, Y: y + 0.26}
	h.Points[ThumbMCP] = Point3D{X: x + 0.12, Y: y + 0.20}

	h.Points[IndexMCP] = Point3D{X: x + 0.02, Y: y + 0.18}
	h.Points[IndexPIP] = Point3D{X: x + 0.01, Y: y + 0.11}
	h.Points[IndexDIP] = Point3D{X: x + 0.005, Y: y + 0.05}
	h.Points[IndexTip] = Point3D{X: x, Y: y}

	// Remaining fingers curled into the palm.
	for i, base := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		dx := -0.02 * float64(i+1)
		h.Points[base] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.01}
		h.Points[base+1] = Point3D{X: x + dx, Y: y + 0.16, Z: -0.04}
		h.Points[base+2] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.03}
		h.Points[base+3] = Point3D{X: x + dx, Y: y + 0.21, Z: -0.01}
	}

	return h
}
