// Package gesture turns hand landmarks into the pinch state and cursor position
// that drive the region buttons, and debounces pinches into discrete events.
package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/handtune/internal/detector"
)

// DefaultPinchThreshold is the thumb/index fingertip distance below which a hand
// counts as pinching. It is measured in normalized frame coordinates, so it does
// not depend on camera resolution. The value is empirical; tune it per setup.
const DefaultPinchThreshold = 0.03

// Classifier reduces a hand to a pinching / not-pinching state.
type Classifier struct {
	Threshold float64
}

// NewClassifier creates a Classifier. A non-positive threshold selects
// DefaultPinchThreshold.
func NewClassifier(threshold float64) Classifier {
	if threshold <= 0 {
		threshold = DefaultPinchThreshold
	}
	return Classifier{Threshold: threshold}
}

// TipDistance returns the planar distance between the thumb and index fingertips.
func TipDistance(points []detector.Point3D) (float64, error) {
	if len(points) <= detector.IndexTip {
		return 0, fmt.Errorf("%w: need index %d, got %d points",
			detector.ErrInvalidLandmarks, detector.IndexTip, len(points))
	}

	thumb := points[detector.ThumbTip]
	index := points[detector.IndexTip]
	return math.Hypot(thumb.X-index.X, thumb.Y-index.Y), nil
}

// IsPinching reports whether the fingertips are closer than the threshold.
func (c Classifier) IsPinching(points []detector.Point3D) (bool, error) {
	d, err := TipDistance(points)
	if err != nil {
		return false, err
	}
	return d < c.Threshold, nil
}
