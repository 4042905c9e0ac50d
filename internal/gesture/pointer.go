package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/handtune/internal/detector"
)

// Cursor is a position in frame pixel space.
type Cursor struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MapPointer projects the index fingertip onto a width x height frame.
func MapPointer(points []detector.Point3D, width, height int) (Cursor, error) {
	if len(points) <= detector.IndexTip {
		return Cursor{}, fmt.Errorf("%w: need index %d, got %d points",
			detector.ErrInvalidLandmarks, detector.IndexTip, len(points))
	}

	tip := points[detector.IndexTip]
	return Cursor{
		X: int(math.Round(tip.X * float64(width))),
		Y: int(math.Round(tip.Y * float64(height))),
	}, nil
}

// Reading is the per-frame input to the edge detector.
type Reading struct {
	Cursor   Cursor
	Pinching bool
	// Present is false when no usable hand was seen; Cursor is then (0,0).
	Present bool
	// Hand is the hand the reading was taken from, nil when not Present.
	Hand *detector.HandLandmarks
}

// Read reduces all hands in a frame to a single reading.
//
// When several hands are present the last one in detection order wins, both
// for the cursor and for the pinch state. Hands with malformed landmark
// sequences are skipped as if they had not been detected.
func Read(hands []detector.HandLandmarks, width, height int, c Classifier) Reading {
	var r Reading
	for i := range hands {
		points := hands[i].Slice()

		cursor, err := MapPointer(points, width, height)
		if err != nil {
			continue
		}
		pinching, err := c.IsPinching(points)
		if err != nil {
			continue
		}

		r = Reading{
			Cursor:   cursor,
			Pinching: pinching,
			Present:  true,
			Hand:     &hands[i],
		}
	}
	return r
}
