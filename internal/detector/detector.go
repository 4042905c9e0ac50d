package detector

import (
	"strconv"

	"gocv.io/x/gocv"
)

// Detector turns a frame into the hands visible in it, in the order the model
// reports them. A frame without hands yields an empty slice and no error.
type Detector interface {
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Config tunes the landmark model and locates the MediaPipe bridge.
type Config struct {
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64

	// Python and Script override interpreter and bridge script discovery.
	Python string
	Script string
}

// args renders the model settings as bridge command-line flags.
func (c Config) args() []string {
	return []string{
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(c.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', 2, 64),
	}
}
