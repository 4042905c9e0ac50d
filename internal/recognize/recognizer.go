package recognize

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Identifier matches a recorded WAV file against a fingerprint database.
type Identifier interface {
	Recognize(ctx context.Context, wavPath string) (*Song, error)
}

// Recognizer records from the microphone and identifies the recording.
type Recognizer struct {
	recorder   Recorder
	identifier Identifier
	tempDir    string
}

// New creates a Recognizer. Temporary recordings go to the system temp dir.
func New(recorder Recorder, identifier Identifier) *Recognizer {
	return &Recognizer{
		recorder:   recorder,
		identifier: identifier,
	}
}

// CaptureAndRecognize blocks while recording for d, then identifies the
// recording. The temporary WAV file is always removed.
func (r *Recognizer) CaptureAndRecognize(ctx context.Context, d time.Duration) (*Song, error) {
	if d <= 0 {
		d = DefaultDuration
	}

	f, err := os.CreateTemp(r.tempDir, "handtune-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp recording: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	log.WithField("duration", d).Info("Recording audio")
	if err := r.recorder.Record(ctx, path, d); err != nil {
		return nil, err
	}

	song, err := r.identifier.Recognize(ctx, path)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"track":  song.Track,
		"artist": song.Artist,
		"album":  song.Album,
	}).Info("Recognized song")
	return song, nil
}
