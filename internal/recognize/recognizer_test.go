package recognize

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type fakeRecorder struct {
	path string
	d    time.Duration
	err  error
}

func (f *fakeRecorder) Record(ctx context.Context, path string, d time.Duration) error {
	f.path = path
	f.d = d
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, []byte("RIFF"), 0644)
}

type fakeIdentifier struct {
	song    *Song
	err     error
	existed bool
}

func (f *fakeIdentifier) Recognize(ctx context.Context, wavPath string) (*Song, error) {
	_, err := os.Stat(wavPath)
	f.existed = err == nil
	return f.song, f.err
}

func TestRecognizer_CaptureAndRecognize(t *testing.T) {
	rec := &fakeRecorder{}
	id := &fakeIdentifier{song: &Song{Track: "X", Artist: "Y"}}
	r := New(rec, id)
	r.tempDir = t.TempDir()

	song, err := r.CaptureAndRecognize(context.Background(), 3*time.Second)
	if err != nil {
		t.Fatalf("CaptureAndRecognize() error = %v", err)
	}
	if song.Track != "X" || song.Artist != "Y" {
		t.Errorf("song = %+v", song)
	}
	if rec.d != 3*time.Second {
		t.Errorf("record duration = %v, want 3s", rec.d)
	}
	if !id.existed {
		t.Error("identifier should see the recorded file")
	}
	if _, err := os.Stat(rec.path); !os.IsNotExist(err) {
		t.Error("temporary recording should be removed")
	}
}

func TestRecognizer_DefaultDuration(t *testing.T) {
	rec := &fakeRecorder{}
	r := New(rec, &fakeIdentifier{song: &Song{Track: "a", Artist: "b"}})
	r.tempDir = t.TempDir()

	if _, err := r.CaptureAndRecognize(context.Background(), 0); err != nil {
		t.Fatalf("CaptureAndRecognize() error = %v", err)
	}
	if rec.d != DefaultDuration {
		t.Errorf("record duration = %v, want %v", rec.d, DefaultDuration)
	}
}

func TestRecognizer_Failures(t *testing.T) {
	t.Run("recording fails", func(t *testing.T) {
		recErr := errors.New("mic busy")
		rec := &fakeRecorder{err: recErr}
		id := &fakeIdentifier{}
		r := New(rec, id)
		r.tempDir = t.TempDir()

		if _, err := r.CaptureAndRecognize(context.Background(), time.Second); !errors.Is(err, recErr) {
			t.Errorf("error = %v, want %v", err, recErr)
		}
		if _, err := os.Stat(rec.path); !os.IsNotExist(err) {
			t.Error("temporary recording should be removed on failure")
		}
	})

	t.Run("no match", func(t *testing.T) {
		r := New(&fakeRecorder{}, &fakeIdentifier{err: ErrNoMatch})
		r.tempDir = t.TempDir()

		if _, err := r.CaptureAndRecognize(context.Background(), time.Second); !errors.Is(err, ErrNoMatch) {
			t.Errorf("error = %v, want ErrNoMatch", err)
		}
	})
}
