package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultStreamInterval caps the MJPEG stream at about 15 FPS.
const DefaultStreamInterval = 66 * time.Millisecond

// FrameBroadcaster keeps the latest JPEG frame and wakes waiting streams when
// a new one arrives. It implements app.FrameSink.
type FrameBroadcaster struct {
	mu     sync.Mutex
	frame  []byte
	seq    uint64
	notify chan struct{}
}

// NewFrameBroadcaster creates an empty FrameBroadcaster.
func NewFrameBroadcaster() *FrameBroadcaster {
	return &FrameBroadcaster{notify: make(chan struct{})}
}

// PublishFrame replaces the latest frame. jpeg must not be modified afterwards.
func (b *FrameBroadcaster) PublishFrame(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame = jpeg
	b.seq++
	close(b.notify)
	b.notify = make(chan struct{})
}

// Next blocks until a frame newer than after is available and returns it with
// its sequence number.
func (b *FrameBroadcaster) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			frame, seq := b.frame, b.seq
			b.mu.Unlock()
			return frame, seq, nil
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, after, ctx.Err()
		}
	}
}

// StreamHandler serves the broadcast frames as MJPEG.
type StreamHandler struct {
	frames   *FrameBroadcaster
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames *FrameBroadcaster) *StreamHandler {
	return &StreamHandler{frames: frames, interval: DefaultStreamInterval}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	var seq uint64

	for {
		frame, next, err := h.frames.Next(ctx, seq)
		if err != nil {
			return
		}
		seq = next

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.interval):
		}
	}
}
