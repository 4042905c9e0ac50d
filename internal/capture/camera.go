// Package capture reads webcam frames through OpenCV.
package capture

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 30
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame means the device stopped yielding frames.
	ErrNoFrame = errors.New("camera yielded no frame")
)

// Camera is a frame source. Each frame returned by ReadFrame belongs to the
// caller, who must Close it.
type Camera interface {
	Open() error
	ReadFrame() (*gocv.Mat, error)
	Close() error
}

type Options struct {
	DeviceID int
	// Width, Height and FPS are requests; the driver may pick something else.
	Width  int
	Height int
	FPS    int
	// Mirror flips frames horizontally so on-screen movement follows the hand.
	Mirror bool
}

// Device is a Camera backed by a local video device.
type Device struct {
	opts Options

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	width  int
	height int
}

// NewCamera fills unset options with defaults. The device is not opened.
func NewCamera(opts Options) *Device {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	return &Device{opts: opts}
}

func (d *Device) Options() Options {
	return d.opts
}

// Open starts capture and records the size the driver granted. Opening an
// open device is a no-op.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.opts.DeviceID)
	if err != nil {
		return fmt.Errorf("open video device %d: %w", d.opts.DeviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open video device %d: %w", d.opts.DeviceID, ErrCameraNotOpen)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.opts.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.opts.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.opts.FPS))

	d.vc = vc
	d.width = int(vc.Get(gocv.VideoCaptureFrameWidth))
	d.height = int(vc.Get(gocv.VideoCaptureFrameHeight))

	log.WithFields(log.Fields{
		"device":    d.opts.DeviceID,
		"requested": fmt.Sprintf("%dx%d", d.opts.Width, d.opts.Height),
		"granted":   fmt.Sprintf("%dx%d", d.width, d.height),
		"mirror":    d.opts.Mirror,
	}).Info("Camera opened")
	return nil
}

// Size reports the granted frame size, or zeros while closed.
func (d *Device) Size() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

func (d *Device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil, ErrCameraNotOpen
	}

	frame := gocv.NewMat()
	if !d.vc.Read(&frame) || frame.Empty() {
		frame.Close()
		return nil, ErrNoFrame
	}
	if d.opts.Mirror {
		gocv.Flip(frame, &frame, 1)
	}
	return &frame, nil
}

// Close releases the device. Closing a closed device is a no-op.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil
	}
	err := d.vc.Close()
	d.vc = nil
	d.width, d.height = 0, 0
	return err
}
