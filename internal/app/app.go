// Package app runs the frame loop: capture, hand detection, the gesture
// session, overlay rendering and display.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtune/internal/capture"
	"github.com/ayusman/handtune/internal/detector"
	"github.com/ayusman/handtune/internal/dispatch"
	"github.com/ayusman/handtune/internal/gesture"
	"github.com/ayusman/handtune/internal/hud"
	"github.com/ayusman/handtune/internal/message"
)

// Event types.
const (
	EventPinch    = "pinch"
	EventTrigger  = "trigger"
	EventTaskDone = "task_done"
)

// Event is published for pinches, triggers and finished tasks.
type Event struct {
	Type    string          `json:"type"`
	Time    time.Time       `json:"time"`
	Cursor  *gesture.Cursor `json:"cursor,omitempty"`
	Region  string          `json:"region,omitempty"`
	Command string          `json:"command,omitempty"`
	TaskID  string          `json:"task_id,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// TaskEvent builds the event for a finished background task.
func TaskEvent(task dispatch.Task, err error) Event {
	e := Event{
		Type:    EventTaskDone,
		Time:    time.Now(),
		Command: task.Name,
		TaskID:  task.ID,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// EventSink receives events from the frame loop and from task goroutines.
type EventSink interface {
	Publish(event Event)
}

// FrameSink receives each rendered frame as JPEG.
type FrameSink interface {
	PublishFrame(jpeg []byte)
}

// Status is a snapshot of the running app.
type Status struct {
	Message          string  `json:"message"`
	MessageRemaining float64 `json:"message_remaining_seconds"`
	LastCommand      string  `json:"last_command"`
	LastClicked      string  `json:"last_clicked"`
	InFlight         int64   `json:"tasks_in_flight"`
	TasksStarted     int64   `json:"tasks_started"`
	Frames           int64   `json:"frames"`
	HandPresent      bool    `json:"hand_present"`
}

// Config wires an App.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Display    hud.Display
	Dispatcher *dispatch.Dispatcher
	Messages   *message.Store

	// Layout places the buttons once the first frame's size is known.
	// Nil uses hud.DefaultLayout.
	Layout     func(width, height int) (*hud.Layout, error)
	Classifier gesture.Classifier
	Cooldown   time.Duration

	Events EventSink
	Frames FrameSink

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// App is the gesture-controlled player front end.
type App struct {
	config  Config
	clock   func() time.Time
	session *Session
	overlay *hud.Overlay

	frames      atomic.Int64
	mu          sync.RWMutex
	lastClicked string
	handPresent bool
}

// New creates an App. Camera, Detector, Display, Dispatcher and Messages are required.
func New(config Config) (*App, error) {
	switch {
	case config.Camera == nil:
		return nil, errors.New("app: camera is required")
	case config.Detector == nil:
		return nil, errors.New("app: detector is required")
	case config.Display == nil:
		return nil, errors.New("app: display is required")
	case config.Dispatcher == nil:
		return nil, errors.New("app: dispatcher is required")
	case config.Messages == nil:
		return nil, errors.New("app: message store is required")
	}

	if config.Classifier.Threshold <= 0 {
		config.Classifier = gesture.NewClassifier(gesture.DefaultPinchThreshold)
	}

	a := &App{
		config: config,
		clock:  config.Clock,
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	return a, nil
}

// placeLayout builds the layout for the delivered frame size and starts the
// gesture session on it.
func (a *App) placeLayout(width, height int) error {
	layout := hud.DefaultLayout(width, height)
	if a.config.Layout != nil {
		var err error
		if layout, err = a.config.Layout(width, height); err != nil {
			return fmt.Errorf("place layout on %dx%d frame: %w", width, height, err)
		}
	}

	a.session = NewSession(layout, a.config.Classifier, a.config.Cooldown, a.config.Dispatcher)
	a.overlay = hud.NewOverlay(layout)
	log.WithFields(log.Fields{"width": width, "height": height, "regions": layout.Len()}).Debug("Placed button layout")
	return nil
}

// Run opens the camera and processes frames until the camera stops, the user
// presses q or ctx is done. A camera that cannot be opened ends the loop like
// one that runs dry: logged, not an error. The camera, detector and display
// are released on every return.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.config.Display.Close(); err != nil {
			log.WithError(err).Warn("Error closing display")
		}
		if err := a.config.Detector.Close(); err != nil {
			log.WithError(err).Warn("Error closing detector")
		}
		if err := a.config.Camera.Close(); err != nil {
			log.WithError(err).Warn("Error closing camera")
		}
		log.Info("Frame loop stopped")
	}()

	if err := a.config.Camera.Open(); err != nil {
		log.WithError(err).Error("Camera unavailable")
		return nil
	}

	log.Info("Frame loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !a.processFrame() {
			return nil
		}
	}
}

// processFrame runs one iteration and reports whether the loop should continue.
func (a *App) processFrame() bool {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		if errors.Is(err, capture.ErrNoFrame) {
			log.Info("Camera yielded no frame, stopping")
		} else {
			log.WithError(err).Error("Error reading frame")
		}
		return false
	}
	defer frame.Close()

	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		log.WithError(err).Warn("Hand detection failed")
		hands = nil
	}

	width, height := frame.Cols(), frame.Rows()
	if a.session == nil {
		if err := a.placeLayout(width, height); err != nil {
			log.WithError(err).Error("Cannot place buttons, stopping")
			return false
		}
	}

	now := a.clock()
	res := a.session.Step(hands, width, height, now)
	a.frames.Add(1)
	a.record(res)
	a.emit(res, now)

	state := hud.FrameState{
		Cursor:      res.Cursor,
		Hands:       hands,
		LastClicked: a.session.LastClicked(),
	}
	if text, _, ok := a.config.Messages.Get(); ok {
		state.Message = text
	}
	a.overlay.Draw(frame, state)

	a.publishFrame(frame)

	if key := a.config.Display.Show(frame); key == hud.KeyQuit {
		log.Info("Quit key pressed")
		return false
	}
	return true
}

func (a *App) record(res StepResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handPresent = res.Present
	a.lastClicked = a.session.LastClicked()
}

func (a *App) emit(res StepResult, now time.Time) {
	if a.config.Events == nil || !res.Rising {
		return
	}

	cursor := res.Cursor
	pinch := Event{Type: EventPinch, Time: now, Cursor: &cursor}
	if res.Hovering {
		pinch.Region = res.Hovered.Name
	}
	a.config.Events.Publish(pinch)

	if res.Triggered {
		a.config.Events.Publish(Event{
			Type:    EventTrigger,
			Time:    now,
			Cursor:  &cursor,
			Region:  res.Fired.Name,
			Command: res.Fired.Command.String(),
			TaskID:  res.Task.ID,
		})
	}
}

func (a *App) publishFrame(frame *gocv.Mat) {
	if a.config.Frames == nil {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		log.WithError(err).Debug("JPEG encode failed")
		return
	}
	defer buf.Close()

	a.config.Frames.PublishFrame(bytes.Clone(buf.GetBytes()))
}

// Status returns a snapshot safe to call from any goroutine.
func (a *App) Status() Status {
	a.mu.RLock()
	s := Status{
		LastClicked: a.lastClicked,
		HandPresent: a.handPresent,
	}
	a.mu.RUnlock()

	if text, remaining, ok := a.config.Messages.Get(); ok {
		s.Message = text
		s.MessageRemaining = remaining.Seconds()
	}

	if cmd := a.config.Dispatcher.LastCommand(); cmd != dispatch.None {
		s.LastCommand = cmd.String()
	}
	spawner := a.config.Dispatcher.Spawner()
	s.InFlight = spawner.InFlight()
	s.TasksStarted = spawner.Started()
	s.Frames = a.frames.Load()
	return s
}
