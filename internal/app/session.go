package app

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/handtune/internal/detector"
	"github.com/ayusman/handtune/internal/dispatch"
	"github.com/ayusman/handtune/internal/gesture"
	"github.com/ayusman/handtune/internal/hud"
)

// Commander starts a command without waiting for it.
type Commander interface {
	Dispatch(cmd dispatch.Command) (dispatch.Task, error)
}

// StepResult is the outcome of one frame.
type StepResult struct {
	Cursor   gesture.Cursor
	Present  bool
	Pinching bool
	// Rising is true on the first pinching frame after a non-pinching one.
	Rising bool

	Hovered  hud.Region
	Hovering bool

	// Fired is the region whose command was dispatched this frame.
	Fired     hud.Region
	Triggered bool
	Task      dispatch.Task
}

// Session holds the gesture state carried from frame to frame. It is not safe
// for concurrent use; the frame loop owns it.
type Session struct {
	layout     *hud.Layout
	classifier gesture.Classifier
	commander  Commander

	edge        gesture.Edge
	cooldown    *gesture.Cooldown
	lastClicked string
}

// NewSession creates a Session dispatching through commander.
func NewSession(layout *hud.Layout, classifier gesture.Classifier, cooldown time.Duration, commander Commander) *Session {
	return &Session{
		layout:     layout,
		classifier: classifier,
		commander:  commander,
		cooldown:   gesture.NewCooldown(cooldown),
	}
}

// Step advances the session by one frame of width x height pixels captured at now.
func (s *Session) Step(hands []detector.HandLandmarks, width, height int, now time.Time) StepResult {
	reading := gesture.Read(hands, width, height, s.classifier)

	res := StepResult{
		Cursor:   reading.Cursor,
		Present:  reading.Present,
		Pinching: reading.Pinching,
	}
	if reading.Present {
		res.Hovered, res.Hovering = s.layout.RegionAt(reading.Cursor)
	}

	res.Rising = s.edge.Update(reading.Pinching)
	if !res.Rising || !s.cooldown.Ready(now) {
		return res
	}

	region, ok := s.layout.RegionAt(reading.Cursor)
	if !ok {
		return res
	}

	s.cooldown.Mark(now)
	s.lastClicked = region.Name

	task, err := s.commander.Dispatch(region.Command)
	if err != nil {
		log.WithError(err).WithField("region", region.Name).Warn("Dispatch failed")
		return res
	}

	res.Fired = region
	res.Triggered = true
	res.Task = task
	return res
}

// Layout returns the session's button layout.
func (s *Session) Layout() *hud.Layout {
	return s.layout
}

// LastClicked returns the name of the last region that fired, or "".
func (s *Session) LastClicked() string {
	return s.lastClicked
}
