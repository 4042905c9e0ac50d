package app

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/handtune/internal/detector"
	"github.com/ayusman/handtune/internal/dispatch"
	"github.com/ayusman/handtune/internal/gesture"
	"github.com/ayusman/handtune/internal/hud"
)

const (
	frameW = 1280
	frameH = 720
)

// Normalized points inside the default 1280x720 buttons.
var (
	atFind    = [2]float64{0.15, 0.1}
	atPlay    = [2]float64{0.35, 0.1}
	atNothing = [2]float64{0.5, 0.8}
)

type fakeCommander struct {
	commands []dispatch.Command
	err      error
}

func (c *fakeCommander) Dispatch(cmd dispatch.Command) (dispatch.Task, error) {
	if c.err != nil {
		return dispatch.Task{}, c.err
	}
	c.commands = append(c.commands, cmd)
	return dispatch.Task{ID: "task", Name: cmd.String()}, nil
}

func newTestSession(c Commander) *Session {
	return NewSession(hud.DefaultLayout(frameW, frameH), gesture.NewClassifier(0), 0, c)
}

func pinch(at [2]float64) []detector.HandLandmarks {
	return []detector.HandLandmarks{detector.PinchLandmarks(at[0], at[1])}
}

func open(at [2]float64) []detector.HandLandmarks {
	return []detector.HandLandmarks{detector.OpenHandLandmarks(at[0], at[1])}
}

func TestSession_RisingEdges(t *testing.T) {
	cmd := &fakeCommander{}
	s := newTestSession(cmd)
	t0 := time.Unix(1000, 0)

	frames := [][]detector.HandLandmarks{open(atFind), pinch(atFind), pinch(atFind), open(atFind), pinch(atFind)}
	var rising int
	for i, hands := range frames {
		res := s.Step(hands, frameW, frameH, t0.Add(time.Duration(i)*time.Second))
		if res.Rising {
			rising++
		}
	}

	if rising != 2 {
		t.Errorf("rising edges = %d, want 2", rising)
	}
	if len(cmd.commands) != 2 || cmd.commands[0] != dispatch.Find {
		t.Errorf("commands = %v, want [Find Find]", cmd.commands)
	}
	if s.LastClicked() != "Find" {
		t.Errorf("LastClicked() = %q, want Find", s.LastClicked())
	}
}

func TestSession_Cooldown(t *testing.T) {
	tests := []struct {
		name      string
		secondAt  time.Duration
		wantFired int
	}{
		{"within cooldown", 200 * time.Millisecond, 1},
		{"exactly at cooldown", 500 * time.Millisecond, 1},
		{"after cooldown", 501 * time.Millisecond, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &fakeCommander{}
			s := newTestSession(cmd)
			t0 := time.Unix(1000, 0)

			s.Step(pinch(atPlay), frameW, frameH, t0)
			s.Step(open(atPlay), frameW, frameH, t0.Add(tt.secondAt/2))
			res := s.Step(pinch(atPlay), frameW, frameH, t0.Add(tt.secondAt))

			if !res.Rising {
				t.Error("second pinch should be a rising edge")
			}
			if len(cmd.commands) != tt.wantFired {
				t.Errorf("fired %d, want %d", len(cmd.commands), tt.wantFired)
			}
		})
	}
}

func TestSession_MissDoesNotConsumeCooldown(t *testing.T) {
	cmd := &fakeCommander{}
	s := newTestSession(cmd)
	t0 := time.Unix(1000, 0)

	res := s.Step(pinch(atNothing), frameW, frameH, t0)
	if !res.Rising || res.Triggered {
		t.Fatalf("pinch outside buttons: %+v", res)
	}

	s.Step(open(atPlay), frameW, frameH, t0.Add(50*time.Millisecond))
	res = s.Step(pinch(atPlay), frameW, frameH, t0.Add(100*time.Millisecond))

	if !res.Triggered || res.Fired.Command != dispatch.Play {
		t.Errorf("result = %+v, want Play fired", res)
	}
	if res.Task.ID != "task" {
		t.Errorf("Task = %+v", res.Task)
	}
}

func TestSession_HandLost(t *testing.T) {
	cmd := &fakeCommander{}
	s := newTestSession(cmd)
	t0 := time.Unix(1000, 0)

	s.Step(pinch(atPlay), frameW, frameH, t0)

	res := s.Step(nil, frameW, frameH, t0.Add(time.Second))
	if res.Present || res.Pinching || res.Cursor != (gesture.Cursor{}) || res.Hovering {
		t.Errorf("no hand: %+v", res)
	}

	// A pinch held across a dropout fires again when the hand returns.
	res = s.Step(pinch(atPlay), frameW, frameH, t0.Add(2*time.Second))
	if !res.Triggered {
		t.Error("pinch after dropout should fire")
	}
	if len(cmd.commands) != 2 {
		t.Errorf("commands = %v", cmd.commands)
	}
}

func TestSession_Hover(t *testing.T) {
	s := newTestSession(&fakeCommander{})

	res := s.Step(open(atPlay), frameW, frameH, time.Unix(1000, 0))
	if !res.Present || !res.Hovering || res.Hovered.Name != "Play" {
		t.Errorf("result = %+v, want hovering Play", res)
	}
	if res.Cursor != (gesture.Cursor{X: 448, Y: 72}) {
		t.Errorf("Cursor = %+v", res.Cursor)
	}

	res = s.Step(open(atNothing), frameW, frameH, time.Unix(1001, 0))
	if res.Hovering {
		t.Errorf("hovering %q outside buttons", res.Hovered.Name)
	}
}

func TestSession_CornerHit(t *testing.T) {
	cmd := &fakeCommander{}
	s := newTestSession(cmd)

	// (0.1, 0.05) maps to (128, 36), the Find button's top-left corner.
	res := s.Step(pinch([2]float64{0.1, 0.05}), frameW, frameH, time.Unix(1000, 0))
	if res.Cursor != (gesture.Cursor{X: 128, Y: 36}) {
		t.Fatalf("Cursor = %+v", res.Cursor)
	}
	if !res.Triggered || res.Fired.Command != dispatch.Find {
		t.Errorf("result = %+v, want Find fired", res)
	}
}

func TestSession_LastHandWins(t *testing.T) {
	cmd := &fakeCommander{}
	s := newTestSession(cmd)

	hands := []detector.HandLandmarks{
		detector.OpenHandLandmarks(atFind[0], atFind[1]),
		detector.PinchLandmarks(atPlay[0], atPlay[1]),
	}
	res := s.Step(hands, frameW, frameH, time.Unix(1000, 0))

	if !res.Triggered || res.Fired.Command != dispatch.Play {
		t.Errorf("result = %+v, want Play from the last hand", res)
	}
}

func TestSession_DispatchError(t *testing.T) {
	cmd := &fakeCommander{err: errors.New("boom")}
	s := newTestSession(cmd)

	res := s.Step(pinch(atPlay), frameW, frameH, time.Unix(1000, 0))
	if res.Triggered {
		t.Errorf("result = %+v, want not triggered", res)
	}
	if !res.Rising {
		t.Error("Rising should still be reported")
	}
}
