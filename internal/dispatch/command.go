// Package dispatch maps commands to their side effects and runs them on
// detached background tasks so the frame loop never waits on I/O.
package dispatch

import (
	"fmt"
	"strings"
)

// Command is an action a region can trigger.
type Command int

const (
	// None is the zero Command and never dispatches.
	None Command = iota
	Find
	Play
	Pause
	Next
	Prev
	VolumeUp
	VolumeDown
	Like
)

var commandNames = map[Command]string{
	Find:       "Find",
	Play:       "Play",
	Pause:      "Pause",
	Next:       "Next",
	Prev:       "Prev",
	VolumeUp:   "Vol +",
	VolumeDown: "Vol -",
	Like:       "Like",
}

var commandAliases = map[string]Command{
	"find":        Find,
	"play":        Play,
	"pause":       Pause,
	"next":        Next,
	"prev":        Prev,
	"previous":    Prev,
	"vol +":       VolumeUp,
	"vol+":        VolumeUp,
	"volume-up":   VolumeUp,
	"vol -":       VolumeDown,
	"vol-":        VolumeDown,
	"volume-down": VolumeDown,
	"like":        Like,
}

// String returns the button label for c.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Valid reports whether c is a known, dispatchable command.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// LatencyBound reports whether c blocks for seconds rather than a single
// remote round trip.
func (c Command) LatencyBound() bool {
	return c == Find
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) {
	if c == None {
		return []byte(""), nil
	}
	return []byte(c.String()), nil
}

// ParseCommand resolves a command name or button label, case-insensitively.
func ParseCommand(s string) (Command, error) {
	if c, ok := commandAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return None, fmt.Errorf("unknown command %q", s)
}
