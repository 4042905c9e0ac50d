// Package main is a playback plugin that drives whatever media player is
// active through system media keys: AppleScript on macOS, playerctl and
// pactl on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string            `json:"action"`
	Command string            `json:"command,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const defaultStep = 10

var errUnsupported = errors.New("unsupported by media keys")

// runner executes an external command.
type runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

func main() {
	resp := handle(os.Stdin, runtime.GOOS, execRunner)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader, goos string, run runner) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	var backend map[string]func(step int) error
	switch goos {
	case "darwin":
		backend = darwinActions(run)
	case "linux":
		backend = linuxActions(run)
	default:
		return Response{Error: fmt.Sprintf("media keys not available on %s", goos)}
	}

	action, ok := backend[req.Action]
	if !ok {
		if req.Action == "search-play" || req.Action == "like" {
			return Response{Error: fmt.Sprintf("%s: %v", req.Action, errUnsupported)}
		}
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	step := defaultStep
	if s, err := strconv.Atoi(req.Params["step"]); err == nil && s > 0 {
		step = s
	}

	if err := action(step); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return Response{Success: true, Message: req.Action}
}

// darwinActions sends media key codes through System Events. Play and pause
// share the same toggle key.
func darwinActions(run runner) map[string]func(int) error {
	key := func(code int) func(int) error {
		return func(int) error {
			script := fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code)
			return run("osascript", "-e", script)
		}
	}
	volume := func(sign int) func(int) error {
		return func(step int) error {
			script := fmt.Sprintf("set volume output volume ((output volume of (get volume settings)) + %d)", sign*step)
			return run("osascript", "-e", script)
		}
	}

	return map[string]func(int) error{
		"play":        key(100),
		"pause":       key(100),
		"next":        key(101),
		"previous":    key(98),
		"volume-up":   volume(1),
		"volume-down": volume(-1),
	}
}

func linuxActions(run runner) map[string]func(int) error {
	player := func(verb string) func(int) error {
		return func(int) error { return run("playerctl", verb) }
	}
	volume := func(sign string) func(int) error {
		return func(step int) error {
			return run("pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%s%d%%", sign, step))
		}
	}

	return map[string]func(int) error{
		"play":        player("play"),
		"pause":       player("pause"),
		"next":        player("next"),
		"previous":    player("previous"),
		"volume-up":   volume("+"),
		"volume-down": volume("-"),
	}
}
