package recognize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Recording defaults.
const (
	DefaultDuration   = 10 * time.Second
	DefaultSampleRate = 44100
	DefaultChannels   = 1
	// recordGrace is added to the recording duration before the capture
	// program is killed.
	recordGrace = 5 * time.Second
)

// Recorder captures audio into a WAV file.
type Recorder interface {
	// Record blocks for roughly d and writes a WAV file to path.
	Record(ctx context.Context, path string, d time.Duration) error
}

// CommandRecorder records by running an external capture program such as
// ffmpeg or arecord. Arguments may contain the placeholders {output},
// {duration} (whole seconds), {rate} and {channels}.
type CommandRecorder struct {
	Command    []string
	SampleRate int
	Channels   int
}

// DefaultRecordCommand returns a capture command for the current platform.
func DefaultRecordCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"ffmpeg", "-hide_banner", "-loglevel", "error", "-y",
			"-f", "avfoundation", "-i", ":0",
			"-t", "{duration}", "-ar", "{rate}", "-ac", "{channels}", "{output}"}
	case "windows":
		return []string{"ffmpeg", "-hide_banner", "-loglevel", "error", "-y",
			"-f", "dshow", "-i", "audio=default",
			"-t", "{duration}", "-ar", "{rate}", "-ac", "{channels}", "{output}"}
	default:
		return []string{"arecord", "-q", "-f", "S16_LE",
			"-d", "{duration}", "-r", "{rate}", "-c", "{channels}", "{output}"}
	}
}

// NewCommandRecorder creates a CommandRecorder; an empty command selects
// DefaultRecordCommand.
func NewCommandRecorder(command []string, sampleRate, channels int) *CommandRecorder {
	if len(command) == 0 {
		command = DefaultRecordCommand()
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	return &CommandRecorder{
		Command:    command,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Record runs the capture program and waits for it to exit.
func (r *CommandRecorder) Record(ctx context.Context, path string, d time.Duration) error {
	if len(r.Command) == 0 {
		return errors.New("no record command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, d+recordGrace)
	defer cancel()

	args := r.expand(path, d)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("recording timeout after %s", d+recordGrace)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("recording failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("recording failed: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("recording produced no file: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("recording produced an empty file")
	}

	return nil
}

func (r *CommandRecorder) expand(path string, d time.Duration) []string {
	seconds := int((d + time.Second - 1) / time.Second)
	repl := strings.NewReplacer(
		"{output}", path,
		"{duration}", strconv.Itoa(seconds),
		"{rate}", strconv.Itoa(r.SampleRate),
		"{channels}", strconv.Itoa(r.Channels),
	)

	args := make([]string, len(r.Command))
	for i, a := range r.Command {
		args[i] = repl.Replace(a)
	}
	return args
}
