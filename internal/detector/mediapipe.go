package detector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// IdleShutdown is how long the bridge may sit unused before it is stopped.
// The next Detect starts it again.
const IdleShutdown = 30 * time.Second

const bridgeScript = "hand_landmarks.py"

// ErrServiceNotFound is returned when no bridge script can be located.
var ErrServiceNotFound = errors.New(bridgeScript + " not found")

// bridge is one running MediaPipe process.
type bridge struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

func startBridge(python, script string, args []string) (*bridge, error) {
	cmd := exec.Command(python, append([]string{script}, args...)...)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", script, err)
	}

	return &bridge{cmd: cmd, in: in, out: bufio.NewReader(out)}, nil
}

// stop closes stdin, which the bridge treats as end of input, and waits.
func (b *bridge) stop() error {
	b.in.Close()
	return b.cmd.Wait()
}

// MediaPipeDetector detects hands through a Python MediaPipe bridge process.
// The process starts on the first Detect and stops after IdleShutdown.
type MediaPipeDetector struct {
	python string
	script string
	args   []string

	mu   sync.Mutex
	proc *bridge
	idle *time.Timer
}

// NewMediaPipeDetector locates the interpreter and bridge script. It fails with
// ErrServiceNotFound when no script exists; nothing is started yet.
func NewMediaPipeDetector(cfg Config) (*MediaPipeDetector, error) {
	script := cfg.Script
	if script == "" {
		script = firstExisting(searchPaths(filepath.Join("scripts", bridgeScript)))
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}

	python := cfg.Python
	if python == "" {
		python = firstExisting(searchPaths(filepath.Join("venv", "bin", "python")))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{python: python, script: script, args: cfg.args()}, nil
}

func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		proc, err := startBridge(d.python, d.script, d.args)
		if err != nil {
			return nil, err
		}
		d.proc = proc
		log.WithFields(log.Fields{"python": d.python, "script": d.script}).Info("MediaPipe bridge started")
	}

	if err := writeFrame(d.proc.in, buf.GetBytes()); err != nil {
		return nil, err
	}
	hands, err := readHands(d.proc.out)
	if err != nil {
		return nil, err
	}

	d.armIdle()
	return hands, nil
}

// Close stops the bridge if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}
	err := d.proc.stop()
	d.proc = nil
	return err
}

func (d *MediaPipeDetector) armIdle() {
	if d.idle != nil {
		d.idle.Reset(IdleShutdown)
		return
	}
	d.idle = time.AfterFunc(IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.idle = nil
		if err := d.stopLocked(); err != nil {
			log.WithError(err).Debug("MediaPipe bridge exited")
		}
		log.Debug("MediaPipe bridge stopped after idle period")
	})
}

// searchPaths lists rel under the working directory, its parent, the
// executable's directory and ~/.handtune, in that order.
func searchPaths(rel string) []string {
	paths := []string{rel, filepath.Join("..", rel)}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".handtune", rel))
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
