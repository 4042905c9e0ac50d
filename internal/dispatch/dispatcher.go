package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/handtune/internal/message"
	"github.com/ayusman/handtune/internal/recognize"
)

// Status texts written to the message store by Find.
const (
	ListeningText     = "Listening ..."
	NotRecognizedText = "Song not recognized."
	UnavailableText   = "Song recognition unavailable."
)

// DefaultVolumeStep is the percentage a volume command moves by.
const DefaultVolumeStep = 10

// Player is the remote playback service.
type Player interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SearchAndPlay(ctx context.Context, query string) error
	Like(ctx context.Context) error
	VolumeUp(ctx context.Context, step int) error
	VolumeDown(ctx context.Context, step int) error
}

// Recognizer records ambient audio and identifies the song.
type Recognizer interface {
	CaptureAndRecognize(ctx context.Context, d time.Duration) (*recognize.Song, error)
}

// Config tunes the dispatcher.
type Config struct {
	// MessageDuration is how long Find status texts stay visible.
	MessageDuration time.Duration
	// ListenDuration is how long Find records for.
	ListenDuration time.Duration
	VolumeStep     int
}

// Dispatcher runs commands without blocking the caller.
type Dispatcher struct {
	player     Player
	recognizer Recognizer
	messages   *message.Store
	spawner    *Spawner
	config     Config

	last          atomic.Int64
	findsInFlight atomic.Int32
}

// New creates a Dispatcher. recognizer may be nil, in which case Find only
// reports that recognition is unavailable.
func New(player Player, recognizer Recognizer, messages *message.Store, spawner *Spawner, config Config) *Dispatcher {
	if config.MessageDuration <= 0 {
		config.MessageDuration = message.DefaultDuration
	}
	if config.ListenDuration <= 0 {
		config.ListenDuration = recognize.DefaultDuration
	}
	if config.VolumeStep <= 0 {
		config.VolumeStep = DefaultVolumeStep
	}
	if spawner == nil {
		spawner = NewSpawner()
	}

	return &Dispatcher{
		player:     player,
		recognizer: recognizer,
		messages:   messages,
		spawner:    spawner,
		config:     config,
	}
}

// Dispatch starts cmd and returns at once with the background task running it.
func (d *Dispatcher) Dispatch(cmd Command) (Task, error) {
	if !cmd.Valid() {
		return Task{}, fmt.Errorf("dispatch: %w", errUnknownCommand(cmd))
	}

	d.last.Store(int64(cmd))
	log.WithField("command", cmd.String()).Info("Command triggered")

	if cmd == Find {
		return d.find(), nil
	}

	action := d.action(cmd)
	return d.spawner.Go(cmd.String(), action), nil
}

// LastCommand returns the most recently dispatched command, or None.
func (d *Dispatcher) LastCommand() Command {
	return Command(d.last.Load())
}

// Spawner returns the task spawner used for background work.
func (d *Dispatcher) Spawner() *Spawner {
	return d.spawner
}

func (d *Dispatcher) action(cmd Command) func(ctx context.Context) error {
	switch cmd {
	case Play:
		return d.player.Play
	case Pause:
		return d.player.Pause
	case Next:
		return d.player.Next
	case Prev:
		return d.player.Previous
	case Like:
		return d.player.Like
	case VolumeUp:
		return func(ctx context.Context) error { return d.player.VolumeUp(ctx, d.config.VolumeStep) }
	case VolumeDown:
		return func(ctx context.Context) error { return d.player.VolumeDown(ctx, d.config.VolumeStep) }
	}
	return func(context.Context) error { return errUnknownCommand(cmd) }
}

// find shows the listening message at once, then records, recognizes and
// plays on a background task. A second Find while one is running is allowed;
// both complete and the later finisher's message wins. Without a recognizer
// it only shows UnavailableText and returns the zero Task.
func (d *Dispatcher) find() Task {
	if d.recognizer == nil {
		d.messages.Set(UnavailableText, d.config.MessageDuration)
		log.Warn("Find ignored: no song recognizer configured")
		return Task{}
	}

	d.messages.Set(ListeningText, d.config.MessageDuration)

	if n := d.findsInFlight.Add(1); n > 1 {
		log.WithField("in_flight", n).Warn("Find started while another recognition is running")
	}

	return d.spawner.Go(Find.String(), func(ctx context.Context) error {
		defer d.findsInFlight.Add(-1)

		text, err := d.recognizeAndPlay(ctx)
		d.messages.Set(text, d.config.MessageDuration)
		return err
	})
}

// recognizeAndPlay returns the message to show and the error, if any.
func (d *Dispatcher) recognizeAndPlay(ctx context.Context) (string, error) {
	song, err := d.recognizer.CaptureAndRecognize(ctx, d.config.ListenDuration)
	if err != nil || song == nil {
		if errors.Is(err, recognize.ErrNoMatch) || song == nil && err == nil {
			log.Info("Could not recognize the song")
			return NotRecognizedText, nil
		}
		return NotRecognizedText, fmt.Errorf("recognize: %w", err)
	}

	fields := log.Fields{"track": song.Track, "artist": song.Artist}
	if err := d.player.SearchAndPlay(ctx, song.Query()); err != nil {
		log.WithFields(fields).WithError(err).Warn("Could not play recognized song")
		return fmt.Sprintf("Could not play: %s", song), fmt.Errorf("search and play: %w", err)
	}

	log.WithFields(fields).Info("Playing recognized song")
	return fmt.Sprintf("Playing: %s", song), nil
}

type errUnknownCommand Command

func (e errUnknownCommand) Error() string {
	return fmt.Sprintf("unknown command %s", Command(e))
}
