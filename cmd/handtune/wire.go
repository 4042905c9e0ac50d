package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/handtune/internal/app"
	"github.com/ayusman/handtune/internal/capture"
	"github.com/ayusman/handtune/internal/config"
	"github.com/ayusman/handtune/internal/detector"
	"github.com/ayusman/handtune/internal/dispatch"
	"github.com/ayusman/handtune/internal/gesture"
	"github.com/ayusman/handtune/internal/hud"
	"github.com/ayusman/handtune/internal/message"
	"github.com/ayusman/handtune/internal/playback"
	"github.com/ayusman/handtune/internal/plugin"
	"github.com/ayusman/handtune/internal/recognize"
	"github.com/ayusman/handtune/internal/server"
	"github.com/ayusman/handtune/internal/spotify"
	"github.com/ayusman/handtune/internal/store"
)

// run wires every component and blocks in the frame loop.
func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	player, closePlayer, err := newPlayer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePlayer()

	messages := message.NewStore()
	spawner := dispatch.NewSpawner()

	var hub *server.Hub
	var frames *server.FrameBroadcaster
	if cfg.Server.Addr != "" {
		hub = server.NewHub()
		frames = server.NewFrameBroadcaster()
		spawner.OnFinish = func(task dispatch.Task, err error) {
			hub.Publish(app.TaskEvent(task, err))
		}
	}

	dispatcher := dispatch.New(player, newRecognizer(cfg), messages, spawner, dispatch.Config{
		MessageDuration: cfg.Message.Duration,
		ListenDuration:  cfg.Recognizer.Duration,
		VolumeStep:      cfg.Playback.VolumeStep,
	})

	var layout func(width, height int) (*hud.Layout, error)
	if cfg.Layout.File != "" {
		tmpl, err := hud.ReadLayoutTemplate(cfg.Layout.File)
		if err != nil {
			return err
		}
		layout = tmpl.Build
		log.WithFields(log.Fields{"file": cfg.Layout.File, "regions": tmpl.Len(), "relative": tmpl.Relative()}).Info("Loaded button layout")
	}

	// The window is opened last; app.Run closes it on every path.
	appCfg := app.Config{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.Camera.Device,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
			Mirror:   cfg.Camera.Mirror,
		}),
		Detector:   newDetector(cfg),
		Dispatcher: dispatcher,
		Messages:   messages,
		Layout:     layout,
		Classifier: gesture.NewClassifier(cfg.Gesture.PinchThreshold),
		Cooldown:   cfg.Gesture.Cooldown,
		Display: hud.NewWindow(hud.WindowTitle, hud.Placement{
			X:            cfg.Window.X,
			Y:            cfg.Window.Y,
			ScreenWidth:  cfg.Window.ScreenWidth,
			ScreenHeight: cfg.Window.ScreenHeight,
		}),
	}

	if hub != nil {
		appCfg.Events = hub
		appCfg.Frames = frames
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	if cfg.Server.Addr != "" {
		srv := server.New(server.Config{Status: a, Frames: frames, Events: hub})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.WithError(err).Error("Status server failed")
			}
		}()
	}

	return a.Run(ctx)
}

// newPlayer builds the configured playback backend and its cleanup.
func newPlayer(ctx context.Context, cfg *config.Config) (dispatch.Player, func(), error) {
	if cfg.Playback.Backend == config.BackendPlugin {
		p, err := playback.NewPluginPlayer(
			plugin.NewManager(cfg.Playback.PluginDir),
			plugin.NewExecutor(cfg.Playback.Timeout),
			cfg.Playback.Plugin,
		)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("plugin", p.Name()).Info("Using plugin playback")
		return p, func() {}, nil
	}

	st, err := store.New(cfg.Spotify.TokenDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open token store: %w", err)
	}
	closeStore := func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("Error closing token store")
		}
	}

	auth := newAuthenticator(cfg, st)
	tok, err := auth.CachedToken()
	if errors.Is(err, spotify.ErrNoToken) {
		tok, err = auth.Authorize(ctx, os.Stdout)
	}
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	log.Info("Using Spotify playback")
	return spotify.NewClient(auth.HTTPClient(ctx, tok), cfg.Spotify.APIURL), closeStore, nil
}

func newAuthenticator(cfg *config.Config, st *store.Store) *spotify.Authenticator {
	return spotify.NewAuthenticator(spotify.AuthConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURI:  cfg.Spotify.RedirectURI,
	}, st.Settings(), store.ErrNotFound)
}

// newRecognizer returns nil when no AudD token is configured; Find then
// reports that recognition is unavailable.
func newRecognizer(cfg *config.Config) dispatch.Recognizer {
	if cfg.Recognizer.APIToken == "" {
		log.Warn("AUDD_API_TOKEN not set, song recognition disabled")
		return nil
	}

	recorder := recognize.NewCommandRecorder(cfg.Recognizer.Command, cfg.Recognizer.SampleRate, cfg.Recognizer.Channels)
	log.WithField("command", recorder.Command[0]).Debug("Audio recorder configured")

	return recognize.New(recorder, recognize.NewAudDClient(cfg.Recognizer.Endpoint, cfg.Recognizer.APIToken))
}

func newDetector(cfg *config.Config) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.Detector.MaxHands,
		MinConfidence:   cfg.Detector.MinConfidence,
		MinTrackingConf: cfg.Detector.MinTrackingConfidence,
		Python:          cfg.Detector.Python,
		Script:          cfg.Detector.Script,
	})
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, hand detection disabled")
		return detector.NewMockDetector()
	}
	log.Info("Using MediaPipe hand detection")
	return mp
}

// authorize runs the Spotify authorization flow and caches the token.
func authorize(ctx context.Context, cfg *config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Spotify.TokenDB)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	defer st.Close()

	if _, err := newAuthenticator(cfg, st).Authorize(ctx, out); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", st.Path())
	return nil
}

func listPlugins(cfg *config.Config, out io.Writer) error {
	manager := plugin.NewManager(cfg.Playback.PluginDir)
	if err := manager.Discover(); err != nil {
		return err
	}

	plugins := manager.List()
	if len(plugins) == 0 {
		fmt.Fprintf(out, "No plugins in %s\n", manager.PluginDir())
		return nil
	}
	for _, p := range plugins {
		fmt.Fprintf(out, "%-16s %-8s %s\n", p.Manifest.Name, p.Manifest.Version, p.Manifest.Description)
	}
	return nil
}
