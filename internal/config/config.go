// Package config loads handtune settings from an optional YAML file, HANDTUNE_*
// environment variables and a .env file holding secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Playback backends.
const (
	BackendSpotify = "spotify"
	BackendPlugin  = "plugin"
)

// ErrMissingCredentials is returned when the Spotify backend is selected but
// the client credentials are incomplete.
var ErrMissingCredentials = errors.New("missing Spotify credentials: set SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_REDIRECT_URI")

// Config is the full application configuration.
type Config struct {
	Camera     CameraConfig     `mapstructure:"camera"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Gesture    GestureConfig    `mapstructure:"gesture"`
	Message    MessageConfig    `mapstructure:"message"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	Window     WindowConfig     `mapstructure:"window"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Playback   PlaybackConfig   `mapstructure:"playback"`
	Spotify    SpotifyConfig    `mapstructure:"spotify"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

type CameraConfig struct {
	Device int  `mapstructure:"device"`
	Width  int  `mapstructure:"width"`
	Height int  `mapstructure:"height"`
	FPS    int  `mapstructure:"fps"`
	Mirror bool `mapstructure:"mirror"`
}

type DetectorConfig struct {
	MaxHands              int     `mapstructure:"max_hands"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	MinTrackingConfidence float64 `mapstructure:"min_tracking_confidence"`
	// Python and Script override MediaPipe bridge discovery.
	Python string `mapstructure:"python"`
	Script string `mapstructure:"script"`
}

type GestureConfig struct {
	PinchThreshold float64       `mapstructure:"pinch_threshold"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
}

type MessageConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

type LayoutConfig struct {
	// File is a YAML layout; empty selects the built-in buttons.
	File string `mapstructure:"file"`
}

type WindowConfig struct {
	// ScreenWidth and ScreenHeight center the window on that screen; X and Y
	// place it when no screen size is set.
	X            int `mapstructure:"x"`
	Y            int `mapstructure:"y"`
	ScreenWidth  int `mapstructure:"screen_width"`
	ScreenHeight int `mapstructure:"screen_height"`
}

type RecognizerConfig struct {
	Duration   time.Duration `mapstructure:"duration"`
	SampleRate int           `mapstructure:"sample_rate"`
	Channels   int           `mapstructure:"channels"`
	// Command overrides the platform capture command.
	Command  []string `mapstructure:"command"`
	Endpoint string   `mapstructure:"endpoint"`
	APIToken string   `mapstructure:"api_token"`
}

type PlaybackConfig struct {
	Backend    string        `mapstructure:"backend"`
	PluginDir  string        `mapstructure:"plugin_dir"`
	Plugin     string        `mapstructure:"plugin"`
	Timeout    time.Duration `mapstructure:"timeout"`
	VolumeStep int           `mapstructure:"volume_step"`
}

type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	APIURL       string `mapstructure:"api_url"`
	TokenDB      string `mapstructure:"token_db"`
}

type ServerConfig struct {
	// Addr enables the status server when non-empty.
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Options select where configuration is read from.
type Options struct {
	// ConfigFile is an explicit config path; empty searches . and ~/.handtune.
	ConfigFile string
	// EnvFile is loaded into the environment first; a missing file is ignored.
	EnvFile string
}

// secretEnv maps config keys to their unprefixed environment variables.
var secretEnv = map[string]string{
	"spotify.client_id":     "SPOTIFY_CLIENT_ID",
	"spotify.client_secret": "SPOTIFY_CLIENT_SECRET",
	"spotify.redirect_uri":  "SPOTIFY_REDIRECT_URI",
	"recognizer.api_token":  "AUDD_API_TOKEN",
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.width", 1280)
	v.SetDefault("camera.height", 720)
	v.SetDefault("camera.fps", 30)
	v.SetDefault("camera.mirror", true)

	v.SetDefault("detector.max_hands", 2)
	v.SetDefault("detector.min_confidence", 0.7)
	v.SetDefault("detector.min_tracking_confidence", 0.7)
	v.SetDefault("detector.python", "")
	v.SetDefault("detector.script", "")

	v.SetDefault("gesture.pinch_threshold", 0.03)
	v.SetDefault("gesture.cooldown", 500*time.Millisecond)

	v.SetDefault("message.duration", 10*time.Second)

	v.SetDefault("layout.file", "")

	v.SetDefault("window.x", 0)
	v.SetDefault("window.y", 0)
	v.SetDefault("window.screen_width", 0)
	v.SetDefault("window.screen_height", 0)

	v.SetDefault("recognizer.duration", 10*time.Second)
	v.SetDefault("recognizer.sample_rate", 44100)
	v.SetDefault("recognizer.channels", 1)
	v.SetDefault("recognizer.command", []string{})
	v.SetDefault("recognizer.endpoint", "https://api.audd.io/")

	v.SetDefault("playback.backend", BackendSpotify)
	v.SetDefault("playback.plugin_dir", filepath.Join(home, ".handtune", "plugins"))
	v.SetDefault("playback.plugin", "media-keys")
	v.SetDefault("playback.timeout", 5*time.Second)
	v.SetDefault("playback.volume_step", 10)

	v.SetDefault("spotify.api_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.token_db", filepath.Join(home, ".handtune", "handtune.db"))

	v.SetDefault("server.addr", "")
	v.SetDefault("log.level", "info")
}

// Load reads configuration. It fails with ErrMissingCredentials when the
// Spotify backend lacks credentials.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HANDTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range secretEnv {
		if err := v.BindEnv(key, "HANDTUNE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("handtune")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.handtune")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Spotify.TokenDB = expandHome(cfg.Spotify.TokenDB)
	cfg.Playback.PluginDir = expandHome(cfg.Playback.PluginDir)
	cfg.Layout.File = expandHome(cfg.Layout.File)
	cfg.Detector.Script = expandHome(cfg.Detector.Script)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	switch c.Playback.Backend {
	case BackendSpotify:
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RedirectURI == "" {
			return ErrMissingCredentials
		}
	case BackendPlugin:
		if c.Playback.Plugin == "" {
			return errors.New("playback.plugin must name a plugin")
		}
	default:
		return fmt.Errorf("unknown playback backend %q", c.Playback.Backend)
	}

	if c.Gesture.PinchThreshold <= 0 {
		return fmt.Errorf("gesture.pinch_threshold must be positive, got %v", c.Gesture.PinchThreshold)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
