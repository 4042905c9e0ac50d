// Command handtune controls music playback with hand gestures seen by a webcam.
package main

import (
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/handtune/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func init() {
	// HighGUI windows must be driven from the main thread.
	runtime.LockOSThread()
}

type rootFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "handtune",
		Short:         "Control music playback with hand gestures",
		Long:          "handtune shows the webcam feed with on-screen buttons. Pinch over a button to play, pause, skip, or identify the song playing nearby.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return report(err)
			}
			return report(run(cmd.Context(), cfg))
		},
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default ./handtune.yaml or ~/.handtune/handtune.yaml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "file with SPOTIFY_* and AUDD_API_TOKEN secrets")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(newAuthCmd(flags), newPluginsCmd(flags), newVersionCmd())
	return root
}

func newAuthCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize handtune with your Spotify account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return report(err)
			}
			return report(authorize(cmd.Context(), cfg, cmd.OutOrStdout()))
		},
	}
}

func newPluginsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List playback plugins found in playback.plugin_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return report(err)
			}
			return report(listPlugins(cfg, cmd.OutOrStdout()))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "handtune %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
		},
	}
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	if flags.logLevel != "" {
		os.Setenv("HANDTUNE_LOG_LEVEL", flags.logLevel)
	}

	cfg, err := config.Load(config.Options{
		ConfigFile: flags.configFile,
		EnvFile:    flags.envFile,
	})
	if err != nil {
		return nil, err
	}

	setupLogging(cfg.Log.Level)
	return cfg, nil
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// report logs err once; cobra's own printing is silenced.
func report(err error) error {
	if err != nil {
		log.WithError(err).Error("handtune failed")
	}
	return err
}
