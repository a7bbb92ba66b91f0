// Package cmd implements the streamer command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"streamer/pkg/config"
)

// Version is set at build time with -ldflags "-X streamer/internal/cmd.Version=..."
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "streamer",
	Short: "Live camera, audio and waveform streams over HTTP",
	Long: `streamer serves live media as never-ending HTTP bodies:
multipart/x-mixed-replace JPEG and PNG image streams for the camera and the
speaker and microphone waveforms, and a streaming WAV for microphone audio.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./streamer.yaml, ./config/streamer.yaml or /etc/streamer/streamer.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace|debug|info|warn|error)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd, tokenCmd, statusCmd, versionCmd)
}

// loadConfig loads the service configuration and applies flag overrides
func loadConfig() (*config.Config, string, error) {
	configFile := cfgFile
	if configFile == "" {
		configFile = config.FindConfigFile(config.ServiceName)
	}
	envFile := config.FindEnvironmentFile(config.ServiceName)

	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, "", err
	}

	if level := viper.GetString("log.level"); level != "" {
		cfg.Log.Level = level
	}
	if listen := viper.GetString("server.listen"); listen != "" {
		if err := cfg.SetListenAddress(listen); err != nil {
			return nil, "", err
		}
	}

	return cfg, configFile, nil
}
