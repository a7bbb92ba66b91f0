package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"streamer/internal/auth"
	"streamer/internal/metrics"
	"streamer/internal/producer"
	"streamer/internal/server"
	"streamer/internal/stream"
	"streamer/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stream server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address host:port (default from server.host and server.port)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, configFile, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configureLogging(cfg.Log)

	log.Info().Str("version", Version).Msg("Starting streamer")
	log.Info().Str("config_file", configFile).Msg("Configuration loaded")
	log.Info().
		Str("log_level", cfg.Log.Level).
		Bool("debug", cfg.Log.Debug).
		Msg("Log level configured")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp(cfg).Run(ctx)
}

// configureLogging applies the level and picks console or JSON output
func configureLogging(c config.LogConfig) {
	c.ConfigureZerolog()
	if strings.EqualFold(c.Format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// app owns the producers, the HTTP server and the metrics collector
type app struct {
	cfg        *config.Config
	camera     *producer.Camera
	microphone *producer.Microphone
	speaker    *producer.Speaker
	registry   *stream.Registry
	collector  *metrics.Collector
	handler    http.Handler
}

func newApp(cfg *config.Config) *app {
	a := &app{
		cfg: cfg,
		camera: producer.NewCamera(producer.CameraOptions{
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Camera.FPS,
		}),
		microphone: producer.NewMicrophone(producer.MicrophoneOptions{
			ToneHz:           cfg.Microphone.ToneHz,
			ChunkDuration:    cfg.Microphone.ChunkDuration,
			SubscriberBuffer: cfg.Microphone.SubscriberBuffer,
			WaveformWidth:    cfg.Microphone.WaveformWidth,
			WaveformHeight:   cfg.Microphone.WaveformHeight,
			WaveformFPS:      cfg.Microphone.WaveformFPS,
		}),
		speaker: producer.NewSpeaker(producer.SpeakerOptions{
			ToneHz:         cfg.Speaker.ToneHz,
			WaveformWidth:  cfg.Speaker.WaveformWidth,
			WaveformHeight: cfg.Speaker.WaveformHeight,
			WaveformFPS:    cfg.Speaker.WaveformFPS,
		}),
		registry: stream.NewRegistry(),
	}

	var jwtManager *auth.JWTManager
	if cfg.Auth.Enabled() {
		jwtManager = auth.NewJWTManager(cfg.Auth.JWTSecretKey)
	}

	srv := server.New(server.Options{
		Camera:           a.camera,
		Microphone:       a.microphone,
		Speaker:          a.speaker,
		Registry:         a.registry,
		JPEGQuality:      cfg.Streams.JPEGQuality,
		WaveformPartType: cfg.Streams.WaveformPartType,
		WebSocketEnabled: cfg.Streams.WebSocketEnabled,
		ViewerEnabled:    cfg.Server.ViewerEnabled,
		MetricsEnabled:   cfg.Metrics.Enabled,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		JWTManager:       jwtManager,
		Version:          Version,
	})
	a.handler = srv.Handler()

	if cfg.Metrics.Enabled {
		kinds := make([]string, 0, len(stream.Kinds()))
		for _, k := range stream.Kinds() {
			kinds = append(kinds, string(k))
		}
		a.collector = metrics.NewCollector(a.registry, kinds, cfg.Metrics.CollectInterval).
			WithProducer("camera", a.camera).
			WithProducer("speaker", a.speaker).
			WithMicrophone(a.microphone)
	}

	return a
}

// Run serves until ctx is cancelled or a component fails, then shuts the
// server down and waits for every stream to end
func (a *app) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.camera.Run(ctx) })
	g.Go(func() error { return a.microphone.Run(ctx) })
	g.Go(func() error { return a.speaker.Run(ctx) })

	if a.collector != nil {
		g.Go(func() error {
			a.collector.Start(ctx)
			return nil
		})
	}

	// Streams never finish on their own, so request contexts derive from
	// ctx and end with it
	httpServer := &http.Server{
		Addr:              a.cfg.GetListenAddress(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if a.cfg.TLS.Enabled {
		httpServer.Handler = a.handler
	} else {
		httpServer.Handler = h2c.NewHandler(a.handler, &http2.Server{})
	}

	g.Go(func() error {
		log.Info().
			Str("address", a.cfg.GetListenAddress()).
			Bool("tls", a.cfg.TLS.Enabled).
			Bool("auth", a.cfg.Auth.Enabled()).
			Bool("websocket", a.cfg.Streams.WebSocketEnabled).
			Str("waveform_part_type", a.cfg.Streams.WaveformPartType).
			Msg("Starting stream server")
		log.Info().Msgf("Viewer: http://%s/", a.cfg.GetListenAddress())

		var err error
		if a.cfg.TLS.Enabled {
			err = httpServer.ListenAndServeTLS(a.cfg.TLS.CertFile, a.cfg.TLS.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down stream server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Streamer stopped")
	return nil
}
