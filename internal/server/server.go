// Package server routes HTTP requests to stream drivers.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"streamer/internal/auth"
	"streamer/internal/metrics"
	"streamer/internal/stream"
	"streamer/internal/wire"
)

// Microphone is the audio producer: raw PCM plus its waveform
type Microphone interface {
	stream.AudioSource
	stream.WaveformSource
}

// Options wires producers and settings into a Server
type Options struct {
	Camera     stream.Camera
	Microphone Microphone
	Speaker    stream.WaveformSource
	Registry   *stream.Registry

	JPEGQuality      int
	WaveformPartType string
	WebSocketEnabled bool
	ViewerEnabled    bool
	MetricsEnabled   bool
	AllowedOrigins   []string

	// JWTManager enables token auth on stream routes when non-nil
	JWTManager *auth.JWTManager

	Version string
}

// route binds a URL path to a driver
type route struct {
	title    string
	path     string
	driver   stream.Driver
	partType string
}

// Server serves the stream endpoints
type Server struct {
	opts      Options
	routes    []route
	upgrader  websocket.Upgrader
	startedAt time.Time
}

// New creates a server. Options.Registry is created when nil.
func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = stream.NewRegistry()
	}
	if opts.WaveformPartType == "" {
		opts.WaveformPartType = wire.PartContentType
	}

	s := &Server{
		opts:      opts,
		startedAt: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	s.routes = []route{
		{
			title:    "Camera",
			path:     "/video",
			driver:   stream.NewVideoDriver(opts.Camera, opts.JPEGQuality),
			partType: wire.PartContentType,
		},
		{
			title:  "Microphone",
			path:   "/audio",
			driver: stream.NewAudioDriver(opts.Microphone),
		},
		{
			title:    "Speaker waveform",
			path:     "/speaker/waveform",
			driver:   stream.NewSpeakerWaveformDriver(opts.Speaker),
			partType: opts.WaveformPartType,
		},
		{
			title:    "Microphone waveform",
			path:     "/microphone/waveform",
			driver:   stream.NewMicrophoneWaveformDriver(opts.Microphone),
			partType: opts.WaveformPartType,
		},
	}
	return s
}

// Registry returns the registry of running streams
func (s *Server) Registry() *stream.Registry {
	return s.opts.Registry
}

// streamHandler serves one driver over a plain HTTP response
func (s *Server) streamHandler(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Type", rt.driver.ContentType())
		h.Set("Cache-Control", "no-cache, no-store")
		h.Set("Pragma", "no-cache")
		if r.ProtoMajor == 1 {
			h.Set("Connection", "close")
		}
		w.WriteHeader(http.StatusOK)

		s.run(r.Context(), rt.driver, stream.NewHTTPOutput(w, rt.partType), stream.TransportHTTP, r.RemoteAddr)
	}
}

// webSocketHandler serves one driver over a websocket connection
func (s *Server) webSocketHandler(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		// Hijacked connections do not cancel the request context, so the
		// read side watches for the client going away
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go func() {
			for {
				if _, _, err := conn.NextReader(); err != nil {
					cancel()
					return
				}
			}
		}()

		s.run(ctx, rt.driver, stream.NewWebSocketOutput(conn), stream.TransportWebSocket, r.RemoteAddr)

		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}
}

// run drives one client stream to completion and records its outcome
func (s *Server) run(ctx context.Context, d stream.Driver, out stream.Output, transport, remoteAddr string) {
	entry := s.opts.Registry.Open(d.Kind(), transport, remoteAddr)
	logger := log.With().
		Str("stream_id", entry.ID()).
		Str("kind", string(d.Kind())).
		Str("transport", transport).
		Str("remote", remoteAddr).
		Logger()

	logger.Info().Msg("Stream started")

	err := d.Stream(ctx, stream.Metered(out, entry))

	info, _ := s.opts.Registry.Close(entry.ID())
	outcome := stream.Outcome(err)
	duration := time.Since(info.StartedAt)

	metrics.StreamsTotal.WithLabelValues(string(d.Kind()), transport, outcome).Inc()
	metrics.StreamDuration.WithLabelValues(string(d.Kind())).Observe(duration.Seconds())

	var ev *zerolog.Event
	switch outcome {
	case "closed", "canceled", "write_error":
		ev = logger.Info()
	default:
		ev = logger.Error()
	}
	ev.Err(err).
		Str("outcome", outcome).
		Uint64("frames", info.FramesWritten).
		Uint64("bytes", info.BytesWritten).
		Dur("duration", duration).
		Msg("Stream ended")
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || originAllowed(s.opts.AllowedOrigins, origin)
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
