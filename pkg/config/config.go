package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName prefixes service-specific environment overrides (STREAMER_*)
// and names the config files searched for
const ServiceName = "streamer"

// MaxFPS bounds the configured camera and waveform frame rates
const MaxFPS = 240

// Part content types a waveform stream may declare
const (
	PartTypeJPG = "image/jpg"
	PartTypePNG = "image/png"
)

// Config contains all configuration for the streamer service
type Config struct {
	// Logging configuration
	Log LogConfig `yaml:"log"`

	// HTTP listener
	Server ServerConfig `yaml:"server"`

	// Stream encoding and transports
	Streams StreamsConfig `yaml:"streams"`

	// Producers
	Camera     CameraConfig     `yaml:"camera"`
	Microphone MicrophoneConfig `yaml:"microphone"`
	Speaker    SpeakerConfig    `yaml:"speaker"`

	// Stream token authentication
	Auth AuthConfig `yaml:"auth"`

	// Prometheus metrics
	Metrics MetricsConfig `yaml:"metrics"`

	// TLS configuration
	TLS TLSConfig `yaml:"tls"`
}

// LogConfig configures logging behavior
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" default:"console"`
	Debug  bool   `yaml:"debug" env:"DEBUG" default:"false"`
}

// ConfigureZerolog sets the global zerolog level from the log configuration
func (c *LogConfig) ConfigureZerolog() {
	level := zerolog.InfoLevel
	if c.Debug {
		level = zerolog.DebugLevel
	} else {
		switch strings.ToLower(c.Level) {
		case "trace":
			level = zerolog.TraceLevel
		case "debug":
			level = zerolog.DebugLevel
		case "info":
			level = zerolog.InfoLevel
		case "warn", "warning":
			level = zerolog.WarnLevel
		case "error":
			level = zerolog.ErrorLevel
		case "fatal":
			level = zerolog.FatalLevel
		case "panic":
			level = zerolog.PanicLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host            string        `yaml:"host" env:"STREAMER_HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"STREAMER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" default:"*"`
	ViewerEnabled   bool          `yaml:"viewer_enabled" default:"true"`
}

// StreamsConfig configures stream encoding and transports
type StreamsConfig struct {
	JPEGQuality      int    `yaml:"jpeg_quality" default:"80"`
	WaveformPartType string `yaml:"waveform_part_type" default:"image/jpg"`
	WebSocketEnabled bool   `yaml:"websocket_enabled" default:"true"`
}

// CameraConfig configures the test-pattern camera
type CameraConfig struct {
	Width  int `yaml:"width" default:"640"`
	Height int `yaml:"height" default:"480"`
	FPS    int `yaml:"fps" default:"15"`
}

// MicrophoneConfig configures the tone-generating microphone
type MicrophoneConfig struct {
	ToneHz           float64       `yaml:"tone_hz" default:"440"`
	ChunkDuration    time.Duration `yaml:"chunk_duration" default:"20ms"`
	SubscriberBuffer int           `yaml:"subscriber_buffer" default:"64"`
	WaveformWidth    int           `yaml:"waveform_width" default:"640"`
	WaveformHeight   int           `yaml:"waveform_height" default:"160"`
	WaveformFPS      int           `yaml:"waveform_fps" default:"10"`
}

// SpeakerConfig configures the tone-playing speaker
type SpeakerConfig struct {
	ToneHz         float64 `yaml:"tone_hz" default:"220"`
	WaveformWidth  int     `yaml:"waveform_width" default:"640"`
	WaveformHeight int     `yaml:"waveform_height" default:"160"`
	WaveformFPS    int     `yaml:"waveform_fps" default:"10"`
}

// AuthConfig configures stream tokens. An empty secret disables auth.
type AuthConfig struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" default:"24h"`
}

// Enabled reports whether stream routes require a token
func (c *AuthConfig) Enabled() bool {
	return c.JWTSecretKey != ""
}

// MetricsConfig configures the Prometheus endpoint and collector
type MetricsConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	CollectInterval time.Duration `yaml:"collect_interval" default:"15s"`
}

// TLSConfig contains TLS configuration
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Load loads the streamer configuration from multiple sources
func Load(configFile, envFile string) (*Config, error) {
	cfg := &Config{}

	loader := NewConfigLoader(LoaderConfig{
		ConfigFile:      configFile,
		EnvironmentFile: envFile,
		ServiceName:     ServiceName,
	})

	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load streamer configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("streamer configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if c.Streams.JPEGQuality < 1 || c.Streams.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100")
	}

	switch c.Streams.WaveformPartType {
	case PartTypeJPG, PartTypePNG:
	default:
		return fmt.Errorf("waveform part type must be %s or %s, got %q", PartTypeJPG, PartTypePNG, c.Streams.WaveformPartType)
	}

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera dimensions must be positive")
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > MaxFPS {
		return fmt.Errorf("camera fps must be between 1 and %d", MaxFPS)
	}

	if c.Microphone.ChunkDuration <= 0 {
		return fmt.Errorf("microphone chunk duration must be positive")
	}
	if c.Microphone.SubscriberBuffer <= 0 {
		return fmt.Errorf("microphone subscriber buffer must be positive")
	}
	for _, fps := range []int{c.Microphone.WaveformFPS, c.Speaker.WaveformFPS} {
		if fps <= 0 || fps > MaxFPS {
			return fmt.Errorf("waveform fps must be between 1 and %d", MaxFPS)
		}
	}

	if c.Auth.Enabled() && len(c.Auth.JWTSecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}

	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("tls cert_file and key_file are required when tls is enabled")
	}

	return nil
}

// GetListenAddress returns the address the server should listen on
func (c *Config) GetListenAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SetListenAddress overrides host and port from a host:port string
func (c *Config) SetListenAddress(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid listen port %q", portStr)
	}

	c.Server.Host = host
	c.Server.Port = port
	return nil
}
