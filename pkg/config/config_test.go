package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamerConfigLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetListenAddress())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Server.ViewerEnabled)

	assert.Equal(t, 80, cfg.Streams.JPEGQuality)
	assert.Equal(t, PartTypeJPG, cfg.Streams.WaveformPartType)
	assert.True(t, cfg.Streams.WebSocketEnabled)

	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, 480, cfg.Camera.Height)
	assert.Equal(t, 15, cfg.Camera.FPS)

	assert.Equal(t, 440.0, cfg.Microphone.ToneHz)
	assert.Equal(t, 20*time.Millisecond, cfg.Microphone.ChunkDuration)
	assert.Equal(t, 64, cfg.Microphone.SubscriberBuffer)
	assert.Equal(t, 220.0, cfg.Speaker.ToneHz)

	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.TLS.Enabled)
}

func TestStreamerConfigLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	configFile := writeFile(t, dir, "streamer.yaml", `
log:
  level: debug

server:
  host: 127.0.0.1
  port: 9090
  allowed_origins:
    - https://viewer.example.com

streams:
  jpeg_quality: 60
  waveform_part_type: image/png
  websocket_enabled: false

camera:
  width: 320
  height: 240

microphone:
  chunk_duration: 10ms
`)
	t.Setenv("STREAMER_PORT", "8888")
	t.Setenv("STREAMER_CAMERA_FPS", "30")
	t.Setenv("STREAMER_JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load(configFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8888", cfg.GetListenAddress(), "env beats yaml")
	assert.Equal(t, []string{"https://viewer.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.Streams.JPEGQuality)
	assert.Equal(t, PartTypePNG, cfg.Streams.WaveformPartType)
	assert.False(t, cfg.Streams.WebSocketEnabled)
	assert.Equal(t, 320, cfg.Camera.Width)
	assert.Equal(t, 30, cfg.Camera.FPS)
	assert.Equal(t, 10*time.Millisecond, cfg.Microphone.ChunkDuration)
	assert.True(t, cfg.Auth.Enabled())
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("", "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"jpeg quality", func(c *Config) { c.Streams.JPEGQuality = 101 }, "jpeg quality"},
		{"part type", func(c *Config) { c.Streams.WaveformPartType = "image/gif" }, "waveform part type"},
		{"camera size", func(c *Config) { c.Camera.Width = 0 }, "camera dimensions"},
		{"camera fps", func(c *Config) { c.Camera.FPS = 0 }, "camera fps"},
		{"camera fps too high", func(c *Config) { c.Camera.FPS = 2_000_000_000 }, "camera fps"},
		{"chunk duration", func(c *Config) { c.Microphone.ChunkDuration = 0 }, "chunk duration"},
		{"subscriber buffer", func(c *Config) { c.Microphone.SubscriberBuffer = 0 }, "subscriber buffer"},
		{"waveform fps", func(c *Config) { c.Speaker.WaveformFPS = 0 }, "waveform fps"},
		{"waveform fps too high", func(c *Config) { c.Microphone.WaveformFPS = MaxFPS + 1 }, "waveform fps"},
		{"short secret", func(c *Config) { c.Auth.JWTSecretKey = "short" }, "at least 32"},
		{"tls without files", func(c *Config) { c.TLS.Enabled = true }, "cert_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_SetListenAddress(t *testing.T) {
	cfg := &Config{}

	require.NoError(t, cfg.SetListenAddress("localhost:9000"))
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)

	require.NoError(t, cfg.SetListenAddress(":7000"))
	assert.Equal(t, ":7000", cfg.GetListenAddress())

	require.NoError(t, cfg.SetListenAddress("[::1]:8081"))
	assert.Equal(t, "[::1]:8081", cfg.GetListenAddress())

	assert.Error(t, cfg.SetListenAddress("localhost"))
	assert.Error(t, cfg.SetListenAddress("localhost:http"))
	assert.Error(t, cfg.SetListenAddress("localhost:0"))
}

func TestLogConfig_ConfigureZerolog(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	tests := []struct {
		cfg  LogConfig
		want zerolog.Level
	}{
		{LogConfig{Level: "trace"}, zerolog.TraceLevel},
		{LogConfig{Level: "WARNING"}, zerolog.WarnLevel},
		{LogConfig{Level: "error"}, zerolog.ErrorLevel},
		{LogConfig{Level: "bogus"}, zerolog.InfoLevel},
		{LogConfig{Level: "error", Debug: true}, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		tt.cfg.ConfigureZerolog()
		assert.Equal(t, tt.want, zerolog.GlobalLevel(), tt.cfg.Level)
	}
}
