package producer

import (
	"context"
	"image"
	"time"

	"github.com/rs/zerolog/log"
)

// SpeakerOptions configures the synthetic speaker
type SpeakerOptions struct {
	ToneHz         float64
	WaveformWidth  int
	WaveformHeight int
	WaveformFPS    int
}

// Speaker plays a synthetic tone and publishes a waveform of what it plays
type Speaker struct {
	opts     SpeakerOptions
	tone     *toneGenerator
	waveform Latest[image.Image]
}

// NewSpeaker creates a speaker with defaults applied to zero options
func NewSpeaker(opts SpeakerOptions) *Speaker {
	if opts.ToneHz <= 0 {
		opts.ToneHz = 220
	}
	if opts.WaveformWidth <= 0 {
		opts.WaveformWidth = 640
	}
	if opts.WaveformHeight <= 0 {
		opts.WaveformHeight = 160
	}
	if opts.WaveformFPS <= 0 {
		opts.WaveformFPS = 10
	}
	opts.WaveformFPS = min(opts.WaveformFPS, MaxFPS)
	return &Speaker{
		opts: opts,
		tone: newToneGenerator(opts.ToneHz, 0.8),
	}
}

// Run renders playback waveforms until ctx is cancelled
func (s *Speaker) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.opts.WaveformFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	samples := int(time.Duration(s.tone.format.SampleRate) * interval / time.Second)
	window := make([]byte, s.tone.chunkSize(samples))

	log.Info().Float64("tone_hz", s.opts.ToneHz).Int("fps", s.opts.WaveformFPS).Msg("Speaker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Speaker stopped")
			return nil
		case <-ticker.C:
		}

		s.tone.fill(window)
		s.PublishWaveform(RenderWaveform(window, int(s.tone.format.Channels), s.opts.WaveformWidth, s.opts.WaveformHeight))
	}
}

// Waveform blocks until the next waveform rendering is published and returns it
func (s *Speaker) Waveform(ctx context.Context) (image.Image, error) {
	return s.waveform.Await(ctx)
}

// PublishWaveform replaces the current waveform rendering
func (s *Speaker) PublishWaveform(img image.Image) {
	s.waveform.Publish(img)
}

// FramesPublished returns how many waveform renderings have been published
func (s *Speaker) FramesPublished() uint64 {
	return s.waveform.Seq()
}
