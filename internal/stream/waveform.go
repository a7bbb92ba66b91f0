package stream

import (
	"context"
	"image"

	"streamer/internal/codec"
	"streamer/internal/wire"
)

// WaveformSource produces rendered waveform images
type WaveformSource interface {
	Waveform(ctx context.Context) (image.Image, error)
}

// WaveformDriver streams waveform renderings as PNG parts
type WaveformDriver struct {
	kind   Kind
	source WaveformSource
}

// NewSpeakerWaveformDriver streams the speaker's playback waveform
func NewSpeakerWaveformDriver(source WaveformSource) *WaveformDriver {
	return &WaveformDriver{kind: KindSpeakerWaveform, source: source}
}

// NewMicrophoneWaveformDriver streams the microphone's capture waveform
func NewMicrophoneWaveformDriver(source WaveformSource) *WaveformDriver {
	return &WaveformDriver{kind: KindMicrophoneWaveform, source: source}
}

func (d *WaveformDriver) Kind() Kind { return d.kind }

func (d *WaveformDriver) ContentType() string { return wire.MultipartContentType }

// Stream pulls, encodes and pushes waveform images until failure
func (d *WaveformDriver) Stream(ctx context.Context, out Output) error {
	enc := codec.NewEncoder(0)

	return pushLoop(ctx, out, func(ctx context.Context) ([]byte, error) {
		img, err := d.source.Waveform(ctx)
		if err != nil {
			return nil, err
		}
		return enc.PNG(img)
	})
}
