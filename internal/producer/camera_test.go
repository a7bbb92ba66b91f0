package producer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/codec"
)

func TestNewCamera_Defaults(t *testing.T) {
	cam := NewCamera(CameraOptions{})
	assert.Equal(t, 640, cam.opts.Width)
	assert.Equal(t, 480, cam.opts.Height)
	assert.Equal(t, 15, cam.opts.FPS)
}

func TestProducers_ClampFrameRate(t *testing.T) {
	const huge = 2_000_000_000

	cam := NewCamera(CameraOptions{Width: 4, Height: 4, FPS: huge})
	assert.Equal(t, MaxFPS, cam.opts.FPS)

	spk := NewSpeaker(SpeakerOptions{WaveformFPS: huge})
	assert.Equal(t, MaxFPS, spk.opts.WaveformFPS)

	mic := NewMicrophone(MicrophoneOptions{WaveformFPS: huge})
	assert.Equal(t, MaxFPS, mic.opts.WaveformFPS)

	// Run must not panic on a zero tick interval
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NotPanics(t, func() { _ = cam.Run(ctx) })
}

func TestCamera_CurrentFrameReturnsNextPublish(t *testing.T) {
	cam := NewCamera(CameraOptions{Width: 4, Height: 4, FPS: 1})
	cam.Publish(testPattern(4, 4, 0))

	next := testPattern(4, 4, 1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cam.Publish(next)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frame, err := cam.CurrentFrame(ctx)
	require.NoError(t, err)
	assert.Same(t, next, frame)
	assert.Equal(t, uint64(2), cam.FramesPublished())
}

func TestCamera_RunPublishesEncodableFrames(t *testing.T) {
	cam := NewCamera(CameraOptions{Width: 32, Height: 24, FPS: 200})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go cam.Run(ctx)

	frame, err := cam.CurrentFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, frame.Width)
	assert.Equal(t, 3, frame.Channels)

	_, err = codec.EncodeJPEG(frame, 75)
	assert.NoError(t, err)
}

func TestTestPattern_SweepColumn(t *testing.T) {
	frame := testPattern(10, 2, 3)
	off := 3 * 3
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, frame.Pix[off:off+3])
	assert.Len(t, frame.Pix, 10*2*3)
}
