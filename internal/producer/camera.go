package producer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"streamer/internal/codec"
)

// CameraOptions configures the synthetic camera
type CameraOptions struct {
	Width  int
	Height int
	FPS    int
}

// MaxFPS is the highest rate a producer ticks at. Higher settings are
// clamped so the tick interval stays positive.
const MaxFPS = 1000

// Camera publishes BGR test-pattern frames at a fixed rate
type Camera struct {
	opts      CameraOptions
	frames    Latest[*codec.Frame]
	published atomic.Uint64
}

// NewCamera creates a camera. Non-positive options fall back to 640x480 at 15 fps.
func NewCamera(opts CameraOptions) *Camera {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	if opts.FPS <= 0 {
		opts.FPS = 15
	}
	opts.FPS = min(opts.FPS, MaxFPS)
	return &Camera{opts: opts}
}

// Run generates frames until ctx is cancelled
func (c *Camera) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.opts.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().
		Int("width", c.opts.Width).
		Int("height", c.opts.Height).
		Int("fps", c.opts.FPS).
		Msg("Camera started")

	var n uint64
	for {
		c.Publish(testPattern(c.opts.Width, c.opts.Height, n))
		n++

		select {
		case <-ctx.Done():
			log.Info().Uint64("frames", c.published.Load()).Msg("Camera stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Publish makes frame the current frame. The camera takes ownership of it.
func (c *Camera) Publish(frame *codec.Frame) {
	c.frames.Publish(frame)
	c.published.Add(1)
}

// CurrentFrame blocks until the camera publishes its next frame and returns it.
// Every caller waiting at the same time receives the same frame.
func (c *Camera) CurrentFrame(ctx context.Context) (*codec.Frame, error) {
	return c.frames.Await(ctx)
}

// FramesPublished returns the number of frames published since start
func (c *Camera) FramesPublished() uint64 {
	return c.published.Load()
}

// testPattern renders vertical color bars with a sweeping bright column
func testPattern(width, height int, n uint64) *codec.Frame {
	bars := [][3]byte{
		{0xC0, 0xC0, 0xC0}, // white
		{0x00, 0xC0, 0xC0}, // yellow
		{0xC0, 0xC0, 0x00}, // cyan
		{0x00, 0xC0, 0x00}, // green
		{0xC0, 0x00, 0xC0}, // magenta
		{0x00, 0x00, 0xC0}, // red
		{0xC0, 0x00, 0x00}, // blue
	}

	stride := width * 3
	pix := make([]byte, stride*height)
	sweep := int(n % uint64(width))

	for x := 0; x < width; x++ {
		bar := bars[x*len(bars)/width]
		if x == sweep {
			bar = [3]byte{0xFF, 0xFF, 0xFF}
		}
		for y := 0; y < height; y++ {
			off := y*stride + x*3
			pix[off], pix[off+1], pix[off+2] = bar[0], bar[1], bar[2]
		}
	}

	return &codec.Frame{
		Width:    width,
		Height:   height,
		Channels: 3,
		Stride:   stride,
		Pix:      pix,
	}
}
