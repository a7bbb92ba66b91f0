package stream

import (
	"context"

	"streamer/internal/codec"
	"streamer/internal/wire"
)

// Camera is the video producer consumed by VideoDriver
type Camera interface {
	CurrentFrame(ctx context.Context) (*codec.Frame, error)
}

// VideoDriver streams camera frames as JPEG parts
type VideoDriver struct {
	camera  Camera
	quality int
}

// NewVideoDriver creates a video driver encoding at the given JPEG quality
func NewVideoDriver(camera Camera, quality int) *VideoDriver {
	return &VideoDriver{camera: camera, quality: quality}
}

func (d *VideoDriver) Kind() Kind { return KindVideo }

func (d *VideoDriver) ContentType() string { return wire.MultipartContentType }

// Stream pulls, encodes and pushes camera frames until failure
func (d *VideoDriver) Stream(ctx context.Context, out Output) error {
	enc := codec.NewEncoder(d.quality)

	return pushLoop(ctx, out, func(ctx context.Context) ([]byte, error) {
		frame, err := d.camera.CurrentFrame(ctx)
		if err != nil {
			return nil, err
		}
		return enc.JPEG(frame)
	})
}
