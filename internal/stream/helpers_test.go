package stream

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"streamer/internal/codec"
)

var errBrokenPipe = errors.New("broken pipe")

// scriptedResponseWriter records writes and fails the failOn-th one (1-based)
type scriptedResponseWriter struct {
	mu      sync.Mutex
	header  http.Header
	body    bytes.Buffer
	writes  int
	flushes int
	failOn  int
}

func newScriptedResponseWriter(failOn int) *scriptedResponseWriter {
	return &scriptedResponseWriter{header: make(http.Header), failOn: failOn}
}

func (w *scriptedResponseWriter) Header() http.Header { return w.header }

func (w *scriptedResponseWriter) WriteHeader(int) {}

func (w *scriptedResponseWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writes++
	if w.failOn > 0 && w.writes >= w.failOn {
		return 0, errBrokenPipe
	}
	return w.body.Write(p)
}

func (w *scriptedResponseWriter) Flush() {
	w.mu.Lock()
	w.flushes++
	w.mu.Unlock()
}

func (w *scriptedResponseWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.body.Bytes()...)
}

func (w *scriptedResponseWriter) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// fakeCamera hands out the same frame and counts pulls
type fakeCamera struct {
	frame  *codec.Frame
	calls  atomic.Int32
	onCall func(n int32)
}

func testFrame() *codec.Frame {
	return &codec.Frame{Width: 4, Height: 2, Channels: 3, Pix: make([]byte, 4*2*3)}
}

func (c *fakeCamera) CurrentFrame(ctx context.Context) (*codec.Frame, error) {
	n := c.calls.Add(1)
	if c.onCall != nil {
		c.onCall(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.frame, nil
}

// fakeWaveform hands out the same image and counts pulls
type fakeWaveform struct {
	img   image.Image
	calls atomic.Int32
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func (s *fakeWaveform) Waveform(ctx context.Context) (image.Image, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.img, nil
}

// fakeAudio writes the scripted chunks to the sink, then waits for ctx
type fakeAudio struct {
	chunks  [][]byte
	started atomic.Bool
}

func (a *fakeAudio) Start(ctx context.Context, sink io.Writer) error {
	a.started.Store(true)
	for _, chunk := range a.chunks {
		if _, err := sink.Write(chunk); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type countingMeter struct {
	frames atomic.Int64
	bytes  atomic.Int64
}

func (m *countingMeter) AddFrame(n int) {
	m.frames.Add(1)
	m.bytes.Add(int64(n))
}

func (m *countingMeter) AddBytes(n int) {
	m.bytes.Add(int64(n))
}
