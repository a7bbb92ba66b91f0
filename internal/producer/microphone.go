package producer

import (
	"context"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// MicrophoneOptions configures the synthetic microphone
type MicrophoneOptions struct {
	ToneHz           float64
	ChunkDuration    time.Duration
	SubscriberBuffer int
	WaveformWidth    int
	WaveformHeight   int
	WaveformFPS      int
}

func (o *MicrophoneOptions) applyDefaults() {
	if o.ToneHz <= 0 {
		o.ToneHz = 440
	}
	if o.ChunkDuration <= 0 {
		o.ChunkDuration = 20 * time.Millisecond
	}
	if o.SubscriberBuffer <= 0 {
		o.SubscriberBuffer = 64
	}
	if o.WaveformWidth <= 0 {
		o.WaveformWidth = 640
	}
	if o.WaveformHeight <= 0 {
		o.WaveformHeight = 160
	}
	if o.WaveformFPS <= 0 {
		o.WaveformFPS = 10
	}
	o.WaveformFPS = min(o.WaveformFPS, MaxFPS)
}

// Microphone produces PCM chunks in the streaming wave format and fans them
// out to every started sink. It also publishes a rendered waveform of the
// most recent audio.
type Microphone struct {
	opts MicrophoneOptions
	tone *toneGenerator

	mu          sync.RWMutex
	subscribers map[uint64]chan []byte
	nextID      uint64

	waveform Latest[image.Image]
	chunks   atomic.Uint64
	drops    atomic.Uint64
}

// NewMicrophone creates a microphone with defaults applied to zero options
func NewMicrophone(opts MicrophoneOptions) *Microphone {
	opts.applyDefaults()
	return &Microphone{
		opts:        opts,
		tone:        newToneGenerator(opts.ToneHz, 0.5),
		subscribers: make(map[uint64]chan []byte),
	}
}

// Run captures audio until ctx is cancelled
func (m *Microphone) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.ChunkDuration)
	defer ticker.Stop()

	samples := int(time.Duration(m.tone.format.SampleRate) * m.opts.ChunkDuration / time.Second)
	chunkBytes := m.tone.chunkSize(samples)

	// Render the waveform every renderEvery chunks
	renderEvery := int(time.Second / time.Duration(m.opts.WaveformFPS) / m.opts.ChunkDuration)
	if renderEvery < 1 {
		renderEvery = 1
	}

	log.Info().
		Float64("tone_hz", m.opts.ToneHz).
		Dur("chunk_duration", m.opts.ChunkDuration).
		Int("chunk_bytes", chunkBytes).
		Msg("Microphone started")

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			log.Info().
				Uint64("chunks", m.chunks.Load()).
				Uint64("drops", m.drops.Load()).
				Msg("Microphone stopped")
			return nil
		case <-ticker.C:
		}

		chunk := make([]byte, chunkBytes)
		m.tone.fill(chunk)
		m.Publish(chunk)

		if n%renderEvery == 0 {
			m.waveform.Publish(RenderWaveform(chunk, int(m.tone.format.Channels), m.opts.WaveformWidth, m.opts.WaveformHeight))
		}
	}
}

// Publish delivers a PCM chunk to every subscriber. A subscriber whose
// buffer is full loses the whole chunk, so its stream skips audio but stays
// sample aligned; other subscribers are unaffected.
func (m *Microphone) Publish(chunk []byte) {
	m.chunks.Add(1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- chunk:
		default:
			m.drops.Add(1)
		}
	}
}

// Start forwards every PCM byte the microphone captures to sink, unframed,
// until a write to sink fails or ctx is cancelled. The subscription is
// released before Start returns.
func (m *Microphone) Start(ctx context.Context, sink io.Writer) error {
	id, ch := m.subscribe()
	defer m.unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-ch:
			if _, err := sink.Write(chunk); err != nil {
				return err
			}
		}
	}
}

// Waveform blocks until the next waveform rendering is published and returns it
func (m *Microphone) Waveform(ctx context.Context) (image.Image, error) {
	return m.waveform.Await(ctx)
}

// PublishWaveform replaces the current waveform rendering
func (m *Microphone) PublishWaveform(img image.Image) {
	m.waveform.Publish(img)
}

// Subscribers returns the number of active sinks
func (m *Microphone) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// Drops returns the number of chunks dropped for slow subscribers
func (m *Microphone) Drops() uint64 {
	return m.drops.Load()
}

// Chunks returns the number of chunks captured since start
func (m *Microphone) Chunks() uint64 {
	return m.chunks.Load()
}

func (m *Microphone) subscribe() (uint64, <-chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ch := make(chan []byte, m.opts.SubscriberBuffer)
	m.subscribers[m.nextID] = ch

	log.Debug().Uint64("subscriber", m.nextID).Int("subscribers", len(m.subscribers)).Msg("Microphone sink attached")
	return m.nextID, ch
}

func (m *Microphone) unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscribers, id)
	log.Debug().Uint64("subscriber", id).Int("subscribers", len(m.subscribers)).Msg("Microphone sink detached")
}
