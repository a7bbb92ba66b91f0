package stream

import (
	"context"
	"io"
	"sync"

	"streamer/internal/wire"
)

// AudioSource forwards raw PCM into sink until the sink fails or ctx is done
type AudioSource interface {
	Start(ctx context.Context, sink io.Writer) error
}

// AudioDriver streams microphone PCM inside a never-ending WAV container
type AudioDriver struct {
	source AudioSource
}

// NewAudioDriver creates an audio driver
func NewAudioDriver(source AudioSource) *AudioDriver {
	return &AudioDriver{source: source}
}

func (d *AudioDriver) Kind() Kind { return KindAudio }

func (d *AudioDriver) ContentType() string { return AudioContentType }

// Stream writes the streaming wave header once, then blocks while the
// source forwards PCM to the output
func (d *AudioDriver) Stream(ctx context.Context, out Output) error {
	if _, err := out.Write(wire.StreamingWaveHeader()); err != nil {
		return &WriteError{Err: err}
	}

	sink := &audioSink{out: out}
	err := d.source.Start(ctx, sink)

	if sinkErr := sink.failure(); sinkErr != nil {
		return &WriteError{Err: sinkErr}
	}
	return err
}

// audioSink remembers the first write failure so it can be told apart from
// producer errors
type audioSink struct {
	out Output

	mu  sync.Mutex
	err error
}

func (s *audioSink) Write(p []byte) (int, error) {
	n, err := s.out.Write(p)
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	return n, err
}

func (s *audioSink) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
