package stream

import (
	"context"
	"errors"
	"fmt"

	"streamer/internal/codec"
)

// Kind identifies one of the stream endpoints
type Kind string

const (
	KindVideo              Kind = "video"
	KindAudio              Kind = "audio"
	KindSpeakerWaveform    Kind = "speaker-waveform"
	KindMicrophoneWaveform Kind = "microphone-waveform"
)

// AudioContentType is the Content-Type of the audio stream
const AudioContentType = "audio/wav"

// Driver writes one live stream to one client
type Driver interface {
	Kind() Kind
	ContentType() string

	// Stream runs until the output fails, encoding fails or ctx is done.
	// It never returns nil while the producer keeps producing.
	Stream(ctx context.Context, out Output) error
}

// WriteError reports that the client output rejected a write
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("stream write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Outcome classifies the error a driver returned, for logs and metrics
func Outcome(err error) string {
	var writeErr *WriteError
	var codecErr *codec.CodecError

	switch {
	case err == nil:
		return "closed"
	case errors.As(err, &writeErr):
		return "write_error"
	case errors.As(err, &codecErr):
		return "codec_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "producer_error"
	}
}

// pushLoop pulls encoded payloads and pushes them to out until one of the
// two fails or ctx is done
func pushLoop(ctx context.Context, out Output, pull func(context.Context) ([]byte, error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := pull(ctx)
		if err != nil {
			return err
		}

		if err := out.PushImage(payload); err != nil {
			return &WriteError{Err: err}
		}
	}
}
