package stream

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"streamer/internal/wire"
)

// Output is the client side of a stream
type Output interface {
	// PushImage delivers one encoded image
	PushImage(payload []byte) error

	// Write delivers raw stream bytes
	Write(p []byte) (int, error)
}

// Meter observes what an output delivers
type Meter interface {
	AddFrame(bytes int)
	AddBytes(bytes int)
}

// HTTPOutput writes multipart parts and raw bytes to an HTTP response,
// flushing after every write so each part reaches the client immediately
type HTTPOutput struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	framer *wire.Framer
}

// NewHTTPOutput creates an output declaring partType on every multipart part
func NewHTTPOutput(w http.ResponseWriter, partType string) *HTTPOutput {
	return &HTTPOutput{
		w:      w,
		rc:     http.NewResponseController(w),
		framer: wire.NewFramer(partType),
	}
}

// PushImage writes one multipart part and flushes
func (o *HTTPOutput) PushImage(payload []byte) error {
	if err := o.framer.Push(o.w, payload); err != nil {
		return err
	}
	return o.flush()
}

// Write writes p unframed and flushes
func (o *HTTPOutput) Write(p []byte) (int, error) {
	n, err := o.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, o.flush()
}

func (o *HTTPOutput) flush() error {
	if err := o.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// WebSocketOutput sends every image and every raw write as one binary message
type WebSocketOutput struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketOutput wraps an upgraded connection
func NewWebSocketOutput(conn *websocket.Conn) *WebSocketOutput {
	return &WebSocketOutput{conn: conn}
}

// PushImage sends payload as a binary message
func (o *WebSocketOutput) PushImage(payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Write sends p as a binary message
func (o *WebSocketOutput) Write(p []byte) (int, error) {
	if err := o.PushImage(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Metered reports every successful delivery through out to m
func Metered(out Output, m Meter) Output {
	return &meteredOutput{out: out, meter: m}
}

type meteredOutput struct {
	out   Output
	meter Meter
}

func (o *meteredOutput) PushImage(payload []byte) error {
	if err := o.out.PushImage(payload); err != nil {
		return err
	}
	o.meter.AddFrame(len(payload))
	return nil
}

func (o *meteredOutput) Write(p []byte) (int, error) {
	n, err := o.out.Write(p)
	if n > 0 {
		o.meter.AddBytes(n)
	}
	return n, err
}
