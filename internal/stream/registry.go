package stream

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"streamer/internal/metrics"
)

// Transports a client stream can run over
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// Info describes one running client stream
type Info struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	Transport     string    `json:"transport"`
	RemoteAddr    string    `json:"remote_addr"`
	StartedAt     time.Time `json:"started_at"`
	FramesWritten uint64    `json:"frames_written"`
	BytesWritten  uint64    `json:"bytes_written"`
}

// Entry is the registry record of one running stream. It meters what the
// stream's output delivers.
type Entry struct {
	id         string
	kind       Kind
	transport  string
	remoteAddr string
	startedAt  time.Time

	frames atomic.Uint64
	bytes  atomic.Uint64
}

// ID returns the stream id
func (e *Entry) ID() string { return e.id }

// AddFrame counts one delivered image of n bytes
func (e *Entry) AddFrame(n int) {
	e.frames.Add(1)
	e.bytes.Add(uint64(n))
	metrics.StreamFramesTotal.WithLabelValues(string(e.kind)).Inc()
	metrics.StreamBytesTotal.WithLabelValues(string(e.kind)).Add(float64(n))
}

// AddBytes counts n delivered raw bytes
func (e *Entry) AddBytes(n int) {
	e.bytes.Add(uint64(n))
	metrics.StreamBytesTotal.WithLabelValues(string(e.kind)).Add(float64(n))
}

// Info returns a snapshot of the entry
func (e *Entry) Info() Info {
	return Info{
		ID:            e.id,
		Kind:          e.kind,
		Transport:     e.transport,
		RemoteAddr:    e.remoteAddr,
		StartedAt:     e.startedAt,
		FramesWritten: e.frames.Load(),
		BytesWritten:  e.bytes.Load(),
	}
}

// Registry tracks the client streams that are currently running
type Registry struct {
	streams map[string]*Entry
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		streams: make(map[string]*Entry),
	}
}

// Open registers a new stream and returns its entry
func (r *Registry) Open(kind Kind, transport, remoteAddr string) *Entry {
	e := &Entry{
		id:         uuid.New().String(),
		kind:       kind,
		transport:  transport,
		remoteAddr: remoteAddr,
		startedAt:  time.Now(),
	}

	r.mu.Lock()
	r.streams[e.id] = e
	r.mu.Unlock()

	return e
}

// Close removes a stream from the registry and returns its final snapshot
func (r *Registry) Close(id string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.streams[id]
	if !ok {
		return Info{}, false
	}
	delete(r.streams, id)
	return e.Info(), true
}

// Get returns a snapshot of one stream
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.streams[id]
	if !ok {
		return Info{}, false
	}
	return e.Info(), true
}

// List returns snapshots of all running streams, oldest first
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.streams))
	for _, e := range r.streams {
		infos = append(infos, e.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Count returns the number of running streams
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.streams)
}

// CountByKind returns the number of running streams per kind
func (r *Registry) CountByKind() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range r.streams {
		counts[string(e.kind)]++
	}
	return counts
}

// Kinds lists every stream kind
func Kinds() []Kind {
	return []Kind{KindVideo, KindAudio, KindSpeakerWaveform, KindMicrophoneWaveform}
}
