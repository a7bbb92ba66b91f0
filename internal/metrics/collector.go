package metrics

import (
	"context"
	"time"
)

// StreamCounter reports active client streams per kind
type StreamCounter interface {
	CountByKind() map[string]int
}

// ProducerStats reports how much a producer has published
type ProducerStats interface {
	FramesPublished() uint64
}

// MicrophoneStats reports microphone fan-out state
type MicrophoneStats interface {
	Chunks() uint64
	Subscribers() int
	Drops() uint64
}

// Collector periodically updates gauge metrics from the stream registry
// and the producers
type Collector struct {
	streams    StreamCounter
	producers  map[string]ProducerStats
	microphone MicrophoneStats
	kinds      []string
	interval   time.Duration
	stopCh     chan struct{}
}

// NewCollector creates a new metrics collector. kinds lists every stream
// kind so idle kinds are reported as zero.
func NewCollector(streams StreamCounter, kinds []string, interval time.Duration) *Collector {
	if interval == 0 {
		interval = 15 * time.Second
	}

	return &Collector{
		streams:   streams,
		producers: make(map[string]ProducerStats),
		kinds:     kinds,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// WithProducer adds a producer reported under name
func (c *Collector) WithProducer(name string, p ProducerStats) *Collector {
	c.producers[name] = p
	return c
}

// WithMicrophone adds the microphone fan-out gauges
func (c *Collector) WithMicrophone(m MicrophoneStats) *Collector {
	c.microphone = m
	return c
}

// Start begins periodic metrics collection. It returns when ctx is done or
// Stop is called.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collectMetrics()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.collectMetrics()
		}
	}
}

// Stop stops the metrics collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collectMetrics() {
	c.collectStreamMetrics()
	c.collectProducerMetrics()
}

func (c *Collector) collectStreamMetrics() {
	if c.streams == nil {
		return
	}

	counts := c.streams.CountByKind()
	for _, kind := range c.kinds {
		StreamsActive.WithLabelValues(kind).Set(float64(counts[kind]))
	}
}

func (c *Collector) collectProducerMetrics() {
	for name, p := range c.producers {
		ProducerFramesPublished.WithLabelValues(name).Set(float64(p.FramesPublished()))
	}

	if c.microphone != nil {
		ProducerFramesPublished.WithLabelValues("microphone").Set(float64(c.microphone.Chunks()))
		MicrophoneSubscribers.Set(float64(c.microphone.Subscribers()))
		MicrophoneDroppedChunks.Set(float64(c.microphone.Drops()))
	}
}
