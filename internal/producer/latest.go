package producer

import (
	"context"
	"sync"
	"sync/atomic"
)

type entry[T any] struct {
	value T
	seq   uint64
}

// Latest holds the most recent value published by a producer.
//
// Reads through Load never block and never take the lock. Next blocks until
// a value newer than a given sequence number is available. The zero value
// is ready to use.
type Latest[T any] struct {
	current atomic.Pointer[entry[T]]

	mu     sync.Mutex
	notify chan struct{}
}

// Publish replaces the current value and wakes every waiting reader.
// It returns the sequence number assigned to v, starting at 1.
func (l *Latest[T]) Publish(v T) uint64 {
	l.mu.Lock()
	seq := uint64(1)
	if e := l.current.Load(); e != nil {
		seq = e.seq + 1
	}
	l.current.Store(&entry[T]{value: v, seq: seq})
	ch := l.notify
	l.notify = nil
	l.mu.Unlock()

	if ch != nil {
		close(ch)
	}
	return seq
}

// Load returns the current value and its sequence number.
// ok is false until the first Publish.
func (l *Latest[T]) Load() (v T, seq uint64, ok bool) {
	e := l.current.Load()
	if e == nil {
		return v, 0, false
	}
	return e.value, e.seq, true
}

// Seq returns the sequence number of the current value, 0 before the first Publish
func (l *Latest[T]) Seq() uint64 {
	if e := l.current.Load(); e != nil {
		return e.seq
	}
	return 0
}

// Next blocks until a value with a sequence number greater than after is
// published, then returns it. Intermediate values are skipped.
func (l *Latest[T]) Next(ctx context.Context, after uint64) (T, uint64, error) {
	for {
		l.mu.Lock()
		if e := l.current.Load(); e != nil && e.seq > after {
			l.mu.Unlock()
			return e.value, e.seq, nil
		}
		if l.notify == nil {
			l.notify = make(chan struct{})
		}
		ch := l.notify
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			var zero T
			return zero, 0, ctx.Err()
		}
	}
}

// Await blocks until the next value is published after the call and returns it
func (l *Latest[T]) Await(ctx context.Context) (T, error) {
	v, _, err := l.Next(ctx, l.Seq())
	return v, err
}
