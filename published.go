package windowpager

import (
	"context"
	"sync"
)

// Published is a value written by one owner and observed by many readers.
// Readers either poll Value or Subscribe to receive every change; slow
// subscribers only see the latest value.
type Published[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[chan T]struct{}
	closed bool
	done   chan struct{}
}

// NewPublished returns a Published holding initial.
func NewPublished[T any](initial T) *Published[T] {
	return &Published[T]{
		value: initial,
		subs:  make(map[chan T]struct{}),
		done:  make(chan struct{}),
	}
}

// Value returns the current value.
func (p *Published[T]) Value() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Subscribe returns a channel that receives the current value right away and
// then every later value. The channel is closed when ctx is done or the
// owner shuts down.
func (p *Published[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch
	}
	ch <- p.value
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-p.done:
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
	}()
	return ch
}

func (p *Published[T]) set(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.value = v
	for ch := range p.subs {
		// drop the unread value, the subscriber only cares about the latest
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (p *Published[T]) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
	for ch := range p.subs {
		close(ch)
	}
	clear(p.subs)
}
