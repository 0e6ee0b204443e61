package windowpager

import (
	"context"
	"time"
)

// inflightLoad is a page load running in the background.
type inflightLoad struct {
	dir     Direction
	token   uint64
	cancel  context.CancelFunc
	started time.Time
}

// inflight tracks the loads started by an engine, one per key. A result is
// accepted only while the token it was started with is still registered, so
// loads that were superseded, evicted or invalidated are discarded on arrival.
// Owned by the run loop.
type inflight[K Key] struct {
	loads  map[K]*inflightLoad
	tokens uint64
}

func newInflight[K Key]() *inflight[K] {
	return &inflight[K]{loads: make(map[K]*inflightLoad)}
}

// add registers a load for key and returns its token. A load already
// registered for key is cancelled.
func (r *inflight[K]) add(key K, dir Direction, cancel context.CancelFunc) uint64 {
	if prev, ok := r.loads[key]; ok {
		prev.cancel()
	}
	r.tokens++
	r.loads[key] = &inflightLoad{dir: dir, token: r.tokens, cancel: cancel, started: time.Now()}
	return r.tokens
}

func (r *inflight[K]) has(key K) bool {
	_, ok := r.loads[key]
	return ok
}

// current reports whether token is the live load for key.
func (r *inflight[K]) current(key K, token uint64) bool {
	l, ok := r.loads[key]
	return ok && l.token == token
}

// finish unregisters the load for key if token is still current.
func (r *inflight[K]) finish(key K, token uint64) (*inflightLoad, bool) {
	l, ok := r.loads[key]
	if !ok || l.token != token {
		return nil, false
	}
	delete(r.loads, key)
	l.cancel()
	return l, true
}

// cancel stops and unregisters the load for key.
func (r *inflight[K]) cancel(key K) bool {
	l, ok := r.loads[key]
	if !ok {
		return false
	}
	l.cancel()
	delete(r.loads, key)
	return true
}

// cancelAll stops every load and returns how many were running.
func (r *inflight[K]) cancelAll() int {
	n := len(r.loads)
	for key, l := range r.loads {
		l.cancel()
		delete(r.loads, key)
	}
	return n
}

// state aggregates the directions of the running loads.
func (r *inflight[K]) state() LoadingState {
	var start, end bool
	for _, l := range r.loads {
		switch l.dir {
		case DirectionStart:
			start = true
		case DirectionEnd:
			end = true
		}
	}
	return JoinLoadingState(start, end)
}

func (r *inflight[K]) len() int {
	return len(r.loads)
}
