package windowpager

import (
	"context"
	"errors"
	"log/slog"
)

type raceResult[T any, K Key] struct {
	page      Page[T, K]
	err       error
	secondary bool
}

// race loads key from both sources. A secondary page that arrives first wins
// outright and the primary load is cancelled. A primary page that arrives
// first is published as an interim result and then replaced by the
// secondary page. A failed load never wins; the other source decides.
func (e *engine[T, K, A]) race(ctx context.Context, key K, token uint64) {
	primaryCtx, cancelPrimary := context.WithCancel(ctx)
	defer cancelPrimary()

	results := make(chan raceResult[T, K], 2)
	go func() {
		page, err := e.fetch(primaryCtx, e.spec.primary, key, "primary")
		results <- raceResult[T, K]{page: page, err: err}
	}()
	go func() {
		page, err := e.fetch(ctx, e.spec.secondary, key, "secondary")
		results <- raceResult[T, K]{page: page, err: err, secondary: true}
	}()

	first := <-results
	if first.err == nil {
		if first.secondary {
			cancelPrimary()
			e.enqueue(pageLoaded[T, K]{key: key, token: token, page: first.page})
			return
		}
		e.enqueue(pageLoaded[T, K]{key: key, token: token, page: first.page, interim: true})
	}

	second := <-results
	switch {
	case second.err == nil:
		e.enqueue(pageLoaded[T, K]{key: key, token: token, page: second.page})
	case first.err == nil:
		// the primary page stays in place; only the reconciliation failed
		e.log.Debug("secondary load failed after primary", slog.Any("key", key), slog.Any("error", second.err))
		e.enqueue(pageLoaded[T, K]{key: key, token: token, err: second.err})
	default:
		e.enqueue(pageLoaded[T, K]{key: key, token: token, err: errors.Join(first.err, second.err)})
	}
}
