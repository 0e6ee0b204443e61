package windowpager

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// refresher reloads a group of pages off the run loop. Its result is merged
// in a single step so subscribers never see the window half rebuilt.
type refresher[T any, K Key] struct {
	load     func(ctx context.Context, key K) (Page[T, K], error)
	filter   func(T) bool
	minItems int
}

func (r refresher[T, K]) loadKey(ctx context.Context, key K) (Page[T, K], error) {
	page, err := r.load(ctx, key)
	if err != nil {
		return page, &LoadError[K]{Key: key, Err: err}
	}
	return page, nil
}

// visibleItems counts the items of page that pass the filter.
func (r refresher[T, K]) visibleItems(page Page[T, K]) int {
	if r.filter == nil {
		return len(page.Items)
	}
	n := 0
	for _, item := range page.Items {
		if r.filter(item) {
			n++
		}
	}
	return n
}

// loadAll loads keys concurrently and returns the pages that arrived. The
// first failure cancels the others.
func (r refresher[T, K]) loadAll(ctx context.Context, keys []K) ([]Page[T, K], error) {
	var (
		mu    sync.Mutex
		pages []Page[T, K]
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			page, err := r.loadKey(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return pages, err
}

// held reloads every key that was retained.
func (r refresher[T, K]) held(ctx context.Context, keys []K) ([]Page[T, K], error) {
	return r.loadAll(ctx, keys)
}

// neighbors loads center and then its previous and next pages.
func (r refresher[T, K]) neighbors(ctx context.Context, center K) ([]Page[T, K], error) {
	page, err := r.loadKey(ctx, center)
	if err != nil {
		return nil, err
	}
	var keys []K
	if prev, ok := page.Prev(); ok {
		keys = append(keys, prev)
	}
	if next, ok := page.Next(); ok {
		keys = append(keys, next)
	}
	around, err := r.loadAll(ctx, keys)
	return append(around, page), err
}

// walk loads center and then grows outward one page on each side at a time
// until minItems filtered items are gathered or both ends are reached.
func (r refresher[T, K]) walk(ctx context.Context, center K) ([]Page[T, K], error) {
	page, err := r.loadKey(ctx, center)
	if err != nil {
		return nil, err
	}
	pages := []Page[T, K]{page}
	total := r.visibleItems(page)
	lowest, highest := page, page

	for total < r.minItems {
		var keys []K
		prev, hasPrev := lowest.Prev()
		if hasPrev {
			keys = append(keys, prev)
		}
		next, hasNext := highest.Next()
		if hasNext {
			keys = append(keys, next)
		}
		if len(keys) == 0 {
			break
		}

		ring, err := r.loadAll(ctx, keys)
		pages = append(pages, ring...)
		if err != nil {
			return pages, err
		}
		for _, p := range ring {
			total += r.visibleItems(p)
			switch {
			case hasPrev && p.Key == prev:
				lowest = p
			case hasNext && p.Key == next:
				highest = p
			}
		}
		if len(ring) == 0 {
			break
		}
	}
	return pages, nil
}
