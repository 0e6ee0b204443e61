package windowpager

import "fmt"

// SimplePager pages a single source and tracks visibility by the index of
// the visible item in Data. The window is bounded by Config.MaxPagesToKeep.
type SimplePager[T any, K Key] struct {
	*engine[T, K, int]
	data *Published[[]T]
}

// NewSimplePager creates a SimplePager starting at page initial.
func NewSimplePager[T any, K Key](source DataSource[T, K], initial K, cfg Config, opts ...Option) (*SimplePager[T, K], error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil data source", ErrInvalidConfig)
	}
	if err := cfg.validate(budgetPages); err != nil {
		return nil, err
	}

	p := &SimplePager[T, K]{data: NewPublished[[]T](nil)}
	p.engine = newEngine(engineSpec[T, K, int]{
		kind:    "simple",
		primary: source,
		initial: initial,
		cfg:     cfg,
		budget:  cfg.budget(budgetPages),
		locate:  locateIndex[T, K],
		check:   checkPage,
		refresh: refreshHeld,
		publish: func(pages []Page[T, K]) { p.data.set(flatten(pages)) },
		onClose: p.data.close,
	}, opts)
	return p, nil
}

// Data returns the retained items in source order.
func (p *SimplePager[T, K]) Data() *Published[[]T] {
	return p.data
}

// OnItemVisible reports the index in Data of the visible item. A negative
// index means nothing is visible.
func (p *SimplePager[T, K]) OnItemVisible(index int) {
	p.visible(index, index >= 0)
}

// locateIndex finds the page holding the index-th retained item.
func locateIndex[T any, K Key](store *pageStore[T, K, int], index int) (position[K], bool) {
	offset := 0
	for _, key := range store.keys {
		n := len(store.pages[key].Items)
		if index >= offset && index < offset+n {
			return position[K]{key: key, index: index - offset, offset: index, loaded: true}, true
		}
		offset += n
	}
	return position[K]{}, false
}
