package windowpager

import "fmt"

// FilterablePager applies a replaceable predicate to every page it loads.
// Page keys still address the unfiltered source, so a retained page may hold
// fewer items than the page size, or none. The window is bounded by
// Config.MaxItemsToKeep and a partial invalidation gathers at least
// Config.MinItemsToLoad items around the visible one before publishing.
type FilterablePager[T any, K Key, V comparable] struct {
	*engine[T, K, V]
	data *Published[[]T]
}

// NewFilterablePager creates a FilterablePager starting at page initial. A
// nil pred keeps every item.
func NewFilterablePager[T any, K Key, V comparable](source DataSource[T, K], initial K, cfg Config, identify IdentityFunc[T, V], pred func(T) bool, opts ...Option) (*FilterablePager[T, K, V], error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil data source", ErrInvalidConfig)
	}
	if identify == nil {
		return nil, fmt.Errorf("%w: nil identity function", ErrInvalidConfig)
	}
	if err := cfg.validate(budgetItems); err != nil {
		return nil, err
	}

	p := &FilterablePager[T, K, V]{data: NewPublished[[]T](nil)}
	p.engine = newEngine(engineSpec[T, K, V]{
		kind:     "filterable",
		primary:  source,
		initial:  initial,
		cfg:      cfg,
		budget:   cfg.budget(budgetItems),
		identify: identify,
		filter:   pred,
		locate:   locateIdentity[T, K, V],
		check:    checkEdges,
		refresh:  refreshWalk,
		publish:  func(pages []Page[T, K]) { p.data.set(flatten(pages)) },
		onClose:  p.data.close,
	}, opts)
	return p, nil
}

// Data returns the retained items that pass the predicate, in source order.
func (p *FilterablePager[T, K, V]) Data() *Published[[]T] {
	return p.data
}

// OnItemVisible reports the identity of the visible item.
func (p *FilterablePager[T, K, V]) OnItemVisible(id V) {
	p.visible(id, true)
}

// UpdateFilterPredicate replaces the predicate. The window is dropped and
// loaded again from the initial page, since items were filtered on arrival.
func (p *FilterablePager[T, K, V]) UpdateFilterPredicate(pred func(T) bool) {
	p.enqueue(setFilter[T]{pred: pred})
}
