package windowpager

import "fmt"

// LoadingStatePager is a SimplePager that tracks the visible item by
// identity instead of by index, so the anchor survives pages being evicted
// or reloaded in front of it. Its LoadingState reports pending edge loads.
type LoadingStatePager[T any, K Key, V comparable] struct {
	*engine[T, K, V]
	data *Published[[]T]
}

// NewLoadingStatePager creates a LoadingStatePager starting at page initial.
func NewLoadingStatePager[T any, K Key, V comparable](source DataSource[T, K], initial K, cfg Config, identify IdentityFunc[T, V], opts ...Option) (*LoadingStatePager[T, K, V], error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil data source", ErrInvalidConfig)
	}
	if identify == nil {
		return nil, fmt.Errorf("%w: nil identity function", ErrInvalidConfig)
	}
	if err := cfg.validate(budgetPages); err != nil {
		return nil, err
	}

	p := &LoadingStatePager[T, K, V]{data: NewPublished[[]T](nil)}
	p.engine = newEngine(engineSpec[T, K, V]{
		kind:     "loading_state",
		primary:  source,
		initial:  initial,
		cfg:      cfg,
		budget:   cfg.budget(budgetPages),
		identify: identify,
		locate:   locateIdentity[T, K, V],
		check:    checkPage,
		refresh:  refreshHeld,
		publish:  func(pages []Page[T, K]) { p.data.set(flatten(pages)) },
		onClose:  p.data.close,
	}, opts)
	return p, nil
}

// Data returns the retained items in source order.
func (p *LoadingStatePager[T, K, V]) Data() *Published[[]T] {
	return p.data
}

// OnItemVisible reports the identity of the visible item.
func (p *LoadingStatePager[T, K, V]) OnItemVisible(id V) {
	p.visible(id, true)
}
