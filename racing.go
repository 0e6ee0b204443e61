package windowpager

import "fmt"

// RacingPager is a SimplePager loading every page from two sources at once,
// typically a fast local cache as primary and an authoritative remote as
// secondary. The secondary page always ends up in the window; the primary
// page only fills in while the secondary is still on its way.
type RacingPager[T any, K Key] struct {
	*engine[T, K, int]
	data *Published[[]T]
}

// NewRacingPager creates a RacingPager starting at page initial.
// Invalidate reloads the retained pages from the secondary only.
func NewRacingPager[T any, K Key](primary, secondary DataSource[T, K], initial K, cfg Config, opts ...Option) (*RacingPager[T, K], error) {
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("%w: racing needs two data sources", ErrInvalidConfig)
	}
	if err := cfg.validate(budgetPages); err != nil {
		return nil, err
	}

	p := &RacingPager[T, K]{data: NewPublished[[]T](nil)}
	p.engine = newEngine(engineSpec[T, K, int]{
		kind:      "racing",
		primary:   primary,
		secondary: secondary,
		initial:   initial,
		cfg:       cfg,
		budget:    cfg.budget(budgetPages),
		locate:    locateIndex[T, K],
		check:     checkPage,
		refresh:   refreshHeld,
		publish:   func(pages []Page[T, K]) { p.data.set(flatten(pages)) },
		onClose:   p.data.close,
	}, opts)
	return p, nil
}

// Data returns the retained items in source order.
func (p *RacingPager[T, K]) Data() *Published[[]T] {
	return p.data
}

// OnItemVisible reports the index in Data of the visible item. A negative
// index means nothing is visible.
func (p *RacingPager[T, K]) OnItemVisible(index int) {
	p.visible(index, index >= 0)
}
