package windowpager

import "fmt"

// PagePosition is the page holding an item and the item's index in it.
type PagePosition[K Key] struct {
	Page  K
	Index int
}

// PageByItemFunc maps an anchor to its page. It may be called off the run
// loop and must not have side effects. It reports false for anchors it
// cannot place.
type PageByItemFunc[T any, K Key, A any] func(anchor A, pages []Page[T, K]) (PagePosition[K], bool)

// PageByOffset returns the PageByItemFunc of sources whose page k starts at
// item k*pageSize, with the anchor being the absolute item index.
func PageByOffset[T any, K Key](pageSize int) PageByItemFunc[T, K, int] {
	return func(index int, _ []Page[T, K]) (PagePosition[K], bool) {
		if index < 0 || pageSize <= 0 {
			return PagePosition[K]{}, false
		}
		return PagePosition[K]{Page: K(index / pageSize), Index: index % pageSize}, true
	}
}

// JumpablePager supports random access. Its view covers the whole remote
// sequence, with placeholders for items that are not retained, and the page
// under the anchor is loaded even when it is far from the retained pages.
type JumpablePager[T any, K Key, A comparable] struct {
	*engine[T, K, A]
	data       *Published[[]Slot[T]]
	current    *Published[PagePosition[K]]
	pageByItem PageByItemFunc[T, K, A]
}

// NewJumpablePager creates a JumpablePager starting at page initial.
func NewJumpablePager[T any, K Key, A comparable](source DataSource[T, K], initial K, cfg Config, pageByItem PageByItemFunc[T, K, A], opts ...Option) (*JumpablePager[T, K, A], error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil data source", ErrInvalidConfig)
	}
	if pageByItem == nil {
		return nil, fmt.Errorf("%w: nil page-by-item function", ErrInvalidConfig)
	}
	if err := cfg.validate(budgetPages); err != nil {
		return nil, err
	}

	p := &JumpablePager[T, K, A]{
		data:       NewPublished[[]Slot[T]](nil),
		current:    NewPublished(PagePosition[K]{Page: initial}),
		pageByItem: pageByItem,
	}
	p.engine = newEngine(engineSpec[T, K, A]{
		kind:    "jumpable",
		primary: source,
		initial: initial,
		cfg:     cfg,
		budget:  cfg.budget(budgetPages),
		locate: func(store *pageStore[T, K, A], anchor A) (position[K], bool) {
			pos, ok := pageByItem(anchor, store.list())
			if !ok {
				return position[K]{}, false
			}
			return position[K]{key: pos.Page, index: pos.Index, loaded: store.has(pos.Page)}, true
		},
		check:   checkPage,
		refresh: refreshNeighbors,
		publish: func(pages []Page[T, K]) { p.data.set(flattenSlots(pages)) },
		onClose: func() {
			p.data.close()
			p.current.close()
		},
	}, opts)
	return p, nil
}

// Data returns the whole sequence with placeholders for unloaded items.
func (p *JumpablePager[T, K, A]) Data() *Published[[]Slot[T]] {
	return p.data
}

// CurrentPage returns the page under the last reported anchor.
func (p *JumpablePager[T, K, A]) CurrentPage() *Published[PagePosition[K]] {
	return p.current
}

// OnItemVisible reports the visible anchor.
func (p *JumpablePager[T, K, A]) OnItemVisible(anchor A) {
	if pos, ok := p.pageByItem(anchor, p.pages()); ok && pos != p.current.Value() {
		p.current.set(pos)
	}
	p.visible(anchor, true)
}

// JumpTo drops the window and loads page key with its neighbours.
func (p *JumpablePager[T, K, A]) JumpTo(key K) {
	p.current.set(PagePosition[K]{Page: key})
	p.enqueue(jump[K]{key: key})
}
