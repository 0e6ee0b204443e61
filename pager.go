package windowpager

import "context"

// Pager is the surface shared by every pager: a published view of type D and
// a visibility anchor of type A reported by the consumer.
type Pager[A any, D any] interface {
	// Data returns the published view of the window.
	Data() *Published[D]
	// OnItemVisible reports the current anchor. It never blocks.
	OnItemVisible(anchor A)
	// OnNoItemVisible reports that nothing is visible.
	OnNoItemVisible()
	// Invalidate reloads the window without losing the scroll position.
	Invalidate()
	// Errors streams load failures.
	Errors() <-chan error
	// Settle waits until the pager has nothing left to do.
	Settle(ctx context.Context) error
	// Destroy releases the pager. It is idempotent.
	Destroy()
}

// HasLoadingState is implemented by pagers publishing their edge loads.
type HasLoadingState interface {
	LoadingState() *Published[LoadingState]
}

// Filterable is implemented by pagers with a replaceable item predicate.
type Filterable[T any] interface {
	UpdateFilterPredicate(pred func(T) bool)
}

// Jumpable is implemented by pagers supporting random access by page key.
type Jumpable[K Key] interface {
	JumpTo(key K)
}

var (
	_ Pager[int, []int]       = (*SimplePager[int, int])(nil)
	_ Pager[int, []int]       = (*LoadingStatePager[int, int, int])(nil)
	_ Pager[int, []int]       = (*FilterablePager[int, int, int])(nil)
	_ Pager[int, []Slot[int]] = (*JumpablePager[int, int, int])(nil)
	_ Pager[int, []int]       = (*RacingPager[int, int])(nil)
	_ HasLoadingState         = (*FilterablePager[int, int, int])(nil)
	_ Filterable[int]         = (*FilterablePager[int, int, int])(nil)
	_ Jumpable[int]           = (*JumpablePager[int, int, int])(nil)
)
