// Package windowpager keeps an in-memory sliding window of pages over an
// externally fetched sequence. Pagers prefetch around the visible position,
// evict distant pages under a budget, deduplicate concurrent loads and publish
// one ordered view of the retained items.
package windowpager

import (
	"context"

	"golang.org/x/exp/constraints"
)

// Key is the constraint for pagination keys. Keys are ordered and the
// distance between two keys decides which page is evicted first.
type Key interface {
	constraints.Integer
}

// Page is one fetched chunk of items plus its continuation keys.
// Pages are treated as immutable once returned by a DataSource.
type Page[T any, K Key] struct {
	// Items contains the page's data in source order.
	Items []T
	// Key identifies the page.
	Key K
	// PrevKey is the key of the preceding page. Only meaningful when HasPrev is set.
	PrevKey K
	HasPrev bool
	// NextKey is the key of the following page. Only meaningful when HasNext is set.
	NextKey K
	HasNext bool
	// ItemsBefore and ItemsAfter count the items of the remote sequence that
	// precede and follow this page. Zero when the source does not know.
	ItemsBefore int
	ItemsAfter  int
}

// Prev returns the previous page key and whether it exists.
func (p Page[T, K]) Prev() (K, bool) {
	return p.PrevKey, p.HasPrev
}

// Next returns the next page key and whether it exists.
func (p Page[T, K]) Next() (K, bool) {
	return p.NextKey, p.HasNext
}

// Len returns the number of items held by the page.
func (p Page[T, K]) Len() int {
	return len(p.Items)
}

// NewOffsetPage builds a page for sources addressed by page number, where page
// key k starts at offset k*pageSize. A negative total means the size of the
// sequence is unknown; the next key is then offered whenever the page is full.
func NewOffsetPage[T any, K Key](key K, pageSize int, items []T, total int) Page[T, K] {
	offset := int(key) * pageSize
	page := Page[T, K]{
		Items:       items,
		Key:         key,
		ItemsBefore: offset,
	}
	if key > 0 {
		page.PrevKey, page.HasPrev = key-1, true
	}
	full := len(items) >= pageSize
	if total >= 0 {
		page.ItemsAfter = max(total-offset-len(items), 0)
		full = full && page.ItemsAfter > 0
	}
	if full {
		page.NextKey, page.HasNext = key+1, true
	}
	return page
}

// DataSource is an external supplier of pages.
type DataSource[T any, K Key] interface {
	// Load fetches the page identified by key holding at most pageSize items.
	// The returned page must carry the requested key.
	Load(ctx context.Context, key K, pageSize int) (Page[T, K], error)
}

// DataSourceFunc is a function adapter that implements the DataSource interface.
type DataSourceFunc[T any, K Key] func(ctx context.Context, key K, pageSize int) (Page[T, K], error)

// Load implements the DataSource interface for DataSourceFunc.
func (f DataSourceFunc[T, K]) Load(ctx context.Context, key K, pageSize int) (Page[T, K], error) {
	return f(ctx, key, pageSize)
}
