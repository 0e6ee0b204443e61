package windowpager

import (
	"slices"

	"github.com/samber/lo"
)

// Slot is one position of a view with placeholders. Loaded is false for
// items known to exist in the source that are not retained in the window.
type Slot[T any] struct {
	Item   T
	Loaded bool
}

// pageStore holds the retained pages ordered by key and an index from item
// identity to the key of the page holding the item. It is owned by the run
// loop of a single engine and is not safe for concurrent use.
type pageStore[T any, K Key, A comparable] struct {
	pages    map[K]Page[T, K]
	keys     []K
	items    int
	identify func(T) A
	index    map[A]K
}

func newPageStore[T any, K Key, A comparable](identify func(T) A) *pageStore[T, K, A] {
	return &pageStore[T, K, A]{
		pages:    make(map[K]Page[T, K]),
		identify: identify,
		index:    make(map[A]K),
	}
}

// add inserts the page or overwrites the page with the same key.
func (s *pageStore[T, K, A]) add(page Page[T, K]) {
	if _, ok := s.pages[page.Key]; ok {
		s.remove(page.Key)
	}
	i, _ := slices.BinarySearch(s.keys, page.Key)
	s.keys = slices.Insert(s.keys, i, page.Key)
	s.pages[page.Key] = page
	s.items += len(page.Items)
	if s.identify != nil {
		for _, item := range page.Items {
			s.index[s.identify(item)] = page.Key
		}
	}
}

// remove drops the page and the identity entries still pointing at it.
func (s *pageStore[T, K, A]) remove(key K) (Page[T, K], bool) {
	page, ok := s.pages[key]
	if !ok {
		return page, false
	}
	delete(s.pages, key)
	if i, found := slices.BinarySearch(s.keys, key); found {
		s.keys = slices.Delete(s.keys, i, i+1)
	}
	s.items -= len(page.Items)
	if s.identify != nil {
		for _, item := range page.Items {
			id := s.identify(item)
			if s.index[id] == key {
				delete(s.index, id)
			}
		}
	}
	return page, true
}

func (s *pageStore[T, K, A]) get(key K) (Page[T, K], bool) {
	page, ok := s.pages[key]
	return page, ok
}

func (s *pageStore[T, K, A]) has(key K) bool {
	_, ok := s.pages[key]
	return ok
}

// list returns the retained pages ordered by key.
func (s *pageStore[T, K, A]) list() []Page[T, K] {
	return lo.Map(s.keys, func(k K, _ int) Page[T, K] { return s.pages[k] })
}

func (s *pageStore[T, K, A]) keyList() []K {
	return slices.Clone(s.keys)
}

func (s *pageStore[T, K, A]) first() (Page[T, K], bool) {
	if len(s.keys) == 0 {
		return Page[T, K]{}, false
	}
	return s.pages[s.keys[0]], true
}

func (s *pageStore[T, K, A]) last() (Page[T, K], bool) {
	if len(s.keys) == 0 {
		return Page[T, K]{}, false
	}
	return s.pages[s.keys[len(s.keys)-1]], true
}

func (s *pageStore[T, K, A]) keyOf(id A) (K, bool) {
	k, ok := s.index[id]
	return k, ok
}

func (s *pageStore[T, K, A]) len() int {
	return len(s.keys)
}

func (s *pageStore[T, K, A]) itemCount() int {
	return s.items
}

func (s *pageStore[T, K, A]) clear() {
	clear(s.pages)
	clear(s.index)
	s.keys = s.keys[:0]
	s.items = 0
}

// flatten concatenates the items of pages in order.
func flatten[T any, K Key](pages []Page[T, K]) []T {
	return lo.FlatMap(pages, func(p Page[T, K], _ int) []T { return p.Items })
}

// flattenSlots concatenates the items of pages and fills the parts of the
// source that are not retained with placeholders: ItemsBefore of the first
// page, gaps between non-adjacent pages and ItemsAfter of the last page.
func flattenSlots[T any, K Key](pages []Page[T, K]) []Slot[T] {
	if len(pages) == 0 {
		return nil
	}
	first, last := pages[0], pages[len(pages)-1]
	out := make([]Slot[T], 0, first.ItemsBefore+last.ItemsAfter+len(pages)*len(first.Items))
	out = appendPlaceholders(out, first.ItemsBefore)
	out = appendLoaded(out, first.Items)
	for i := 1; i < len(pages); i++ {
		prev, cur := pages[i-1], pages[i]
		if next, ok := prev.Next(); !ok || next != cur.Key {
			out = appendPlaceholders(out, prev.ItemsAfter-(cur.ItemsAfter+len(cur.Items)))
		}
		out = appendLoaded(out, cur.Items)
	}
	return appendPlaceholders(out, last.ItemsAfter)
}

func appendPlaceholders[T any](out []Slot[T], n int) []Slot[T] {
	for range max(n, 0) {
		out = append(out, Slot[T]{})
	}
	return out
}

func appendLoaded[T any](out []Slot[T], items []T) []Slot[T] {
	for _, item := range items {
		out = append(out, Slot[T]{Item: item, Loaded: true})
	}
	return out
}
