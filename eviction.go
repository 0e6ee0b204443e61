package windowpager

import "container/heap"

// budget bounds the size of the window. A zero field is not enforced.
type budget struct {
	maxPages int
	maxItems int
}

func (b budget) exceeded(pages, items int) bool {
	return (b.maxPages > 0 && pages > b.maxPages) || (b.maxItems > 0 && items > b.maxItems)
}

// weight is what a page counts against an item budget. A page filtered down
// to nothing still occupies a slot.
func weight[T any, K Key](p Page[T, K]) int {
	return max(len(p.Items), 1)
}

func windowWeight[T any, K Key](pages []Page[T, K]) int {
	total := 0
	for _, p := range pages {
		total += weight(p)
	}
	return total
}

// distance returns |a-b| without overflowing unsigned keys.
func distance[K Key](a, b K) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

type evictionCandidate[K Key] struct {
	key   K
	dist  uint64
	items int
}

// evictionHeap pops the farthest page first. On equal distance the higher
// key goes first, or the lower one when lowFirst is set.
type evictionHeap[K Key] struct {
	items    []evictionCandidate[K]
	lowFirst bool
}

func (h *evictionHeap[K]) Len() int { return len(h.items) }

func (h *evictionHeap[K]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.dist != b.dist {
		return a.dist > b.dist
	}
	if h.lowFirst {
		return a.key < b.key
	}
	return a.key > b.key
}

func (h *evictionHeap[K]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *evictionHeap[K]) Push(x any) {
	h.items = append(h.items, x.(evictionCandidate[K]))
}

func (h *evictionHeap[K]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// selectEvictions returns the keys to drop, in eviction order, so that the
// remaining pages fit b. The visible page is never selected. lowFirst
// breaks distance ties toward the lower key.
func selectEvictions[T any, K Key](pages []Page[T, K], visible K, lowFirst bool, b budget) []K {
	total := 0
	h := &evictionHeap[K]{items: make([]evictionCandidate[K], 0, len(pages)), lowFirst: lowFirst}
	for _, p := range pages {
		total += weight(p)
		if p.Key == visible {
			continue
		}
		h.items = append(h.items, evictionCandidate[K]{key: p.Key, dist: distance(p.Key, visible), items: weight(p)})
	}
	heap.Init(h)

	var evicted []K
	count := len(pages)
	for b.exceeded(count, total) && h.Len() > 0 {
		c := heap.Pop(h).(evictionCandidate[K])
		evicted = append(evicted, c.key)
		count--
		total -= c.items
	}
	return evicted
}
