package windowpager

// IdentityFunc extracts a stable identity from an item. Two items with the
// same identity are the same entity, even when their positions differ
// between two published views.
type IdentityFunc[T any, V comparable] func(item T) V

// Identity returns the IdentityFunc of items that are their own identity.
func Identity[T comparable]() IdentityFunc[T, T] {
	return func(item T) T { return item }
}

// IdentityBy returns an IdentityFunc that applies extract.
func IdentityBy[T any, V comparable](extract func(T) V) IdentityFunc[T, V] {
	return IdentityFunc[T, V](extract)
}

// Same reports whether a and b are the same entity.
func (f IdentityFunc[T, V]) Same(a, b T) bool {
	return f(a) == f(b)
}

// locateIdentity finds the retained item with identity id.
func locateIdentity[T any, K Key, V comparable](store *pageStore[T, K, V], id V) (position[K], bool) {
	key, ok := store.keyOf(id)
	if !ok {
		return position[K]{}, false
	}
	offset := 0
	for _, k := range store.keys {
		page := store.pages[k]
		if k != key {
			offset += len(page.Items)
			continue
		}
		for i, item := range page.Items {
			if store.identify(item) == id {
				return position[K]{key: key, index: i, offset: offset + i, loaded: true}, true
			}
		}
		break
	}
	return position[K]{}, false
}
