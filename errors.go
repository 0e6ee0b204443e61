package windowpager

import (
	"errors"
	"fmt"
)

var (
	// ErrDestroyed is returned by operations on a pager after Destroy.
	ErrDestroyed = errors.New("windowpager: pager destroyed")
	// ErrInvalidConfig wraps every configuration problem found at construction.
	ErrInvalidConfig = errors.New("windowpager: invalid config")
	// ErrKeyMismatch reports a page returned under a different key than requested.
	ErrKeyMismatch = errors.New("windowpager: page key mismatch")
	// ErrPageOverflow reports a page holding more items than the page size.
	ErrPageOverflow = errors.New("windowpager: page larger than page size")
)

// LoadError is sent on the error stream of a pager when loading a page fails.
// The page stays absent and is requested again by the next visibility check
// or invalidation.
type LoadError[K Key] struct {
	Key K
	Err error
}

func (e *LoadError[K]) Error() string {
	return fmt.Sprintf("windowpager: load page %v: %v", e.Key, e.Err)
}

func (e *LoadError[K]) Unwrap() error {
	return e.Err
}
