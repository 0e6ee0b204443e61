package windowpager

// Actions processed by the run loop of an engine, strictly in FIFO order.
type action interface {
	name() string
}

type (
	// visibilityChanged picks up the latest anchor reported by OnItemVisible.
	visibilityChanged struct{}
	checkNeedLoad     struct{}
	removePages       struct{}
	updateDataFlow    struct{}

	loadPage[K Key] struct {
		key K
		dir Direction
	}

	invalidate struct {
		full     bool
		terminal bool
	}

	jump[K Key] struct {
		key K
	}

	setFilter[T any] struct {
		pred func(T) bool
	}

	// pageLoaded carries the result of a background load. Interim results
	// come from the faster source of a race and leave the load registered.
	pageLoaded[T any, K Key] struct {
		key     K
		token   uint64
		page    Page[T, K]
		err     error
		interim bool
	}

	refreshed[T any, K Key] struct {
		gen   uint64
		pages []Page[T, K]
		err   error
	}

	settleRequest struct {
		reply chan struct{}
	}
)

func (visibilityChanged) name() string { return "visibility_changed" }
func (checkNeedLoad) name() string     { return "check_need_load" }
func (removePages) name() string       { return "remove_pages" }
func (updateDataFlow) name() string    { return "update_data_flow" }
func (loadPage[K]) name() string       { return "load_page" }
func (invalidate) name() string        { return "invalidate" }
func (jump[K]) name() string           { return "jump" }
func (setFilter[T]) name() string      { return "set_filter" }
func (pageLoaded[T, K]) name() string  { return "page_loaded" }
func (refreshed[T, K]) name() string   { return "refreshed" }
func (settleRequest) name() string     { return "settle" }
