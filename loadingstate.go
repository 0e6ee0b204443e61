package windowpager

// LoadingState aggregates pending loads at the two edges of the window.
type LoadingState int

const (
	// LoadingNone means no edge load is pending.
	LoadingNone LoadingState = iota
	// LoadingStart means a load before the first retained page is pending.
	LoadingStart
	// LoadingEnd means a load after the last retained page is pending.
	LoadingEnd
	// LoadingBoth means loads are pending at both edges.
	LoadingBoth
)

// JoinLoadingState combines the two edge flags into a LoadingState.
func JoinLoadingState(start, end bool) LoadingState {
	switch {
	case start && end:
		return LoadingBoth
	case start:
		return LoadingStart
	case end:
		return LoadingEnd
	default:
		return LoadingNone
	}
}

// Start reports whether a load at the front edge is pending.
func (s LoadingState) Start() bool {
	return s == LoadingStart || s == LoadingBoth
}

// End reports whether a load at the back edge is pending.
func (s LoadingState) End() bool {
	return s == LoadingEnd || s == LoadingBoth
}

// Begin returns the state after a load in direction d has started.
func (s LoadingState) Begin(d Direction) LoadingState {
	switch d {
	case DirectionStart:
		return JoinLoadingState(true, s.End())
	case DirectionEnd:
		return JoinLoadingState(s.Start(), true)
	}
	return s
}

// Complete returns the state after a load in direction d has finished.
func (s LoadingState) Complete(d Direction) LoadingState {
	switch d {
	case DirectionStart:
		return JoinLoadingState(false, s.End())
	case DirectionEnd:
		return JoinLoadingState(s.Start(), false)
	}
	return s
}

func (s LoadingState) String() string {
	switch s {
	case LoadingNone:
		return "none"
	case LoadingStart:
		return "start"
	case LoadingEnd:
		return "end"
	case LoadingBoth:
		return "both"
	}
	return "unknown"
}

// Direction tells on which edge of the window a load happens.
type Direction int

const (
	// DirectionNone marks loads that do not extend an edge, such as the
	// initial page or the page under a jump target.
	DirectionNone Direction = iota
	DirectionStart
	DirectionEnd
)

func (d Direction) String() string {
	switch d {
	case DirectionStart:
		return "start"
	case DirectionEnd:
		return "end"
	}
	return "none"
}
