package windowpager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflightSupersedesPredecessor(t *testing.T) {
	t.Parallel()

	r := newInflight[int]()
	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	t1 := r.add(3, DirectionEnd, cancelFirst)

	_, cancelSecond := context.WithCancel(context.Background())
	t2 := r.add(3, DirectionEnd, cancelSecond)

	require.Error(t, first.Err(), "superseded load must be cancelled")
	assert.False(t, r.current(3, t1))
	assert.True(t, r.current(3, t2))
	assert.Equal(t, 1, r.len())

	_, ok := r.finish(3, t1)
	assert.False(t, ok, "stale token cannot finish the live load")
	l, ok := r.finish(3, t2)
	require.True(t, ok)
	assert.Equal(t, DirectionEnd, l.dir)
	assert.False(t, l.started.IsZero())
	assert.False(t, r.has(3))
}

func TestInflightState(t *testing.T) {
	t.Parallel()

	r := newInflight[int]()
	noop := func() {}
	assert.Equal(t, LoadingNone, r.state())

	r.add(1, DirectionNone, noop)
	assert.Equal(t, LoadingNone, r.state())

	r.add(0, DirectionStart, noop)
	r.add(5, DirectionEnd, noop)
	r.add(6, DirectionEnd, noop)
	assert.Equal(t, LoadingBoth, r.state())

	r.cancel(0)
	assert.Equal(t, LoadingEnd, r.state())

	// one End load finishing leaves the other one pending
	r.cancel(5)
	assert.Equal(t, LoadingEnd, r.state())

	assert.Equal(t, 2, r.cancelAll())
	assert.Equal(t, LoadingNone, r.state())
	assert.False(t, r.cancel(6))
}
