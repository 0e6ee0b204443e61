package windowpager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimple(t *testing.T, source *fakeSource, initial int, cfg Config) *SimplePager[film, int] {
	t.Helper()
	p, err := NewSimplePager[film, int](source, initial, cfg, quiet())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p
}

func TestSimplePagerLoadsInitialAndPrefetches(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	p := newSimple(t, source, 0, testConfig())

	p.OnNoItemVisible()
	settle(t, p)
	assert.Equal(t, seq(1, 10), ids(p.Data().Value()))

	// two items before the end of the page
	p.OnItemVisible(7)
	settle(t, p)
	assert.Equal(t, seq(1, 20), ids(p.Data().Value()))
	assert.Equal(t, 0, source.callsFor(2))
}

func TestSimplePagerRepeatedVisibilityIsIdempotent(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	p := newSimple(t, source, 0, testConfig())

	p.OnNoItemVisible()
	p.OnItemVisible(7)
	settle(t, p)
	before := p.Data().Value()

	for range 5 {
		p.OnItemVisible(7)
	}
	settle(t, p)
	assert.Equal(t, before, p.Data().Value())
	assert.Equal(t, 1, source.callsFor(0))
	assert.Equal(t, 1, source.callsFor(1))
}

func TestSimplePagerDeduplicatesInflightLoads(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	gate := source.gate(1)
	p := newSimple(t, source, 0, testConfig())

	p.OnNoItemVisible()
	p.OnItemVisible(8)
	waitFor(t, func() bool { return source.callsFor(1) == 1 })
	for _, index := range []int{9, 7, 8, 9} {
		p.OnItemVisible(index)
	}
	close(gate)
	settle(t, p)

	assert.Equal(t, 1, source.callsFor(1))
	assert.Equal(t, seq(1, 20), ids(p.Data().Value()))
}

func TestSimplePagerEvictsFarthestPage(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	gate := source.gate(2)
	cfg := testConfig()
	cfg.MaxPagesToKeep = 2
	p := newSimple(t, source, 0, cfg)

	p.OnNoItemVisible()
	p.OnItemVisible(8)
	settle(t, p)
	p.OnItemVisible(18)
	waitFor(t, func() bool { return source.callsFor(2) == 1 })

	// the visible item lives in the page still on its way
	p.OnItemVisible(25)
	close(gate)
	settle(t, p)

	assert.Equal(t, seq(11, 30), ids(p.Data().Value()))
}

func TestSimplePagerKeepsSourceOrder(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	p := newSimple(t, source, 2, testConfig())

	p.OnNoItemVisible()
	settle(t, p)
	assert.Equal(t, seq(21, 30), ids(p.Data().Value()))

	// the index anchor stays at the top while pages are prepended
	p.OnItemVisible(0)
	settle(t, p)
	assert.Equal(t, seq(1, 30), ids(p.Data().Value()))
}

func TestSimplePagerReportsFailuresAndRetries(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	source := newFakeSource(films(1, 50))
	source.fail(1, boom)
	p := newSimple(t, source, 0, testConfig())

	p.OnNoItemVisible()
	p.OnItemVisible(8)

	err := nextError(t, p.Errors())
	var le *LoadError[int]
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Key)
	assert.ErrorIs(t, err, boom)

	settle(t, p)
	assert.Equal(t, LoadingNone, p.LoadingState().Value())
	assert.Equal(t, seq(1, 10), ids(p.Data().Value()))

	source.fail(1, nil)
	p.OnItemVisible(8)
	settle(t, p)
	assert.Equal(t, seq(1, 20), ids(p.Data().Value()))
	assert.Equal(t, 2, source.callsFor(1))
}

func TestSimplePagerInvalidateReloadsHeldPages(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	p := newSimple(t, source, 0, testConfig())

	p.OnNoItemVisible()
	p.OnItemVisible(8)
	settle(t, p)

	source.setItems(films(101, 50))
	p.Invalidate()
	settle(t, p)

	assert.Equal(t, seq(101, 120), ids(p.Data().Value()))
	assert.Equal(t, 2, source.callsFor(0))
	assert.Equal(t, 2, source.callsFor(1))
	assert.Equal(t, 0, source.callsFor(2))
}

func TestSimplePagerInvalidateTerminalForgetsEmptyPages(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 10))
	source.unknown = true
	p := newSimple(t, source, 0, testConfig())

	p.OnNoItemVisible()
	p.OnItemVisible(8)
	settle(t, p)
	assert.Equal(t, 1, source.callsFor(1), "the page after the end is requested once")
	assert.Equal(t, seq(1, 10), ids(p.Data().Value()))

	source.setItems(films(1, 20))
	p.Invalidate()
	settle(t, p)
	assert.Equal(t, seq(1, 10), ids(p.Data().Value()), "known empty pages are not requested again")
	assert.Equal(t, 1, source.callsFor(1))

	p.InvalidateTerminal()
	settle(t, p)
	assert.Equal(t, seq(1, 20), ids(p.Data().Value()))
	assert.Equal(t, 2, source.callsFor(1))
}

func TestSimplePagerDestroy(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	gate := source.gate(1)
	defer close(gate)
	p, err := NewSimplePager[film, int](source, 0, testConfig(), quiet())
	require.NoError(t, err)

	updates := p.Data().Subscribe(context.Background())
	p.OnNoItemVisible()
	p.OnItemVisible(8)
	waitFor(t, func() bool { return source.callsFor(1) == 1 })

	p.Destroy()
	p.Destroy()

	waitFor(t, func() bool { return source.cancellations() == 1 })
	for range updates {
	}
	_, open := <-p.Errors()
	assert.False(t, open)
	assert.ErrorIs(t, p.Settle(context.Background()), ErrDestroyed)

	// reports after Destroy are ignored
	p.OnItemVisible(0)
	p.Invalidate()
}

func TestSimplePagerRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 50))
	_, err := NewSimplePager[film, int](source, 0, Config{Threshold: -1}, quiet())
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "page size")
	assert.Contains(t, err.Error(), "threshold")
	assert.Contains(t, err.Error(), "max pages")

	_, err = NewSimplePager[film, int](nil, 0, testConfig())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSimplePagerRejectsMismatchedPages(t *testing.T) {
	t.Parallel()

	source := DataSourceFunc[film, int](func(ctx context.Context, key, pageSize int) (Page[film, int], error) {
		return Page[film, int]{Items: films(1, 2), Key: key + 1}, nil
	})
	p, err := NewSimplePager[film, int](source, 0, testConfig(), quiet())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)

	p.OnNoItemVisible()
	require.ErrorIs(t, nextError(t, p.Errors()), ErrKeyMismatch)
	settle(t, p)
	assert.Empty(t, p.Data().Value())
}
