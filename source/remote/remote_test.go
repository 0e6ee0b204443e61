package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wp "github.com/zhangzqs/windowpager-go"
)

func pages() wp.DataSource[int, int] {
	return wp.DataSourceFunc[int, int](func(ctx context.Context, key, pageSize int) (wp.Page[int, int], error) {
		return wp.NewOffsetPage(key, pageSize, []int{key}, -1), nil
	})
}

func TestSourceAddsLatency(t *testing.T) {
	t.Parallel()

	s := New(pages(), Config{Latency: 30 * time.Millisecond, Jitter: 10 * time.Millisecond})
	start := time.Now()
	page, err := s.Load(context.Background(), 4, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, []int{4}, page.Items)
	assert.Equal(t, int64(1), s.Calls())
}

func TestSourceHonorsCancellation(t *testing.T) {
	t.Parallel()

	s := New(pages(), DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Load(ctx, 0, 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSourceFailsEveryNthCall(t *testing.T) {
	t.Parallel()

	s := New(pages(), Config{FailEvery: 3})
	ctx := context.Background()
	var failures int
	for key := range 9 {
		if _, err := s.Load(ctx, key, 10); err != nil {
			assert.ErrorIs(t, err, ErrUnavailable)
			failures++
		}
	}
	assert.Equal(t, 3, failures)
	assert.Equal(t, int64(9), s.Calls())
}
