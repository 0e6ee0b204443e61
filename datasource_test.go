package windowpager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSourceFunc(t *testing.T) {
	t.Parallel()

	ds := DataSourceFunc[int, int](func(ctx context.Context, key int, pageSize int) (Page[int, int], error) {
		return Page[int, int]{Items: []int{1, 2, 3}, Key: key, NextKey: key + 1, HasNext: true}, nil
	})

	page, err := ds.Load(context.Background(), 4, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Key)
	assert.Equal(t, 3, page.Len())

	next, ok := page.Next()
	assert.True(t, ok)
	assert.Equal(t, 5, next)

	_, ok = page.Prev()
	assert.False(t, ok)
}

func TestNewOffsetPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        int
		items      int
		total      int
		wantPrev   bool
		wantNext   bool
		wantBefore int
		wantAfter  int
	}{
		{name: "first page of many", key: 0, items: 10, total: 35, wantNext: true, wantAfter: 25},
		{name: "middle page", key: 1, items: 10, total: 35, wantPrev: true, wantNext: true, wantBefore: 10, wantAfter: 15},
		{name: "short last page", key: 3, items: 5, total: 35, wantPrev: true, wantBefore: 30},
		{name: "full last page", key: 2, items: 10, total: 30, wantPrev: true, wantBefore: 20},
		{name: "unknown total full page", key: 2, items: 10, total: -1, wantPrev: true, wantNext: true, wantBefore: 20},
		{name: "unknown total short page", key: 2, items: 3, total: -1, wantPrev: true, wantBefore: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewOffsetPage(tt.key, 10, make([]int, tt.items), tt.total)
			assert.Equal(t, tt.key, page.Key)
			assert.Equal(t, tt.wantPrev, page.HasPrev)
			assert.Equal(t, tt.wantNext, page.HasNext)
			assert.Equal(t, tt.wantBefore, page.ItemsBefore)
			assert.Equal(t, tt.wantAfter, page.ItemsAfter)
			if tt.wantPrev {
				assert.Equal(t, tt.key-1, page.PrevKey)
			}
			if tt.wantNext {
				assert.Equal(t, tt.key+1, page.NextKey)
			}
		})
	}
}
