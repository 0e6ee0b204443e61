package windowpager

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJumpable(t *testing.T, source *fakeSource, cfg Config) *JumpablePager[film, int, int] {
	t.Helper()
	p, err := NewJumpablePager[film, int, int](source, 0, cfg, PageByOffset[film, int](cfg.PageSize), quiet())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p
}

// loadedIDs returns the IDs of the loaded slots and the total slot count.
func loadedIDs(slots []Slot[film]) ([]int, int) {
	loaded := lo.Filter(slots, func(s Slot[film], _ int) bool { return s.Loaded })
	return lo.Map(loaded, func(s Slot[film], _ int) int { return s.Item.ID }), len(slots)
}

func TestPageByOffset(t *testing.T) {
	t.Parallel()

	byOffset := PageByOffset[film, int](10)
	pos, ok := byOffset(57, nil)
	require.True(t, ok)
	assert.Equal(t, PagePosition[int]{Page: 5, Index: 7}, pos)

	_, ok = byOffset(-1, nil)
	assert.False(t, ok)
}

func TestJumpablePagerPublishesPlaceholders(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 100))
	p := newJumpable(t, source, testConfig())

	p.OnNoItemVisible()
	settle(t, p)

	got, total := loadedIDs(p.Data().Value())
	assert.Equal(t, seq(1, 10), got)
	assert.Equal(t, 100, total)
	assert.False(t, p.Data().Value()[10].Loaded)
}

func TestJumpablePagerJumpLoadsNeighbours(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 100))
	p := newJumpable(t, source, testConfig())
	p.OnNoItemVisible()
	settle(t, p)

	p.JumpTo(5)
	assert.Equal(t, PagePosition[int]{Page: 5}, p.CurrentPage().Value())
	settle(t, p)

	slots := p.Data().Value()
	got, total := loadedIDs(slots)
	assert.Equal(t, seq(41, 70), got)
	assert.Equal(t, 100, total)
	assert.Equal(t, 41, slots[40].Item.ID, "items keep their absolute position")
	assert.Equal(t, 1, source.callsFor(0))
}

func TestJumpablePagerLoadsDistantPageOnVisibility(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 100))
	p := newJumpable(t, source, testConfig())
	p.OnNoItemVisible()
	settle(t, p)
	p.JumpTo(5)
	settle(t, p)

	p.OnItemVisible(55)
	settle(t, p)
	assert.Equal(t, PagePosition[int]{Page: 5, Index: 5}, p.CurrentPage().Value())
	assert.Equal(t, 0, source.callsFor(7))

	// the first item of page 8 pulls in page 7 as well
	p.OnItemVisible(80)
	settle(t, p)
	assert.Equal(t, PagePosition[int]{Page: 8, Index: 0}, p.CurrentPage().Value())

	got, total := loadedIDs(p.Data().Value())
	assert.Equal(t, seq(41, 90), got)
	assert.Equal(t, 100, total)
	assert.Equal(t, 1, source.callsFor(8))
	assert.Equal(t, 1, source.callsFor(7))
}

func TestJumpablePagerEvictsAroundCurrentPage(t *testing.T) {
	t.Parallel()

	source := newFakeSource(films(1, 200))
	cfg := testConfig()
	cfg.MaxPagesToKeep = 3
	p := newJumpable(t, source, cfg)
	p.OnNoItemVisible()
	settle(t, p)
	p.JumpTo(2)
	settle(t, p)

	p.OnItemVisible(150)
	settle(t, p)

	// page 15 and its previous page displace pages 1 and 2
	got, _ := loadedIDs(p.Data().Value())
	assert.Equal(t, append(seq(31, 40), seq(141, 160)...), got)
	assert.Equal(t, 0, source.callsFor(16))
}
