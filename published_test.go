package windowpager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishedSubscribeReceivesCurrentThenLatest(t *testing.T) {
	t.Parallel()

	p := NewPublished(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := p.Subscribe(ctx)
	assert.Equal(t, 1, <-ch)

	p.set(2)
	p.set(3)
	assert.Equal(t, 3, <-ch, "unread values are conflated")
	assert.Equal(t, 3, p.Value())

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		require.Fail(t, "subscription not closed after cancel")
	}
}

func TestPublishedClose(t *testing.T) {
	t.Parallel()

	p := NewPublished("a")
	ch := p.Subscribe(context.Background())
	<-ch

	p.close()
	p.close()
	_, open := <-ch
	assert.False(t, open)

	p.set("b")
	assert.Equal(t, "a", p.Value(), "closed values do not change")

	late := p.Subscribe(context.Background())
	_, open = <-late
	assert.False(t, open)
}
