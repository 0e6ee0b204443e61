package windowpager

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// films returns n films with IDs from first on.
func films(first, n int) []film {
	out := make([]film, n)
	for i := range out {
		id := first + i
		out[i] = film{ID: id, Year: 2000 + id}
	}
	return out
}

// fakeSource serves a slice of films by page number. Loads can be held back
// with a gate, delayed or made to fail per key.
type fakeSource struct {
	mu        sync.Mutex
	items     []film
	unknown   bool
	delay     time.Duration
	calls     map[int]int
	cancelled int
	gates     map[int]chan struct{}
	fails     map[int]error
}

func newFakeSource(items []film) *fakeSource {
	return &fakeSource{
		items: items,
		calls: make(map[int]int),
		gates: make(map[int]chan struct{}),
		fails: make(map[int]error),
	}
}

func (s *fakeSource) Load(ctx context.Context, key, pageSize int) (Page[film, int], error) {
	s.mu.Lock()
	s.calls[key]++
	gate, err, delay := s.gates[key], s.fails[key], s.delay
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return s.abort(ctx)
		}
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return s.abort(ctx)
		}
	}
	if err != nil {
		return Page[film, int]{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	from := min(key*pageSize, len(s.items))
	to := min(from+pageSize, len(s.items))
	total := len(s.items)
	if s.unknown {
		total = -1
	}
	return NewOffsetPage(key, pageSize, append([]film(nil), s.items[from:to]...), total), nil
}

func (s *fakeSource) abort(ctx context.Context) (Page[film, int], error) {
	s.mu.Lock()
	s.cancelled++
	s.mu.Unlock()
	return Page[film, int]{}, ctx.Err()
}

// gate holds back loads of key until the returned channel is closed.
func (s *fakeSource) gate(key int) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[key] = ch
	return ch
}

func (s *fakeSource) fail(key int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, key)
		return
	}
	s.fails[key] = err
}

func (s *fakeSource) setItems(items []film) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *fakeSource) callsFor(key int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func (s *fakeSource) cancellations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() Config {
	return Config{
		PageSize:       10,
		Threshold:      3,
		MaxPagesToKeep: 5,
		MaxItemsToKeep: 60,
		MinItemsToLoad: 20,
	}
}

func settle(t *testing.T, p interface{ Settle(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx))
}

func nextError(t *testing.T, errs <-chan error) error {
	t.Helper()
	select {
	case err := <-errs:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
		return nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 5*time.Millisecond)
}
