// Package remote simulates a data source reached over a slow, unreliable
// network.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	wp "github.com/zhangzqs/windowpager-go"
	"github.com/zhangzqs/windowpager-go/internal/logctx"
)

// ErrUnavailable is returned by injected failures.
var ErrUnavailable = errors.New("remote unavailable")

// Config describes the simulated network.
type Config struct {
	// Latency is added to every call.
	Latency time.Duration `mapstructure:"latency"`
	// Jitter adds up to this much random latency.
	Jitter time.Duration `mapstructure:"jitter"`
	// FailEvery makes every n-th call fail. Zero disables failures.
	FailEvery int `mapstructure:"fail_every"`
}

// DefaultConfig returns a network with half a second of latency.
func DefaultConfig() Config {
	return Config{Latency: 500 * time.Millisecond}
}

// Source delays and occasionally fails the calls to a wrapped source.
type Source[T any, K wp.Key] struct {
	source wp.DataSource[T, K]
	cfg    Config
	calls  atomic.Int64
}

// New wraps source behind the network described by cfg.
func New[T any, K wp.Key](source wp.DataSource[T, K], cfg Config) *Source[T, K] {
	return &Source[T, K]{source: source, cfg: cfg}
}

// Calls returns how many loads were attempted.
func (s *Source[T, K]) Calls() int64 {
	return s.calls.Load()
}

// Load waits out the simulated latency and then loads from the wrapped source.
func (s *Source[T, K]) Load(ctx context.Context, key K, pageSize int) (wp.Page[T, K], error) {
	n := s.calls.Add(1)
	delay := s.cfg.Latency
	if s.cfg.Jitter > 0 {
		delay += rand.N(s.cfg.Jitter)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return wp.Page[T, K]{}, ctx.Err()
		}
	}

	if s.cfg.FailEvery > 0 && n%int64(s.cfg.FailEvery) == 0 {
		logctx.FromContext(ctx).Debug("injected remote failure", slog.Any("key", key), slog.Int64("call", n))
		return wp.Page[T, K]{}, fmt.Errorf("load page %v: %w", key, ErrUnavailable)
	}
	return s.source.Load(ctx, key, pageSize)
}
