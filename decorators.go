package windowpager

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jellydator/ttlcache/v3"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/zhangzqs/windowpager-go/internal/logctx"
)

type cacheKey[K Key] struct {
	key      K
	pageSize int
}

// CachedDataSource wraps a DataSource and caches pages for a TTL. Failed
// loads are not cached.
type CachedDataSource[T any, K Key] struct {
	source DataSource[T, K]
	cache  *ttlcache.Cache[cacheKey[K], Page[T, K]]
}

// NewCachedDataSource creates a new CachedDataSource with the specified TTL.
// If ttl is 0 or negative, a default TTL of 5 minutes is used.
func NewCachedDataSource[T any, K Key](source DataSource[T, K], ttl time.Duration) *CachedDataSource[T, K] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDataSource[T, K]{
		source: source,
		cache: ttlcache.New(
			ttlcache.WithTTL[cacheKey[K], Page[T, K]](ttl),
			ttlcache.WithDisableTouchOnHit[cacheKey[K], Page[T, K]](),
		),
	}
}

// Load returns the cached page for key, or loads and caches it.
func (c *CachedDataSource[T, K]) Load(ctx context.Context, key K, pageSize int) (Page[T, K], error) {
	ck := cacheKey[K]{key: key, pageSize: pageSize}
	if item := c.cache.Get(ck); item != nil {
		return item.Value(), nil
	}
	page, err := c.source.Load(ctx, key, pageSize)
	if err != nil {
		return page, err
	}
	c.cache.Set(ck, page, ttlcache.DefaultTTL)
	return page, nil
}

// Forget drops every cached page for key.
func (c *CachedDataSource[T, K]) Forget(key K) {
	for _, ck := range c.cache.Keys() {
		if ck.key == key {
			c.cache.Delete(ck)
		}
	}
}

// ClearCache removes all cached entries.
func (c *CachedDataSource[T, K]) ClearCache() {
	c.cache.DeleteAll()
}

// EvictExpired removes expired entries from the cache.
func (c *CachedDataSource[T, K]) EvictExpired() {
	c.cache.DeleteExpired()
}

// RateLimitedDataSource wraps a DataSource and rate limits its calls.
type RateLimitedDataSource[T any, K Key] struct {
	source  DataSource[T, K]
	limiter *rate.Limiter
}

// NewRateLimitedDataSource creates a new RateLimitedDataSource.
// requestsPerSecond specifies how many requests are allowed per second.
// burst specifies the maximum number of requests that can be made in a burst.
func NewRateLimitedDataSource[T any, K Key](source DataSource[T, K], requestsPerSecond float64, burst int) *RateLimitedDataSource[T, K] {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	if burst <= 0 {
		burst = max(int(requestsPerSecond), 1)
	}
	return &RateLimitedDataSource[T, K]{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Load waits for the limiter and then loads from the source.
func (r *RateLimitedDataSource[T, K]) Load(ctx context.Context, key K, pageSize int) (Page[T, K], error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Page[T, K]{}, err
	}
	return r.source.Load(ctx, key, pageSize)
}

// RetryDataSource wraps a DataSource and retries failed loads with
// exponential backoff. Cancellation is never retried.
type RetryDataSource[T any, K Key] struct {
	source      DataSource[T, K]
	maxRetries  int
	initialWait time.Duration
}

// NewRetryDataSource creates a new RetryDataSource.
// maxRetries specifies the maximum number of retry attempts (0 means no retries).
// initialWait specifies the wait before the first retry.
func NewRetryDataSource[T any, K Key](source DataSource[T, K], maxRetries int, initialWait time.Duration) *RetryDataSource[T, K] {
	if maxRetries < 0 {
		maxRetries = 3
	}
	if initialWait <= 0 {
		initialWait = 100 * time.Millisecond
	}
	return &RetryDataSource[T, K]{
		source:      source,
		maxRetries:  maxRetries,
		initialWait: initialWait,
	}
}

// Load loads from the source, retrying failures.
func (r *RetryDataSource[T, K]) Load(ctx context.Context, key K, pageSize int) (Page[T, K], error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialWait
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxRetries)), ctx)

	var page Page[T, K]
	op := func() error {
		p, err := r.source.Load(ctx, key, pageSize)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		page = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logctx.FromContext(ctx).Debug("retrying page load",
			slog.Any("key", key), slog.Duration("wait", wait), slog.Any("error", err))
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return Page[T, K]{}, err
	}
	return page, nil
}

// LoggingDataSource wraps a DataSource and logs every call.
type LoggingDataSource[T any, K Key] struct {
	source DataSource[T, K]
	logger *slog.Logger
}

// NewLoggingDataSource creates a new LoggingDataSource.
// If logger is nil, the logger carried by the call context is used.
func NewLoggingDataSource[T any, K Key](source DataSource[T, K], logger *slog.Logger) *LoggingDataSource[T, K] {
	return &LoggingDataSource[T, K]{
		source: source,
		logger: logger,
	}
}

// Load loads from the source and logs the outcome.
func (l *LoggingDataSource[T, K]) Load(ctx context.Context, key K, pageSize int) (Page[T, K], error) {
	logger := l.logger
	if logger == nil {
		logger = logctx.FromContext(ctx)
	}
	logger = logger.With(slog.Any("key", key), slog.Int("pageSize", pageSize))

	start := time.Now()
	page, err := l.source.Load(ctx, key, pageSize)
	elapsed := time.Since(start)

	if err != nil {
		logger.Info("page load failed", slog.Duration("elapsed", elapsed), slog.Any("error", err))
		return page, err
	}
	logger.Info("page loaded",
		slog.Duration("elapsed", elapsed),
		slog.Int("items", len(page.Items)),
		slog.Bool("hasPrev", page.HasPrev),
		slog.Bool("hasNext", page.HasNext))
	return page, nil
}

// TransformDataSource wraps a DataSource and transforms items from type S to type T.
type TransformDataSource[S any, T any, K Key] struct {
	source    DataSource[S, K]
	transform func(S) T
}

// NewTransformDataSource creates a new TransformDataSource that applies a transformation function to each item.
func NewTransformDataSource[S any, T any, K Key](source DataSource[S, K], transform func(S) T) *TransformDataSource[S, T, K] {
	return &TransformDataSource[S, T, K]{
		source:    source,
		transform: transform,
	}
}

// Load loads from the source and transforms each item.
func (t *TransformDataSource[S, T, K]) Load(ctx context.Context, key K, pageSize int) (Page[T, K], error) {
	page, err := t.source.Load(ctx, key, pageSize)
	if err != nil {
		return Page[T, K]{}, err
	}
	return Page[T, K]{
		Items:       lo.Map(page.Items, func(item S, _ int) T { return t.transform(item) }),
		Key:         page.Key,
		PrevKey:     page.PrevKey,
		HasPrev:     page.HasPrev,
		NextKey:     page.NextKey,
		HasNext:     page.HasNext,
		ItemsBefore: page.ItemsBefore,
		ItemsAfter:  page.ItemsAfter,
	}, nil
}
