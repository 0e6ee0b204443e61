package windowpager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/oleiade/lane/v2"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhangzqs/windowpager-go/internal/logctx"
)

// checkMode selects how CheckNeedLoad measures the distance to an edge.
type checkMode int

const (
	// checkPage measures inside the page holding the visible item.
	checkPage checkMode = iota
	// checkEdges measures against the first and last item of the window.
	checkEdges
)

// refreshPlan selects which pages a partial invalidation or a jump reloads.
type refreshPlan int

const (
	refreshHeld refreshPlan = iota
	refreshWalk
	refreshNeighbors
)

// position locates the visible anchor.
type position[K Key] struct {
	key    K
	index  int // inside the page
	offset int // inside the flattened window, only for retained pages
	loaded bool
}

type locateFunc[T any, K Key, A comparable] func(store *pageStore[T, K, A], anchor A) (position[K], bool)

// engineSpec is what a pager variant plugs into the engine.
type engineSpec[T any, K Key, A comparable] struct {
	kind      string
	primary   DataSource[T, K]
	secondary DataSource[T, K]
	initial   K
	cfg       Config
	budget    budget
	identify  func(T) A
	filter    func(T) bool
	locate    locateFunc[T, K, A]
	check     checkMode
	refresh   refreshPlan
	publish   func(pages []Page[T, K])
	onClose   func()
}

// engine serializes every state change of a pager through one goroutine.
// Loads run in their own goroutines and report back through the mailbox.
type engine[T any, K Key, A comparable] struct {
	spec engineSpec[T, K, A]
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once

	mailbox *lane.Queue[action]
	queued  atomic.Int64
	wake    chan struct{}

	anchorMu   sync.Mutex
	latest     A
	hasLatest  bool
	visibility atomic.Bool

	loading  *Published[LoadingState]
	snapshot atomic.Pointer[[]Page[T, K]]
	errs     chan error

	// owned by run
	store       *pageStore[T, K, A]
	empty       mapset.Set[K]
	loads       *inflight[K]
	anchor      A
	hasAnchor   bool
	filter      func(T) bool
	refreshGen  uint64
	refreshStop context.CancelFunc
	waiters     []chan struct{}
	// set once a search for an anchor missing from the window filled it
	searchFull bool
}

func newEngine[T any, K Key, A comparable](spec engineSpec[T, K, A], opts []Option) *engine[T, K, A] {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &engine[T, K, A]{
		spec:    spec,
		log:     o.logger.With(slog.String("component", "windowpager"), slog.String("pager", spec.kind)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		mailbox: lane.NewQueue[action](),
		wake:    make(chan struct{}, 1),
		loading: NewPublished(LoadingNone),
		errs:    make(chan error, o.errorBuffer),
		store:   newPageStore[T, K](spec.identify),
		empty:   mapset.NewThreadUnsafeSet[K](),
		loads:   newInflight[K](),
		filter:  spec.filter,
	}
	empty := []Page[T, K]{}
	e.snapshot.Store(&empty)
	go e.run()
	return e
}

// LoadingState returns the aggregated state of pending edge loads.
func (e *engine[T, K, A]) LoadingState() *Published[LoadingState] {
	return e.loading
}

// Errors returns the stream of load failures. It is closed by Destroy.
func (e *engine[T, K, A]) Errors() <-chan error {
	return e.errs
}

// OnNoItemVisible reports that nothing is visible. A pager without pages
// then loads its initial page.
func (e *engine[T, K, A]) OnNoItemVisible() {
	var zero A
	e.visible(zero, false)
}

// Invalidate reloads the retained pages around the visible item and
// publishes them in one step, keeping the scroll position.
func (e *engine[T, K, A]) Invalidate() {
	e.enqueue(invalidate{})
}

// InvalidateTerminal is Invalidate that also forgets the pages known to be
// empty, so items appended to the source after its end was reached show up.
func (e *engine[T, K, A]) InvalidateTerminal() {
	e.enqueue(invalidate{terminal: true})
}

// Settle blocks until every queued action is processed and no load is
// running. It is meant for tests and scripted callers.
func (e *engine[T, K, A]) Settle(ctx context.Context) error {
	reply := make(chan struct{})
	if !e.enqueue(settleRequest{reply: reply}) {
		return ErrDestroyed
	}
	select {
	case <-reply:
		return nil
	case <-e.done:
		return ErrDestroyed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Destroy cancels all loads and stops the pager. Published streams and the
// error stream are closed. Calling Destroy more than once is safe.
func (e *engine[T, K, A]) Destroy() {
	e.once.Do(func() {
		e.closed.Store(true)
		e.cancel()
		<-e.done
		e.log.Debug("pager destroyed")
	})
}

// pages returns the pages of the last published snapshot.
func (e *engine[T, K, A]) pages() []Page[T, K] {
	return *e.snapshot.Load()
}

func (e *engine[T, K, A]) visible(anchor A, ok bool) {
	e.anchorMu.Lock()
	e.latest, e.hasLatest = anchor, ok
	e.anchorMu.Unlock()

	// at most one visibility action is queued, it reads the latest anchor
	if e.visibility.CompareAndSwap(false, true) {
		if !e.enqueue(visibilityChanged{}) {
			e.visibility.Store(false)
		}
	}
}

func (e *engine[T, K, A]) enqueue(a action) bool {
	if e.closed.Load() {
		return false
	}
	e.queued.Add(1)
	e.mailbox.Enqueue(a)
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return true
}

func (e *engine[T, K, A]) run() {
	defer close(e.done)
	for {
		for e.ctx.Err() == nil {
			a, ok := e.mailbox.Dequeue()
			if !ok {
				break
			}
			e.queued.Add(-1)
			e.process(a)
		}
		e.notifyIdle()

		select {
		case <-e.ctx.Done():
			e.shutdown()
			return
		case <-e.wake:
		}
	}
}

func (e *engine[T, K, A]) process(a action) {
	switch a := a.(type) {
	case visibilityChanged:
		e.visibility.Store(false)
		e.anchorMu.Lock()
		e.anchor, e.hasAnchor = e.latest, e.hasLatest
		e.anchorMu.Unlock()
		e.searchFull = false
		e.handleCheckNeedLoad()
	case checkNeedLoad:
		e.handleCheckNeedLoad()
	case loadPage[K]:
		e.handleLoadPage(a.key, a.dir)
	case pageLoaded[T, K]:
		e.onPageLoaded(a)
	case removePages:
		e.handleRemovePages()
	case updateDataFlow:
		e.handleUpdateDataFlow()
	case invalidate:
		e.handleInvalidate(a.full, a.terminal)
	case jump[K]:
		e.handleJump(a.key)
	case setFilter[T]:
		e.filter = a.pred
		e.handleInvalidate(true, false)
	case refreshed[T, K]:
		e.onRefreshed(a)
	case settleRequest:
		e.waiters = append(e.waiters, a.reply)
	default:
		e.log.Error("unknown action", slog.String("action", a.name()))
	}
}

func (e *engine[T, K, A]) idle() bool {
	return e.queued.Load() == 0 && e.loads.len() == 0 && e.refreshStop == nil
}

func (e *engine[T, K, A]) notifyIdle() {
	if len(e.waiters) == 0 || !e.idle() {
		return
	}
	for _, w := range e.waiters {
		close(w)
	}
	e.waiters = nil
}

func (e *engine[T, K, A]) locate() (position[K], bool) {
	if !e.hasAnchor {
		return position[K]{}, false
	}
	return e.spec.locate(e.store, e.anchor)
}

func (e *engine[T, K, A]) handleCheckNeedLoad() {
	if e.refreshStop != nil {
		// replayed when the refresh lands
		return
	}

	pos, found := e.locate()
	if e.store.len() == 0 {
		key := e.spec.initial
		if found {
			key = pos.key
		}
		e.enqueue(loadPage[K]{key: key, dir: DirectionNone})
		return
	}

	if e.spec.check == checkEdges {
		e.checkEdges(pos, found)
		return
	}
	if !found {
		return
	}
	if !pos.loaded {
		e.enqueue(loadPage[K]{key: pos.key, dir: DirectionNone})
		return
	}
	page, _ := e.store.get(pos.key)
	threshold := e.spec.cfg.Threshold
	if prev, ok := page.Prev(); ok && pos.index < threshold {
		e.enqueue(loadPage[K]{key: prev, dir: DirectionStart})
	}
	if next, ok := page.Next(); ok && page.Len()-pos.index <= threshold {
		e.enqueue(loadPage[K]{key: next, dir: DirectionEnd})
	}
}

func (e *engine[T, K, A]) checkEdges(pos position[K], found bool) {
	first, _ := e.store.first()
	last, _ := e.store.last()
	threshold := e.spec.cfg.Threshold

	if e.hasAnchor && !found {
		// the visible item was filtered out or lies beyond the window
		if e.searchFull {
			return
		}
		limit := e.spec.budget.maxItems
		if next, ok := last.Next(); ok && (limit == 0 || windowWeight(e.store.list()) < limit) {
			e.enqueue(loadPage[K]{key: next, dir: DirectionEnd})
		}
		return
	}
	if next, ok := last.Next(); ok && pos.offset >= e.store.itemCount()-threshold {
		e.enqueue(loadPage[K]{key: next, dir: DirectionEnd})
	}
	if prev, ok := first.Prev(); ok && pos.offset < threshold {
		e.enqueue(loadPage[K]{key: prev, dir: DirectionStart})
	}
}

func (e *engine[T, K, A]) needSkipLoading(key K) bool {
	return e.store.has(key) || e.empty.Contains(key) || e.loads.has(key)
}

func (e *engine[T, K, A]) handleLoadPage(key K, dir Direction) {
	if e.refreshStop != nil {
		return
	}
	if e.needSkipLoading(key) {
		return
	}
	ctx, cancel := context.WithCancel(e.ctx)
	token := e.loads.add(key, dir, cancel)
	e.publishLoading()
	e.log.Debug("load page", slog.Any("key", key), slog.String("direction", dir.String()))

	go func() {
		if e.spec.secondary != nil {
			e.race(ctx, key, token)
			return
		}
		page, err := e.fetch(ctx, e.spec.primary, key, "primary")
		e.enqueue(pageLoaded[T, K]{key: key, token: token, page: page, err: err})
	}()
}

// fetch calls src and checks the page it returns.
func (e *engine[T, K, A]) fetch(ctx context.Context, src DataSource[T, K], key K, role string) (Page[T, K], error) {
	ctx, span := tracer.Start(ctx, "windowpager.load", trace.WithAttributes(
		attribute.String("pager", e.spec.kind),
		attribute.String("source", role),
		attribute.Int64("key", int64(key)),
	))
	defer span.End()

	started := time.Now()
	page, err := src.Load(logctx.WithLogger(ctx, e.log), key, e.spec.cfg.PageSize)
	recordLoadDuration(e.spec.kind, started)
	if err == nil {
		switch {
		case page.Key != key:
			err = fmt.Errorf("%w: requested %v, got %v", ErrKeyMismatch, key, page.Key)
		case len(page.Items) > e.spec.cfg.PageSize:
			err = fmt.Errorf("%w: %d items", ErrPageOverflow, len(page.Items))
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return page, err
}

func (e *engine[T, K, A]) onPageLoaded(a pageLoaded[T, K]) {
	if !e.loads.current(a.key, a.token) {
		e.log.Debug("drop stale page", slog.Any("key", a.key))
		return
	}
	if !a.interim {
		if l, ok := e.loads.finish(a.key, a.token); ok {
			e.log.Debug("load finished",
				slog.Any("key", a.key),
				slog.String("direction", l.dir.String()),
				slog.Duration("elapsed", time.Since(l.started)))
		}
		e.publishLoading()
	}
	if a.err != nil {
		e.reportFailure(a.key, a.err)
		return
	}

	e.merge(a.page)
	e.enqueue(removePages{})
	e.enqueue(updateDataFlow{})
	pos, found := e.locate()
	recheck := !found || pos.key == a.key
	if e.spec.check == checkEdges {
		// a page the budget drops on arrival would be requested again at once
		recheck = !slices.Contains(e.evictions(), a.key)
	}
	if recheck {
		e.enqueue(checkNeedLoad{})
	}
}

// merge stores a loaded page. Pages without items are remembered as empty
// and never requested again until a terminal invalidation.
func (e *engine[T, K, A]) merge(page Page[T, K]) {
	if len(page.Items) == 0 {
		e.empty.Add(page.Key)
		e.store.remove(page.Key)
		return
	}
	e.empty.Remove(page.Key)
	if pred := e.filter; pred != nil {
		page.Items = lo.Filter(page.Items, func(item T, _ int) bool { return pred(item) })
	}
	e.store.add(page)
	count(pagesLoaded, e.spec.kind, 1)
	e.log.Debug("page merged", slog.Any("key", page.Key), slog.Int("items", len(page.Items)))
}

func (e *engine[T, K, A]) reportFailure(key K, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	count(loadFailures, e.spec.kind, 1)
	e.log.Warn("page load failed", slog.Any("key", key), slog.Any("error", err))
	select {
	case e.errs <- &LoadError[K]{Key: key, Err: err}:
	default:
		e.log.Warn("error stream full, dropping load error", slog.Any("key", key))
	}
}

func (e *engine[T, K, A]) handleRemovePages() {
	_, found := e.locate()
	evicted := e.evictions()
	for _, key := range evicted {
		e.store.remove(key)
		if e.loads.cancel(key) {
			count(loadsCancelled, e.spec.kind, 1)
		}
		e.log.Debug("evict page", slog.Any("key", key))
	}
	if len(evicted) > 0 {
		if e.hasAnchor && !found {
			e.searchFull = true
		}
		count(pagesEvicted, e.spec.kind, len(evicted))
		e.publishLoading()
	}
}

// evictionCenter returns the page the window is kept around. Ties drop the
// page on the far side of the visible item. In edge mode a window without a
// retained anchor is kept around the edge it grows from: the first page
// before any report, the last page while searching for a missing anchor.
func (e *engine[T, K, A]) evictionCenter() (key K, lowFirst bool, ok bool) {
	pos, found := e.locate()
	if found && pos.loaded {
		page, _ := e.store.get(pos.key)
		return pos.key, pos.index*2 >= page.Len(), true
	}
	if e.spec.check != checkEdges || e.store.len() == 0 {
		return key, false, false
	}
	if !e.hasAnchor {
		first, _ := e.store.first()
		return first.Key, false, true
	}
	last, _ := e.store.last()
	return last.Key, true, true
}

// evictions returns the pages the budget forces out of the window.
func (e *engine[T, K, A]) evictions() []K {
	center, lowFirst, ok := e.evictionCenter()
	if !ok {
		return nil
	}
	return selectEvictions(e.store.list(), center, lowFirst, e.spec.budget)
}

func (e *engine[T, K, A]) handleUpdateDataFlow() {
	pages := e.store.list()
	e.snapshot.Store(&pages)
	e.spec.publish(pages)
	count(snapshotsPublished, e.spec.kind, 1)
}

func (e *engine[T, K, A]) publishLoading() {
	if s := e.loads.state(); s != e.loading.Value() {
		e.loading.set(s)
	}
}

// stopAll cancels every load and the running refresh.
func (e *engine[T, K, A]) stopAll() {
	count(loadsCancelled, e.spec.kind, e.loads.cancelAll())
	if e.refreshStop != nil {
		e.refreshStop()
		e.refreshStop = nil
	}
	e.refreshGen++
	e.publishLoading()
}

func (e *engine[T, K, A]) handleInvalidate(full, terminal bool) {
	pos, found := e.locate()
	held := e.store.keyList()

	e.stopAll()
	e.store.clear()
	e.searchFull = false
	if terminal {
		e.empty.Clear()
	}
	e.log.Debug("invalidate", slog.Bool("full", full), slog.Bool("terminal", terminal), slog.Int("held", len(held)))

	var centred bool
	switch e.spec.refresh {
	case refreshHeld:
		centred = len(held) > 0
	case refreshWalk:
		centred = found && pos.loaded
	case refreshNeighbors:
		centred = found
	}
	if full || !centred {
		if full {
			// the visible item may no longer exist, wait for a new report
			e.hasAnchor = false
		}
		e.enqueue(updateDataFlow{})
		e.enqueue(checkNeedLoad{})
		return
	}
	e.startRefresh(pos.key, held)
}

func (e *engine[T, K, A]) handleJump(key K) {
	e.stopAll()
	e.store.clear()
	e.searchFull = false
	// the old anchor points into the window being dropped
	e.hasAnchor = false
	e.log.Debug("jump", slog.Any("key", key))
	e.startRefresh(key, nil)
}

func (e *engine[T, K, A]) startRefresh(center K, held []K) {
	gen := e.refreshGen
	ctx, cancel := context.WithCancel(e.ctx)
	e.refreshStop = cancel

	src := e.spec.primary
	if e.spec.secondary != nil {
		src = e.spec.secondary
	}
	r := refresher[T, K]{
		load: func(ctx context.Context, key K) (Page[T, K], error) {
			return e.fetch(ctx, src, key, "refresh")
		},
		filter:   e.filter,
		minItems: e.spec.cfg.MinItemsToLoad,
	}
	plan := e.spec.refresh

	go func() {
		var (
			pages []Page[T, K]
			err   error
		)
		switch plan {
		case refreshWalk:
			pages, err = r.walk(ctx, center)
		case refreshNeighbors:
			pages, err = r.neighbors(ctx, center)
		default:
			pages, err = r.held(ctx, held)
		}
		e.enqueue(refreshed[T, K]{gen: gen, pages: pages, err: err})
	}()
}

func (e *engine[T, K, A]) onRefreshed(a refreshed[T, K]) {
	if a.gen != e.refreshGen || e.refreshStop == nil {
		return
	}
	e.refreshStop()
	e.refreshStop = nil

	for _, page := range a.pages {
		e.merge(page)
	}
	if a.err != nil {
		var le *LoadError[K]
		if errors.As(a.err, &le) {
			e.reportFailure(le.Key, le.Err)
		} else {
			e.reportFailure(e.spec.initial, a.err)
		}
	}
	e.enqueue(removePages{})
	e.enqueue(updateDataFlow{})
	e.enqueue(checkNeedLoad{})
}

func (e *engine[T, K, A]) shutdown() {
	count(loadsCancelled, e.spec.kind, e.loads.cancelAll())
	if e.refreshStop != nil {
		e.refreshStop()
		e.refreshStop = nil
	}
	e.store.clear()
	e.empty.Clear()
	e.loading.close()
	if e.spec.onClose != nil {
		e.spec.onClose()
	}
	close(e.errs)
}
