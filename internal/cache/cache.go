package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/rs/zerolog"
)

var (
	ErrClosed   = errors.New("cache closed")
	ErrPurged   = errors.New("cache entry purged")
	ErrDisabled = errors.New("query disabled")
)

// Fetcher loads the value of one resource. It must honor ctx.
type Fetcher func(ctx context.Context) (any, error)

// Cache is a keyed store of query results. Concurrent queries of one key
// share a single fetch, and only the most recently issued fetch of a key may
// write its result.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	retention time.Duration
	retry     retryPolicy
	logger    zerolog.Logger
	clock     ports.Clock

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

type entry struct {
	key       Key
	data      any
	hasData   bool
	status    Status
	err       error
	fetchedAt time.Time
	stale     bool
	fetcher   Fetcher
	seq       uint64
	inflight  *flight
	subs      map[*Subscription]struct{}
	evict     *time.Timer
}

type flight struct {
	seq    uint64
	cancel context.CancelFunc
}

func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries:   make(map[string]*entry),
		retention: DefaultRetention,
		retry:     defaultRetryPolicy(),
		logger:    zerolog.Nop(),
		clock:     ports.SystemClock{},
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query subscribes to key. The returned subscription observes every state
// change of the entry until it is closed. A fetch is issued when the entry
// has no usable data and no fetch is already in flight.
func (c *Cache) Query(key Key, fetch Fetcher, opts ...QueryOption) *Subscription {
	sub := &Subscription{
		cache:   c,
		key:     key.clone(),
		enabled: true,
		notify:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(sub)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		sub.detached = true
		return sub
	}

	e := c.entryLocked(sub.key)
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	if fetch != nil {
		e.fetcher = fetch
	}
	e.subs[sub] = struct{}{}
	sub.entry = e

	if !sub.enabled {
		return sub
	}

	label := resourceLabel(e.key)
	switch {
	case e.inflight != nil:
		coalescedTotal.WithLabelValues(label).Inc()
	case c.needsFetchLocked(e, sub.staleTime):
		c.startFetchLocked(e)
	default:
		hitsTotal.WithLabelValues(label).Inc()
	}

	return sub
}

// Invalidate marks every entry whose key starts with prefix stale. Entries
// with an enabled subscriber are re-fetched immediately; the others keep
// their data and re-fetch on their next query. It returns the number of
// matching entries.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}

	n := 0
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		n++
		e.stale = true

		if e.hasActiveSubscriber() && e.fetcher != nil {
			c.startFetchLocked(e)
			continue
		}

		// A fetch issued before the invalidation would store pre-mutation
		// data, so it is dropped even with nobody waiting on it.
		if e.inflight != nil {
			e.inflight.cancel()
			e.inflight = nil
			supersededTotal.WithLabelValues(resourceLabel(e.key)).Inc()
			e.status = settledStatus(e)
		}
		c.notifyLocked(e)
	}

	invalidationsTotal.Add(float64(n))
	c.logger.Debug().Str("prefix", prefix.String()).Int("entries", n).Msg("cache invalidated")
	return n
}

// PurgeAll drops every entry and cancels every fetch. Live subscriptions are
// detached and report ErrPurged from Await.
func (c *Cache) PurgeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeLocked()
	purgesTotal.Inc()
	c.logger.Debug().Msg("cache purged")
}

func (c *Cache) purgeLocked() {
	for id, e := range c.entries {
		if e.inflight != nil {
			e.inflight.cancel()
			e.inflight = nil
		}
		if e.evict != nil {
			e.evict.Stop()
			e.evict = nil
		}
		for sub := range e.subs {
			sub.detached = true
			sub.entry = nil
			sub.signal()
		}
		delete(c.entries, id)
		liveEntries.Dec()
	}
}

// Peek returns the state of key without subscribing or fetching.
func (c *Cache) Peek(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.id()]
	if !ok {
		return State{}, false
	}
	return e.stateLocked(), true
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the keys of every entry, in no particular order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key.clone())
	}
	return keys
}

// Close purges the cache and waits for running fetchers to return.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.purgeLocked()
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.id()
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &entry{
		key:  key.clone(),
		subs: make(map[*Subscription]struct{}),
	}
	c.entries[id] = e
	liveEntries.Inc()
	return e
}

func (c *Cache) needsFetchLocked(e *entry, staleTime time.Duration) bool {
	if e.fetcher == nil {
		return false
	}
	switch e.status {
	case StatusIdle, StatusError:
		return true
	}
	if e.stale {
		return true
	}
	return staleTime > 0 && c.clock.Now().Sub(e.fetchedAt) > staleTime
}

// startFetchLocked issues a new fetch for e, superseding any fetch in flight.
func (c *Cache) startFetchLocked(e *entry) {
	if e.inflight != nil {
		e.inflight.cancel()
		supersededTotal.WithLabelValues(resourceLabel(e.key)).Inc()
		c.logger.Debug().Str("key", e.key.String()).Uint64("seq", e.inflight.seq).Msg("cache fetch superseded")
	}

	e.seq++
	ctx, cancel := context.WithCancel(c.ctx)
	f := &flight{seq: e.seq, cancel: cancel}
	e.inflight = f
	e.status = StatusFetching

	c.logger.Debug().Str("key", e.key.String()).Uint64("seq", f.seq).Msg("cache fetch started")

	fetch := e.fetcher
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		data, err := c.fetchWithRetry(ctx, fetch)
		c.complete(e, f, data, err)
	}()

	c.notifyLocked(e)
}

func (c *Cache) complete(e *entry, f *flight, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.inflight != f || c.entries[e.key.id()] != e {
		// A newer fetch owns the entry, or the entry is gone. Supersession
		// was already counted where the flight was canceled.
		return
	}
	label := resourceLabel(e.key)
	e.inflight = nil

	if err != nil {
		e.status = StatusError
		e.err = err
		fetchesTotal.WithLabelValues(label, "error").Inc()
		c.logger.Debug().Err(err).Str("key", e.key.String()).Uint64("seq", f.seq).Msg("cache fetch failed")
	} else {
		e.data = data
		e.hasData = true
		e.status = StatusSuccess
		e.err = nil
		e.stale = false
		e.fetchedAt = c.clock.Now()
		fetchesTotal.WithLabelValues(label, "success").Inc()
		c.logger.Debug().Str("key", e.key.String()).Uint64("seq", f.seq).Msg("cache fetch finished")
	}

	c.notifyLocked(e)
}

func (c *Cache) notifyLocked(e *entry) {
	for sub := range e.subs {
		sub.signal()
	}
}

// release drops sub from its entry and arms eviction when it was the last.
func (c *Cache) release(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := sub.entry
	sub.detached = true
	sub.entry = nil
	if e == nil {
		return
	}
	delete(e.subs, sub)
	if len(e.subs) > 0 || c.closed {
		return
	}

	if c.retention == 0 {
		c.evictLocked(e)
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(c.retention, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if e.evict == timer && len(e.subs) == 0 && c.entries[e.key.id()] == e {
			c.evictLocked(e)
		}
	})
	e.evict = timer
}

func (c *Cache) evictLocked(e *entry) {
	if e.inflight != nil {
		e.inflight.cancel()
		e.inflight = nil
	}
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	delete(c.entries, e.key.id())
	liveEntries.Dec()
	c.logger.Debug().Str("key", e.key.String()).Msg("cache entry evicted")
}

func (e *entry) hasActiveSubscriber() bool {
	for sub := range e.subs {
		if sub.enabled {
			return true
		}
	}
	return false
}

func (e *entry) stateLocked() State {
	return State{
		Key:         e.key.clone(),
		Data:        e.data,
		HasData:     e.hasData,
		Status:      e.status,
		Err:         e.err,
		FetchedAt:   e.fetchedAt,
		Stale:       e.stale,
		Subscribers: len(e.subs),
	}
}

func settledStatus(e *entry) Status {
	switch {
	case e.err != nil:
		return StatusError
	case e.hasData:
		return StatusSuccess
	default:
		return StatusIdle
	}
}
