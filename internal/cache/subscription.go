package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errNoFetcher = errors.New("no fetcher registered")

// Subscription is one view's interest in a key. Close it when the view goes
// away; closing never cancels a fetch other subscribers still wait on.
type Subscription struct {
	cache     *Cache
	key       Key
	staleTime time.Duration
	notify    chan struct{}

	// guarded by cache.mu
	enabled  bool
	entry    *entry
	detached bool
	closed   bool
}

func (s *Subscription) Key() Key {
	return s.key.clone()
}

// Changes signals after every state change of the entry. Signals coalesce, so
// read Snapshot after receiving one.
func (s *Subscription) Changes() <-chan struct{} {
	return s.notify
}

func (s *Subscription) Snapshot() State {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	if s.entry == nil {
		return State{Key: s.key.clone()}
	}
	return s.entry.stateLocked()
}

// Await blocks until the entry has settled with no fetch in flight and
// returns its state. A fetch failure is returned as the error alongside any
// data retained from earlier fetches.
func (s *Subscription) Await(ctx context.Context) (State, error) {
	for {
		state, done, err := s.settled()
		if done {
			return state, err
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

func (s *Subscription) settled() (State, bool, error) {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return State{Key: s.key.clone()}, true, ErrClosed
	case s.closed:
		return State{Key: s.key.clone()}, true, ErrClosed
	case s.detached || s.entry == nil:
		return State{Key: s.key.clone()}, true, ErrPurged
	}

	e := s.entry
	state := e.stateLocked()
	if !s.enabled {
		return state, true, ErrDisabled
	}
	if e.inflight != nil {
		return state, false, nil
	}

	switch e.status {
	case StatusSuccess:
		return state, true, nil
	case StatusError:
		return state, true, e.err
	default:
		if e.fetcher == nil {
			return state, true, fmt.Errorf("query %s: %w", e.key, errNoFetcher)
		}
		return state, false, nil
	}
}

// SetEnabled toggles the gate. Enabling a subscription whose entry has no
// usable data issues a fetch.
func (s *Subscription) SetEnabled(enabled bool) {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.entry == nil || s.enabled == enabled {
		s.enabled = enabled
		return
	}
	s.enabled = enabled
	if enabled && !c.closed && s.entry.inflight == nil && c.needsFetchLocked(s.entry, s.staleTime) {
		c.startFetchLocked(s.entry)
		return
	}
	s.signal()
}

func (s *Subscription) Close() {
	c := s.cache
	c.mu.Lock()
	if s.closed {
		c.mu.Unlock()
		return
	}
	s.closed = true
	c.mu.Unlock()

	c.release(s)
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Value returns the cached data of s as T.
func Value[T any](s *Subscription) (T, bool) {
	v, ok := s.Snapshot().Data.(T)
	return v, ok
}

// AwaitValue waits for s to settle and returns its data as T.
func AwaitValue[T any](ctx context.Context, s *Subscription) (T, error) {
	var zero T
	state, err := s.Await(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := state.Data.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: unexpected data type %T", state.Key, state.Data)
	}
	return v, nil
}
