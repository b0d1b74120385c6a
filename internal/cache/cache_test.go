package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func counting(calls *atomic.Int32, value any) Fetcher {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestQueryCoalescesConcurrentSubscribers(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return []string{"p1", "p2"}, nil
	}

	const subscribers = 8
	subs := make([]*Subscription, subscribers)
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subs[i] = c.Query(K("projects"), fetch)
		}(i)
	}
	wg.Wait()
	close(release)

	for _, sub := range subs {
		got, err := AwaitValue[[]string](awaitCtx(t), sub)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2"}, got)
	}
	assert.Equal(t, int32(1), calls.Load())

	state, ok := c.Peek(K("projects"))
	require.True(t, ok)
	assert.Equal(t, subscribers, state.Subscribers)
}

func TestQueryServesFreshDataWithoutFetching(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	var calls atomic.Int32
	first := c.Query(K("templates"), counting(&calls, "t"))
	_, err := first.Await(awaitCtx(t))
	require.NoError(t, err)

	second := c.Query(K("templates"), counting(&calls, "t"))
	state := second.Snapshot()
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, "t", state.Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidateMarksOnlyMatchingEntries(t *testing.T) {
	t.Parallel()

	c := New(WithRetention(time.Hour))
	t.Cleanup(c.Close)

	var listCalls, detailCalls, statsCalls atomic.Int32
	list := c.Query(K("projects"), counting(&listCalls, "list"))
	detailRelease := make(chan struct{})
	detail := c.Query(K("projects", "p1"), func(ctx context.Context) (any, error) {
		if detailCalls.Add(1) > 1 {
			<-detailRelease
		}
		return "detail", nil
	})
	stats := c.Query(K("stats"), counting(&statsCalls, "stats"))
	for _, sub := range []*Subscription{list, detail, stats} {
		_, err := sub.Await(awaitCtx(t))
		require.NoError(t, err)
	}
	// The list view goes away; its entry is retained without subscribers.
	list.Close()

	n := c.Invalidate(K("projects"))
	assert.Equal(t, 2, n)

	listState, ok := c.Peek(K("projects"))
	require.True(t, ok)
	assert.True(t, listState.Stale)
	assert.Equal(t, StatusSuccess, listState.Status)
	assert.Equal(t, "list", listState.Data)
	assert.Equal(t, int32(1), listCalls.Load())

	detailState := detail.Snapshot()
	assert.True(t, detailState.Stale)
	assert.Equal(t, StatusFetching, detailState.Status)
	assert.Equal(t, "detail", detailState.Data)

	statsState := stats.Snapshot()
	assert.False(t, statsState.Stale)
	assert.Equal(t, StatusSuccess, statsState.Status)
	assert.Equal(t, int32(1), statsCalls.Load())

	close(detailRelease)
	_, err := detail.Await(awaitCtx(t))
	require.NoError(t, err)
	assert.False(t, detail.Snapshot().Stale)
	assert.Equal(t, int32(2), detailCalls.Load())

	relisted := c.Query(K("projects"), counting(&listCalls, "list"))
	_, err = relisted.Await(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, int32(2), listCalls.Load())
}

func TestDisabledQueryNeverFetches(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	var calls atomic.Int32
	sub := c.Query(K("admin/stats"), counting(&calls, "stats"), WithEnabled(false))

	state := sub.Snapshot()
	assert.Equal(t, StatusIdle, state.Status)
	assert.NoError(t, state.Err)
	_, err := sub.Await(awaitCtx(t))
	require.ErrorIs(t, err, ErrDisabled)

	assert.Equal(t, 0, c.Invalidate(K("stats")))
	assert.Equal(t, 1, c.Invalidate(K("admin/stats")))
	assert.Equal(t, StatusIdle, sub.Snapshot().Status)
	assert.Equal(t, int32(0), calls.Load())

	sub.SetEnabled(true)
	got, err := AwaitValue[string](awaitCtx(t), sub)
	require.NoError(t, err)
	assert.Equal(t, "stats", got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnsubscribeMidFlightKeepsOtherSubscriber(t *testing.T) {
	t.Parallel()

	c := New(WithRetention(0))
	t.Cleanup(c.Close)

	started := make(chan struct{})
	release := make(chan struct{})
	var canceled atomic.Bool
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		select {
		case <-release:
			return "projects", nil
		case <-ctx.Done():
			canceled.Store(true)
			return nil, ctx.Err()
		}
	}

	a := c.Query(K("projects"), fetch)
	b := c.Query(K("projects"), fetch)
	<-started

	a.Close()
	close(release)

	got, err := AwaitValue[string](awaitCtx(t), b)
	require.NoError(t, err)
	assert.Equal(t, "projects", got)
	assert.False(t, canceled.Load())

	_, err = a.Await(awaitCtx(t))
	require.ErrorIs(t, err, ErrClosed)
}

func TestSupersededResponseNeverOverwritesNewer(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	key := K("superseded-order")
	oldStarted := make(chan struct{})
	oldRelease := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(oldStarted)
			// Ignores cancellation so the stale response really arrives late.
			<-oldRelease
			return "old", nil
		}
		return "new", nil
	}

	superseded := supersededTotal.WithLabelValues(key[0])
	before := testutil.ToFloat64(superseded)

	sub := c.Query(key, fetch)
	<-oldStarted
	require.Equal(t, 1, c.Invalidate(key))

	got, err := AwaitValue[string](awaitCtx(t), sub)
	require.NoError(t, err)
	assert.Equal(t, "new", got)

	close(oldRelease)
	require.Eventually(t, func() bool {
		return calls.Load() == 2 && sub.Snapshot().Status == StatusSuccess
	}, 2*time.Second, 5*time.Millisecond)

	state := sub.Snapshot()
	assert.Equal(t, "new", state.Data)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, before+1, testutil.ToFloat64(superseded))
}

func TestSupersededFetchCountedOnce(t *testing.T) {
	t.Parallel()

	c := New()

	key := K("superseded-count")
	started := make(chan struct{})
	release := make(chan struct{})
	returned := make(chan struct{})
	sub := c.Query(key, func(ctx context.Context) (any, error) {
		close(started)
		defer close(returned)
		<-release
		return "late", nil
	})
	sub.SetEnabled(false)

	superseded := supersededTotal.WithLabelValues(key[0])
	before := testutil.ToFloat64(superseded)

	<-started
	require.Equal(t, 1, c.Invalidate(key))
	assert.Equal(t, before+1, testutil.ToFloat64(superseded))

	close(release)
	<-returned
	c.Close()

	assert.Equal(t, before+1, testutil.ToFloat64(superseded))
}

func TestFetchErrorRetainsPreviousData(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	boom := &domain.APIError{Op: "list media", Kind: domain.ErrNetworkFailure, Err: errors.New("connection reset")}
	var calls atomic.Int32
	sub := c.Query(K("media"), func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return "v1", nil
		}
		return nil, boom
	})
	_, err := sub.Await(awaitCtx(t))
	require.NoError(t, err)

	c.Invalidate(K("media"))
	state, err := sub.Await(awaitCtx(t))
	require.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.Equal(t, StatusError, state.Status)
	assert.True(t, state.HasData)
	assert.Equal(t, "v1", state.Data)
	assert.Equal(t, boom, state.Err)
}

func TestFetchErrorWithoutDataReportsErrorState(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	sub := c.Query(K("subscription"), func(ctx context.Context) (any, error) {
		return nil, domain.ErrServerRejection
	})

	state, err := sub.Await(awaitCtx(t))
	require.ErrorIs(t, err, domain.ErrServerRejection)
	assert.Equal(t, StatusError, state.Status)
	assert.False(t, state.HasData)
	assert.Nil(t, state.Data)
}

func TestQueryRefetchesAfterError(t *testing.T) {
	t.Parallel()

	c := New(WithRetention(time.Hour))
	t.Cleanup(c.Close)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, domain.ErrServerRejection
		}
		return "ok", nil
	}

	first := c.Query(K("stats"), fetch)
	_, err := first.Await(awaitCtx(t))
	require.Error(t, err)

	second := c.Query(K("stats"), fetch)
	got, err := AwaitValue[string](awaitCtx(t), second)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestPurgeAllDropsEveryEntry(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	var calls atomic.Int32
	blocked := make(chan struct{})
	subs := []*Subscription{
		c.Query(K("projects"), counting(&calls, "a")),
		c.Query(K("stats"), counting(&calls, "b")),
		c.Query(K("ai/usage"), func(ctx context.Context) (any, error) {
			<-ctx.Done()
			close(blocked)
			return nil, ctx.Err()
		}),
	}
	_, err := subs[0].Await(awaitCtx(t))
	require.NoError(t, err)

	c.PurgeAll()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
	<-blocked
	for _, sub := range subs {
		_, err := sub.Await(awaitCtx(t))
		require.ErrorIs(t, err, ErrPurged)
		sub.Close()
	}
	assert.Equal(t, 0, c.Len())
}

func TestRetentionEvictsUnsubscribedEntries(t *testing.T) {
	t.Parallel()

	c := New(WithRetention(20 * time.Millisecond))
	t.Cleanup(c.Close)

	var calls atomic.Int32
	sub := c.Query(K("templates"), counting(&calls, "t"))
	_, err := sub.Await(awaitCtx(t))
	require.NoError(t, err)
	sub.Close()

	assert.Equal(t, 1, c.Len())
	require.Eventually(t, func() bool { return c.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestResubscribeWithinRetentionKeepsEntry(t *testing.T) {
	t.Parallel()

	c := New(WithRetention(time.Hour))
	t.Cleanup(c.Close)

	var calls atomic.Int32
	sub := c.Query(K("templates"), counting(&calls, "t"))
	_, err := sub.Await(awaitCtx(t))
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	again := c.Query(K("templates"), counting(&calls, "t"))
	assert.Equal(t, StatusSuccess, again.Snapshot().Status)
	assert.Equal(t, 1, again.Snapshot().Subscribers)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryRecoverableErrors(t *testing.T) {
	t.Parallel()

	c := New(WithRetry(3, time.Millisecond, 2*time.Millisecond))
	t.Cleanup(c.Close)

	var calls atomic.Int32
	sub := c.Query(K("ai/usage"), func(ctx context.Context) (any, error) {
		if calls.Add(1) < 3 {
			return nil, &domain.APIError{Op: "get ai usage", StatusCode: 503, Kind: domain.ErrServerRejection}
		}
		return "usage", nil
	})

	got, err := AwaitValue[string](awaitCtx(t), sub)
	require.NoError(t, err)
	assert.Equal(t, "usage", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	t.Parallel()

	c := New(WithRetry(3, time.Millisecond, 2*time.Millisecond))
	t.Cleanup(c.Close)

	var calls atomic.Int32
	sub := c.Query(K("admin/users"), func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, &domain.APIError{Op: "list users", StatusCode: 403, Kind: domain.ErrAuthorizationDenied}
	})

	_, err := sub.Await(awaitCtx(t))
	require.ErrorIs(t, err, domain.ErrAuthorizationDenied)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStaleTimeTriggersRefetch(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var offset atomic.Int64
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().RunAndReturn(func() time.Time {
		return base.Add(time.Duration(offset.Load()))
	}).Maybe()

	c := New(WithClock(clock), WithRetention(time.Hour))
	t.Cleanup(c.Close)

	var calls atomic.Int32
	first := c.Query(K("stats"), counting(&calls, "s"), WithStaleTime(time.Minute))
	_, err := first.Await(awaitCtx(t))
	require.NoError(t, err)

	fresh := c.Query(K("stats"), counting(&calls, "s"), WithStaleTime(time.Minute))
	assert.Equal(t, StatusSuccess, fresh.Snapshot().Status)
	assert.Equal(t, int32(1), calls.Load())

	offset.Store(int64(2 * time.Minute))
	later := c.Query(K("stats"), counting(&calls, "s"), WithStaleTime(time.Minute))
	_, err = later.Await(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// Without a stale time data stays fresh until invalidated.
	untimed := c.Query(K("stats"), counting(&calls, "s"))
	offset.Store(int64(time.Hour))
	assert.Equal(t, StatusSuccess, untimed.Snapshot().Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClosedCacheRejectsQueries(t *testing.T) {
	t.Parallel()

	c := New()
	c.Close()
	c.Close()

	var calls atomic.Int32
	sub := c.Query(K("projects"), counting(&calls, "p"))
	_, err := sub.Await(awaitCtx(t))
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, c.Invalidate(nil))
	assert.Equal(t, int32(0), calls.Load())
}

func TestAwaitValueRejectsUnexpectedType(t *testing.T) {
	t.Parallel()

	c := New()
	t.Cleanup(c.Close)

	sub := c.Query(K("media"), func(ctx context.Context) (any, error) { return 42, nil })
	_, err := AwaitValue[string](awaitCtx(t), sub)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected data type int")
}
