package mutation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) Invalidate(prefix cache.Key) int {
	r.add("invalidate " + prefix.String())
	return 1
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestMutateOrdersRequestInvalidationAndCallback(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d := New(rec)

	got, err := Mutate(context.Background(), d, Mutation[string]{
		Name:        "create project",
		Validate:    func() error { rec.add("validate"); return nil },
		Do:          func(ctx context.Context) (string, error) { rec.add("do"); return "p1", nil },
		Invalidates: []cache.Key{cache.K("projects"), cache.K("stats")},
		InvalidatesFor: func(id string) []cache.Key {
			return []cache.Key{cache.K("projects", id)}
		},
		OnSuccess: func(id string) { rec.add("success " + id) },
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got)
	assert.Equal(t, []string{
		"validate",
		"do",
		"invalidate projects",
		"invalidate stats",
		"invalidate projects/p1",
		"success p1",
	}, rec.list())
}

func TestMutateFailureSkipsInvalidation(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	var hooked error
	d := New(rec, WithErrorHook(func(ctx context.Context, err error) { hooked = err }))

	rejection := &domain.APIError{Op: "delete project", StatusCode: 409, Kind: domain.ErrServerRejection, Message: "project is published"}
	_, err := Mutate(context.Background(), d, Mutation[struct{}]{
		Name:        "delete project",
		Do:          func(ctx context.Context) (struct{}, error) { return struct{}{}, rejection },
		Invalidates: []cache.Key{cache.K("projects")},
		OnSuccess:   func(struct{}) { rec.add("success") },
	})
	require.ErrorIs(t, err, domain.ErrServerRejection)
	assert.Empty(t, rec.list())
	assert.Equal(t, rejection, hooked)
}

func TestMutateValidationNeverReachesNetwork(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	hookCalled := false
	d := New(rec, WithErrorHook(func(ctx context.Context, err error) { hookCalled = true }))

	tests := []struct {
		name string
		err  error
	}{
		{name: "validation error", err: &domain.ValidationError{Field: "name", Message: "too short"}},
		{name: "plain error", err: errors.New("role missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Mutate(context.Background(), d, Mutation[int]{
				Name:     "update project",
				Validate: func() error { return tt.err },
				Do: func(ctx context.Context) (int, error) {
					rec.add("do")
					return 0, nil
				},
				Invalidates: []cache.Key{cache.K("projects")},
			})
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorContains(t, err, "update project")
		})
	}
	assert.Empty(t, rec.list())
	assert.False(t, hookCalled)
}

func TestMutateDoesNotDeduplicate(t *testing.T) {
	t.Parallel()

	d := New(&recorder{})

	var calls atomic.Int32
	m := Mutation[int]{
		Name: "generate website",
		Do: func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	}

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Mutate(context.Background(), d, m)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestInFlightTracksPendingRequests(t *testing.T) {
	t.Parallel()

	d := New(&recorder{})
	entered := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error)
	go func() {
		_, err := Mutate(context.Background(), d, Mutation[int]{
			Name: "delete user",
			Do: func(ctx context.Context) (int, error) {
				close(entered)
				<-release
				return 0, nil
			},
		})
		done <- err
	}()

	<-entered
	assert.Equal(t, 1, d.InFlight())
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, d.InFlight())
}

func TestMutateCountsOutcomes(t *testing.T) {
	t.Parallel()

	d := New(&recorder{})
	name := "count outcomes"
	success := mutationsTotal.WithLabelValues(name, "success")
	failure := mutationsTotal.WithLabelValues(name, "error")

	_, _ = Mutate(context.Background(), d, Mutation[int]{Name: name, Do: func(ctx context.Context) (int, error) { return 1, nil }})
	_, _ = Mutate(context.Background(), d, Mutation[int]{Name: name, Do: func(ctx context.Context) (int, error) { return 0, errors.New("boom") }})

	assert.Equal(t, float64(1), testutil.ToFloat64(success))
	assert.Equal(t, float64(1), testutil.ToFloat64(failure))
}

func TestMutateRequiresRequest(t *testing.T) {
	t.Parallel()

	_, err := Mutate(context.Background(), New(&recorder{}), Mutation[int]{Name: "empty"})
	require.Error(t, err)
}

func TestMutateInvalidatesRealCache(t *testing.T) {
	t.Parallel()

	c := cache.New()
	t.Cleanup(c.Close)

	var calls atomic.Int32
	sub := c.Query(cache.K("projects"), func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	})
	_, err := sub.Await(context.Background())
	require.NoError(t, err)

	_, err = Mutate(context.Background(), New(c), Mutation[struct{}]{
		Name:        "delete project",
		Do:          func(ctx context.Context) (struct{}, error) { return struct{}{}, nil },
		Invalidates: []cache.Key{cache.K("projects")},
	})
	require.NoError(t, err)

	got, err := cache.AwaitValue[int](context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
