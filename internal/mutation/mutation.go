package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/rs/zerolog"
)

// Invalidator marks cached resources stale.
type Invalidator interface {
	Invalidate(prefix cache.Key) int
}

// Mutation describes one state-changing request and the cache keys its
// success makes stale.
type Mutation[T any] struct {
	Name           string
	Validate       func() error
	Do             func(ctx context.Context) (T, error)
	Invalidates    []cache.Key
	InvalidatesFor func(result T) []cache.Key
	OnSuccess      func(result T)
}

// Dispatcher runs mutations. Mutations are never deduplicated: two identical
// calls issue two requests.
type Dispatcher struct {
	cache    Invalidator
	logger   zerolog.Logger
	onError  func(ctx context.Context, err error)
	inflight atomic.Int64
}

type Option func(*Dispatcher)

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithErrorHook is called with every failed request error, before Mutate
// returns it. Validation failures never reach the hook.
func WithErrorHook(fn func(ctx context.Context, err error)) Option {
	return func(d *Dispatcher) {
		d.onError = fn
	}
}

func New(c Invalidator, opts ...Option) *Dispatcher {
	d := &Dispatcher{cache: c, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InFlight reports the number of mutations whose request has not finished.
func (d *Dispatcher) InFlight() int {
	return int(d.inflight.Load())
}

// Mutate validates m, issues its request and, on success only, invalidates
// the affected keys before running OnSuccess.
func Mutate[T any](ctx context.Context, d *Dispatcher, m Mutation[T]) (T, error) {
	var zero T
	if m.Do == nil {
		return zero, fmt.Errorf("%s: mutation has no request", m.Name)
	}

	if m.Validate != nil {
		if err := m.Validate(); err != nil {
			mutationsTotal.WithLabelValues(m.Name, "invalid").Inc()
			if !errors.Is(err, domain.ErrValidation) {
				err = fmt.Errorf("%w: %w", domain.ErrValidation, err)
			}
			return zero, fmt.Errorf("%s: %w", m.Name, err)
		}
	}

	d.inflight.Add(1)
	defer d.inflight.Add(-1)

	result, err := m.Do(ctx)
	if err != nil {
		mutationsTotal.WithLabelValues(m.Name, "error").Inc()
		d.logger.Debug().Err(err).Str("mutation", m.Name).Msg("mutation failed")
		if d.onError != nil {
			d.onError(ctx, err)
		}
		return zero, err
	}

	keys := append([]cache.Key(nil), m.Invalidates...)
	if m.InvalidatesFor != nil {
		keys = append(keys, m.InvalidatesFor(result)...)
	}
	for _, key := range keys {
		d.cache.Invalidate(key)
	}

	mutationsTotal.WithLabelValues(m.Name, "success").Inc()
	d.logger.Debug().Str("mutation", m.Name).Int("invalidated_keys", len(keys)).Msg("mutation succeeded")

	if m.OnSuccess != nil {
		m.OnSuccess(result)
	}
	return result, nil
}
