package application

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/mutation"
	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/bnema/siteforge-cli/internal/session"
	"github.com/rs/zerolog"
)

// Runtime is the context object every view works against: one session, one
// cache and one mutation dispatcher sharing the same API client.
type Runtime struct {
	Session   *session.Store
	Cache     *cache.Cache
	Mutations *mutation.Dispatcher

	api       ports.SiteForgeAPI
	logger    zerolog.Logger
	staleTime time.Duration
	expired   atomic.Pointer[error]
}

type config struct {
	logger    zerolog.Logger
	cacheOpts []cache.Option
	staleTime time.Duration
}

type Option func(*config)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithCacheOptions(opts ...cache.Option) Option {
	return func(c *config) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

// WithStaleTime applies a stale time to every query. Zero keeps data fresh
// until a mutation invalidates it.
func WithStaleTime(d time.Duration) Option {
	return func(c *config) {
		c.staleTime = d
	}
}

func New(api ports.SiteForgeAPI, tokens ports.TokenStore, opts ...Option) *Runtime {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	cacheOpts := append([]cache.Option{cache.WithLogger(cfg.logger)}, cfg.cacheOpts...)
	c := cache.New(cacheOpts...)

	rt := &Runtime{
		Cache:     c,
		api:       api,
		logger:    cfg.logger,
		staleTime: cfg.staleTime,
	}
	rt.Session = session.New(tokens, api, session.WithPurger(c), session.WithLogger(cfg.logger))
	rt.Mutations = mutation.New(c, mutation.WithLogger(cfg.logger), mutation.WithErrorHook(rt.onMutationError))
	return rt
}

// Init resolves the persisted session. It is safe to call more than once.
func (rt *Runtime) Init(ctx context.Context) session.Snapshot {
	return rt.Session.Initialize(ctx)
}

// Dispose cancels outstanding fetches and drops every cached entry.
func (rt *Runtime) Dispose() {
	rt.Cache.Close()
}

type issuedTokenKey struct{}

// expireOnAuthInvalid ends the session when the server rejects the token a
// request was issued with.
func (rt *Runtime) expireOnAuthInvalid(ctx context.Context, token string, err error) {
	if !errors.Is(err, domain.ErrAuthInvalid) {
		return
	}
	if token != "" && token == rt.Session.Token() {
		rt.expired.Store(&err)
	}
	rt.Session.Expire(context.WithoutCancel(ctx), token)
}

// expiryCause is the rejection that ended the current unauthenticated
// period, or nil when the session was never expired by the server.
func (rt *Runtime) expiryCause() error {
	if rt.Session.Snapshot().Authenticated() {
		return nil
	}
	if p := rt.expired.Load(); p != nil {
		return *p
	}
	return nil
}

func (rt *Runtime) onMutationError(ctx context.Context, err error) {
	token, _ := ctx.Value(issuedTokenKey{}).(string)
	rt.expireOnAuthInvalid(ctx, token, err)
}

func (rt *Runtime) withIssuedToken(ctx context.Context) context.Context {
	return context.WithValue(ctx, issuedTokenKey{}, rt.Session.Token())
}

func (rt *Runtime) isAdmin() bool {
	snap := rt.Session.Snapshot()
	return snap.Authenticated() && snap.User.IsAdmin()
}
