package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/domain"
)

// Query is a typed subscription to one cached resource.
type Query[T any] struct {
	rt      *Runtime
	sub     *cache.Subscription
	gateErr error
}

// Await waits for the resource to settle and returns it. A query purged
// because the server expired the session reports the expiry cause.
func (q *Query[T]) Await(ctx context.Context) (T, error) {
	v, err := cache.AwaitValue[T](ctx, q.sub)
	switch {
	case errors.Is(err, cache.ErrDisabled) && q.gateErr != nil:
		return v, fmt.Errorf("query %s: %w", q.sub.Key(), q.gateErr)
	case errors.Is(err, cache.ErrPurged):
		if cause := q.rt.expiryCause(); cause != nil {
			return v, fmt.Errorf("query %s: %w", q.sub.Key(), cause)
		}
	}
	return v, err
}

func (q *Query[T]) Value() (T, bool) {
	return cache.Value[T](q.sub)
}

func (q *Query[T]) State() cache.State {
	return q.sub.Snapshot()
}

func (q *Query[T]) Changes() <-chan struct{} {
	return q.sub.Changes()
}

func (q *Query[T]) SetEnabled(enabled bool) {
	q.sub.SetEnabled(enabled)
}

func (q *Query[T]) Close() {
	q.sub.Close()
}

func query[T any](rt *Runtime, key cache.Key, fetch func(ctx context.Context) (T, error), opts ...cache.QueryOption) *Query[T] {
	fetcher := func(ctx context.Context) (any, error) {
		token := rt.Session.Token()
		v, err := fetch(ctx)
		if err != nil {
			rt.expireOnAuthInvalid(ctx, token, err)
			return nil, err
		}
		return v, nil
	}

	opts = append([]cache.QueryOption{cache.WithStaleTime(rt.staleTime)}, opts...)
	return &Query[T]{rt: rt, sub: rt.Cache.Query(key, fetcher, opts...)}
}

// adminQuery stays disabled unless the session belongs to an administrator,
// so a client can never trigger an admin request.
func adminQuery[T any](rt *Runtime, key cache.Key, fetch func(ctx context.Context) (T, error)) *Query[T] {
	q := query(rt, key, fetch, cache.WithEnabled(rt.isAdmin()))
	q.gateErr = domain.ErrAuthorizationDenied
	return q
}

func (rt *Runtime) Projects() *Query[[]domain.Project] {
	return query(rt, KeyProjects, rt.api.ListProjects)
}

func (rt *Runtime) Project(id string) *Query[domain.Project] {
	return query(rt, KeyProject(id), func(ctx context.Context) (domain.Project, error) {
		return rt.api.GetProject(ctx, id)
	}, cache.WithEnabled(id != ""))
}

func (rt *Runtime) Templates() *Query[[]domain.Template] {
	return query(rt, KeyTemplates, rt.api.ListTemplates)
}

func (rt *Runtime) Media() *Query[[]domain.Media] {
	return query(rt, KeyMedia, rt.api.ListMedia)
}

func (rt *Runtime) ClientStats() *Query[domain.ClientStats] {
	return query(rt, KeyStats, rt.api.ClientStats)
}

func (rt *Runtime) AIUsage() *Query[domain.AIUsage] {
	return query(rt, KeyAIUsage, rt.api.AIUsage)
}

func (rt *Runtime) Subscription() *Query[domain.SubscriptionState] {
	return query(rt, KeySubscription, rt.api.Subscription)
}

func (rt *Runtime) AdminStats() *Query[domain.AdminStats] {
	return adminQuery(rt, KeyAdminStats, rt.api.AdminStats)
}

func (rt *Runtime) AdminUsers() *Query[[]domain.UserSafe] {
	return adminQuery(rt, KeyAdminUsers, rt.api.AdminUsers)
}

func (rt *Runtime) AdminAnalytics() *Query[domain.AdminAnalytics] {
	return adminQuery(rt, KeyAdminAnalytics, rt.api.AdminAnalytics)
}

// ClientDashboard is the read model of the client landing view. Fields whose
// query failed keep their zero value and the failure is listed in Errors.
type ClientDashboard struct {
	User         domain.UserSafe
	Stats        domain.ClientStats
	Usage        domain.AIUsage
	Subscription domain.SubscriptionState
	Projects     []domain.Project
	Errors       []error
}

type AdminDashboard struct {
	User   domain.UserSafe
	Stats  domain.AdminStats
	Users  []domain.UserSafe
	Errors []error
}
