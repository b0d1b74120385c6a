package application

import (
	"context"
	"errors"
	"sync"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"golang.org/x/sync/errgroup"
)

// Loader fills one piece of a view's data.
type Loader func(ctx context.Context) error

// Load subscribes with open, waits for the value, stores it in dst and
// releases the subscription.
func Load[T any](open func() *Query[T], dst *T) Loader {
	return func(ctx context.Context) error {
		q := open()
		defer q.Close()

		v, err := q.Await(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

// View mounts a guard for req and waits for its decision. When access is
// granted the loaders run in parallel; every loader runs to completion and
// the failures are joined. A denied decision is returned with a nil error and
// no loader runs.
func (rt *Runtime) View(ctx context.Context, req guard.Requirement, loaders ...Loader) (guard.Decision, error) {
	mount := guard.NewMount(rt.Session, req)
	defer mount.Close()

	decision, err := mount.Wait(ctx)
	if err != nil || !decision.Granted() {
		return decision, err
	}

	var g errgroup.Group
	errs := make([]error, len(loaders))
	for i, load := range loaders {
		g.Go(func() error {
			errs[i] = load(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return decision, errors.Join(errs...)
}

func (rt *Runtime) ClientDashboard(ctx context.Context) (ClientDashboard, guard.Decision, error) {
	var (
		d ClientDashboard
		p partial
	)
	decision, err := rt.View(ctx, guard.Authenticated,
		p.collect(Load(rt.Projects, &d.Projects)),
		p.collect(Load(rt.ClientStats, &d.Stats)),
		p.collect(Load(rt.AIUsage, &d.Usage)),
		p.collect(Load(rt.Subscription, &d.Subscription)),
	)
	if snap := rt.Session.Snapshot(); snap.User != nil {
		d.User = *snap.User
	}
	d.Errors = p.errs
	return d, decision, err
}

func (rt *Runtime) AdminDashboard(ctx context.Context) (AdminDashboard, guard.Decision, error) {
	var (
		d AdminDashboard
		p partial
	)
	decision, err := rt.View(ctx, guard.AdminOnly,
		p.collect(Load(rt.AdminStats, &d.Stats)),
		p.collect(Load(rt.AdminUsers, &d.Users)),
	)
	if snap := rt.Session.Snapshot(); snap.User != nil {
		d.User = *snap.User
	}
	d.Errors = p.errs
	return d, decision, err
}

// partial records loader failures so the rest of a view still renders.
type partial struct {
	mu   sync.Mutex
	errs []error
}

// collect swallows a loader failure into p. Cancellation and an expired
// session are still reported to the caller.
func (p *partial) collect(load Loader) Loader {
	return func(ctx context.Context) error {
		err := load(ctx)
		if err == nil || ctx.Err() != nil || errors.Is(err, domain.ErrAuthInvalid) {
			return err
		}
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
		return nil
	}
}
