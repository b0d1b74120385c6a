package guard

import (
	"context"
	"sync"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/session"
)

const (
	RouteLogin      = "/login"
	RouteClientHome = "/dashboard"
	RouteAdminHome  = "/dashboard/admin"
)

type State int

const (
	StatePending State = iota
	StateGranted
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	default:
		return "pending"
	}
}

// Requirement is what a view needs from the session. An empty Role admits
// any authenticated user.
type Requirement struct {
	Role domain.Role
}

var (
	Authenticated = Requirement{}
	AdminOnly     = Requirement{Role: domain.RoleAdmin}
	ClientOnly    = Requirement{Role: domain.RoleClient}
)

// Decision is the outcome for one view. RedirectTo is set only when Denied.
type Decision struct {
	State      State
	RedirectTo string
	Reason     error
}

func (d Decision) Granted() bool {
	return d.State == StateGranted
}

// DefaultRoute is the landing view for role.
func DefaultRoute(role domain.Role) string {
	if role == domain.RoleAdmin {
		return RouteAdminHome
	}
	return RouteClientHome
}

// Evaluate decides access from a session snapshot alone.
func Evaluate(snap session.Snapshot, req Requirement) Decision {
	switch {
	case snap.Loading():
		return Decision{State: StatePending}
	case !snap.Authenticated():
		return Decision{State: StateDenied, RedirectTo: RouteLogin, Reason: domain.ErrNotAuthenticated}
	case req.Role != "" && snap.User.Role != req.Role:
		return Decision{State: StateDenied, RedirectTo: DefaultRoute(snap.User.Role), Reason: domain.ErrAuthorizationDenied}
	default:
		return Decision{State: StateGranted}
	}
}

// next applies the per-mount transition rules: Denied is terminal and a
// transient Pending never revokes a grant.
func next(prev, evaluated Decision) Decision {
	switch prev.State {
	case StateDenied:
		return prev
	case StateGranted:
		if evaluated.State == StatePending {
			return prev
		}
	}
	return evaluated
}

// Source publishes session snapshots.
type Source interface {
	Subscribe() (<-chan session.Snapshot, func())
}

// Mount tracks the decision of one mounted view as the session changes.
type Mount struct {
	req     Requirement
	changes chan struct{}
	settled chan struct{}
	stop    func()
	done    chan struct{}

	mu       sync.Mutex
	decision Decision
	once     sync.Once
}

func NewMount(src Source, req Requirement) *Mount {
	snaps, cancel := src.Subscribe()
	m := &Mount{
		req:      req,
		changes:  make(chan struct{}, 1),
		settled:  make(chan struct{}),
		stop:     cancel,
		done:     make(chan struct{}),
		decision: Decision{State: StatePending},
	}
	go m.run(snaps)
	return m
}

func (m *Mount) run(snaps <-chan session.Snapshot) {
	defer close(m.done)
	for snap := range snaps {
		m.apply(Evaluate(snap, m.req))
	}
}

func (m *Mount) apply(evaluated Decision) {
	m.mu.Lock()
	prev := m.decision
	m.decision = next(prev, evaluated)
	changed := m.decision != prev
	current := m.decision
	m.mu.Unlock()

	if current.State != StatePending {
		m.once.Do(func() { close(m.settled) })
	}
	if changed {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
}

func (m *Mount) Decision() Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decision
}

// Changes signals after each decision change.
func (m *Mount) Changes() <-chan struct{} {
	return m.changes
}

// Wait blocks until the decision leaves Pending.
func (m *Mount) Wait(ctx context.Context) (Decision, error) {
	select {
	case <-m.settled:
		return m.Decision(), nil
	case <-ctx.Done():
		return m.Decision(), ctx.Err()
	}
}

func (m *Mount) Close() {
	m.stop()
	<-m.done
}
