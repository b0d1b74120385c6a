package guard

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports/mocks"
	"github.com/bnema/siteforge-cli/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func snapshotFor(role domain.Role) session.Snapshot {
	return session.Snapshot{
		Token: "tok",
		User:  &domain.UserSafe{ID: "u1", Role: role},
		State: session.StateResolved,
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		snap     session.Snapshot
		req      Requirement
		state    State
		redirect string
		reason   error
	}{
		{name: "loading is pending", snap: session.Snapshot{}, req: AdminOnly, state: StatePending},
		{name: "anonymous goes to login", snap: session.Snapshot{State: session.StateResolved}, req: Authenticated, state: StateDenied, redirect: RouteLogin, reason: domain.ErrNotAuthenticated},
		{name: "client on admin view", snap: snapshotFor(domain.RoleClient), req: AdminOnly, state: StateDenied, redirect: RouteClientHome, reason: domain.ErrAuthorizationDenied},
		{name: "admin on client view", snap: snapshotFor(domain.RoleAdmin), req: ClientOnly, state: StateDenied, redirect: RouteAdminHome, reason: domain.ErrAuthorizationDenied},
		{name: "admin on admin view", snap: snapshotFor(domain.RoleAdmin), req: AdminOnly, state: StateGranted},
		{name: "client on shared view", snap: snapshotFor(domain.RoleClient), req: Authenticated, state: StateGranted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := Evaluate(tt.snap, tt.req)
			assert.Equal(t, tt.state, d.State)
			assert.Equal(t, tt.redirect, d.RedirectTo)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestTransitionRules(t *testing.T) {
	t.Parallel()

	pending := Decision{State: StatePending}
	granted := Decision{State: StateGranted}
	denied := Decision{State: StateDenied, RedirectTo: RouteLogin, Reason: domain.ErrNotAuthenticated}

	assert.Equal(t, granted, next(pending, granted))
	assert.Equal(t, denied, next(pending, denied))
	assert.Equal(t, granted, next(granted, pending))
	assert.Equal(t, denied, next(granted, denied))
	assert.Equal(t, denied, next(denied, granted))
	assert.Equal(t, denied, next(denied, pending))
}

func newStore(t *testing.T) (*session.Store, *mocks.MockTokenStore, *mocks.MockIdentityResolver) {
	t.Helper()
	tokens := mocks.NewMockTokenStore(t)
	resolver := mocks.NewMockIdentityResolver(t)
	return session.New(tokens, resolver), tokens, resolver
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestMountClientOnAdminViewIsRedirected(t *testing.T) {
	t.Parallel()

	store, tokens, resolver := newStore(t)
	tokens.EXPECT().Load(mock.Anything).Return("tok", nil).Once()
	resolver.EXPECT().WhoAmI(mock.Anything, "tok").Return(domain.UserSafe{ID: "u1", Role: domain.RoleClient}, nil).Once()

	m := NewMount(store, AdminOnly)
	defer m.Close()

	assert.Equal(t, StatePending, m.Decision().State)

	store.Initialize(context.Background())

	d, err := m.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StateDenied, d.State)
	assert.Equal(t, RouteClientHome, d.RedirectTo)
	assert.ErrorIs(t, d.Reason, domain.ErrAuthorizationDenied)
}

func TestMountGrantedThenLogoutDenies(t *testing.T) {
	t.Parallel()

	store, tokens, _ := newStore(t)
	tokens.EXPECT().Save(mock.Anything, "tok").Return(nil).Once()
	tokens.EXPECT().Clear(mock.Anything).Return(nil).Once()
	require.NoError(t, store.Login(context.Background(), "tok", domain.UserSafe{ID: "u1", Role: domain.RoleAdmin}))

	m := NewMount(store, AdminOnly)
	defer m.Close()

	d, err := m.Wait(waitCtx(t))
	require.NoError(t, err)
	require.True(t, d.Granted())

	require.NoError(t, store.Logout(context.Background()))
	require.Eventually(t, func() bool {
		return m.Decision().State == StateDenied
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, RouteLogin, m.Decision().RedirectTo)
}

func TestMountDeniedIsTerminal(t *testing.T) {
	t.Parallel()

	store, tokens, _ := newStore(t)
	tokens.EXPECT().Load(mock.Anything).Return("", domain.ErrTokenNotFound).Once()
	tokens.EXPECT().Save(mock.Anything, "tok").Return(nil).Once()

	m := NewMount(store, Authenticated)
	defer m.Close()

	store.Initialize(context.Background())
	d, err := m.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, StateDenied, d.State)
	assert.Equal(t, RouteLogin, d.RedirectTo)

	require.NoError(t, store.Login(context.Background(), "tok", domain.UserSafe{ID: "u1", Role: domain.RoleClient}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateDenied, m.Decision().State)
}

func TestMountWaitHonorsContext(t *testing.T) {
	t.Parallel()

	store, _, _ := newStore(t)
	m := NewMount(store, Authenticated)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := m.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatePending, d.State)
}

func TestMountCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	store, _, _ := newStore(t)
	m := NewMount(store, Authenticated)
	m.Close()
	m.Close()
}

func TestDefaultRoute(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RouteAdminHome, DefaultRoute(domain.RoleAdmin))
	assert.Equal(t, RouteClientHome, DefaultRoute(domain.RoleClient))
	assert.Equal(t, "denied", StateDenied.String())
}
