package application

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bnema/siteforge-cli/internal/adapters/httpapi"
	"github.com/bnema/siteforge-cli/internal/adapters/httpapi/httpapitest"
	"github.com/bnema/siteforge-cli/internal/adapters/tokenstore/file"
	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret-pass"

type harness struct {
	server *httpapitest.Server
	tokens *file.Store
	rt     *Runtime
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := httpapitest.NewServer()
	t.Cleanup(server.Close)

	client, err := httpapi.New(server.URL)
	require.NoError(t, err)

	tokens := file.NewStore(t.TempDir())
	rt := New(client, tokens)
	client.SetTokenSource(rt.Session)
	t.Cleanup(rt.Dispose)

	return &harness{server: server, tokens: tokens, rt: rt}
}

func (h *harness) login(t *testing.T, role domain.Role) domain.UserSafe {
	t.Helper()

	email := "client@example.com"
	if role == domain.RoleAdmin {
		email = "admin@example.com"
	}
	h.server.AddUser(domain.UserSafe{ID: string(role) + "-1", Email: email, Name: "Test User", Role: role}, testPassword)

	user, err := h.rt.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	return user
}

func TestLoginPersistsTokenAndResolvesSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user := h.login(t, domain.RoleClient)

	snap := h.rt.Session.Snapshot()
	require.True(t, snap.Authenticated())
	assert.Equal(t, user.ID, snap.User.ID)

	persisted, err := h.tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Token, persisted)
}

func TestLoginRejectsInvalidInputWithoutRequest(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.rt.Login(context.Background(), "not-an-email", "123")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, h.server.Hits("POST /api/auth/login"))
}

func TestLoginWithBadCredentialsLeavesSessionUnauthenticated(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.server.AddUser(domain.UserSafe{Email: "ana@example.com", Name: "Ana"}, testPassword)
	h.rt.Init(context.Background())

	_, err := h.rt.Login(context.Background(), "ana@example.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.False(t, h.rt.Session.Snapshot().Authenticated())
}

func TestSignupInstallsSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	user, err := h.rt.Signup(context.Background(), "Ana", "ana@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.True(t, h.rt.Session.Snapshot().Authenticated())
}

func TestLogoutLeavesCacheEmpty(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	h.server.AddProject(domain.Project{Name: "Bakery", UserID: "CLIENT-1"})

	projects := h.rt.Projects()
	defer projects.Close()
	_, err := projects.Await(context.Background())
	require.NoError(t, err)

	stats := h.rt.ClientStats()
	_, err = stats.Await(context.Background())
	require.NoError(t, err)
	stats.Close()
	require.Equal(t, 2, h.rt.Cache.Len())

	require.NoError(t, h.rt.Logout(context.Background()))

	assert.Zero(t, h.rt.Cache.Len())
	_, err = h.tokens.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestLoginPurgesPreviousPrincipalData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)

	usage := h.rt.AIUsage()
	_, err := usage.Await(context.Background())
	require.NoError(t, err)
	usage.Close()
	require.Equal(t, 1, h.rt.Cache.Len())

	h.login(t, domain.RoleAdmin)
	assert.Zero(t, h.rt.Cache.Len())
}

func TestClientOnAdminViewIsRedirectedWithoutAdminRequests(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, decision, err := h.rt.AdminDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, guard.StateDenied, decision.State)
	assert.Equal(t, guard.RouteClientHome, decision.RedirectTo)
	assert.ErrorIs(t, decision.Reason, domain.ErrAuthorizationDenied)

	users := h.rt.AdminUsers()
	defer users.Close()
	_, err = users.Await(ctx)
	require.ErrorIs(t, err, domain.ErrAuthorizationDenied)
	assert.Equal(t, cache.StatusIdle, users.State().Status)

	assert.Zero(t, h.server.HitsWithPrefix("/api/admin"))
}

func TestAdminDashboardLoadsStatsAndUsers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	admin := h.login(t, domain.RoleAdmin)
	h.server.AddUser(domain.UserSafe{Email: "client@example.com", Name: "Client"}, testPassword)

	d, decision, err := h.rt.AdminDashboard(context.Background())
	require.NoError(t, err)
	require.True(t, decision.Granted())
	assert.Equal(t, admin.ID, d.User.ID)
	assert.Equal(t, 2, d.Stats.TotalUsers)
	assert.Len(t, d.Users, 2)
	assert.Empty(t, d.Errors)
}

func TestUnauthenticatedViewIsDeniedToLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.rt.Init(context.Background())

	_, decision, err := h.rt.ClientDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, guard.RouteLogin, decision.RedirectTo)
	assert.Zero(t, h.server.Hits("GET /api/projects"))
}

func TestClientDashboardKeepsPartialData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	h.server.AddProject(domain.Project{Name: "Bakery", UserID: "CLIENT-1"})

	d, decision, err := h.rt.ClientDashboard(context.Background())
	require.NoError(t, err)
	require.True(t, decision.Granted())
	require.Len(t, d.Projects, 1)
	assert.Equal(t, 1, d.Stats.TotalProjects)
	assert.Equal(t, 5, d.Usage.Remaining)
	assert.True(t, d.Subscription.CanUseAI)
	assert.Empty(t, d.Errors)
}

func TestDeleteProjectRefetchesProjectsWithoutIt(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	keep := h.server.AddProject(domain.Project{Name: "Keep", UserID: "CLIENT-1"})
	gone := h.server.AddProject(domain.Project{Name: "Gone", UserID: "CLIENT-1"})

	projects := h.rt.Projects()
	defer projects.Close()
	before, err := projects.Await(context.Background())
	require.NoError(t, err)
	require.Len(t, before, 2)

	require.NoError(t, h.rt.DeleteProject(context.Background(), gone.ID))

	after, err := projects.Await(context.Background())
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, keep.ID, after[0].ID)
	assert.Equal(t, 2, h.server.Hits("GET /api/projects"))
}

func TestCreateProjectInvalidatesProjectsAndStats(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)

	projects := h.rt.Projects()
	stats := h.rt.ClientStats()
	defer projects.Close()
	defer stats.Close()
	_, err := projects.Await(context.Background())
	require.NoError(t, err)
	_, err = stats.Await(context.Background())
	require.NoError(t, err)

	created, err := h.rt.CreateProject(context.Background(), domain.ProjectInput{Name: "Florist"})
	require.NoError(t, err)

	list, err := projects.Await(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	s, err := stats.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalProjects)
}

func TestInvalidMutationNeverReachesServer(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)

	_, err := h.rt.CreateProject(context.Background(), domain.ProjectInput{Name: "x"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.rt.GenerateWebsite(context.Background(), domain.GenerateWebsiteRequest{BusinessName: "Bakery", BusinessType: "food", Description: "short"})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, h.server.Hits("POST /api/projects"))
	assert.Zero(t, h.server.Hits("POST /api/website/generate"))
}

func TestPublishProjectRefreshesProjectDetail(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	p := h.server.AddProject(domain.Project{Name: "Bakery", UserID: "CLIENT-1"})

	detail := h.rt.Project(p.ID)
	defer detail.Close()
	got, err := detail.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.ProjectDraft, got.Status)

	_, err = h.rt.PublishProject(context.Background(), p.ID)
	require.NoError(t, err)

	got, err = detail.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectPublished, got.Status)
}

func TestGenerateWebsiteConsumesQuota(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)

	usage := h.rt.AIUsage()
	defer usage.Close()
	u, err := usage.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, u.Used)

	project, err := h.rt.GenerateWebsite(context.Background(), domain.GenerateWebsiteRequest{
		BusinessName: "Bakery",
		BusinessType: "food",
		Description:  "Fresh bread and pastries every morning",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bakery", project.Name)

	u, err = usage.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, u.Used)
	assert.Equal(t, 4, u.Remaining)
}

func TestRevokedTokenExpiresSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	h.server.Revoke(h.rt.Session.Token())

	projects := h.rt.Projects()
	defer projects.Close()
	_, err := projects.Await(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthInvalid)

	assert.False(t, h.rt.Session.Snapshot().Authenticated())
	_, err = h.tokens.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestRefreshWithRevokedTokenPurgesCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	h.server.AddProject(domain.Project{Name: "Bakery", UserID: "CLIENT-1"})

	projects := h.rt.Projects()
	defer projects.Close()
	_, err := projects.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, h.rt.Cache.Len())

	h.server.Revoke(h.rt.Session.Token())
	snap := h.rt.Refresh(context.Background())

	assert.False(t, snap.Authenticated())
	assert.Zero(t, h.rt.Cache.Len())
	_, ok := projects.Value()
	assert.False(t, ok)
	_, err = h.tokens.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestAdminRoleChangeInvalidatesUserList(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleAdmin)
	h.server.AddUser(domain.UserSafe{ID: "c1", Email: "client@example.com", Name: "Client"}, testPassword)

	users := h.rt.AdminUsers()
	defer users.Close()
	_, err := users.Await(context.Background())
	require.NoError(t, err)

	updated, err := h.rt.UpdateUserRole(context.Background(), UpdateUserRoleCommand{ID: "c1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	list, err := users.Await(context.Background())
	require.NoError(t, err)
	for _, u := range list {
		assert.Equal(t, domain.RoleAdmin, u.Role)
	}
	assert.Equal(t, 2, h.server.Hits("GET /api/admin/users"))
}

func TestDownloadWebsiteStreamsArchive(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login(t, domain.RoleClient)
	p := h.server.AddProject(domain.Project{Name: "Bakery", UserID: "CLIENT-1"})

	var buf bytes.Buffer
	n, err := h.rt.DownloadWebsite(context.Background(), p.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(httpapitest.Archive)), n)
	assert.Equal(t, httpapitest.Archive, buf.String())
	assert.Zero(t, h.rt.Cache.Len())
}
