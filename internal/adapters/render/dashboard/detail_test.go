package dashboard

import (
	"testing"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProjectShowsMissingFieldsAsNA(t *testing.T) {
	output, err := RenderProject(domain.Project{
		ID:        "p1",
		Name:      "Bakery",
		Status:    domain.ProjectDraft,
		UpdatedAt: now.Add(-90 * time.Minute),
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Bakery")
	assert.Contains(t, output, "draft")
	assert.Contains(t, output, "domain: n/a")
	assert.Contains(t, output, "updated: 1 hour ago")
}

func TestRenderTemplatesMarksPremium(t *testing.T) {
	output, err := RenderTemplates([]domain.Template{
		{ID: "t1", Name: "Storefront", Category: "retail", IsPremium: true},
		{ID: "t2", Name: "Portfolio", Category: "personal"},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "templates: 2")
	assert.Contains(t, output, "Storefront (t1) retail premium")
	assert.Contains(t, output, "Portfolio (t2) personal")
}

func TestRenderEmptyCatalogs(t *testing.T) {
	templates, err := RenderTemplates(nil)
	require.NoError(t, err)
	assert.Contains(t, templates, "No templates available.")

	media, err := RenderMedia(nil, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, media, "No media uploaded.")
}

func TestRenderMediaUsesCompactSize(t *testing.T) {
	output, err := RenderMedia([]domain.Media{
		{ID: "m1", Name: "logo.png", Type: "image/png", Size: 2_500, URL: "https://cdn.example/logo.png", CreatedAt: now.Add(-48 * time.Hour)},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "2.5kB")
	assert.Contains(t, output, "uploaded 2 days ago")
}

func TestRenderStats(t *testing.T) {
	client, err := RenderClientStats(domain.ClientStats{TotalProjects: 3, PublishedSites: 1})
	require.NoError(t, err)
	assert.Contains(t, client, "projects: 3")
	assert.Contains(t, client, "storage: n/a")

	admin, err := RenderAdminStats(domain.AdminStats{TotalUsers: 12, ActiveUsers: 4})
	require.NoError(t, err)
	assert.Contains(t, admin, "users: 12")
	assert.Contains(t, admin, "active users: 4")
}
