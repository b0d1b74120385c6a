package application

import "github.com/bnema/siteforge-cli/internal/cache"

var (
	KeyProjects       = cache.K("projects")
	KeyTemplates      = cache.K("templates")
	KeyMedia          = cache.K("media")
	KeyStats          = cache.K("stats")
	KeyAIUsage        = cache.K("ai/usage")
	KeySubscription   = cache.K("subscription")
	KeyAdminStats     = cache.K("admin/stats")
	KeyAdminUsers     = cache.K("admin/users")
	KeyAdminAnalytics = cache.K("admin/analytics")
)

// KeyProject is the detail key of one project. It shares the "projects"
// prefix, so invalidating KeyProjects also refreshes every detail.
func KeyProject(id string) cache.Key {
	return cache.K("projects", id)
}
