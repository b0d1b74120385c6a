package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth       = 24
	recentProjects = 5
	recentUsers    = 10
)

type RenderOptions struct {
	Now time.Time
}

func RenderClient(d application.ClientDashboard, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return clientView(d, opts, s) })
}

func RenderAdmin(d application.AdminDashboard, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return adminView(d, opts, s) })
}

func RenderProjects(projects []domain.Project, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render("Projects"),
			s.header.Render(fmt.Sprintf("projects: %d", len(projects))),
		}
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, projectLines(projects, len(projects), opts, s)...)...)
	})
}

// RenderUsage shows the AI quota and, when sub is non-nil, the billing
// warnings that gate AI features.
func RenderUsage(usage domain.AIUsage, sub *domain.SubscriptionState) (string, error) {
	return run(func(s styles) string {
		lines := creditLines(usage, s)
		if sub != nil {
			lines = append(lines, s.detail.Render(fmt.Sprintf("plan: %s (%s)", sub.PlanType, sub.Status)))
			lines = append(lines, subscriptionWarnings(*sub, s)...)
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func RenderUsers(users []domain.UserSafe, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render("Users"),
			s.header.Render(fmt.Sprintf("users: %d", len(users))),
		}
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, userLines(users, len(users), opts, s)...)...)
	})
}

func RenderAnalytics(a domain.AdminAnalytics) (string, error) {
	return run(func(s styles) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			s.title.Render("Platform Analytics"),
			kv(s, "users", fmt.Sprintf("%d", a.TotalUsers)),
			kv(s, "projects", fmt.Sprintf("%d", a.TotalProjects)),
			kv(s, "published sites", fmt.Sprintf("%d", a.PublishedSites)),
			kv(s, "page views", a.PageViewsCompact()),
			kv(s, "avg session", a.AvgSessionDuration),
			kv(s, "conversion rate", a.ConversionRate),
		)
	})
}

func clientView(d application.ClientDashboard, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("SiteForgeAI Dashboard"),
		s.header.Render(principal(d.User)),
		s.section.Render(s.detail.Render(fmt.Sprintf(
			"projects: %d  published: %d  templates used: %d  storage: %s",
			d.Stats.TotalProjects, d.Stats.PublishedSites, d.Stats.TemplatesUsed, orNA(d.Stats.StorageUsed),
		))),
	}

	credits := creditLines(d.Usage, s)
	if d.Subscription.Status != "" {
		credits = append(credits, subscriptionWarnings(d.Subscription, s)...)
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, credits...)))

	recent := []string{s.title.Render("Recent projects")}
	recent = append(recent, projectLines(d.Projects, recentProjects, opts, s)...)
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, recent...)))

	lines = append(lines, errorLines(d.Errors, s)...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func adminView(d application.AdminDashboard, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("SiteForgeAI Admin"),
		s.header.Render(principal(d.User)),
		s.section.Render(s.detail.Render(fmt.Sprintf(
			"users: %d  active: %d  projects: %d  published: %d",
			d.Stats.TotalUsers, d.Stats.ActiveUsers, d.Stats.TotalProjects, d.Stats.PublishedSites,
		))),
	}

	recent := []string{s.title.Render("Recent users")}
	recent = append(recent, userLines(d.Users, recentUsers, opts, s)...)
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, recent...)))

	lines = append(lines, errorLines(d.Errors, s)...)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func principal(u domain.UserSafe) string {
	if u.ID == "" {
		return "signed in"
	}
	plan := string(u.PlanType)
	if plan == "" {
		plan = string(domain.PlanFree)
	}
	return fmt.Sprintf("signed in as %s <%s> (%s, %s plan)", u.Name, u.Email, u.Role, plan)
}

func creditLines(usage domain.AIUsage, s styles) []string {
	lines := []string{s.title.Render("AI Generation Credits")}
	if usage.Limit <= 0 && usage.Used == 0 {
		return append(lines, s.empty.Render("usage unavailable"))
	}

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		renderProgressBar(usage.UsedPercent(), barWidth, s),
		" ",
		s.detail.Render(fmt.Sprintf("%d of %d generations used", usage.Used, usage.Limit)),
		" ",
		s.meta.Render(fmt.Sprintf("(%d remaining)", usage.Remaining)),
	)
	lines = append(lines, line)

	switch {
	case usage.Remaining <= 0:
		lines = append(lines, s.warning.Render("No AI credits left. Upgrade your plan to keep generating."))
	case usage.Remaining == 1:
		lines = append(lines, s.notice.Render("Running low on credits. Upgrade for unlimited AI generations."))
	}
	return lines
}

func subscriptionWarnings(sub domain.SubscriptionState, s styles) []string {
	switch {
	case sub.IsBlocked:
		return []string{s.warning.Render("Payment required: your subscription has expired or payment failed.")}
	case !sub.CanUseAI:
		return []string{s.notice.Render("Free credits used: upgrade to Pro for unlimited access.")}
	default:
		return nil
	}
}

func projectLines(projects []domain.Project, limit int, opts RenderOptions, s styles) []string {
	if len(projects) == 0 {
		return []string{s.empty.Render("No projects yet. Run `sf website generate` to create one.")}
	}

	sorted := append([]domain.Project(nil), projects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}

	lines := make([]string, 0, len(sorted))
	for _, p := range sorted {
		parts := []string{
			s.name.Render(p.Name),
			s.meta.Render("(" + p.ID + ")"),
			statusStyle(p.Status, s).Render(string(p.Status)),
		}
		if p.Domain != "" {
			parts = append(parts, s.detail.Render(p.Domain))
		}
		if age := formatAge(p.UpdatedAt, opts.Now); age != "" {
			parts = append(parts, s.meta.Render("updated "+age))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func userLines(users []domain.UserSafe, limit int, opts RenderOptions, s styles) []string {
	if len(users) == 0 {
		return []string{s.empty.Render("No users.")}
	}

	sorted := append([]domain.UserSafe(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}

	lines := make([]string, 0, len(sorted))
	for _, u := range sorted {
		role := s.detail.Render(string(u.Role))
		if u.IsAdmin() {
			role = s.admin.Render(string(u.Role))
		}
		parts := []string{
			s.name.Render(u.Name),
			s.detail.Render("<" + u.Email + ">"),
			role,
			s.meta.Render(fmt.Sprintf("%s plan, %d/%d generations", orNA(string(u.PlanType)), u.AIGenerationsUsed, u.AIGenerationsLimit)),
			s.meta.Render("(" + u.ID + ")"),
		}
		if age := formatAge(u.CreatedAt, opts.Now); age != "" {
			parts = append(parts, s.meta.Render("joined "+age))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func errorLines(errs []error, s styles) []string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, s.warning.Render("unavailable: "+err.Error()))
	}
	if len(lines) > 0 {
		lines[0] = s.section.Render(lines[0])
	}
	return lines
}

func statusStyle(status domain.ProjectStatus, s styles) lipgloss.Style {
	switch status {
	case domain.ProjectPublished:
		return s.published
	case domain.ProjectArchived:
		return s.archived
	default:
		return s.draft
	}
}

func kv(s styles, key, value string) string {
	return s.key.Render(key+":") + " " + s.detail.Render(orNA(value))
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "n/a"
	}
	return v
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(usedPercent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// formatAge renders how long ago t was relative to now; empty when either
// is unknown.
func formatAge(t, now time.Time) string {
	if t.IsZero() || now.IsZero() {
		return ""
	}

	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(elapsed.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
