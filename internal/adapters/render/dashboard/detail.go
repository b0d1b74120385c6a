package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

func RenderProject(p domain.Project, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.name.Render(p.Name) + " " + statusStyle(p.Status, s).Render(string(p.Status)),
			kv(s, "id", p.ID),
			kv(s, "description", p.Description),
			kv(s, "template", p.TemplateID),
			kv(s, "domain", p.Domain),
		}
		if age := formatAge(p.UpdatedAt, opts.Now); age != "" {
			lines = append(lines, kv(s, "updated", age))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func RenderTemplates(templates []domain.Template) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render("Templates"),
			s.header.Render(fmt.Sprintf("templates: %d", len(templates))),
		}
		if len(templates) == 0 {
			return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No templates available."))...)
		}
		for _, t := range templates {
			parts := []string{
				s.name.Render(t.Name),
				s.meta.Render("(" + t.ID + ")"),
				s.detail.Render(orNA(t.Category)),
			}
			if t.IsPremium {
				parts = append(parts, s.notice.Render("premium"))
			}
			if t.Description != "" {
				parts = append(parts, s.meta.Render(t.Description))
			}
			lines = append(lines, strings.Join(parts, " "))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func RenderMedia(media []domain.Media, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		lines := []string{
			s.title.Render("Media"),
			s.header.Render(fmt.Sprintf("files: %d", len(media))),
		}
		if len(media) == 0 {
			return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No media uploaded."))...)
		}
		for _, m := range media {
			parts := []string{
				s.name.Render(m.Name),
				s.detail.Render(orNA(m.Type)),
				s.meta.Render(m.SizeCompact()),
				s.meta.Render(m.URL),
			}
			if age := formatAge(m.CreatedAt, opts.Now); age != "" {
				parts = append(parts, s.meta.Render("uploaded "+age))
			}
			lines = append(lines, strings.Join(parts, " "))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func RenderClientStats(st domain.ClientStats) (string, error) {
	return run(func(s styles) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			s.title.Render("Stats"),
			kv(s, "projects", strconv.Itoa(st.TotalProjects)),
			kv(s, "published sites", strconv.Itoa(st.PublishedSites)),
			kv(s, "templates used", strconv.Itoa(st.TemplatesUsed)),
			kv(s, "storage", st.StorageUsed),
		)
	})
}

func RenderAdminStats(st domain.AdminStats) (string, error) {
	return run(func(s styles) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			s.title.Render("Platform Stats"),
			kv(s, "users", strconv.Itoa(st.TotalUsers)),
			kv(s, "active users", strconv.Itoa(st.ActiveUsers)),
			kv(s, "projects", strconv.Itoa(st.TotalProjects)),
			kv(s, "published sites", strconv.Itoa(st.PublishedSites)),
		)
	})
}
