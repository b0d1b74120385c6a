package httpapi

import (
	"context"
	"net/http"

	"github.com/bnema/siteforge-cli/internal/domain"
)

func (c *Client) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	if err := c.do(ctx, "list templates", http.MethodGet, "/api/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *Client) ListMedia(ctx context.Context) ([]domain.Media, error) {
	var media []domain.Media
	if err := c.do(ctx, "list media", http.MethodGet, "/api/media", nil, &media); err != nil {
		return nil, err
	}
	return media, nil
}
