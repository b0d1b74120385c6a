package httpapi

import (
	"context"
	"net/http"

	"github.com/bnema/siteforge-cli/internal/domain"
)

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.do(ctx, "list projects", http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var project domain.Project
	if err := domain.ValidateID("id", id); err != nil {
		return project, err
	}
	err := c.do(ctx, "get project", http.MethodGet, "/api/projects/"+id, nil, &project)
	return project, err
}

func (c *Client) CreateProject(ctx context.Context, in domain.ProjectInput) (domain.Project, error) {
	var project domain.Project
	err := c.do(ctx, "create project", http.MethodPost, "/api/projects", in, &project)
	return project, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	var project domain.Project
	if err := domain.ValidateID("id", id); err != nil {
		return project, err
	}
	err := c.do(ctx, "update project", http.MethodPatch, "/api/projects/"+id, patch, &project)
	return project, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := domain.ValidateID("id", id); err != nil {
		return err
	}
	return c.do(ctx, "delete project", http.MethodDelete, "/api/projects/"+id, nil, nil)
}
