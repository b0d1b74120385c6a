package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/siteforge-cli/internal/domain"
)

func (c *Client) GenerateWebsite(ctx context.Context, req domain.GenerateWebsiteRequest) (domain.GenerateWebsiteResult, error) {
	var result domain.GenerateWebsiteResult
	err := c.do(ctx, "generate website", http.MethodPost, "/api/website/generate", req, &result)
	return result, err
}

func (c *Client) RegenerateSection(ctx context.Context, req domain.RegenerateSectionRequest) (domain.Project, error) {
	var project domain.Project
	err := c.do(ctx, "regenerate section", http.MethodPost, "/api/website/regenerate", req, &project)
	return project, err
}

// DownloadWebsite streams the generated site archive of a project into w.
// The archive is not subject to the JSON response size limit.
func (c *Client) DownloadWebsite(ctx context.Context, id string, w io.Writer) (int64, error) {
	if err := domain.ValidateID("id", id); err != nil {
		return 0, err
	}
	resp, err := c.send(ctx, "download website", http.MethodGet, "/api/website/"+id+"/download", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &domain.APIError{Op: "download website", StatusCode: resp.StatusCode, Kind: domain.ErrNetworkFailure, Err: fmt.Errorf("read archive: %w", err)}
	}
	return n, nil
}
