package domain

import (
	"strings"
	"time"
)

type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectPublished ProjectStatus = "published"
	ProjectArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectPublished, ProjectArchived:
		return true
	default:
		return false
	}
}

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	UserID      string        `json:"userId"`
	TemplateID  string        `json:"templateId,omitempty"`
	Status      ProjectStatus `json:"status"`
	Domain      string        `json:"domain,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TemplateID  string `json:"templateId,omitempty"`
}

func (in ProjectInput) Validate() error {
	var errs ValidationErrors
	if len(strings.TrimSpace(in.Name)) < 2 {
		errs = append(errs, &ValidationError{Field: "name", Message: "must be at least 2 characters"})
	}
	return errs.Err()
}

// ProjectPatch carries the fields of a partial update; nil fields are left
// untouched by the server.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Domain      *string        `json:"domain,omitempty"`
}

func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil && p.Domain == nil
}

func (p ProjectPatch) Validate() error {
	var errs ValidationErrors
	if p.Empty() {
		errs = append(errs, &ValidationError{Field: "patch", Message: "at least one field is required"})
	}
	if p.Name != nil && len(strings.TrimSpace(*p.Name)) < 2 {
		errs = append(errs, &ValidationError{Field: "name", Message: "must be at least 2 characters"})
	}
	if p.Status != nil && !p.Status.Valid() {
		errs = append(errs, &ValidationError{Field: "status", Message: "must be draft, published or archived"})
	}
	return errs.Err()
}
