package domain

import "strings"

const DefaultPrimaryColor = "#3B82F6"

type GenerateWebsiteRequest struct {
	BusinessName string `json:"businessName"`
	BusinessType string `json:"businessType"`
	Description  string `json:"description"`
	PrimaryColor string `json:"primaryColor,omitempty"`
}

func (r GenerateWebsiteRequest) Validate() error {
	var errs ValidationErrors
	if len(strings.TrimSpace(r.BusinessName)) < 2 {
		errs = append(errs, &ValidationError{Field: "businessName", Message: "business name is required"})
	}
	if len(strings.TrimSpace(r.BusinessType)) < 2 {
		errs = append(errs, &ValidationError{Field: "businessType", Message: "select a business type"})
	}
	if len(strings.TrimSpace(r.Description)) < 10 {
		errs = append(errs, &ValidationError{Field: "description", Message: "provide at least 10 characters describing your business"})
	}
	if r.PrimaryColor != "" && !isHexColor(r.PrimaryColor) {
		errs = append(errs, &ValidationError{Field: "primaryColor", Message: "must be a #RRGGBB color"})
	}
	return errs.Err()
}

type GenerateWebsiteResult struct {
	Project Project `json:"project"`
}

type RegenerateSectionRequest struct {
	ProjectID    string `json:"projectId"`
	SectionName  string `json:"sectionName"`
	Instructions string `json:"instructions"`
}

func (r RegenerateSectionRequest) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(r.ProjectID) == "" {
		errs = append(errs, &ValidationError{Field: "projectId", Message: "is required"})
	}
	if strings.TrimSpace(r.SectionName) == "" {
		errs = append(errs, &ValidationError{Field: "sectionName", Message: "is required"})
	}
	if strings.TrimSpace(r.Instructions) == "" {
		errs = append(errs, &ValidationError{Field: "instructions", Message: "is required"})
	}
	return errs.Err()
}

func isHexColor(v string) bool {
	if len(v) != 7 || v[0] != '#' {
		return false
	}
	for _, c := range v[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
