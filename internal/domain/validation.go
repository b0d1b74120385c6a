package domain

import (
	"strings"

	"github.com/go-openapi/strfmt"
)

const minPasswordLength = 6

func (c Credentials) Validate() error {
	var errs ValidationErrors
	if !strfmt.IsEmail(strings.TrimSpace(c.Email)) {
		errs = append(errs, &ValidationError{Field: "email", Message: "invalid email address"})
	}
	if len(c.Password) < minPasswordLength {
		errs = append(errs, &ValidationError{Field: "password", Message: "must be at least 6 characters"})
	}
	return errs.Err()
}

func (r SignupRequest) Validate() error {
	var errs ValidationErrors
	if !strfmt.IsEmail(strings.TrimSpace(r.Email)) {
		errs = append(errs, &ValidationError{Field: "email", Message: "invalid email address"})
	}
	if len(r.Password) < minPasswordLength {
		errs = append(errs, &ValidationError{Field: "password", Message: "must be at least 6 characters"})
	}
	if len(strings.TrimSpace(r.Name)) < 2 {
		errs = append(errs, &ValidationError{Field: "name", Message: "must be at least 2 characters"})
	}
	return errs.Err()
}

func ValidateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if strings.ContainsAny(id, "/?#") {
		return &ValidationError{Field: field, Message: "contains invalid characters"}
	}
	return nil
}
