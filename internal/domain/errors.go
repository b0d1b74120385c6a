package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrAuthInvalid         = errors.New("authentication invalid")
	ErrNetworkFailure      = errors.New("network failure")
	ErrValidation          = errors.New("validation failed")
	ErrServerRejection     = errors.New("server rejected request")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrTokenNotFound       = errors.New("token not found")
	ErrNotAuthenticated    = errors.New("not authenticated")
)

// APIError is a classified failure of one API operation. Kind is one of the
// sentinel errors above so callers can match with errors.Is.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.StatusCode == 0 && e.Message == "" && e.Err == nil && e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindForStatus maps a non-2xx HTTP status to its error kind.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuthInvalid
	case http.StatusForbidden:
		return ErrAuthorizationDenied
	default:
		return ErrServerRejection
	}
}

// IsRecoverable reports whether retrying err may succeed: transport failures
// other than caller cancellation, 408, 429 and 5xx responses.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(apiErr.Kind, ErrNetworkFailure) {
		return true
	}
	switch {
	case apiErr.StatusCode == http.StatusRequestTimeout, apiErr.StatusCode == http.StatusTooManyRequests:
		return true
	case apiErr.StatusCode >= 500 && apiErr.StatusCode < 600:
		return true
	default:
		return false
	}
}

// ValidationError is a client-side rejection of one input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type ValidationErrors []*ValidationError

// Err returns nil for an empty set, the single error, or a joined error.
func (v ValidationErrors) Err() error {
	switch len(v) {
	case 0:
		return nil
	case 1:
		return v[0]
	default:
		errs := make([]error, 0, len(v))
		for _, e := range v {
			errs = append(errs, e)
		}
		return errors.Join(errs...)
	}
}
