package httpapi

import (
	"net/http"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type bearerTransport struct {
	base      http.RoundTripper
	token     func() string
	userAgent string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())

	token, explicit := req.Context().Value(explicitTokenKey{}).(string)
	if !explicit {
		token = t.token()
	}
	if token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}
	if cloned.Header.Get(requestIDHeader) == "" {
		cloned.Header.Set(requestIDHeader, uuid.NewString())
	}
	if t.userAgent != "" {
		cloned.Header.Set("User-Agent", t.userAgent)
	}

	return t.base.RoundTrip(cloned)
}
