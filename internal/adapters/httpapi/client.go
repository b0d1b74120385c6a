package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/bnema/siteforge-cli/internal/version"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
)

// Client talks to the SiteForgeAI REST API. The bearer token of every
// request except WhoAmI comes from the configured token source.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	debug     *zerolog.Logger
	source    atomic.Pointer[tokenSourceRef]
}

type tokenSourceRef struct {
	src ports.TokenSource
}

var _ ports.SiteForgeAPI = (*Client)(nil)

func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   parsed,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: "sf/" + version.Version,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.wrapTransport()
	return c, nil
}

// SetTokenSource installs the source used for the Authorization header. It is
// safe to call while requests are in flight.
func (c *Client) SetTokenSource(src ports.TokenSource) {
	if src == nil {
		c.source.Store(nil)
		return
	}
	c.source.Store(&tokenSourceRef{src: src})
}

func (c *Client) token() string {
	ref := c.source.Load()
	if ref == nil {
		return ""
	}
	return ref.src.Token()
}

func (c *Client) wrapTransport() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if c.debug != nil {
		base = &debugTransport{base: base, logger: *c.debug}
	}
	c.http.Transport = &bearerTransport{
		base:      base,
		token:     c.token,
		userAgent: c.userAgent,
	}
}

type explicitTokenKey struct{}

// withToken makes the bearer transport send token instead of the token
// source's value.
func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, explicitTokenKey{}, token)
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do sends one request and decodes a 2xx JSON body into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	resp, err := c.send(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &domain.APIError{Op: op, StatusCode: resp.StatusCode, Kind: domain.ErrServerRejection, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// send returns the response of a 2xx request; the caller closes the body.
func (c *Client) send(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, &domain.APIError{Op: op, Kind: domain.ErrNetworkFailure, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, responseError(op, resp)
	}
	return resp, nil
}
