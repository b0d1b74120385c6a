package httpapi

import (
	"context"
	"net/http"

	"github.com/bnema/siteforge-cli/internal/domain"
)

// WhoAmI validates token, ignoring the configured token source.
func (c *Client) WhoAmI(ctx context.Context, token string) (domain.UserSafe, error) {
	var user domain.UserSafe
	err := c.do(withToken(ctx, token), "validate session", http.MethodGet, "/api/auth/me", nil, &user)
	return user, err
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	var result domain.AuthResult
	err := c.do(withToken(ctx, ""), "login", http.MethodPost, "/api/auth/login", creds, &result)
	return result, err
}

func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) (domain.AuthResult, error) {
	var result domain.AuthResult
	err := c.do(withToken(ctx, ""), "signup", http.MethodPost, "/api/auth/signup", req, &result)
	return result, err
}
