package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/session"
)

// Login exchanges credentials for a token and installs the session. Data
// cached for a previous principal is purged.
func (rt *Runtime) Login(ctx context.Context, email, password string) (domain.UserSafe, error) {
	creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := creds.Validate(); err != nil {
		return domain.UserSafe{}, fmt.Errorf("login: %w", err)
	}

	result, err := rt.api.Login(ctx, creds)
	if err != nil {
		return domain.UserSafe{}, err
	}
	return rt.installSession(ctx, result)
}

func (rt *Runtime) Signup(ctx context.Context, name, email, password string) (domain.UserSafe, error) {
	req := domain.SignupRequest{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := req.Validate(); err != nil {
		return domain.UserSafe{}, fmt.Errorf("signup: %w", err)
	}

	result, err := rt.api.Signup(ctx, req)
	if err != nil {
		return domain.UserSafe{}, err
	}
	return rt.installSession(ctx, result)
}

func (rt *Runtime) installSession(ctx context.Context, result domain.AuthResult) (domain.UserSafe, error) {
	if result.Token == "" {
		return domain.UserSafe{}, &domain.APIError{Op: "login", Kind: domain.ErrServerRejection, Message: "response carried no token"}
	}
	rt.Cache.PurgeAll()
	rt.expired.Store(nil)
	if err := rt.Session.Login(ctx, result.Token, result.User); err != nil {
		return domain.UserSafe{}, err
	}
	return result.User, nil
}

// Logout ends the session and purges every cached resource.
func (rt *Runtime) Logout(ctx context.Context) error {
	rt.expired.Store(nil)
	return rt.Session.Logout(ctx)
}

// Refresh re-validates the persisted token with the server.
func (rt *Runtime) Refresh(ctx context.Context) session.Snapshot {
	return rt.Session.Refresh(ctx)
}
