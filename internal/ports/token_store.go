package ports

import "context"

// TokenStore persists the session token between process runs. Load returns
// domain.ErrTokenNotFound when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// TokenSource yields the token to attach to outgoing requests, or "" when
// there is none.
type TokenSource interface {
	Token() string
}
