package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/siteforge-cli/internal/adapters/tokenstore/file"
	"github.com/bnema/siteforge-cli/internal/adapters/tokenstore/pass"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
)

// Store tries the primary backend first and falls back to the secondary one.
type Store struct {
	primary  ports.TokenStore
	fallback ports.TokenStore
}

var _ ports.TokenStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary token store is nil")
	errNilFallbackStore = errors.New("fallback token store is nil")
)

func NewStore(primary ports.TokenStore, fallback ports.TokenStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.TokenStore, fallback ports.TokenStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(dir string) (*Store, error) {
	return NewStoreChecked(pass.NewStore(), file.NewStore(dir))
}

func (s *Store) Save(ctx context.Context, token string) error {
	err := s.primary.Save(ctx, token)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Save(ctx, token)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend save failed: %w; fallback backend save failed: %w", err, fallbackErr)
}

// Load reports domain.ErrTokenNotFound through the combined error when the
// fallback has no token either.
func (s *Store) Load(ctx context.Context) (string, error) {
	token, err := s.primary.Load(ctx)
	if err == nil {
		return token, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackToken, fallbackErr := s.fallback.Load(ctx)
	if fallbackErr == nil {
		return fallbackToken, nil
	}
	if errors.Is(fallbackErr, domain.ErrTokenNotFound) && (errors.Is(err, domain.ErrTokenNotFound) || unavailable(err)) {
		return "", fallbackErr
	}

	return "", fmt.Errorf("primary backend load failed: %w; fallback backend load failed: %w", err, fallbackErr)
}

// Clear removes the token from both backends so a stale copy in either one
// cannot be loaded later.
func (s *Store) Clear(ctx context.Context) error {
	err := s.primary.Clear(ctx)
	if shouldSkipFallback(err) {
		return err
	}
	if unavailable(err) {
		err = nil
	}

	fallbackErr := s.fallback.Clear(ctx)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback backend clear failed: %w", fallbackErr)
	case fallbackErr == nil:
		return fmt.Errorf("primary backend clear failed: %w", err)
	default:
		return fmt.Errorf("primary backend clear failed: %w; fallback backend clear failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func unavailable(err error) bool {
	return errors.Is(err, pass.ErrUnavailable)
}
