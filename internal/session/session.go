package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	StateLoading State = iota
	StateResolved
)

func (s State) String() string {
	if s == StateResolved {
		return "resolved"
	}
	return "loading"
}

// Snapshot is the session as seen at one instant. User is set only when the
// token was validated by the server in this process, or came from a login.
type Snapshot struct {
	Token string
	User  *domain.UserSafe
	State State
}

func (s Snapshot) Loading() bool {
	return s.State == StateLoading
}

func (s Snapshot) Authenticated() bool {
	return s.State == StateResolved && s.Token != "" && s.User != nil
}

// Purger drops every cached server resource.
type Purger interface {
	PurgeAll()
}

// Store owns the token lifecycle and the resolved identity.
type Store struct {
	tokens   ports.TokenStore
	resolver ports.IdentityResolver
	purger   Purger
	logger   zerolog.Logger

	// ioMu serializes token persistence so a validation failure never clears
	// a token written by a newer login.
	ioMu  sync.Mutex
	group singleflight.Group

	mu          sync.RWMutex
	snap        Snapshot
	epoch       uint64
	initialized bool
	subs        map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Snapshot
}

var _ ports.TokenSource = (*Store)(nil)

type Option func(*Store)

func WithPurger(p Purger) Option {
	return func(s *Store) {
		s.purger = p
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(tokens ports.TokenStore, resolver ports.IdentityResolver, opts ...Option) *Store {
	s := &Store{
		tokens:   tokens,
		resolver: resolver,
		logger:   zerolog.Nop(),
		subs:     make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize resolves the persisted token once per store. Later calls return
// the current snapshot without I/O.
func (s *Store) Initialize(ctx context.Context) Snapshot {
	s.mu.RLock()
	if s.initialized {
		snap := s.snap
		s.mu.RUnlock()
		return snap
	}
	s.mu.RUnlock()

	return s.validate(ctx)
}

// Refresh re-validates the persisted token. Concurrent calls share one
// request.
func (s *Store) Refresh(ctx context.Context) Snapshot {
	return s.validate(ctx)
}

func (s *Store) validate(ctx context.Context) Snapshot {
	v, _, _ := s.group.Do("validate", func() (any, error) {
		return s.runValidation(ctx), nil
	})
	return v.(Snapshot)
}

func (s *Store) runValidation(ctx context.Context) Snapshot {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	token, err := s.tokens.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			s.logger.Debug().Msg("no persisted session token")
		} else {
			s.logger.Warn().Err(err).Msg("load session token failed")
		}
		return s.resolve(epoch, Snapshot{State: StateResolved})
	}

	user, err := s.resolver.WhoAmI(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			// No verdict from the server; keep the token for the next run.
			s.logger.Debug().Err(err).Msg("session validation canceled")
			return s.resolve(epoch, Snapshot{State: StateResolved})
		}
		s.logger.Info().Err(err).Msg("session token rejected")
		if !s.clearIfCurrent(ctx, epoch) {
			return s.resolve(epoch, Snapshot{State: StateResolved})
		}
		// A rejected token is a forced logout: nothing the old identity
		// fetched may outlive it.
		next, installed := s.install(epoch, Snapshot{State: StateResolved})
		if installed && s.purger != nil {
			s.purger.PurgeAll()
		}
		return next
	}

	s.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session resolved")
	return s.resolve(epoch, Snapshot{Token: token, User: &user, State: StateResolved})
}

// clearIfCurrent removes the persisted token and reports whether epoch was
// still current.
func (s *Store) clearIfCurrent(ctx context.Context, epoch uint64) bool {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	s.mu.RLock()
	current := s.epoch == epoch
	s.mu.RUnlock()
	if !current {
		return false
	}
	if err := s.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn().Err(err).Msg("clear rejected session token failed")
	}
	return true
}

// resolve installs next unless a login or logout happened since epoch was
// read, in which case the newer state wins.
func (s *Store) resolve(epoch uint64, next Snapshot) Snapshot {
	snap, _ := s.install(epoch, next)
	return snap
}

func (s *Store) install(epoch uint64, next Snapshot) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return s.snap, false
	}
	s.initialized = true
	s.setLocked(next)
	return next, true
}

// Login persists token and installs user without a server round-trip.
func (s *Store) Login(ctx context.Context, token string, user domain.UserSafe) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("login: token is empty")
	}

	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}

	s.mu.Lock()
	s.epoch++
	s.initialized = true
	s.setLocked(Snapshot{Token: token, User: &user, State: StateResolved})
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session logged in")
	return nil
}

// Logout clears the persisted token and the identity, then purges the cache.
// The in-memory session is cleared even when the token store fails.
func (s *Store) Logout(ctx context.Context) error {
	s.ioMu.Lock()
	// A canceled caller must not leave the token on disk.
	err := s.tokens.Clear(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.epoch++
	s.initialized = true
	s.setLocked(Snapshot{State: StateResolved})
	s.mu.Unlock()
	s.ioMu.Unlock()

	if s.purger != nil {
		s.purger.PurgeAll()
	}
	s.logger.Debug().Msg("session logged out")

	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// Expire logs out when token is still the current one. It is used when the
// server rejects a token mid-session; a rejection of an older token is
// ignored. It reports whether the session was cleared.
func (s *Store) Expire(ctx context.Context, token string) bool {
	s.mu.RLock()
	current := token != "" && s.snap.Token == token
	s.mu.RUnlock()
	if !current {
		return false
	}

	s.logger.Info().Msg("session expired by server")
	if err := s.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("expire session")
	}
	return true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Token
}

// Subscribe returns a channel that always holds the latest snapshot, starting
// with the current one. Cancel closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	sub.ch <- s.snap
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			close(sub.ch)
			s.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

func (s *Store) setLocked(next Snapshot) {
	s.snap = next
	for sub := range s.subs {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- next
	}
}
