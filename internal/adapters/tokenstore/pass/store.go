package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

// DefaultEntry is the pass entry holding the session token.
const DefaultEntry = "siteforgeai/" + domain.TokenKey

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

type Store struct {
	entry string
	run   runFunc
}

var _ ports.TokenStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{entry: DefaultEntry, run: runPassCommand}
}

func (s *Store) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, strings.TrimSpace(token)+"\n", "insert", "-m", "-f", s.entry)
	if err != nil {
		return formatError("save", s.entry, err, stderr)
	}

	return nil
}

func (s *Store) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", s.entry)
	if err != nil {
		if isNotInStore(stderr) {
			return "", fmt.Errorf("pass entry %q: %w", s.entry, domain.ErrTokenNotFound)
		}
		return "", formatError("load", s.entry, err, stderr)
	}

	// pass entries may carry metadata lines after the secret.
	token, _, _ := strings.Cut(stdout, "\n")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("pass entry %q is empty: %w", s.entry, domain.ErrTokenNotFound)
	}

	return token, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "-f", s.entry)
	if err != nil {
		if isNotInStore(stderr) {
			return nil
		}
		return formatError("clear", s.entry, err, stderr)
	}

	return nil
}

func isNotInStore(stderr string) bool {
	return strings.Contains(stderr, "is not in the password store")
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
