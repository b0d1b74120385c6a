// Package config merges environment overrides over the persisted settings.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable, e.g. SF_API_URL.
const Prefix = "SF"

// Env holds the overrides read from SF_* variables. Empty values leave the
// persisted setting untouched.
type Env struct {
	APIURL       string        `envconfig:"API_URL"`
	APITimeout   time.Duration `envconfig:"API_TIMEOUT"`
	TokenBackend string        `envconfig:"TOKEN_BACKEND"`
	TokenDir     string        `envconfig:"TOKEN_DIR"`
	LogLevel     string        `envconfig:"LOG_LEVEL"`

	// Debug forces debug logging and dumps HTTP traffic.
	Debug bool `envconfig:"DEBUG" default:"false"`
}

func FromEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(Prefix, &env); err != nil {
		return Env{}, fmt.Errorf("read %s_* environment: %w", Prefix, err)
	}
	return env, nil
}

// Apply returns settings with every non-empty override applied.
func (e Env) Apply(settings domain.Settings) (domain.Settings, error) {
	overrides := []struct {
		key   string
		value string
	}{
		{"api.base_url", e.APIURL},
		{"session.token_backend", e.TokenBackend},
		{"session.token_dir", e.TokenDir},
		{"log.level", e.LogLevel},
	}
	if e.APITimeout > 0 {
		overrides = append(overrides, struct {
			key   string
			value string
		}{"api.timeout", e.APITimeout.String()})
	}
	if e.Debug {
		overrides = append(overrides, struct {
			key   string
			value string
		}{"log.level", "debug"})
	}

	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := settings.Set(o.key, o.value); err != nil {
			return domain.Settings{}, fmt.Errorf("apply %s_ override: %w", Prefix, err)
		}
	}
	return settings, nil
}

// Resolved is the effective configuration of one process.
type Resolved struct {
	Settings domain.Settings
	Env      Env
}

// Load reads the settings file through repo and applies the environment.
func Load(ctx context.Context, repo ports.SettingsRepository) (Resolved, error) {
	settings, err := repo.Load(ctx)
	if err != nil {
		return Resolved{}, err
	}

	env, err := FromEnv()
	if err != nil {
		return Resolved{}, err
	}

	settings, err = env.Apply(settings)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Settings: settings, Env: env}, nil
}
