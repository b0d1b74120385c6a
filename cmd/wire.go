package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/siteforge-cli/internal/adapters/httpapi"
	settingstoml "github.com/bnema/siteforge-cli/internal/adapters/settings/toml"
	chainstore "github.com/bnema/siteforge-cli/internal/adapters/tokenstore/chain"
	filestore "github.com/bnema/siteforge-cli/internal/adapters/tokenstore/file"
	passstore "github.com/bnema/siteforge-cli/internal/adapters/tokenstore/pass"
	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/cache"
	"github.com/bnema/siteforge-cli/internal/config"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/logging"
	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/bnema/siteforge-cli/internal/version"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

type app struct {
	rt       *application.Runtime
	settings domain.Settings
	logger   zerolog.Logger
	now      func() time.Time
}

func wireApp(logOutput io.Writer) (*app, error) {
	repo, err := settingsRepository()
	if err != nil {
		return nil, err
	}

	resolved, err := config.Load(context.Background(), repo)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings := resolved.Settings

	logger, err := logging.New(logOutput, settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	tokens, err := tokenStore(settings)
	if err != nil {
		return nil, fmt.Errorf("wire token store: %w", err)
	}

	apiOpts := []httpapi.Option{
		httpapi.WithHTTPTimeout(settings.APITimeout),
		httpapi.WithUserAgent("sf/" + version.Version),
	}
	if resolved.Env.Debug {
		apiOpts = append(apiOpts, httpapi.WithDebugLogging(logger))
	}
	client, err := httpapi.New(settings.APIBaseURL, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("wire api client: %w", err)
	}

	rt := application.New(client, tokens,
		application.WithLogger(logger),
		application.WithCacheOptions(
			cache.WithRetention(settings.CacheRetention),
			cache.WithRetry(settings.CacheRetries, retryBaseDelay, retryMaxDelay),
		),
	)
	client.SetTokenSource(rt.Session)

	return &app{
		rt:       rt,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (a *app) close() {
	a.rt.Dispose()
}

func settingsRepository() (*settingstoml.Repository, error) {
	repo, err := settingstoml.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}
	return repo, nil
}

func tokenStore(settings domain.Settings) (ports.TokenStore, error) {
	dir := settings.TokenDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".siteforge", "secrets")
	}

	switch settings.TokenBackend {
	case domain.TokenBackendFile:
		return filestore.NewStore(dir), nil
	case domain.TokenBackendPass:
		return passstore.NewStore(), nil
	default:
		store, err := chainstore.NewPassFirstWithFileFallback(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
