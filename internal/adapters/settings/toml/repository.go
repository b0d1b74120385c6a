package toml

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// PathKey overrides the config file location.
	PathKey = "config.path"

	configDir       = ".siteforge"
	configFile      = "config.toml"
	secretsDir      = "secrets"
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"
)

// Repository stores settings in a TOML file. Reads go through viper so
// missing keys fall back to defaults; writes encode the whole file
// atomically.
type Repository struct {
	path       string
	defaultDir string
	mu         *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SettingsRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetDefault(PathKey, filepath.Join(homeDir, configDir, configFile))
	path := cfg.GetString(PathKey)
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err = normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{
		path:       path,
		defaultDir: filepath.Join(homeDir, configDir, secretsDir),
		mu:         lockForPath(path),
	}, nil
}

func (r *Repository) Path() string {
	return r.path
}

// Load returns the stored settings merged over the defaults. A missing file
// yields the defaults.
func (r *Repository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("toml")
	r.setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return domain.Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}
	if err := validateVersion(v.GetInt("version")); err != nil {
		return domain.Settings{}, err
	}

	settings := domain.Settings{
		APIBaseURL:     v.GetString("api.base_url"),
		APITimeout:     v.GetDuration("api.timeout"),
		CacheRetention: v.GetDuration("cache.retention"),
		CacheRetries:   v.GetInt("cache.retries"),
		TokenBackend:   domain.TokenBackend(v.GetString("session.token_backend")),
		TokenDir:       v.GetString("session.token_dir"),
		LogLevel:       v.GetString("log.level"),
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid config file %s: %w", r.path, err)
	}
	return settings, nil
}

func (r *Repository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeSchema(toSchema(settings))
}

func (r *Repository) setDefaults(v *viper.Viper) {
	defaults := domain.DefaultSettings()
	v.SetDefault("version", currentSchemaVersion)
	v.SetDefault("api.base_url", defaults.APIBaseURL)
	v.SetDefault("api.timeout", defaults.APITimeout)
	v.SetDefault("cache.retention", defaults.CacheRetention)
	v.SetDefault("cache.retries", defaults.CacheRetries)
	v.SetDefault("session.token_backend", string(defaults.TokenBackend))
	v.SetDefault("session.token_dir", r.defaultDir)
	v.SetDefault("log.level", defaults.LogLevel)
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(r.path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false
	return nil
}
