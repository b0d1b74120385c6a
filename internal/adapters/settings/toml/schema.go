package toml

import (
	"fmt"
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	API     apiSchema     `toml:"api"`
	Cache   cacheSchema   `toml:"cache"`
	Session sessionSchema `toml:"session"`
	Log     logSchema     `toml:"log"`
}

type apiSchema struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

type cacheSchema struct {
	Retention string `toml:"retention"`
	Retries   int    `toml:"retries"`
}

type sessionSchema struct {
	TokenBackend string `toml:"token_backend"`
	TokenDir     string `toml:"token_dir,omitempty"`
}

type logSchema struct {
	Level string `toml:"level"`
}

func validateVersion(version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported config schema version %d (current %d)", version, currentSchemaVersion)
	}
	return nil
}

func toSchema(s domain.Settings) fileSchema {
	return fileSchema{
		Version: currentSchemaVersion,
		API: apiSchema{
			BaseURL: s.APIBaseURL,
			Timeout: formatDuration(s.APITimeout),
		},
		Cache: cacheSchema{
			Retention: formatDuration(s.CacheRetention),
			Retries:   s.CacheRetries,
		},
		Session: sessionSchema{
			TokenBackend: string(s.TokenBackend),
			TokenDir:     s.TokenDir,
		},
		Log: logSchema{Level: s.LogLevel},
	}
}

func formatDuration(d time.Duration) string {
	return d.String()
}
