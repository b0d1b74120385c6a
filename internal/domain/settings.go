package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenKey names the persisted session token in every token backend.
const TokenKey = "siteforgeai-token"

type TokenBackend string

const (
	TokenBackendChain TokenBackend = "chain"
	TokenBackendFile  TokenBackend = "file"
	TokenBackendPass  TokenBackend = "pass"
)

type Settings struct {
	APIBaseURL     string
	APITimeout     time.Duration
	CacheRetention time.Duration
	CacheRetries   int
	TokenBackend   TokenBackend
	TokenDir       string
	LogLevel       string
}

func DefaultSettings() Settings {
	return Settings{
		APIBaseURL:     "http://localhost:5000",
		APITimeout:     30 * time.Second,
		CacheRetention: 5 * time.Minute,
		TokenBackend:   TokenBackendChain,
		LogLevel:       "warn",
	}
}

func (s Settings) Validate() error {
	if s.APIBaseURL == "" {
		return &ValidationError{Field: "api.base_url", Message: "is required"}
	}
	if s.APITimeout < 0 {
		return &ValidationError{Field: "api.timeout", Message: "must not be negative"}
	}
	if s.CacheRetention < 0 {
		return &ValidationError{Field: "cache.retention", Message: "must not be negative"}
	}
	if s.CacheRetries < 0 {
		return &ValidationError{Field: "cache.retries", Message: "must not be negative"}
	}
	switch s.TokenBackend {
	case TokenBackendChain, TokenBackendFile, TokenBackendPass:
	default:
		return &ValidationError{Field: "session.token_backend", Message: fmt.Sprintf("unsupported backend %q", s.TokenBackend)}
	}
	switch s.LogLevel {
	case "", "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("unsupported level %q", s.LogLevel)}
	}
	return nil
}

// SettingKeys lists the dotted keys accepted by Get and Set, in display order.
var SettingKeys = []string{
	"api.base_url",
	"api.timeout",
	"cache.retention",
	"cache.retries",
	"session.token_backend",
	"session.token_dir",
	"log.level",
}

func (s Settings) Get(key string) (string, error) {
	switch key {
	case "api.base_url":
		return s.APIBaseURL, nil
	case "api.timeout":
		return s.APITimeout.String(), nil
	case "cache.retention":
		return s.CacheRetention.String(), nil
	case "cache.retries":
		return strconv.Itoa(s.CacheRetries), nil
	case "session.token_backend":
		return string(s.TokenBackend), nil
	case "session.token_dir":
		return s.TokenDir, nil
	case "log.level":
		return s.LogLevel, nil
	default:
		return "", unknownSetting(key)
	}
}

// Set parses value into the field named by key and validates the result.
func (s *Settings) Set(key, value string) error {
	next := *s
	value = strings.TrimSpace(value)

	switch key {
	case "api.base_url":
		next.APIBaseURL = value
	case "api.timeout", "cache.retention":
		d, err := time.ParseDuration(value)
		if err != nil {
			return &ValidationError{Field: key, Message: "must be a duration such as 30s or 5m"}
		}
		if key == "api.timeout" {
			next.APITimeout = d
		} else {
			next.CacheRetention = d
		}
	case "cache.retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValidationError{Field: key, Message: "must be an integer"}
		}
		next.CacheRetries = n
	case "session.token_backend":
		next.TokenBackend = TokenBackend(strings.ToLower(value))
	case "session.token_dir":
		next.TokenDir = value
	case "log.level":
		next.LogLevel = strings.ToLower(value)
	default:
		return unknownSetting(key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

func unknownSetting(key string) error {
	return &ValidationError{Field: key, Message: "unknown setting; valid keys are " + strings.Join(SettingKeys, ", ")}
}
