package config

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	storages   = []string{constants.StorageMemory, constants.StorageSQLite}
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	var errs []string

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", config.Server.Port))
	}

	if err := ValidateBaseURL(config.Remote.BaseURL); err != nil {
		errs = append(errs, "remote.base_url: "+err.Error())
	}
	errs = appendDurationErr(errs, "remote.timeout", config.Remote.Timeout, false)
	errs = appendDurationErr(errs, "remote.list_timeout", config.Remote.ListTimeout, false)

	if !slices.Contains(storages, config.Session.Storage) {
		errs = append(errs, fmt.Sprintf("session.storage: must be one of %s, got %q", strings.Join(storages, ", "), config.Session.Storage))
	}
	if config.Session.Storage == constants.StorageSQLite && config.Session.SQLitePath == "" {
		errs = append(errs, "session.sqlite_path: required for sqlite storage")
	}
	errs = appendDurationErr(errs, "session.ttl", config.Session.TTL, true)
	errs = appendDurationErr(errs, "session.idle_timeout", config.Session.IdleTimeout, false)

	emails := make([]string, 0, len(config.Users))
	for email := range config.Users {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		if strings.TrimSpace(email) == "" {
			errs = append(errs, "users: email cannot be empty")
			continue
		}
		if config.Users[email] == "" {
			errs = append(errs, fmt.Sprintf("users.%s: password is required", email))
		}
	}

	if !slices.Contains(logLevels, strings.ToLower(config.Log.Level)) {
		errs = append(errs, fmt.Sprintf("log.level: must be one of %s, got %q", strings.Join(logLevels, ", "), config.Log.Level))
	}
	if !slices.Contains(logFormats, strings.ToLower(config.Log.Format)) {
		errs = append(errs, fmt.Sprintf("log.format: must be one of %s, got %q", strings.Join(logFormats, ", "), config.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ValidateBaseURL checks that raw is an absolute http(s) URL
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return &ValidationError{Field: "url", Message: "cannot be empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Message: "host is required"}
	}
	return nil
}

func appendDurationErr(errs []string, field, value string, allowZero bool) []string {
	if value == "" {
		return errs
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return append(errs, fmt.Sprintf("%s: invalid duration %q", field, value))
	}
	if d < 0 || (d == 0 && !allowZero) {
		return append(errs, fmt.Sprintf("%s: must be positive, got %s", field, value))
	}
	return errs
}
