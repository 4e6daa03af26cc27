package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

// Config represents the top-level logdesk configuration
type Config struct {
	Server  ServerConfig      `yaml:"server"`
	Remote  RemoteConfig      `yaml:"remote"`
	Session SessionConfig     `yaml:"session"`
	Users   map[string]string `yaml:"users"` // email -> password or bcrypt hash
	Log     LogConfig         `yaml:"log"`
	EnvFile string            `yaml:"env_file"`
}

// ServerConfig defines the web console listener
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RemoteConfig defines how the log API is reached
type RemoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"`
	ListTimeout    string `yaml:"list_timeout"`
	PublicDownload bool   `yaml:"public_download"` // link downloads straight to the API
}

// SessionConfig defines where login sessions are kept
type SessionConfig struct {
	Storage     string `yaml:"storage"` // memory or sqlite
	SQLitePath  string `yaml:"sqlite_path"`
	TTL         string `yaml:"ttl"`
	IdleTimeout string `yaml:"idle_timeout"`
}

// LogConfig defines the application logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a configuration file. The env_file it names and the
// process environment are applied on top of the file before validation.
func Load(path string) (*Config, error) {
	// First check if file exists
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	// Check file permissions for security
	if err := CheckFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}

	if err := ApplyEnvironment(cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = constants.DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = constants.DefaultPort
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = constants.DefaultAPIURL
	}
	if cfg.Session.Storage == "" {
		cfg.Session.Storage = constants.StorageMemory
	}
	if cfg.Session.SQLitePath == "" {
		cfg.Session.SQLitePath = constants.DefaultSQLitePath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Users == nil {
		cfg.Users = make(map[string]string)
	}
}

// RequestTimeout bounds exports, index pushes and diagnostics
func (r RemoteConfig) RequestTimeout() time.Duration {
	return durationOr(r.Timeout, constants.DefaultRequestTimeout)
}

// LookupTimeout bounds namespace and load-balancer lookups
func (r RemoteConfig) LookupTimeout() time.Duration {
	return durationOr(r.ListTimeout, constants.DefaultListTimeout)
}

// SessionTTL is the maximum session age. Zero disables expiry.
func (s SessionConfig) SessionTTL() time.Duration {
	return durationOr(s.TTL, constants.DefaultSessionTTL)
}

// Idle is how long an unused browser workspace is kept
func (s SessionConfig) Idle() time.Duration {
	return durationOr(s.IdleTimeout, constants.DefaultIdleTimeout)
}

// durationOr parses s, falling back to def when s is empty or invalid.
// Validate reports invalid values before this is reached.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
