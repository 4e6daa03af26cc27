package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/charliek/logdesk/internal/constants"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges multiple environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// Environ returns the process environment as a map
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// ApplyEnvironment layers overrides onto cfg.
// Priority (lowest to highest):
// 1. Config file values
// 2. env_file (resolved against configDir)
// 3. Process environment
func ApplyEnvironment(cfg *Config, configDir string) error {
	var fileEnv map[string]string
	if cfg.EnvFile != "" {
		var err error
		fileEnv, err = LoadEnvFile(resolvePath(cfg.EnvFile, configDir))
		if err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}
	return ApplyOverrides(cfg, MergeEnv(fileEnv, Environ()))
}

// ApplyOverrides sets config values from LOGDESK_* variables in env
func ApplyOverrides(cfg *Config, env map[string]string) error {
	get := func(name string) (string, bool) {
		v, ok := env[constants.EnvPrefix+name]
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("API_URL"); ok {
		cfg.Remote.BaseURL = v
	}
	if v, ok := get("TIMEOUT"); ok {
		cfg.Remote.Timeout = v
	}
	if v, ok := get("HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %q is not a number", constants.EnvPrefix, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := get("LISTEN"); ok {
		host, port, found := strings.Cut(v, ":")
		if !found {
			return fmt.Errorf("%sLISTEN: %q must be host:port", constants.EnvPrefix, v)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%sLISTEN: %q has an invalid port", constants.EnvPrefix, v)
		}
		if host != "" {
			cfg.Server.Host = host
		}
		cfg.Server.Port = p
	}
	if v, ok := get("SESSION_STORAGE"); ok {
		cfg.Session.Storage = v
	}
	if v, ok := get("SQLITE_PATH"); ok {
		cfg.Session.SQLitePath = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	for name, target := range map[string]*bool{
		"COOKIE_SECURE":   &cfg.Server.CookieSecure,
		"PUBLIC_DOWNLOAD": &cfg.Remote.PublicDownload,
	} {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %q is not a boolean", constants.EnvPrefix, name, v)
			}
			*target = b
		}
	}
	return nil
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	candidates := []string{
		constants.DefaultConfigFile,
		"logdesk.yml",
		".logdesk.yaml",
		".logdesk.yml",
	}

	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("no config file found (tried: %v)", candidates)
}

// CheckFilePermissions checks if a file has secure permissions.
// On Unix-like systems, it verifies the file is not world-writable.
// The config can hold credentials, so a writable file is refused.
func CheckFilePermissions(path string) error {
	// Skip permission check on Windows
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking file permissions: %w", err)
	}

	if info.Mode().Perm()&0002 != 0 {
		return fmt.Errorf("config file %s has insecure permissions: world-writable files can be modified by any user. Please run: chmod o-w %s", path, path)
	}

	return nil
}
