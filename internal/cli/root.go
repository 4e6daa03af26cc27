package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charliek/logdesk/internal/config"
	"github.com/charliek/logdesk/internal/domain"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath string
	apiURL     string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "logdesk",
	Short: "An operator console for the log export API",
	Long: `logdesk is an operator console in front of the log export API.
It supports:
  - A browser console with login, cascading tenant/namespace/load balancer
    selection and a single result region
  - The same workflow as a terminal UI
  - One command per API operation for scripting`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "logdesk version %s\n", Version)
	},
}

func init() {
	// Persistent flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: logdesk.yaml in the working directory, if present)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the log API, overrides the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Set version template
	rootCmd.SetVersionTemplate("logdesk version {{.Version}}\n")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the configuration named by --config. Without the flag a
// config file in the working directory is used when present, else defaults
// plus the environment. --api-url wins over both.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		if found, err := config.FindConfigFile(); err == nil {
			path = found
		}
	}

	var cfg *config.Config
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Default()
		if err := config.ApplyEnvironment(cfg, ""); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if apiURL != "" {
		if err := config.ValidateBaseURL(apiURL); err != nil {
			return nil, fmt.Errorf("%w: --api-url: %v", domain.ErrInvalidConfig, err)
		}
		cfg.Remote.BaseURL = strings.TrimRight(apiURL, "/")
	}
	return cfg, nil
}

// newLogger builds the application logger from the log section. --verbose
// forces debug level.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setup loads the configuration and installs the logger as the default
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// errNoUsers is returned by the consoles when nobody could log in
var errNoUsers = errors.New("no users configured: add a users section to the config (see 'logdesk hash-password')")
