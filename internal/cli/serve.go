package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliek/logdesk/internal/auth"
	"github.com/charliek/logdesk/internal/config"
	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/session"
	"github.com/charliek/logdesk/internal/tui"
	"github.com/charliek/logdesk/internal/web"
)

// sweepInterval is how often idle workspaces and expired sessions are dropped
const sweepInterval = time.Minute

// Console command flags
var (
	serveHost  string
	servePort  int
	tuiLogFile string
	tuiOutDir  string
)

// serveCmd runs the browser console
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser console",
	Long: `Run the browser console in front of the log API.

Examples:
  logdesk serve                      # Listen on the configured address
  logdesk serve --port 9000          # Override the port
  logdesk serve --api-url http://logs.internal:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// tuiCmd runs the terminal console
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal console",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(serveCmd, tuiCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host, overrides the config")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port, overrides the config")

	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "Write logs to this file (logs are discarded otherwise)")
	tuiCmd.Flags().StringVarP(&tuiOutDir, "output", "o", ".", "Directory for downloaded files")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	// Override listen address if specified
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		if servePort < 1 || servePort > 65535 {
			return fmt.Errorf("invalid port: %d (must be 1-65535)", servePort)
		}
		cfg.Server.Port = servePort
	}
	if len(cfg.Users) == 0 {
		return errNoUsers
	}

	storage, closeStorage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn("closing session storage", "error", err)
		}
	}()

	client := newRemoteClient(cfg, logger)
	registry := web.NewRegistry(web.RegistryConfig{
		Storage:     storage,
		Provider:    auth.NewCredentialStore(cfg.Users),
		Lister:      client,
		Gate:        gateConfig(cfg, logger),
		IdleTimeout: cfg.Session.Idle(),
		Logger:      logger,
	})
	handlers := web.NewHandlers(registry, client, web.HandlersConfig{
		PublicDownload: cfg.Remote.PublicDownload,
		CookieSecure:   cfg.Server.CookieSecure,
		Logger:         logger,
	})
	server := web.NewServer(web.ServerConfig{
		Addr:           cfg.Server.Addr(),
		RequestTimeout: cfg.Remote.RequestTimeout(),
		Logger:         logger,
	}, handlers)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go registry.Run(ctx, sweepInterval)

	// Start web server in background
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "logdesk console: http://%s\n", server.Addr())
	fmt.Fprintf(out, "Log API: %s\n", cfg.Remote.BaseURL)
	fmt.Fprintf(out, "Sessions: %s storage, %d user(s)\n", cfg.Session.Storage, len(cfg.Users))

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutting down web server", "error", err)
	}

	fmt.Fprintln(out, "Shutdown complete")
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Users) == 0 {
		return errNoUsers
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if tuiLogFile != "" {
		f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.Log)
	slog.SetDefault(logger)

	storage, closeStorage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn("closing session storage", "error", err)
		}
	}()

	return tui.Run(cmd.Context(), tui.Config{
		Storage:   session.Scoped(storage, "tui"),
		Provider:  auth.NewCredentialStore(cfg.Users),
		Client:    newRemoteClient(cfg, logger),
		Gate:      gateConfig(cfg, logger),
		OutputDir: tuiOutDir,
		Logger:    logger,
	})
}

// openStorage opens the session storage selected by the session section
func openStorage(cfg *config.Config) (session.Storage, func() error, error) {
	if cfg.Session.Storage == constants.StorageSQLite {
		s, err := session.NewSQLiteStorage(cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session storage: %w", err)
		}
		return s, s.Close, nil
	}
	return session.NewMemoryStorage(), func() error { return nil }, nil
}

func gateConfig(cfg *config.Config, logger *slog.Logger) session.GateConfig {
	gate := session.DefaultGateConfig()
	gate.TTL = cfg.Session.SessionTTL()
	gate.Logger = logger
	return gate
}
