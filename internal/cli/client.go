package cli

import (
	"fmt"
	"log/slog"

	"github.com/charliek/logdesk/internal/config"
	"github.com/charliek/logdesk/internal/remote"
)

// newRemoteClient creates the log API client described by the remote section
func newRemoteClient(cfg *config.Config, logger *slog.Logger) *remote.Client {
	return remote.NewClient(remote.Config{
		BaseURL:     cfg.Remote.BaseURL,
		Timeout:     cfg.Remote.RequestTimeout(),
		ListTimeout: cfg.Remote.LookupTimeout(),
		Logger:      logger,
	})
}

// remoteError turns a failed operation into a command error. Transport
// failures get a hint about the API address.
func remoteError(op string, f *remote.Failure, baseURL string) error {
	if f.Kind == remote.FailureTransport {
		return fmt.Errorf("%s: %w\nIs the log API running at %s? Use --api-url or LOGDESK_API_URL to point elsewhere", op, f, baseURL)
	}
	return fmt.Errorf("%s: %w", op, f)
}
