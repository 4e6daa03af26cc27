// Package session decides whether an operator sees the login screen or the
// main console, based on a session record kept in a Storage.
//
// The gate is a two-state machine: LoggedOut and LoggedIn. A successful
// login moves to LoggedIn, logout moves back, and a failed login changes
// nothing.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/charliek/logdesk/internal/auth"
	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

// GateConfig holds optional gate settings
type GateConfig struct {
	// TTL expires sessions older than this; zero disables expiry
	TTL time.Duration
	// Key overrides the storage key of the session record
	Key string
	// Now overrides the clock (tests)
	Now func() time.Time
	// Logger receives diagnostics for unreadable records
	Logger *slog.Logger
}

// DefaultGateConfig returns the default gate settings
func DefaultGateConfig() GateConfig {
	return GateConfig{
		TTL: constants.DefaultSessionTTL,
		Key: constants.SessionKey,
	}
}

// Gate is the login state machine for one client
type Gate struct {
	storage  Storage
	provider auth.Provider
	ttl      time.Duration
	key      string
	now      func() time.Time
	logger   *slog.Logger
}

// NewGate creates a gate reading and writing its record in storage
func NewGate(storage Storage, provider auth.Provider, cfg GateConfig) *Gate {
	g := &Gate{
		storage:  storage,
		provider: provider,
		ttl:      cfg.TTL,
		key:      cfg.Key,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
	if g.key == "" {
		g.key = constants.SessionKey
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// CheckSession returns the stored session, or nil if there is none. It
// never fails: unreadable, malformed or expired records count as no session.
func (g *Gate) CheckSession(ctx context.Context) *domain.Session {
	data, ok, err := g.storage.Get(ctx, g.key)
	if err != nil {
		g.logger.Warn("reading session record", "error", err)
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		g.logger.Debug("discarding malformed session record", "error", err)
		return nil
	}
	if !s.Valid() {
		return nil
	}
	if g.ttl > 0 && s.Age(g.now()) > g.ttl {
		return nil
	}
	return &s
}

// Login verifies the credentials and persists a new session. On failure it
// returns domain.ErrInvalidCredentials and leaves any stored session as is.
func (g *Gate) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = auth.NormalizeEmail(email)
	if g.provider == nil || !g.provider.Verify(email, password) {
		return nil, domain.ErrInvalidCredentials
	}

	s := &domain.Session{
		Email:         email,
		Authenticated: true,
		LoginTime:     g.now().UTC(),
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	if err := g.storage.Set(ctx, g.key, data); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// Logout deletes the stored session. It is safe to call repeatedly.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.storage.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CurrentScreen returns the screen to render for the current session state
func (g *Gate) CurrentScreen(ctx context.Context) domain.Screen {
	if g.CheckSession(ctx) != nil {
		return domain.ScreenMain
	}
	return domain.ScreenLogin
}
