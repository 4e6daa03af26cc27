package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charliek/logdesk/internal/auth"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/selector"
	"github.com/charliek/logdesk/internal/session"
)

// Workspace is the state of one browser client: its login gate, its form
// and its result region.
type Workspace struct {
	ID       string
	Gate     *session.Gate
	Selector *selector.Selector
	Region   *present.Region

	mu       sync.Mutex
	lastSeen time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// reset clears the form and the result region
func (w *Workspace) reset() {
	w.Selector.Reset()
	w.Region.Clear()
}

// RegistryConfig holds the dependencies shared by all workspaces
type RegistryConfig struct {
	Storage     session.Storage
	Provider    auth.Provider
	Lister      selector.Lister
	Gate        session.GateConfig
	IdleTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Registry tracks the workspaces of connected browser clients
type Registry struct {
	cfg RegistryConfig

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty registry
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gate.Logger == nil {
		cfg.Gate.Logger = cfg.Logger
	}
	return &Registry{
		cfg:        cfg,
		workspaces: make(map[string]*Workspace),
	}
}

// Lookup returns the workspace for id, creating it when id is unknown. An
// id that is not a UUID is replaced by a fresh one; the returned workspace
// carries the id actually used.
func (r *Registry) Lookup(id string) *Workspace {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	now := r.cfg.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.workspaces[id]
	if !ok {
		region := present.NewRegion()
		ws = &Workspace{
			ID:       id,
			Gate:     session.NewGate(session.Scoped(r.cfg.Storage, id), r.cfg.Provider, r.cfg.Gate),
			Selector: selector.New(r.cfg.Lister, region, r.cfg.Logger.With("workspace", id)),
			Region:   region,
		}
		r.workspaces[id] = ws
		r.cfg.Logger.Debug("workspace created", "workspace", id)
	}
	ws.touch(now)
	return ws
}

// Remove drops the workspace id and deletes its session record
func (r *Registry) Remove(ctx context.Context, id string) {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()

	if ok {
		r.discard(ctx, ws)
	}
}

// discard deletes the session record of a workspace that left the registry
func (r *Registry) discard(ctx context.Context, ws *Workspace) {
	if err := ws.Gate.Logout(ctx); err != nil {
		r.cfg.Logger.Warn("dropping session record", "workspace", ws.ID, "error", err)
	}
}

// Len returns the number of live workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep evicts idle workspaces together with their session records, and
// deletes expired session records when the storage supports it. It returns
// the number of evicted workspaces.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.cfg.Now()

	var idle []*Workspace
	if r.cfg.IdleTimeout > 0 {
		cutoff := now.Add(-r.cfg.IdleTimeout)
		r.mu.Lock()
		for id, ws := range r.workspaces {
			if ws.idleSince().Before(cutoff) {
				delete(r.workspaces, id)
				idle = append(idle, ws)
			}
		}
		r.mu.Unlock()
	}
	for _, ws := range idle {
		r.discard(ctx, ws)
	}
	evicted := len(idle)

	if exp, ok := r.cfg.Storage.(session.Expirer); ok && r.cfg.Gate.TTL > 0 {
		n, err := exp.DeleteBefore(ctx, now.Add(-r.cfg.Gate.TTL))
		if err != nil {
			r.cfg.Logger.Warn("expiring session records", "error", err)
		} else if n > 0 {
			r.cfg.Logger.Debug("expired session records", "count", n)
		}
	}

	if evicted > 0 {
		r.cfg.Logger.Info("evicted idle workspaces", "count", evicted)
	}
	return evicted
}

// Run sweeps on every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
