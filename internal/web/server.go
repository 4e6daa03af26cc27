// Package web serves the browser console: login, the cascading log form and
// the result region, in front of the remote log API.
package web

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

// ServerConfig holds configuration for the web server
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration // upper bound for one request, 0 disables
	Logger         *slog.Logger
}

// Server represents the HTTP server of the console
type Server struct {
	config     ServerConfig
	router     *chi.Mux
	handler    http.Handler
	httpServer *http.Server
	handlers   *Handlers
	mu         sync.Mutex
}

// NewServer creates a new web server
func NewServer(config ServerConfig, handlers *Handlers) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(config.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	if config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.RequestTimeout))
	}

	s := &Server{
		config:   config,
		router:   r,
		handlers: handlers,
	}

	// Register routes
	s.registerRoutes()

	s.handler = gzhttp.GzipHandler(r)
	return s
}

// registerRoutes sets up all console routes
func (s *Server) registerRoutes() {
	// Health check (no session required)
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	static, _ := fs.Sub(assetFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router.Group(func(r chi.Router) {
		r.Use(s.handlers.withWorkspace)

		r.Get("/", s.handlers.Index)
		r.Get("/login", s.handlers.LoginPage)
		r.Post("/login", s.handlers.Login)
		r.Post("/logout", s.handlers.Logout)

		r.Group(func(r chi.Router) {
			r.Use(s.handlers.requireSession)

			r.Route("/ui", func(r chi.Router) {
				// Form events, answered with the form panel
				r.Post("/tenant", s.handlers.TenantChanged)
				r.Post("/namespace", s.handlers.NamespaceChanged)
				r.Post("/loadbalancer", s.handlers.LoadBalancerChanged)
				r.Post("/logtype", s.handlers.LogTypeChanged)
				r.Post("/hours", s.handlers.HoursChanged)
				r.Post("/reset", s.handlers.Reset)

				// Actions, answered with the result region
				r.Post("/diagnose", s.handlers.Diagnose)
				r.Post("/logs", s.handlers.FetchLogs)
				r.Post("/index", s.handlers.SendToIndex)

				// Search index management
				r.Get("/index/test", s.handlers.TestIndex)
				r.Get("/index/config", s.handlers.IndexConfig)
				r.Post("/index/config", s.handlers.UpdateIndexConfig)
			})

			r.Get("/download", s.handlers.Download)
		})
	})
}

// Handler returns the root handler, including response compression
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Downloads are streamed
		IdleTimeout:  60 * time.Second,
	}
	server := s.httpServer
	s.mu.Unlock()

	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Addr returns the server address
func (s *Server) Addr() string {
	return s.config.Addr
}
