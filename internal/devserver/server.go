// Package devserver is an in-memory implementation of the Gemora backend API.
// It issues real HS256 tokens and enforces roles, which makes it suitable for
// local development and for exercising the client end to end in tests. It
// holds no auction logic.
package devserver

import (
	"context"
	"crypto/rand"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/metrics"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address (e.g., ":8080", "127.0.0.1:8080")
	Address string

	// Secret signs issued tokens. A random secret is generated when empty.
	Secret []byte

	// TokenTTL is the lifetime of issued tokens. Defaults to 1 hour.
	TokenTTL time.Duration

	// Seed loads demo accounts, listings and tickets.
	Seed bool

	// BcryptCost defaults to bcrypt.DefaultCost. Tests lower it.
	BcryptCost int

	// ShutdownTimeout is the maximum time to wait for connections to drain.
	// Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	// ReadTimeout and WriteTimeout default to 10 seconds.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the development backend.
type Server struct {
	cfg        Config
	data       *data
	tokens     *tokenIssuer
	logger     *log.Logger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	router     chi.Router
	httpServer *http.Server
	inShutdown atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics counts requests into m and serves g at /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a Server.
func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:    cfg,
		data:   newData(cfg.BcryptCost),
		tokens: &tokenIssuer{key: cfg.Secret, ttl: cfg.TokenTTL},
		logger: log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Seed {
		if err := s.seed(); err != nil {
			return nil, err
		}
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address. It blocks until the server stops
// and returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	return s.httpServer.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones to finish,
// up to the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown returns whether the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handleUpdateProfile)
				r.Post("/avatar", s.handleAvatar)
				r.Post("/change-password", s.handleChangePassword)
				r.With(requireRole(roleAdmin)).Get("/search", s.handleSearchUsers)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(roleAdmin))

				r.Get("/users", s.handleListUsers)
				r.Get("/users/{id}", s.handleGetUser)
				r.Put("/users/{id}", s.handleUpdateUser)
				r.Delete("/users/{id}", s.handleDeleteUser)

				r.Get("/gems/pending", s.handlePendingGems)
				r.Get("/gems/approved", s.handleApprovedGems)
				r.Put("/gems/{id}/approve", s.handleApproveGem)
				r.Put("/gems/{id}/reject", s.handleRejectGem)
				r.Delete("/gems/{id}", s.handleDeleteGem)
			})

			r.Route("/tickets/admin", func(r chi.Router) {
				r.Use(requireRole(roleAdmin))

				r.Get("/", s.handleListTickets)
				r.Put("/{id}/reply", s.handleReplyTicket)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.IsShuttingDown() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// observe logs every request and counts it by status class.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
		if s.metrics != nil {
			s.metrics.ServerRequests.WithLabelValues(r.Method, metrics.StatusClass(status)).Inc()
		}
	})
}
