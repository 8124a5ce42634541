// Package server wires the mock forum backend: in-memory data, services,
// handlers and the chi router.
//
// ROUTES (all under /api):
//
//	POST   /auth/register                      → AuthHandler.HandleRegister
//	POST   /auth/login                         → AuthHandler.HandleLogin
//	POST   /auth/logout                        → AuthHandler.HandleLogout
//	GET    /auth/profile                       → AuthHandler.HandleProfile       [auth]
//
//	GET    /questions                          → list, newest first
//	GET    /questions/{id}                     → one question, counts a view
//	POST   /questions                          → create                          [auth]
//	PUT    /questions/{id}                     → update (author only)            [auth]
//	DELETE /questions/{id}                     → delete (author only)            [auth]
//	POST   /questions/{id}/vote                → {voteType}                      [auth]
//	PUT    /questions/{id}/accept/{aid}        → accept (question author only)   [auth]
//
//	GET    /answers/question/{id}              → answers of a question
//	POST   /answers/question/{id}              → {content}                       [auth]
//	PUT    /answers/{id}                       → {content} (author only)         [auth]
//	DELETE /answers/{id}                       → (author only)                   [auth]
//	POST   /answers/{id}/vote                  → {voteType}                      [auth]
//
//	GET    /notifications/user/{userId}        → caller's own feed               [auth]
//	PUT    /notifications/{id}/read                                              [auth]
//	PUT    /notifications/user/{userId}/read-all                                 [auth]
//	GET    /notifications/user/{userId}/unread-count → {count}                   [auth]
//
// Outside /api: GET /health and GET /metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/config"
	"github.com/sakif/qaforum/internal/handler"
	"github.com/sakif/qaforum/internal/middleware"
	"github.com/sakif/qaforum/internal/service"
)

// Server is the mock backend and everything it owns.
type Server struct {
	router   *chi.Mux
	config   config.Server
	logger   *slog.Logger
	tokens   *auth.TokenService
	registry *prometheus.Registry
}

// Option customises a Server.
type Option func(*options)

type options struct {
	passwordCost int
	tokenTTL     time.Duration
}

// WithPasswordCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(o *options) { o.passwordCost = cost }
}

// WithTokenTTL overrides how long issued tokens stay valid.
func WithTokenTTL(d time.Duration) Option {
	return func(o *options) { o.tokenTTL = d }
}

// New assembles the dependency chain:
//
//	Memory → Seed → AuthService, ForumService → handlers → routes
//
// Handlers only see services; services only see Memory.
func New(cfg config.Server, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{passwordCost: auth.DefaultCost, tokenTTL: auth.DefaultTokenTTL}
	for _, opt := range opts {
		opt(&o)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, o.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(o.passwordCost)

	data := service.NewMemory()
	if cfg.Seed {
		if err := service.Seed(data, passwords); err != nil {
			return nil, fmt.Errorf("seeding data: %w", err)
		}
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		tokens:   tokens,
		registry: prometheus.NewRegistry(),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	authHandler := handler.NewAuthHandler(service.NewAuthService(data, tokens, passwords, logger), logger)
	forumHandler := handler.NewForumHandler(service.NewForumService(data, logger), logger)
	s.setupRoutes(authHandler, forumHandler)

	return s, nil
}

// setupRoutes registers middleware and routes. Order matters: RequestID must
// come before Logger so every log line carries the ID.
func (s *Server) setupRoutes(authH *handler.AuthHandler, forumH *handler.ForumHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	requireAuth := auth.RequireAuth(s.tokens)

	s.router.Route("/api", func(r chi.Router) {
		// public reads; OptionalAuth lets handlers see the caller when present
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(s.tokens))

			r.Post("/auth/register", authH.HandleRegister)
			r.Post("/auth/login", authH.HandleLogin)
			r.Post("/auth/logout", authH.HandleLogout)

			r.Get("/questions", forumH.HandleListQuestions)
			r.Get("/questions/{id}", forumH.HandleGetQuestion)
			r.Get("/answers/question/{id}", forumH.HandleListAnswers)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/profile", authH.HandleProfile)

			r.Post("/questions", forumH.HandleCreateQuestion)
			r.Put("/questions/{id}", forumH.HandleUpdateQuestion)
			r.Delete("/questions/{id}", forumH.HandleDeleteQuestion)
			r.Post("/questions/{id}/vote", forumH.HandleVoteQuestion)
			r.Put("/questions/{id}/accept/{aid}", forumH.HandleAcceptAnswer)

			r.Post("/answers/question/{id}", forumH.HandleCreateAnswer)
			r.Put("/answers/{id}", forumH.HandleUpdateAnswer)
			r.Delete("/answers/{id}", forumH.HandleDeleteAnswer)
			r.Post("/answers/{id}/vote", forumH.HandleVoteAnswer)

			r.Get("/notifications/user/{userId}", forumH.HandleListNotifications)
			r.Put("/notifications/{id}/read", forumH.HandleMarkRead)
			r.Put("/notifications/user/{userId}/read-all", forumH.HandleMarkAllRead)
			r.Get("/notifications/user/{userId}/unread-count", forumH.HandleUnreadCount)
		})
	})
}

// Handler returns the root handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/api", s.config.Port)),
			slog.Bool("seeded", s.config.Seed),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
