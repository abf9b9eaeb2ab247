// Package server exposes question generation and feedback over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adaptilearn/quizsynth/internal/config"
	"github.com/adaptilearn/quizsynth/internal/feedback"
	"github.com/adaptilearn/quizsynth/internal/metrics"
	"github.com/adaptilearn/quizsynth/internal/questiongen"
)

const shutdownTimeout = 30 * time.Second

// Deps are the collaborators the handlers call into.
type Deps struct {
	Questions *questiongen.Orchestrator
	Feedback  *feedback.Service
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// Provider names the configured AI vendor for /health. Empty when
	// running fallback-only.
	Provider string
	Version  string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP front end.
type Server struct {
	cfg      config.ServerConfig
	deps     Deps
	logger   *zap.Logger
	validate *validator.Validate
	router   chi.Router
}

// New builds the router. deps.Questions and deps.Feedback are required.
func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   deps.Logger,
		validate: newValidator(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.logger), s.deps.Metrics.Middleware, middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Route("/api/ai", func(r chi.Router) {
		r.With(validateRequest(s.validate, newGenerateQuestionsRequest)).
			Post("/generate-questions", s.handleGenerateQuestions)
		r.With(validateRequest(s.validate, newFeedbackRequest)).
			Post("/enhance-feedback", s.handleEnhanceFeedback)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr), zap.Bool("ai", s.deps.Questions.HasAI()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
