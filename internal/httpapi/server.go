package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vidstats/internal/config"
	"vidstats/internal/export"
	"vidstats/internal/logging"
	"vidstats/internal/store"
)

// Store is the read side served by the API.
type Store interface {
	export.Source
	ListVideoStats(ctx context.Context, opts store.ListOptions) ([]store.VideoStats, int, error)
	ListInteractions(ctx context.Context, opts store.ListOptions) ([]store.InteractionStat, int, error)
	ListQuestions(ctx context.Context, opts store.ListOptions) ([]store.QuestionStat, int, error)
	ListAnswers(ctx context.Context, opts store.ListOptions) ([]store.QuestionAnswer, int, error)
	ListMonthlyViews(ctx context.Context, opts store.ListOptions) ([]store.MonthlyView, int, error)
	ListViewSessions(ctx context.Context, opts store.ListOptions) ([]store.ViewSession, int, error)
	ListRatings(ctx context.Context, opts store.ListOptions) ([]store.VideoRating, int, error)
}

// Server exposes the stored snapshot over HTTP.
type Server struct {
	bind     string
	token    string
	logger   *slog.Logger
	store    Store
	exporter *export.Exporter
	upstream export.VideoExporter

	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// New builds the server. up may be nil, in which case the JSON export
// route always fails.
func New(cfg *config.Config, st Store, up export.VideoExporter, logger *slog.Logger) (*Server, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("httpapi requires config and store")
	}
	s := &Server{
		bind:     strings.TrimSpace(cfg.API.Bind),
		token:    cfg.API.Token,
		logger:   logging.NewComponentLogger(logger, "api"),
		store:    st,
		exporter: export.New(st, cfg.Location()),
		upstream: up,
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(authMiddleware(s.token))

	r.Route("/videos", func(r chi.Router) {
		r.Get("/", s.handleVideos)
		r.Get("/stats", s.handleStats)
		r.Get("/interactions", s.handleInteractions)
		r.Get("/monthly_views", s.handleMonthlyViews)
		r.Get("/monthly_views/past_two_months", s.handlePastTwoMonths)
		r.Get("/view_sessions", s.handleViewSessions)
		r.Get("/questions", s.handleQuestions)
		r.Get("/question_answers", s.handleAnswers)
		r.Get("/video_ratings", s.handleRatings)

		r.Get("/export/{id}", withID(s.handleExportJSON))
		r.Get("/export/monthly_views/{start}", s.handleExportMonth(false))
		r.Get("/export/monthly_views/{start}/all", s.handleExportMonth(true))
		r.Get("/export/monthly_views/{start}/{end}", s.handleExportRange)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/stats", withID(s.handleVideoStats))
			r.Get("/interactions", withID(s.handleVideoInteractions))
			r.Get("/monthly_views", withID(s.handleVideoMonthlyViews))
			r.Get("/view_sessions", withID(s.handleVideoViewSessions))
			r.Get("/questions", withID(s.handleVideoQuestions))
			r.Get("/question_answers", withID(s.handleQuestionAnswers))
			r.Get("/video_ratings", withID(s.handleVideoRatings))
			r.Get("/export/monthly_views/{start}/{end}", withID(s.handleExportSingle))
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}
