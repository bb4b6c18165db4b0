// Package server exposes orchestrated searches and the standalone provider
// endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/vidlingo/internal/cache"
	"github.com/valpere/vidlingo/internal/identity"
	"github.com/valpere/vidlingo/internal/orchestrator"
	"github.com/valpere/vidlingo/internal/quota"
	"github.com/valpere/vidlingo/internal/video"
)

const (
	// HeaderSessionID keys the caller's snapshot board.
	HeaderSessionID = "X-Session-ID"

	shutdownTimeout = 10 * time.Second
)

// Searcher runs orchestrated searches.
type Searcher interface {
	Run(ctx context.Context, query string, user *identity.User) (*orchestrator.Search, error)
	QuotaState(user *identity.User) quota.State
}

// Translator is the cached translation adapter.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	CacheStats() cache.Stats
}

// VideoSearcher is the video search adapter.
type VideoSearcher interface {
	Search(ctx context.Context, text string) ([]video.Record, error)
}

// LanguageDetector guesses the language of a text.
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

type Deps struct {
	Search     Searcher
	Translator Translator
	Videos     VideoSearcher
	Detector   LanguageDetector
}

type Server struct {
	deps   Deps
	logger *zap.SugaredLogger

	mu     sync.Mutex
	boards map[string]*orchestrator.Board
}

func New(deps Deps, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		deps:   deps,
		logger: logger,
		boards: make(map[string]*orchestrator.Board),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/quota", s.handleQuota)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/translate", s.handleTranslate)
	mux.HandleFunc("/api/direct-search", s.handleDirectSearch)
	mux.HandleFunc("/api/intelligent-search", s.handleIntelligentSearch)
	mux.HandleFunc("/api/detect-language", s.handleDetectLanguage)
	return s.loggingMiddleware(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("server listening", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Infow("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorw("graceful shutdown failed", "error", err)
		if closeErr := server.Close(); closeErr != nil {
			s.logger.Errorw("forced close failed", "error", closeErr)
		}
		return err
	}
	return nil
}

// board returns the board for sessionID, creating it when create is set.
func (s *Server) board(sessionID string, create bool) *orchestrator.Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[sessionID]
	if !ok && create {
		b = orchestrator.NewBoard()
		s.boards[sessionID] = b
	}
	return b
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		s.logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", time.Since(start),
		)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying flusher.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}
