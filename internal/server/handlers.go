package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/vidlingo/internal/config"
	"github.com/valpere/vidlingo/internal/identity"
	"github.com/valpere/vidlingo/internal/orchestrator"
	"github.com/valpere/vidlingo/internal/translator"
	"github.com/valpere/vidlingo/internal/video"
)

const (
	maxBodyBytes = 64 << 10

	msgInternal       = "internal server error"
	msgTranslateFail  = "Failed to communicate with the AI service."
	msgSearchFail     = "An unexpected error occurred on the server."
	msgUpgrade        = "You have used all of your free searches. Upgrade to Pro for unlimited searches."
	msgNoSession      = "no search in this session"
	msgQueryRequired  = "Query is required"
	msgTextRequired   = "Text to translate is required"
	msgDetectRequired = "Text for language detection is required"
	msgUndetectable   = "language could not be detected"
)

type searchRequest struct {
	Query string `json:"query"`
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, s.logger, http.StatusMethodNotAllowed, errors.New("Method not allowed"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, "ok"); err != nil {
		s.logger.Errorw("failed to write health response", "error", err)
	}
}

// handleSearch runs an orchestrated search and streams its snapshots as
// NDJSON until the search settles or a newer search on the same session
// takes over.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r, s.logger) {
		return
	}
	if s.deps.Search == nil {
		s.internalError(w, &config.ConfigurationError{Key: "youtube.api_key"})
		return
	}

	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}

	sessionID := s.sessionID(w, r)
	user := s.user(r, sessionID)

	// the search outlives a disconnected client so the board still settles
	search, err := s.deps.Search.Run(context.WithoutCancel(r.Context()), req.Query, user)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyQuery):
		writeError(w, s.logger, http.StatusBadRequest, errors.New(msgQueryRequired))
		return
	case errors.Is(err, orchestrator.ErrQuotaExceeded):
		writeJSON(w, s.logger, http.StatusPaymentRequired, map[string]any{
			"error":   msgUpgrade,
			"upgrade": true,
		})
		return
	case err != nil:
		s.internalError(w, err)
		return
	}

	board := s.board(sessionID, true)
	board.Begin(search.Generation)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	writing := true
	for snap := range search.Updates() {
		if !board.Publish(snap) {
			s.logger.Debugw("search superseded", "session", sessionID, "search", search.ID)
			return
		}
		if !writing {
			continue
		}
		if err := enc.Encode(snap); err != nil {
			s.logger.Warnw("failed to stream snapshot", "session", sessionID, "error", err)
			writing = false
			continue
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			s.logger.Warnw("failed to flush snapshot", "session", sessionID, "error", err)
		}
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, s.logger) {
		return
	}

	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		writeError(w, s.logger, http.StatusNotFound, errors.New(msgNoSession))
		return
	}
	board := s.board(sessionID, false)
	if board == nil {
		writeError(w, s.logger, http.StatusNotFound, errors.New(msgNoSession))
		return
	}
	snap, ok := board.Current()
	if !ok {
		writeError(w, s.logger, http.StatusNotFound, errors.New(msgNoSession))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, snap)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, s.logger) {
		return
	}
	if s.deps.Search == nil {
		s.internalError(w, &config.ConfigurationError{Key: "youtube.api_key"})
		return
	}

	user := s.user(r, s.sessionID(w, r))
	writeJSON(w, s.logger, http.StatusOK, s.deps.Search.QuotaState(user))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, s.logger) {
		return
	}
	if s.deps.Translator == nil {
		s.internalError(w, &config.ConfigurationError{Key: "translator.provider"})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.deps.Translator.CacheStats())
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r, s.logger) {
		return
	}
	if s.deps.Translator == nil {
		s.internalError(w, &config.ConfigurationError{Key: "translator.provider"})
		return
	}

	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, s.logger, http.StatusBadRequest, errors.New(msgTextRequired))
		return
	}

	translation, err := s.deps.Translator.Translate(r.Context(), req.Text)
	if err != nil {
		s.logger.Errorw("translation failed", "error", err)
		writeError(w, s.logger, http.StatusInternalServerError, errors.New(publicMessage(err, msgTranslateFail)))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"translation": translation})
}

func (s *Server) handleDirectSearch(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r, s.logger) {
		return
	}
	if s.deps.Videos == nil {
		s.internalError(w, &config.ConfigurationError{Key: "youtube.api_key"})
		return
	}

	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, s.logger, http.StatusBadRequest, errors.New(msgQueryRequired))
		return
	}

	videos, err := s.deps.Videos.Search(r.Context(), req.Query)
	if err != nil {
		s.logger.Errorw("direct search failed", "error", err)
		writeError(w, s.logger, http.StatusInternalServerError, errors.New(publicMessage(err, msgSearchFail)))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string][]video.Record{"videos": videos})
}

// handleIntelligentSearch translates the query and searches with the result in
// one request. A failed translation falls back to the raw query.
func (s *Server) handleIntelligentSearch(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r, s.logger) {
		return
	}
	if s.deps.Videos == nil {
		s.internalError(w, &config.ConfigurationError{Key: "youtube.api_key"})
		return
	}
	if s.deps.Translator == nil {
		s.internalError(w, &config.ConfigurationError{Key: "translator.provider"})
		return
	}

	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, s.logger, http.StatusBadRequest, errors.New(msgQueryRequired))
		return
	}

	translated, err := s.deps.Translator.Translate(r.Context(), req.Query)
	if err != nil || translated == "" {
		s.logger.Warnw("translation failed, searching with the original query", "error", err)
		translated = req.Query
	}

	videos, err := s.deps.Videos.Search(r.Context(), translated)
	if err != nil {
		s.logger.Errorw("intelligent search failed", "error", err)
		writeError(w, s.logger, http.StatusInternalServerError, errors.New(publicMessage(err, msgSearchFail)))
		return
	}
	if videos == nil {
		videos = []video.Record{}
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"videos":          videos,
		"translatedQuery": translated,
	})
}

func (s *Server) handleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r, s.logger) {
		return
	}
	if s.deps.Detector == nil {
		s.internalError(w, errors.New("language detector not configured"))
		return
	}

	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, s.logger, http.StatusBadRequest, errors.New(msgDetectRequired))
		return
	}

	code, ok := s.deps.Detector.Detect(req.Text)
	if !ok {
		writeError(w, s.logger, http.StatusUnprocessableEntity, errors.New(msgUndetectable))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"languageCode": code})
}

// sessionID returns the caller's session id, minting one when absent. The id
// is always echoed in the response.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderSessionID))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(HeaderSessionID, id)
	return id
}

// user resolves the caller. A guest that sent no session header is keyed by
// its network address, so dropping the header does not reset its quota.
func (s *Server) user(r *http.Request, sessionID string) *identity.User {
	if strings.TrimSpace(r.Header.Get(HeaderSessionID)) == "" {
		sessionID = "addr:" + clientHost(r)
	}
	return identity.FromRequest(r, sessionID)
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// internalError logs err and answers with a body that reveals nothing about it.
func (s *Server) internalError(w http.ResponseWriter, err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		s.logger.Errorw("configuration error", "key", cfgErr.Key, "error", err)
	} else {
		s.logger.Errorw("internal error", "error", err)
	}
	writeError(w, s.logger, http.StatusInternalServerError, errors.New(msgInternal))
}

// publicMessage picks the user-safe message carried by provider errors.
func publicMessage(err error, fallback string) string {
	var te *translator.Error
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	var se *video.SearchError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

func requirePost(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger) bool {
	return requireMethod(w, r, logger, http.MethodPost)
}

func requireGet(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger) bool {
	return requireMethod(w, r, logger, http.MethodGet)
}

func requireMethod(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, logger, http.StatusMethodNotAllowed, errors.New("Method not allowed"))
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, status int, err error) {
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}
