package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/vidlingo/internal/cache"
	"github.com/valpere/vidlingo/internal/identity"
	"github.com/valpere/vidlingo/internal/orchestrator"
	"github.com/valpere/vidlingo/internal/quota"
	"github.com/valpere/vidlingo/internal/translator"
	"github.com/valpere/vidlingo/internal/video"
)

type stubVideos struct {
	results map[string][]video.Record
	err     error
}

func (s *stubVideos) Search(_ context.Context, text string) ([]video.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results[text], nil
}

type stubTranslator struct {
	translations map[string]string
	err          error
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if out, ok := s.translations[text]; ok {
		return out, nil
	}
	return text, nil
}

func (s *stubTranslator) CacheStats() cache.Stats {
	return cache.Stats{Entries: 2, Hits: 3, Misses: 1}
}

type stubDetector struct{}

func (stubDetector) Detect(text string) (string, bool) {
	if text == "???" {
		return "", false
	}
	return "fr", true
}

type fixture struct {
	server *Server
	gate   *quota.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vs := &stubVideos{results: map[string][]video.Record{
		"soleil": {{ID: "d1"}},
		"sun":    {{ID: "s1"}, {ID: "s2"}, {ID: "s3"}},
	}}
	tr := &stubTranslator{translations: map[string]string{"soleil": "sun"}}
	gate := quota.NewGate(quota.DefaultFreeSearches)

	srv := New(Deps{
		Search:     orchestrator.New(vs, tr, gate, orchestrator.Config{}, nil),
		Translator: tr,
		Videos:     vs,
		Detector:   stubDetector{},
	}, nil)
	return &fixture{server: srv, gate: gate}
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeSnapshots(t *testing.T, body []byte) []orchestrator.Snapshot {
	t.Helper()
	var out []orchestrator.Snapshot
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		var snap orchestrator.Snapshot
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &snap))
		out = append(out, snap)
	}
	require.NoError(t, scanner.Err())
	return out
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	msg, _ := payload["error"].(string)
	return msg
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = f.do(http.MethodPost, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSearch_StreamsSnapshots(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-ndjson", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get(HeaderSessionID))

	snaps := decodeSnapshots(t, rr.Body.Bytes())
	require.Len(t, snaps, 3)
	assert.True(t, snaps[0].Session.Loading)
	assert.Equal(t, orchestrator.PhaseIntelligent, snaps[1].Phase)
	assert.Len(t, snaps[1].Session.Results, 1)

	final := snaps[2]
	assert.Equal(t, orchestrator.PhaseSettled, final.Phase)
	assert.Equal(t, "sun", final.Session.QueryLabel)
	assert.Len(t, final.Session.Results, 3)
	assert.False(t, final.Session.Loading)
}

func TestSearch_EchoesSessionID(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, map[string]string{HeaderSessionID: "tab-1"})

	assert.Equal(t, "tab-1", rr.Header().Get(HeaderSessionID))
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/search", `{"query":"  "}`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgQueryRequired, errorBody(t, rr))
}

func TestSearch_InvalidPayload(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/search", `{`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearch_QuotaExhausted(t *testing.T) {
	f := newFixture(t)
	f.gate.Set(identity.Guest("tab-1"), 0)

	rr := f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, map[string]string{HeaderSessionID: "tab-1"})

	require.Equal(t, http.StatusPaymentRequired, rr.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["upgrade"])
	assert.Equal(t, msgUpgrade, payload["error"])
}

func TestSearch_ProUserBypassesQuota(t *testing.T) {
	f := newFixture(t)
	pro := &identity.User{ID: "u-1", IsPro: true}
	f.gate.Set(pro, 0)

	rr := f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, map[string]string{
		identity.HeaderUserID:   "u-1",
		identity.HeaderUserTier: "pro",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeSnapshots(t, rr.Body.Bytes()), 3)
}

func TestSearch_SupersededStreamStops(t *testing.T) {
	f := newFixture(t)
	f.server.board("tab-1", true).Begin(1 << 40)

	rr := f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, map[string]string{HeaderSessionID: "tab-1"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeSnapshots(t, rr.Body.Bytes()))
}

func TestSearch_NotConfigured(t *testing.T) {
	srv := New(Deps{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"soleil"}`))
	rr := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, msgInternal, errorBody(t, rr))
}

func TestSession(t *testing.T) {
	f := newFixture(t)
	headers := map[string]string{HeaderSessionID: "tab-1"}

	rr := f.do(http.MethodGet, "/api/session", "", headers)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, headers)

	rr = f.do(http.MethodGet, "/api/session", "", headers)
	require.Equal(t, http.StatusOK, rr.Code)
	var snap orchestrator.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, orchestrator.PhaseSettled, snap.Phase)
	assert.Equal(t, "sun", snap.Session.QueryLabel)

	rr = f.do(http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestQuota(t *testing.T) {
	f := newFixture(t)
	headers := map[string]string{HeaderSessionID: "tab-1"}

	f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, headers)
	rr := f.do(http.MethodGet, "/api/quota", "", headers)

	require.Equal(t, http.StatusOK, rr.Code)
	var st quota.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, quota.DefaultFreeSearches-1, st.Remaining)
	assert.False(t, st.Unlimited)
}

func TestQuota_GuestWithoutSessionKeepsAllowance(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, nil)
	f.do(http.MethodPost, "/api/search", `{"query":"soleil"}`, nil)
	rr := f.do(http.MethodGet, "/api/quota", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var st quota.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, quota.DefaultFreeSearches-2, st.Remaining)
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodGet, "/api/stats", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var st cache.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, cache.Stats{Entries: 2, Hits: 3, Misses: 1}, st)
}

func TestTranslate(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/translate", `{"text":"soleil"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"translation":"sun"}`, rr.Body.String())

	rr = f.do(http.MethodPost, "/api/translate", `{"text":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgTextRequired, errorBody(t, rr))

	rr = f.do(http.MethodGet, "/api/translate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method not allowed", errorBody(t, rr))
}

func TestTranslate_ProviderFailure(t *testing.T) {
	tr := &stubTranslator{err: &translator.Error{Provider: "gemini", Message: "Failed to translate the search query. Please try again.", Err: errors.New("403")}}
	srv := New(Deps{Translator: tr}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(`{"text":"soleil"}`))
	rr := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to translate the search query. Please try again.", errorBody(t, rr))
}

func TestDirectSearch(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/direct-search", `{"query":"sun"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var payload struct {
		Videos []video.Record `json:"videos"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Len(t, payload.Videos, 3)

	rr = f.do(http.MethodPost, "/api/direct-search", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgQueryRequired, errorBody(t, rr))
}

func TestDirectSearch_ProviderFailure(t *testing.T) {
	vs := &stubVideos{err: &video.SearchError{Provider: "youtube", Message: "API key not valid. Please pass a valid API key."}}
	srv := New(Deps{Videos: vs}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/direct-search", strings.NewReader(`{"query":"sun"}`))
	rr := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", errorBody(t, rr))
}

func TestDetectLanguage(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/detect-language", `{"text":"Bonjour"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"languageCode":"fr"}`, rr.Body.String())

	rr = f.do(http.MethodPost, "/api/detect-language", `{"text":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgDetectRequired, errorBody(t, rr))

	rr = f.do(http.MethodPost, "/api/detect-language", `{"text":"???"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, msgUndetectable, errorBody(t, rr))
}

func TestIntelligentSearch(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/intelligent-search", `{"query":"soleil"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var payload struct {
		Videos          []video.Record `json:"videos"`
		TranslatedQuery string         `json:"translatedQuery"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "sun", payload.TranslatedQuery)
	assert.Len(t, payload.Videos, 3)

	rr = f.do(http.MethodPost, "/api/intelligent-search", `{"query":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgQueryRequired, errorBody(t, rr))
}

func TestIntelligentSearch_TranslationFallsBack(t *testing.T) {
	vs := &stubVideos{results: map[string][]video.Record{"soleil": {{ID: "d1"}}}}
	tr := &stubTranslator{err: &translator.Error{Provider: "gemini", Message: "x", Err: errors.New("boom")}}
	srv := New(Deps{Videos: vs, Translator: tr}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/intelligent-search", strings.NewReader(`{"query":"soleil"}`))
	rr := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"translatedQuery":"soleil"`)
	assert.Contains(t, rr.Body.String(), `"d1"`)
}

func TestIntelligentSearch_EmptyResults(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/api/intelligent-search", `{"query":"nothing"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"videos":[],"translatedQuery":"nothing"}`, rr.Body.String())
}
