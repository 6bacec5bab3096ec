package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/internal/bot"
	"github.com/parleybot/parley/internal/config"
	"github.com/parleybot/parley/internal/db/sqlite"
	"github.com/parleybot/parley/internal/nlp"
	"github.com/parleybot/parley/internal/respond"
)

type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

// testService builds a Service backed by a real temp-dir store.
func testService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.NewStore(sqlite.StoreConfig{Path: filepath.Join(dir, "parley.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	catalogPath := filepath.Join(dir, "responses.csv")
	require.NoError(t, respond.EnsureDefault(catalogPath))
	catalog, err := respond.LoadCatalog(catalogPath)
	require.NoError(t, err)

	cfg := config.Default()
	composer := respond.NewComposer(catalog, cfg.SimilarityThreshold, fixedSource{0})
	b := bot.New(cfg, nlp.NewAnalyzer(cfg.Topics), composer, sqlite.NewSessionStore(store))
	return NewService(b)
}

func doJSON(t *testing.T, svc *Service, method, path string, body interface{}, cookies []*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

// startSession starts a session and returns its cookies.
func startSession(t *testing.T, svc *Service, name string) []*http.Cookie {
	t.Helper()
	rec, resp := doJSON(t, svc, http.MethodPost, "/api/start", map[string]string{"uname": name}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["ok"])
	return rec.Result().Cookies()
}

func TestHandleStart(t *testing.T) {
	svc := testService(t)

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/start", map[string]string{"uname": "Sam"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])
	assert.NotEmpty(t, resp["sid"])
	assert.Contains(t, resp["msg"], "Sam")

	var foundSID bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			foundSID = true
		}
	}
	assert.True(t, foundSID, "session cookie not set")
}

func TestHandleChat(t *testing.T) {
	svc := testService(t)
	cookies := startSession(t, svc, "Sam")

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "I love hiking in the mountains"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])
	assert.NotEmpty(t, resp["msg"])

	an, ok := resp["an"].(map[string]interface{})
	require.True(t, ok, "analysis missing from response")
	assert.Equal(t, "outdoors", an["topic"])
	assert.Equal(t, "positive", an["mood"])
}

func TestHandleChatEmptyMessage(t *testing.T) {
	svc := testService(t)
	cookies := startSession(t, svc, "Sam")

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "  "}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "Empty message", resp["err"])
}

func TestHandleChatNoSession(t *testing.T) {
	svc := testService(t)

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "hello"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No active session", resp["err"])
}

func TestHandleChatUnknownSession(t *testing.T) {
	svc := testService(t)
	cookies := []*http.Cookie{{Name: sessionCookie, Value: "no-such-session"}}

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "hello there"}, cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, resp["ok"])
}

func TestHandleChatSummaryCommand(t *testing.T) {
	svc := testService(t)
	cookies := startSession(t, svc, "Sam")

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "/summary"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "summary", resp["type"])
	assert.Contains(t, resp["msg"], "messages")
}

func TestHandleChatSearchCommand(t *testing.T) {
	svc := testService(t)
	cookies := startSession(t, svc, "Sam")

	_, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "I love hiking in the mountains"}, cookies)
	require.Equal(t, true, resp["ok"])

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/chat", map[string]string{"msg": "/search mountains"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "search", resp["type"])
	assert.Contains(t, resp["msg"], "hiking")
}

func TestHandleInfo(t *testing.T) {
	svc := testService(t)
	cookies := startSession(t, svc, "Sam")

	rec, resp := doJSON(t, svc, http.MethodGet, "/api/info", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "Sam", resp["uname"])
	assert.NotEmpty(t, resp["summ"])
}

func TestHandleClear(t *testing.T) {
	svc := testService(t)
	cookies := startSession(t, svc, "Sam")

	rec, resp := doJSON(t, svc, http.MethodPost, "/api/clear", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ok"])

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			assert.Negative(t, c.MaxAge)
		}
	}
}

func TestNotFound(t *testing.T) {
	svc := testService(t)

	rec, resp := doJSON(t, svc, http.MethodGet, "/api/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, resp["ok"])
}

func TestHealth(t *testing.T) {
	svc := testService(t)

	rec, resp := doJSON(t, svc, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
}
