package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/config"
	"typeindex/internal/adapter/catalog"
	"typeindex/internal/adapter/credentials"
	"typeindex/internal/adapter/embedding"
	"typeindex/internal/adapter/memstore"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/usecase"
)

type fakeSession struct {
	creds     *credentials.Store
	gateway   *embedding.Gateway
	lifecycle *usecase.LifecycleManager
	connects  int
}

func (s *fakeSession) Connect(apiKey string) error {
	s.connects++
	s.creds.Set(apiKey)
	if err := s.gateway.Initialize(); err != nil {
		return err
	}
	s.lifecycle.OnConnected()
	s.lifecycle.Wait()
	return nil
}

func (s *fakeSession) Disconnect() {
	s.creds.Clear()
	s.gateway.Reset()
}

func (s *fakeSession) Connected() bool { return s.creds.Available() }

type testServer struct {
	mux     *http.ServeMux
	session *fakeSession
	vectors *memstore.VectorStore
}

func newTestServer(t *testing.T, indexEnabled bool) *testServer {
	t.Helper()
	logger := logging.NewDiscard()
	cfg := config.DefaultConfig()
	cfg.Index.Enabled = indexEnabled

	creds := credentials.NewStore()
	gw := embedding.NewGateway(embedding.NewMockEmbedder(128, creds), nil, logger)
	vs := memstore.NewVectorStore()
	svc := usecase.NewSearchService(gw, vs, nil, cfg.Search, logger)
	types := catalog.NewMemoryCatalog(
		domain.SemanticType{SemanticType: "EMAIL", Description: "email address of a customer", BuiltIn: true},
		domain.SemanticType{SemanticType: "POSTCODE", Description: "postal zip code", BuiltIn: true},
	)
	lm := usecase.NewLifecycleManager(cfg.Index, svc, types, gw, creds, logger)

	session := &fakeSession{creds: creds, gateway: gw, lifecycle: lm}
	mux := http.NewServeMux()
	NewHandlers(svc, lm, session, logger).Register(mux)
	return &testServer{mux: mux, session: session, vectors: vs}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func emailQuery() map[string]any {
	return map[string]any{
		"request": map[string]any{"description": "email address of a customer"},
	}
}

func TestSearch_UnavailableBeforeConnect(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/search", emailQuery())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestConnectThenSearch(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/connect", map[string]string{"apiKey": "k"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/index/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(2), status["indexedTypes"])
	assert.Equal(t, float64(2), status["totalTypes"])
	assert.Equal(t, false, status["indexing"])
	assert.Equal(t, true, status["connected"])

	rec = s.do(t, http.MethodPost, "/api/search", emailQuery())
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []domain.SimilarityResult `json:"results"`
		Total   int                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "EMAIL", body.Results[0].SemanticType)

	rec = s.do(t, http.MethodPost, "/api/search/most-similar", emailQuery())
	require.Equal(t, http.StatusOK, rec.Code)
	var best domain.SimilarityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	assert.Equal(t, "EMAIL", best.SemanticType)

	rec = s.do(t, http.MethodPost, "/api/search/most-similar", map[string]any{
		"request": map[string]any{"description": "completely unrelated words"},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/search/llm", map[string]any{
		"request":   map[string]any{"description": "email address of a customer"},
		"threshold": -1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.LessOrEqual(t, body.Total, 3)
}

func TestTypeEvents(t *testing.T) {
	s := newTestServer(t, true)
	s.do(t, http.MethodPost, "/api/connect", map[string]string{"apiKey": "k"})

	rec := s.do(t, http.MethodPost, "/api/index/types", map[string]any{"semanticType": "IBAN", "description": "bank account"})
	assert.Equal(t, http.StatusOK, rec.Code)
	var event map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, "indexed", event["status"])
	n, _ := s.vectors.Count()
	assert.Equal(t, 3, n)

	rec = s.do(t, http.MethodPost, "/api/index/types", map[string]any{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/index/types?name=IBAN", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, "removed", event["status"])
	n, _ = s.vectors.Count()
	assert.Equal(t, 2, n)

	rec = s.do(t, http.MethodDelete, "/api/index/types", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRebuild(t *testing.T) {
	s := newTestServer(t, true)
	s.do(t, http.MethodPost, "/api/connect", map[string]string{"apiKey": "k"})

	rec := s.do(t, http.MethodPost, "/api/index/rebuild", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	disabled := newTestServer(t, false)
	rec = disabled.do(t, http.MethodPost, "/api/index/rebuild", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDisconnect(t *testing.T) {
	s := newTestServer(t, true)
	s.do(t, http.MethodPost, "/api/connect", map[string]string{"apiKey": "k"})

	rec := s.do(t, http.MethodPost, "/api/disconnect", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/search", emailQuery())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/connect", map[string]string{"apiKey": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, s.session.connects)

	rec = s.do(t, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
