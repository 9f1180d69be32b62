package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"typeindex/internal/domain"
	"typeindex/internal/logging"
)

// Searcher answers similarity queries.
type Searcher interface {
	FindSimilarTypes(req domain.GenerationRequest, threshold float64) ([]domain.SimilarityResult, error)
	FindMostSimilarType(req domain.GenerationRequest) (*domain.SimilarityResult, error)
	FindTopSimilarTypesForLLM(req domain.GenerationRequest, threshold float64) ([]domain.SimilarityResult, error)
	DefaultThreshold() float64
	LLMThreshold() float64
}

// Lifecycle receives catalog events and administrative actions.
type Lifecycle interface {
	ReindexOne(t *domain.SemanticType)
	RemoveOne(semanticType string)
	RebuildIndex() error
	Progress() domain.IndexingProgress
}

// Session switches credentials and storage mode.
type Session interface {
	Connect(apiKey string) error
	Disconnect()
	Connected() bool
}

type Handlers struct {
	searcher  Searcher
	lifecycle Lifecycle
	session   Session
	logger    *logging.Logger
}

func NewHandlers(searcher Searcher, lifecycle Lifecycle, session Session, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Handlers{
		searcher:  searcher,
		lifecycle: lifecycle,
		session:   session,
		logger:    logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search", h.HandleSearch)
	mux.HandleFunc("POST /api/search/most-similar", h.HandleMostSimilar)
	mux.HandleFunc("POST /api/search/llm", h.HandleSearchForLLM)
	mux.HandleFunc("POST /api/index/types", h.HandleTypeAdded)
	mux.HandleFunc("DELETE /api/index/types", h.HandleTypeRemoved)
	mux.HandleFunc("POST /api/index/rebuild", h.HandleRebuild)
	mux.HandleFunc("GET /api/index/status", h.HandleStatus)
	mux.HandleFunc("POST /api/connect", h.HandleConnect)
	mux.HandleFunc("POST /api/disconnect", h.HandleDisconnect)
}

type searchRequest struct {
	Request   domain.GenerationRequest `json:"request"`
	Threshold *float64                 `json:"threshold,omitempty"`
}

func (h *Handlers) decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	return req, true
}

func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSearch(w, r)
	if !ok {
		return
	}
	threshold := h.searcher.DefaultThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	results, err := h.searcher.FindSimilarTypes(req.Request, threshold)
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"total":   len(results),
	})
}

func (h *Handlers) HandleMostSimilar(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSearch(w, r)
	if !ok {
		return
	}

	best, err := h.searcher.FindMostSimilarType(req.Request)
	if err != nil {
		h.writeError(w, "most-similar search", err)
		return
	}
	if best == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

func (h *Handlers) HandleSearchForLLM(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSearch(w, r)
	if !ok {
		return
	}
	threshold := h.searcher.LLMThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	results, err := h.searcher.FindTopSimilarTypesForLLM(req.Request, threshold)
	if err != nil {
		h.writeError(w, "llm search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"total":   len(results),
	})
}

func (h *Handlers) HandleTypeAdded(w http.ResponseWriter, r *http.Request) {
	var t domain.SemanticType
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(t.SemanticType) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing semanticType"})
		return
	}

	// Failures are logged by the lifecycle manager and never reach the catalog.
	h.lifecycle.ReindexOne(&t)
	writeJSON(w, http.StatusOK, map[string]string{"status": "indexed", "semanticType": t.SemanticType})
}

func (h *Handlers) HandleTypeRemoved(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter 'name'"})
		return
	}

	h.lifecycle.RemoveOne(name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "semanticType": name})
}

func (h *Handlers) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycle.RebuildIndex(); err != nil {
		h.writeError(w, "rebuild", err)
		return
	}
	writeJSON(w, http.StatusOK, h.lifecycle.Progress())
}

type statusResponse struct {
	domain.IndexingProgress
	Connected bool `json:"connected"`
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		IndexingProgress: h.lifecycle.Progress(),
		Connected:        h.session.Connected(),
	})
}

type connectRequest struct {
	APIKey string `json:"apiKey"`
}

func (h *Handlers) HandleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing apiKey"})
		return
	}

	if err := h.session.Connect(req.APIKey); err != nil {
		h.writeError(w, "connect", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "connected"})
}

func (h *Handlers) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	h.session.Disconnect()
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (h *Handlers) writeError(w http.ResponseWriter, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s failed: %v", op, err)
	} else {
		h.logger.Warn("%s rejected: %v", op, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrIndexingDisabled), errors.Is(err, domain.ErrPassInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
