package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voltaic-labs/examdex/internal/api"
	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/registry"
	"github.com/voltaic-labs/examdex/internal/retrieval"
)

const (
	defaultSearchLimit  = 10
	maxSearchLimit      = 50
	defaultMinScore     = 0.3
	defaultHybridWeight = 0.7
)

// SearchEngine is the retrieval surface the handler exposes over HTTP.
type SearchEngine interface {
	SearchSemantic(ctx context.Context, embedding []float32, topK int, minScore float32, category domain.CategoryID) []*domain.RetrievalResult
	SearchHybrid(ctx context.Context, embedding []float32, query string, topK int, category domain.CategoryID, semanticWeight float32) []*domain.RetrievalResult
	FuzzyCodeSearch(ctx context.Context, code string) ([]domain.CodeMatch, error)
}

type QueryEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type SearchHandler struct {
	engine   SearchEngine
	embedder QueryEmbedder
}

func NewSearchHandler(engine SearchEngine, embedder QueryEmbedder) *SearchHandler {
	return &SearchHandler{engine: engine, embedder: embedder}
}

type SearchRequest struct {
	Query          string   `json:"query"`
	Mode           string   `json:"mode,omitempty"`
	Category       string   `json:"category,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	MinScore       *float32 `json:"min_score,omitempty"`
	SemanticWeight *float32 `json:"semantic_weight,omitempty"`
}

type SearchResultResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	MatchType  string  `json:"match_type"`
}

type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	category := domain.CategoryID(req.Category)
	if req.Category != "" && !domain.ValidCategory(category) {
		api.Error(w, http.StatusBadRequest, "unknown category")
		return
	}

	embedding, err := h.embedder.GenerateEmbedding(r.Context(), req.Query)
	if err != nil {
		api.Error(w, http.StatusServiceUnavailable, "embedding backend unavailable")
		return
	}

	var results []*domain.RetrievalResult
	switch req.Mode {
	case "", "hybrid":
		weight := float32(defaultHybridWeight)
		if req.SemanticWeight != nil {
			weight = *req.SemanticWeight
		}
		results = h.engine.SearchHybrid(r.Context(), embedding, req.Query, limit, category, weight)
	case "semantic":
		minScore := float32(defaultMinScore)
		if req.MinScore != nil {
			minScore = *req.MinScore
		}
		results = h.engine.SearchSemantic(r.Context(), embedding, limit, minScore, category)
	default:
		api.Error(w, http.StatusBadRequest, "mode must be semantic or hybrid")
		return
	}

	resp := SearchResponse{Results: make([]SearchResultResponse, 0, len(results))}
	for _, result := range results {
		resp.Results = append(resp.Results, SearchResultResponse{
			ChunkID:    result.Chunk.ID,
			DocumentID: result.Chunk.DocumentID,
			Content:    result.Chunk.Content,
			Score:      result.Score,
			MatchType:  string(result.MatchType),
		})
	}

	api.Success(w, http.StatusOK, resp)
}

type CodeMatchResponse struct {
	ChunkID     string  `json:"chunk_id"`
	DocumentID  string  `json:"document_id"`
	Content     string  `json:"content"`
	MatchScore  float64 `json:"match_score"`
	MatchedCode string  `json:"matched_code"`
}

type CodeLookupResponse struct {
	Code    string              `json:"code"`
	Title   string              `json:"title,omitempty"`
	Known   bool                `json:"known"`
	Matches []CodeMatchResponse `json:"matches"`
}

// LookupCode resolves a structured regulation code to its registry entry
// and the chunks that cite it, tolerating citation-form and separator
// variations in the requested code.
func (h *SearchHandler) LookupCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		api.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	matches, err := h.engine.FuzzyCodeSearch(r.Context(), code)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := CodeLookupResponse{
		Code:    retrieval.NormalizeCode(code),
		Matches: make([]CodeMatchResponse, 0, len(matches)),
	}
	if entry, ok := registry.LookupRegulation(code); ok {
		resp.Known = true
		resp.Title = entry.Title
		resp.Code = entry.Code
	}

	for _, m := range matches {
		resp.Matches = append(resp.Matches, CodeMatchResponse{
			ChunkID:     m.Chunk.ID,
			DocumentID:  m.Chunk.DocumentID,
			Content:     m.Chunk.Content,
			MatchScore:  m.MatchScore,
			MatchedCode: m.MatchedCode,
		})
	}

	api.Success(w, http.StatusOK, resp)
}
