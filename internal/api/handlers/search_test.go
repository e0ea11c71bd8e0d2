package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voltaic-labs/examdex/internal/domain"
)

type MockSearchEngine struct {
	mock.Mock
}

func (m *MockSearchEngine) SearchSemantic(ctx context.Context, embedding []float32, topK int, minScore float32, category domain.CategoryID) []*domain.RetrievalResult {
	args := m.Called(ctx, embedding, topK, minScore, category)
	return args.Get(0).([]*domain.RetrievalResult)
}

func (m *MockSearchEngine) SearchHybrid(ctx context.Context, embedding []float32, query string, topK int, category domain.CategoryID, semanticWeight float32) []*domain.RetrievalResult {
	args := m.Called(ctx, embedding, query, topK, category, semanticWeight)
	return args.Get(0).([]*domain.RetrievalResult)
}

func (m *MockSearchEngine) FuzzyCodeSearch(ctx context.Context, code string) ([]domain.CodeMatch, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CodeMatch), args.Error(1)
}

type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func searchHits() []*domain.RetrievalResult {
	return []*domain.RetrievalResult{
		{
			Chunk:     &domain.Chunk{ID: "c1", DocumentID: "d1", Content: "cable ampacity table"},
			Score:     0.82,
			MatchType: domain.MatchHybrid,
		},
	}
}

func TestSearchHandler_Search_HybridDefault(t *testing.T) {
	engine := new(MockSearchEngine)
	embedder := new(MockQueryEmbedder)
	handler := NewSearchHandler(engine, embedder)

	embedding := []float32{0.1, 0.2}
	embedder.On("GenerateEmbedding", mock.Anything, "cable ampacity").Return(embedding, nil)
	engine.On("SearchHybrid", mock.Anything, embedding, "cable ampacity", defaultSearchLimit, domain.CategoryID(""), float32(defaultHybridWeight)).
		Return(searchHits())

	body, _ := json.Marshal(SearchRequest{Query: "cable ampacity"})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Results, 1)
	assert.Equal(t, "c1", envelope.Data.Results[0].ChunkID)
	assert.Equal(t, "hybrid", envelope.Data.Results[0].MatchType)
	engine.AssertExpectations(t)
}

func TestSearchHandler_Search_SemanticMode(t *testing.T) {
	engine := new(MockSearchEngine)
	embedder := new(MockQueryEmbedder)
	handler := NewSearchHandler(engine, embedder)

	embedding := []float32{0.3}
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(embedding, nil)
	engine.On("SearchSemantic", mock.Anything, embedding, 5, float32(0.5), domain.CategoryWiring).
		Return(searchHits())

	minScore := float32(0.5)
	body, _ := json.Marshal(SearchRequest{
		Query:    "conduit fill",
		Mode:     "semantic",
		Category: "wiring",
		Limit:    5,
		MinScore: &minScore,
	})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	engine.AssertExpectations(t)
}

func TestSearchHandler_Search_MissingQuery(t *testing.T) {
	handler := NewSearchHandler(new(MockSearchEngine), new(MockQueryEmbedder))

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query is required")
}

func TestSearchHandler_Search_UnknownCategory(t *testing.T) {
	handler := NewSearchHandler(new(MockSearchEngine), new(MockQueryEmbedder))

	body, _ := json.Marshal(SearchRequest{Query: "breaker", Category: "plumbing"})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown category")
}

func TestSearchHandler_Search_UnknownMode(t *testing.T) {
	embedder := new(MockQueryEmbedder)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	handler := NewSearchHandler(new(MockSearchEngine), embedder)

	body, _ := json.Marshal(SearchRequest{Query: "breaker", Mode: "exact"})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Search_EmbedderDown(t *testing.T) {
	engine := new(MockSearchEngine)
	embedder := new(MockQueryEmbedder)
	handler := NewSearchHandler(engine, embedder)

	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	body, _ := json.Marshal(SearchRequest{Query: "breaker"})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func codeLookupRequest(code string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/codes/"+code, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("code", code)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSearchHandler_LookupCode(t *testing.T) {
	engine := new(MockSearchEngine)
	handler := NewSearchHandler(engine, new(MockQueryEmbedder))

	matches := []domain.CodeMatch{
		{
			Chunk:       &domain.Chunk{ID: "c1", DocumentID: "d1", Content: "overcurrent protection"},
			MatchScore:  1.0,
			MatchedCode: "232.8",
		},
	}
	engine.On("FuzzyCodeSearch", mock.Anything, "232.8").Return(matches, nil)

	w := httptest.NewRecorder()
	handler.LookupCode(w, codeLookupRequest("232.8"))

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data CodeLookupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Known)
	assert.Equal(t, "232.8", envelope.Data.Code)
	assert.NotEmpty(t, envelope.Data.Title)
	require.Len(t, envelope.Data.Matches, 1)
	assert.InDelta(t, 1.0, envelope.Data.Matches[0].MatchScore, 1e-9)
}

func TestSearchHandler_LookupCode_UnknownCodeStillSearches(t *testing.T) {
	engine := new(MockSearchEngine)
	handler := NewSearchHandler(engine, new(MockQueryEmbedder))

	engine.On("FuzzyCodeSearch", mock.Anything, "999.99").Return([]domain.CodeMatch{}, nil)

	w := httptest.NewRecorder()
	handler.LookupCode(w, codeLookupRequest("999.99"))

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data CodeLookupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Known)
	assert.Empty(t, envelope.Data.Matches)
}
