package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/retrieval"
)

// MockEmbeddingClient mocks the embedding collaborator
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockSolver mocks the external solution generator
type MockSolver struct {
	mock.Mock
}

func (m *MockSolver) Solve(ctx context.Context, question string, contextText []string) (*domain.Solution, error) {
	args := m.Called(ctx, question, contextText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Solution), args.Error(1)
}

// MockHybridBackend mocks the hybrid search collaborator
type MockHybridBackend struct {
	mock.Mock
}

func (m *MockHybridBackend) HybridSearch(ctx context.Context, embedding []float32, query string, topK int, category domain.CategoryID, semanticWeight float32) ([]retrieval.ScoredRow, error) {
	args := m.Called(ctx, embedding, query, topK, category, semanticWeight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.ScoredRow), args.Error(1)
}

// MockQuestionLogRepo mocks question logging
type MockQuestionLogRepo struct {
	mock.Mock
}

func (m *MockQuestionLogRepo) CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func goodSolution() *domain.Solution {
	return &domain.Solution{
		Answer: "73",
		Steps:  []string{"total lumens", "divide by flux per luminaire"},
		Formulas: []domain.FormulaUse{{
			Expression: "N = (E × A × M) / (F × U)",
			Variables:  map[string]float64{"E": 500, "A": 200, "M": 1.3, "F": 3000, "U": 0.6},
			Result:     73,
		}},
		RelatedCodes: []string{"234"},
		Confidence:   0.9,
	}
}

func TestPipeline_Answer_FullFlow(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	solver := new(MockSolver)
	hybrid := new(MockHybridBackend)
	logRepo := new(MockQuestionLogRepo)

	engine := retrieval.NewEngine(nil, hybrid, nil)
	pipeline := NewPipeline(engine, embedder, solver).WithQuestionLog(logRepo)

	question := "How many luminaires are needed for 500 lux illuminance over 200 m2?"
	embedding := []float32{0.1, 0.2, 0.3}
	rows := []retrieval.ScoredRow{
		{Chunk: &domain.Chunk{ID: "c1", DocumentID: "d1", Content: "lighting design reference"}, Score: 0.8},
	}

	embedder.On("GenerateEmbedding", mock.Anything, question).Return(embedding, nil)
	hybrid.On("HybridSearch", mock.Anything, embedding, question, defaultContextSize, domain.CategoryLighting, float32(defaultSemanticWeight)).
		Return(rows, nil)
	solver.On("Solve", mock.Anything, question, []string{"lighting design reference"}).Return(goodSolution(), nil)
	logRepo.On("CreateQuestionLog", mock.Anything, mock.Anything).Return("log-1", nil)

	result, err := pipeline.Answer(context.Background(), AskInput{Text: question})

	require.NoError(t, err)
	require.NotNil(t, result.Solution)
	assert.Equal(t, domain.CategoryLighting, result.Classification.Primary)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "c1", result.Sources[0].ChunkID)
	assert.True(t, result.Outcome.Valid)
	assert.Empty(t, result.InputErrors)

	embedder.AssertExpectations(t)
	solver.AssertExpectations(t)
	hybrid.AssertExpectations(t)
	logRepo.AssertExpectations(t)
}

func TestPipeline_Answer_InputRejectionShortCircuits(t *testing.T) {
	solver := new(MockSolver)
	pipeline := NewPipeline(nil, nil, solver)

	result, err := pipeline.Answer(context.Background(), AskInput{})

	require.NoError(t, err)
	assert.Nil(t, result.Solution)
	assert.NotEmpty(t, result.InputErrors)
	solver.AssertNotCalled(t, "Solve", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Answer_EmbeddingFailureDegradesToNoContext(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	solver := new(MockSolver)
	hybrid := new(MockHybridBackend)

	engine := retrieval.NewEngine(nil, hybrid, nil)
	pipeline := NewPipeline(engine, embedder, solver)

	question := "What clearance does a busbar feeder require?"
	embedder.On("GenerateEmbedding", mock.Anything, question).Return(nil, errors.New("backend down"))
	solver.On("Solve", mock.Anything, question, mock.Anything).Return(goodSolution(), nil)

	result, err := pipeline.Answer(context.Background(), AskInput{Text: question})

	require.NoError(t, err)
	assert.Empty(t, result.Sources)
	require.NotNil(t, result.Solution)
	hybrid.AssertNotCalled(t, "HybridSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Answer_CalculationMismatchAnnotates(t *testing.T) {
	embedder := new(MockEmbeddingClient)
	solver := new(MockSolver)

	pipeline := NewPipeline(nil, embedder, solver)

	sol := goodSolution()
	sol.Formulas[0].Result = 50

	question := "How many luminaires for the hall?"
	solver.On("Solve", mock.Anything, question, mock.Anything).Return(sol, nil)

	result, err := pipeline.Answer(context.Background(), AskInput{Text: question})

	require.NoError(t, err)
	assert.True(t, result.Outcome.Valid)
	found := false
	for _, w := range result.Outcome.Warnings {
		if strings.HasPrefix(w, "calculation mismatch") {
			found = true
		}
	}
	assert.True(t, found, "expected a calculation mismatch warning, got %v", result.Outcome.Warnings)
	require.NotEmpty(t, result.Outcome.Corrections)
}

func TestPipeline_Answer_SolverErrorPropagates(t *testing.T) {
	solver := new(MockSolver)
	pipeline := NewPipeline(nil, nil, solver)

	solver.On("Solve", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("model overloaded"))

	_, err := pipeline.Answer(context.Background(), AskInput{Text: "a valid question about motors"})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUnavailable, domainErr.Code)
}

func TestPipeline_Classify(t *testing.T) {
	pipeline := NewPipeline(nil, nil, nil)

	result := pipeline.Classify("grounding electrode resistance measurement")

	assert.Equal(t, domain.CategoryGrounding, result.Primary)
}
