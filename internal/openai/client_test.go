package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockAPI) CreateCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func newTestClient(api API, dimensions int) *Client {
	return &Client{api: api, dimensions: dimensions}
}

func TestGenerateEmbedding(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateEmbeddings", mock.Anything, "voltage drop").Return([]float32{0.1, 0.2, 0.3}, nil)

	embedding, err := client.GenerateEmbedding(context.Background(), "voltage drop")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
}

func TestGenerateEmbedding_EmptyText(t *testing.T) {
	client := newTestClient(new(MockAPI), 3)

	_, err := client.GenerateEmbedding(context.Background(), "")

	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestGenerateEmbedding_WrongDimensions(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 1536)

	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)

	_, err := client.GenerateEmbedding(context.Background(), "short vector")

	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestGenerateEmbedding_APIError(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	_, err := client.GenerateEmbedding(context.Background(), "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create embedding")
}

func TestSolve_ParsesStructuredResponse(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	raw := "```json\n" + `{
		"answer": "73 luminaires",
		"steps": ["compute total lumens", "divide by flux per luminaire"],
		"formulas": [{"expression": "N = (E x A x M) / (F x U)", "variables": {"E": 500, "A": 200, "M": 1.3, "F": 3000, "U": 0.6}, "result": 73}],
		"related_codes": ["234"],
		"confidence": 0.9
	}` + "\n```"

	api.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(msgs []openai.ChatCompletionMessage) bool {
		return len(msgs) == 2 && msgs[0].Role == openai.ChatMessageRoleSystem
	})).Return(raw, nil)

	solution, err := client.Solve(context.Background(), "How many luminaires?", []string{"lumen method reference"})

	require.NoError(t, err)
	assert.Equal(t, "73 luminaires", solution.Answer)
	require.Len(t, solution.Formulas, 1)
	assert.Equal(t, 73.0, solution.Formulas[0].Result)
	assert.Equal(t, []string{"234"}, solution.RelatedCodes)
	assert.InDelta(t, 0.9, float64(solution.Confidence), 1e-6)
}

func TestSolve_ContextEmbeddedInPrompt(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(msgs []openai.ChatCompletionMessage) bool {
		return len(msgs) == 2 &&
			msgs[1].Role == openai.ChatMessageRoleUser &&
			containsAll(msgs[1].Content, "Reference material:", "grounding rules", "Question: Why ground?")
	})).Return(`{"answer": "for safety", "confidence": 0.8}`, nil)

	_, err := client.Solve(context.Background(), "Why ground?", []string{"grounding rules"})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestSolve_MalformedResponse(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateCompletion", mock.Anything, mock.Anything).Return("I cannot answer that.", nil)

	_, err := client.Solve(context.Background(), "question text", nil)

	require.Error(t, err)
}

func TestExtractText(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(msgs []openai.ChatCompletionMessage) bool {
		return len(msgs) == 2 &&
			len(msgs[1].MultiContent) == 1 &&
			msgs[1].MultiContent[0].ImageURL.URL == "https://img.example/q1.png"
	})).Return("  What is the ampacity of a 10 mm2 copper conductor?  ", nil)

	text, err := client.ExtractText(context.Background(), "https://img.example/q1.png")

	require.NoError(t, err)
	assert.Equal(t, "What is the ampacity of a 10 mm2 copper conductor?", text)
}

func TestExtractText_EmptyResult(t *testing.T) {
	api := new(MockAPI)
	client := newTestClient(api, 3)

	api.On("CreateCompletion", mock.Anything, mock.Anything).Return("   ", nil)

	_, err := client.ExtractText(context.Background(), "https://img.example/blank.png")

	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
