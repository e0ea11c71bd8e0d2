package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voltaic-labs/examdex/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for solving and OCR
	DefaultChatModel = openai.GPT4o
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrEmptyCompletion is returned when the model produces no output
	ErrEmptyCompletion = errors.New("model returned an empty completion")
)

// API is the subset of the OpenAI surface the client uses.
type API interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
	CreateCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Client wraps the OpenAI API for the three backends the pipeline needs:
// embeddings, exam solving, and image text extraction.
type Client struct {
	api        API
	dimensions int
}

type apiAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
}

func newAPIAdapter(apiKey string, embeddingModel openai.EmbeddingModel, chatModel string) *apiAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	return &apiAdapter{
		client:         openai.NewClient(apiKey),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
	}
}

func (a *apiAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

func (a *apiAdapter) CreateCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.chatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	ChatModel           string
	EmbeddingDimensions int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        newAPIAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.ChatModel),
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

const solverSystemPrompt = `You are an electrical engineering exam tutor for Korean electrician
certification exams. Answer the question using the provided reference
material where relevant. Respond with a JSON object only:
{
  "answer": "final answer with unit",
  "steps": ["worked step", ...],
  "formulas": [{"expression": "N = (E x A x M) / (F x U)", "variables": {"E": 500}, "result": 73}],
  "related_codes": ["232.8"],
  "confidence": 0.9
}
Cite KEC article numbers in related_codes when the answer relies on a regulation.`

// solverResponse mirrors the JSON contract in the system prompt.
type solverResponse struct {
	Answer   string   `json:"answer"`
	Steps    []string `json:"steps"`
	Formulas []struct {
		Expression string             `json:"expression"`
		Variables  map[string]float64 `json:"variables"`
		Result     float64            `json:"result"`
	} `json:"formulas"`
	RelatedCodes []string `json:"related_codes"`
	Confidence   float64  `json:"confidence"`
}

// Solve asks the chat model to answer an exam question against the
// retrieved reference material and parses the structured response.
func (c *Client) Solve(ctx context.Context, question string, contextText []string) (*domain.Solution, error) {
	if question == "" {
		return nil, ErrEmptyText
	}

	userPrompt := question
	if len(contextText) > 0 {
		userPrompt = "Reference material:\n" + strings.Join(contextText, "\n---\n") + "\n\nQuestion: " + question
	}

	raw, err := c.api.CreateCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: solverSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}

	var parsed solverResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse solver response: %w", err)
	}
	if parsed.Answer == "" {
		return nil, ErrEmptyCompletion
	}

	solution := &domain.Solution{
		Answer:       parsed.Answer,
		Steps:        parsed.Steps,
		RelatedCodes: parsed.RelatedCodes,
		Confidence:   parsed.Confidence,
	}
	for _, f := range parsed.Formulas {
		solution.Formulas = append(solution.Formulas, domain.FormulaUse{
			Expression: f.Expression,
			Variables:  f.Variables,
			Result:     f.Result,
		})
	}
	return solution, nil
}

const ocrSystemPrompt = `Extract the exam question text from the image exactly as written.
Return only the question text, nothing else.`

// ExtractText performs OCR on a question image via the vision model.
func (c *Client) ExtractText(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", ErrEmptyText
	}

	text, err := c.api.CreateCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: ocrSystemPrompt},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract text from image: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// extractJSON tolerates models that wrap the JSON object in a markdown
// code fence or in prose.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}
