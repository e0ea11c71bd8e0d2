package service

import (
	"context"
	"log"
	"time"

	"github.com/voltaic-labs/examdex/internal/classifier"
	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/retrieval"
	"github.com/voltaic-labs/examdex/internal/telemetry"
	"github.com/voltaic-labs/examdex/internal/verify"
)

const (
	defaultContextSize    = 5
	defaultSemanticWeight = 0.7
)

// EmbeddingClient generates an embedding vector for a piece of text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Solver produces a draft solution from a question and retrieved context.
// The draft is checked by the verification engine before it is returned.
type Solver interface {
	Solve(ctx context.Context, question string, contextText []string) (*domain.Solution, error)
}

// OCRClient extracts question text from an uploaded image. Opaque to the
// pipeline: it only consumes the returned text.
type OCRClient interface {
	ExtractText(ctx context.Context, imageURL string) (string, error)
}

// QuestionLogEntry captures one answered question for later evaluation.
type QuestionLogEntry struct {
	Category       domain.CategoryID
	Secondary      []domain.CategoryID
	Confidence     float64
	QuestionLength int
	SourceCount    int
	WarningCount   int
	DurationMs     int
}

// QuestionLogRepository persists question logs.
type QuestionLogRepository interface {
	CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error)
}

// AskInput is a question submitted to the pipeline.
type AskInput struct {
	Text       string
	ImageURL   string
	ImageBytes int
}

// Source is one piece of supporting reference material shown with an answer.
type Source struct {
	ChunkID    string
	DocumentID string
	Content    string
	Score      float32
	MatchType  domain.MatchType
}

// AnswerResult is the assembled pipeline output.
type AnswerResult struct {
	Classification domain.ClassificationResult
	Solution       *domain.Solution
	Sources        []Source
	Outcome        domain.VerificationOutcome
	InputErrors    []string
}

// Pipeline wires the classifier, retrieval engine, external solver, and
// verification engine into the ask flow. Each call only reads static
// registries and request-scoped state, so a single Pipeline is safe for
// concurrent use.
type Pipeline struct {
	classifier *classifier.Classifier
	engine     *retrieval.Engine
	embedder   EmbeddingClient
	solver     Solver
	ocr        OCRClient
	logRepo    QuestionLogRepository
}

func NewPipeline(engine *retrieval.Engine, embedder EmbeddingClient, solver Solver) *Pipeline {
	return &Pipeline{
		classifier: classifier.New(),
		engine:     engine,
		embedder:   embedder,
		solver:     solver,
	}
}

// WithOCR attaches an OCR collaborator for image questions.
func (p *Pipeline) WithOCR(ocr OCRClient) *Pipeline {
	p.ocr = ocr
	return p
}

// WithQuestionLog attaches best-effort question logging.
func (p *Pipeline) WithQuestionLog(repo QuestionLogRepository) *Pipeline {
	p.logRepo = repo
	return p
}

// Classify routes a question without running the full pipeline.
func (p *Pipeline) Classify(text string) domain.ClassificationResult {
	return p.classifier.Classify(text)
}

// Answer runs the full pipeline for one question. Input rejection returns
// early with the accumulated errors; downstream degradation (no context
// retrieved, unverifiable formulas) annotates the result instead of
// failing it.
func (p *Pipeline) Answer(ctx context.Context, input AskInput) (*AnswerResult, error) {
	start := time.Now()

	validation := verify.ValidateInput(verify.AskInput{Text: input.Text, ImageBytes: input.ImageBytes})
	if !validation.Valid {
		return &AnswerResult{InputErrors: validation.Errors}, nil
	}

	text := input.Text
	if text == "" && input.ImageURL != "" {
		if p.ocr == nil {
			return nil, domain.ErrOCRUnavailable
		}
		extracted, err := p.ocr.ExtractText(ctx, input.ImageURL)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "image text extraction failed", err)
		}
		text = extracted
	}

	classification := p.classifier.Classify(text)
	telemetry.ObserveClassification(string(classification.Primary))

	ctx, span := telemetry.StartSpan(ctx, "Pipeline.Answer", telemetry.SpanAttributes{
		Category:  string(classification.Primary),
		Operation: "answer",
	})
	defer span.End()

	sources, contextText := p.retrieveContext(ctx, text, classification.Primary)

	if p.solver == nil {
		return nil, domain.ErrSolverUnavailable
	}
	solution, err := p.solver.Solve(ctx, text, contextText)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "solver failed", err)
	}

	outcome := verify.ValidateOutput(*solution)
	for _, use := range solution.Formulas {
		check := verify.VerifyCalculation(use.Expression, use.Variables, use.Result)
		if !check.Valid {
			outcome.Warnings = append(outcome.Warnings, check.Error)
			outcome.Corrections = append(outcome.Corrections, "recompute "+use.Expression)
		}
	}
	telemetry.ObserveVerification(len(outcome.Warnings))

	result := &AnswerResult{
		Classification: classification,
		Solution:       solution,
		Sources:        sources,
		Outcome:        outcome,
	}

	p.logQuestion(ctx, text, result, time.Since(start))

	return result, nil
}

// retrieveContext embeds the question and runs a category-scoped hybrid
// search. Any failure degrades to no context; the solver still runs.
func (p *Pipeline) retrieveContext(ctx context.Context, text string, category domain.CategoryID) ([]Source, []string) {
	if p.embedder == nil || p.engine == nil {
		return nil, nil
	}

	embedding, err := p.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		log.Printf("pipeline: embedding unavailable, answering without context: %v", err)
		return nil, nil
	}

	filter := category
	if filter == domain.CategoryGeneral {
		filter = ""
	}
	results := p.engine.SearchHybrid(ctx, embedding, text, defaultContextSize, filter, defaultSemanticWeight)

	sources := make([]Source, 0, len(results))
	contextText := make([]string, 0, len(results))
	for _, r := range results {
		telemetry.ObserveSearch(string(r.MatchType))
		sources = append(sources, Source{
			ChunkID:    r.Chunk.ID,
			DocumentID: r.Chunk.DocumentID,
			Content:    r.Chunk.Content,
			Score:      r.Score,
			MatchType:  r.MatchType,
		})
		contextText = append(contextText, r.Chunk.Content)
	}
	return sources, contextText
}

func (p *Pipeline) logQuestion(ctx context.Context, text string, result *AnswerResult, elapsed time.Duration) {
	if p.logRepo == nil {
		return
	}
	entry := QuestionLogEntry{
		Category:       result.Classification.Primary,
		Secondary:      result.Classification.Secondary,
		Confidence:     result.Classification.Confidence,
		QuestionLength: len(text),
		SourceCount:    len(result.Sources),
		WarningCount:   len(result.Outcome.Warnings),
		DurationMs:     int(elapsed.Milliseconds()),
	}
	if _, err := p.logRepo.CreateQuestionLog(ctx, entry); err != nil {
		log.Printf("pipeline: question log write failed: %v", err)
	}
}
