package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/voltaic-labs/examdex/internal/classifier"
	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/telemetry"
)

// DocumentRepository persists ingested documents.
type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	GetBySource(ctx context.Context, source string) (*domain.Document, error)
}

// ChunkWriter persists a document's chunks.
type ChunkWriter interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}

// IngestInput is one reference document to ingest.
type IngestInput struct {
	Title    string
	Source   string
	Content  string
	Category domain.CategoryID
}

// IngestResult summarizes one ingested document.
type IngestResult struct {
	DocumentID string
	ChunkCount int
	Embedded   int
}

// IngestService chunks reference documents, extracts structured codes and
// keywords, embeds chunk text, and persists everything for retrieval.
type IngestService struct {
	docs       DocumentRepository
	chunks     ChunkWriter
	embedder   EmbeddingClient
	classifier *classifier.Classifier
	cfg        ChunkConfig
}

func NewIngestService(docs DocumentRepository, chunks ChunkWriter, embedder EmbeddingClient) *IngestService {
	return &IngestService{
		docs:       docs,
		chunks:     chunks,
		embedder:   embedder,
		classifier: classifier.New(),
		cfg:        DefaultChunkConfig(),
	}
}

// Ingest stores one document and its chunks. Embedding failures are not
// fatal: chunks are stored without vectors and picked up later by the
// backfill worker.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.Content == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document content is empty")
	}
	if input.Title == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document title is required")
	}

	category := input.Category
	if category == "" {
		category = s.classifier.Classify(input.Content).Primary
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		Category:  string(category),
		Operation: "ingest",
	})
	defer span.End()

	doc := &domain.Document{
		ID:       uuid.NewString(),
		Title:    input.Title,
		Source:   input.Source,
		Category: category,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	pieces := chunkText(input.Content, s.cfg)
	chunks := make([]domain.Chunk, 0, len(pieces))
	embedded := 0
	for i, piece := range pieces {
		chunk := domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    piece,
			Category:   category,
			Keywords:   extractKeywords(piece, 30),
			Codes:      extractCodes(piece),
			ChunkIndex: i,
		}
		if s.embedder != nil {
			embedding, err := s.embedder.GenerateEmbedding(ctx, piece)
			if err != nil {
				log.Printf("ingest: embedding failed for chunk %d of %q, deferring to backfill: %v", i, input.Title, err)
			} else {
				chunk.Embedding = embedding
				embedded++
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := s.chunks.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	return &IngestResult{DocumentID: doc.ID, ChunkCount: len(chunks), Embedded: embedded}, nil
}
