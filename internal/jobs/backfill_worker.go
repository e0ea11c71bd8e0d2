package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/voltaic-labs/examdex/internal/domain"
)

const defaultBatchSize = 20

// ChunkBackfillRepository lists chunks whose embedding is still missing
// and stores the vectors once generated.
type ChunkBackfillRepository interface {
	ListChunksMissingEmbedding(ctx context.Context, limit int) ([]*domain.Chunk, error)
	UpdateChunkEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

// Embedder generates an embedding vector for chunk text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// BackfillWorker embeds chunks that were ingested while the embedding
// backend was unavailable. Chunks that fail again simply stay unembedded
// and are picked up on a later sweep.
type BackfillWorker struct {
	repo      ChunkBackfillRepository
	embedder  Embedder
	batchSize int
}

func NewBackfillWorker(repo ChunkBackfillRepository, embedder Embedder) *BackfillWorker {
	return &BackfillWorker{
		repo:      repo,
		embedder:  embedder,
		batchSize: defaultBatchSize,
	}
}

// ProcessJobs implements the Processor interface.
func (w *BackfillWorker) ProcessJobs(ctx context.Context) error {
	chunks, err := w.repo.ListChunksMissingEmbedding(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list chunks missing embeddings: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	log.Printf("backfill: embedding %d pending chunks", len(chunks))

	embedded := 0
	for _, chunk := range chunks {
		if err := w.processChunk(ctx, chunk); err != nil {
			log.Printf("backfill: chunk %s failed: %v", chunk.ID, err)
			continue
		}
		embedded++
	}

	log.Printf("backfill: embedded %d/%d chunks", embedded, len(chunks))
	return nil
}

func (w *BackfillWorker) processChunk(ctx context.Context, chunk *domain.Chunk) error {
	embedding, err := w.embedder.GenerateEmbedding(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("embedding generation failed: %w", err)
	}
	if err := w.repo.UpdateChunkEmbedding(ctx, chunk.ID, embedding); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}
