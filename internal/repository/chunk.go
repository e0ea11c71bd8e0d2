package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/retrieval"
)

// ChunkRepository persists reference chunks and backs the retrieval
// engine's collaborator interfaces: similarity index, hybrid index, and
// code corpus. Row shapes are mapped into domain.Chunk at this boundary so
// schema drift never reaches the engines.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

const chunkColumns = `id, document_id, content, category, keywords, codes, chunk_index, created_at, updated_at`

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		var embedding any
		if len(c.Embedding) > 0 {
			embedding = pgvector.NewVector(c.Embedding)
		}
		_, err := r.pool.Exec(ctx,
			`INSERT INTO chunks
				(id, document_id, content, embedding, category, keywords, codes, chunk_index, created_at, updated_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			c.ID,
			documentID,
			c.Content,
			embedding,
			nullableString(string(c.Category)),
			c.Keywords,
			c.Codes,
			c.ChunkIndex,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// NearestNeighbors implements retrieval.SimilarityIndex over pgvector
// cosine distance. Scores are mapped into (0,1].
func (r *ChunkRepository) NearestNeighbors(ctx context.Context, embedding []float32, topK int, minScore float32, category domain.CategoryID) ([]retrieval.ScoredRow, error) {
	if topK <= 0 {
		topK = 10
	}

	query := `
		SELECT ` + chunkColumns + `,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM chunks
		WHERE embedding IS NOT NULL
		  AND ($2 = '' OR category = $2)
		ORDER BY score DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), string(category), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScoredRows(rows)
}

// HybridSearch implements retrieval.HybridIndex: the vector-similarity and
// full-text relevance scores are blended in SQL with semanticWeight as the
// linear coefficient.
func (r *ChunkRepository) HybridSearch(ctx context.Context, embedding []float32, queryText string, topK int, category domain.CategoryID, semanticWeight float32) ([]retrieval.ScoredRow, error) {
	if topK <= 0 {
		topK = 10
	}

	query := `
		SELECT ` + chunkColumns + `,
		       ($4 * (1.0 / (1.0 + (embedding <=> $1)))) +
		       ((1.0 - $4) * LEAST(1.0, ts_rank(to_tsvector('simple', content), websearch_to_tsquery('simple', $2)))) AS score
		FROM chunks
		WHERE embedding IS NOT NULL
		  AND ($3 = '' OR category = $3)
		ORDER BY score DESC
		LIMIT $5`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), queryText, string(category), semanticWeight, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScoredRows(rows)
}

// ListChunksWithCodes returns up to limit chunks carrying structured codes.
func (r *ChunkRepository) ListChunksWithCodes(ctx context.Context, limit int) ([]*domain.Chunk, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + chunkColumns + `
		FROM chunks
		WHERE cardinality(codes) > 0
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// FindChunksByExactCode returns chunks whose code set contains code verbatim.
func (r *ChunkRepository) FindChunksByExactCode(ctx context.Context, code string) ([]*domain.Chunk, error) {
	query := `
		SELECT ` + chunkColumns + `
		FROM chunks
		WHERE $1 = ANY(codes)
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// FindChunksByContentSubstring returns chunks whose text mentions term.
func (r *ChunkRepository) FindChunksByContentSubstring(ctx context.Context, term string) ([]*domain.Chunk, error) {
	query := `
		SELECT ` + chunkColumns + `
		FROM chunks
		WHERE content LIKE '%' || $1 || '%'
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ListChunksMissingEmbedding returns chunks awaiting embedding backfill.
func (r *ChunkRepository) ListChunksMissingEmbedding(ctx context.Context, limit int) ([]*domain.Chunk, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + chunkColumns + `
		FROM chunks
		WHERE embedding IS NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// UpdateChunkEmbedding stores a freshly generated embedding.
func (r *ChunkRepository) UpdateChunkEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE chunks SET embedding = $1, updated_at = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), chunkID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChunkNotFound
	}
	return nil
}

type chunkRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanChunk(rows chunkRows, score *float32) (*domain.Chunk, error) {
	var c domain.Chunk
	var category *string
	dest := []any{
		&c.ID, &c.DocumentID, &c.Content, &category,
		&c.Keywords, &c.Codes, &c.ChunkIndex, &c.CreatedAt, &c.UpdatedAt,
	}
	if score != nil {
		dest = append(dest, score)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	if category != nil {
		c.Category = domain.CategoryID(*category)
	}
	return &c, nil
}

func scanChunks(rows chunkRows) ([]*domain.Chunk, error) {
	chunks := make([]*domain.Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows, nil)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func scanScoredRows(rows chunkRows) ([]retrieval.ScoredRow, error) {
	results := make([]retrieval.ScoredRow, 0)
	for rows.Next() {
		var score float32
		c, err := scanChunk(rows, &score)
		if err != nil {
			return nil, err
		}
		results = append(results, retrieval.ScoredRow{Chunk: c, Score: score})
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
