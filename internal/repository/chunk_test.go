//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/testutil"
)

// testEmbedding builds a 1536-dim unit vector pointing along axis.
func testEmbedding(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

func seedDocument(ctx context.Context, t *testing.T, docRepo *DocumentRepository, source string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:       uuid.NewString(),
		Title:    "KEC Reference",
		Source:   source,
		Category: domain.CategoryGrounding,
	}
	require.NoError(t, docRepo.Create(ctx, doc))
	return doc
}

func TestChunkRepository_ReplaceChunks(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "kec/142.md")

	first := []domain.Chunk{
		{
			ID:         uuid.NewString(),
			Content:    "Grounding electrode resistance shall not exceed 10 ohms.",
			Embedding:  testEmbedding(0),
			Category:   domain.CategoryGrounding,
			Keywords:   []string{"grounding", "electrode"},
			Codes:      []string{"142.2"},
			ChunkIndex: 0,
		},
		{
			ID:         uuid.NewString(),
			Content:    "Bonding conductors follow the same sizing table.",
			Category:   domain.CategoryGrounding,
			ChunkIndex: 1,
		},
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, first))

	missing, err := chunkRepo.ListChunksMissingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, first[1].ID, missing[0].ID)

	// A second ingest of the same document replaces the old chunks.
	second := []domain.Chunk{
		{
			ID:         uuid.NewString(),
			Content:    "Revised grounding electrode text.",
			Embedding:  testEmbedding(0),
			Category:   domain.CategoryGrounding,
			Codes:      []string{"142.3"},
			ChunkIndex: 0,
		},
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, second))

	byOldCode, err := chunkRepo.FindChunksByExactCode(ctx, "142.2")
	require.NoError(t, err)
	assert.Empty(t, byOldCode)

	byNewCode, err := chunkRepo.FindChunksByExactCode(ctx, "142.3")
	require.NoError(t, err)
	require.Len(t, byNewCode, 1)
	assert.Equal(t, second[0].ID, byNewCode[0].ID)
	assert.Equal(t, doc.ID, byNewCode[0].DocumentID)
}

func TestChunkRepository_NearestNeighbors(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "kec/232.md")

	groundingID := uuid.NewString()
	lightingID := uuid.NewString()
	chunks := []domain.Chunk{
		{
			ID:         groundingID,
			Content:    "Grounding electrode resistance limits.",
			Embedding:  testEmbedding(0),
			Category:   domain.CategoryGrounding,
			ChunkIndex: 0,
		},
		{
			ID:         lightingID,
			Content:    "Lumen method for luminaire counts.",
			Embedding:  testEmbedding(1),
			Category:   domain.CategoryLighting,
			ChunkIndex: 1,
		},
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, chunks))

	rows, err := chunkRepo.NearestNeighbors(ctx, testEmbedding(0), 5, 0, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, groundingID, rows[0].Chunk.ID)
	assert.InDelta(t, 1.0, float64(rows[0].Score), 0.01)
	assert.Greater(t, rows[0].Score, rows[1].Score)

	// Category filter drops the off-category chunk even when it is closer.
	rows, err = chunkRepo.NearestNeighbors(ctx, testEmbedding(0), 5, 0, domain.CategoryLighting)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, lightingID, rows[0].Chunk.ID)
}

func TestChunkRepository_HybridSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "kec/hybrid.md")

	matchID := uuid.NewString()
	chunks := []domain.Chunk{
		{
			ID:         matchID,
			Content:    "Grounding electrode resistance shall not exceed ten ohms.",
			Embedding:  testEmbedding(0),
			Category:   domain.CategoryGrounding,
			ChunkIndex: 0,
		},
		{
			ID:         uuid.NewString(),
			Content:    "Busbar ampacity tables for switchgear.",
			Embedding:  testEmbedding(1),
			Category:   domain.CategoryWiring,
			ChunkIndex: 1,
		},
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, chunks))

	rows, err := chunkRepo.HybridSearch(ctx, testEmbedding(0), "grounding electrode resistance", 5, "", 0.5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, matchID, rows[0].Chunk.ID)
	assert.Greater(t, rows[0].Score, rows[1].Score)
}

func TestChunkRepository_CodeLookups(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "kec/codes.md")

	coded := uuid.NewString()
	chunks := []domain.Chunk{
		{
			ID:         coded,
			Content:    "Per KEC 232.8 the spacing between supports is limited.",
			Category:   domain.CategoryWiring,
			Codes:      []string{"232.8"},
			ChunkIndex: 0,
		},
		{
			ID:         uuid.NewString(),
			Content:    "Narrative text without any article references.",
			Category:   domain.CategoryGeneral,
			ChunkIndex: 1,
		},
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, chunks))

	withCodes, err := chunkRepo.ListChunksWithCodes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, withCodes, 1)
	assert.Equal(t, coded, withCodes[0].ID)
	assert.Equal(t, []string{"232.8"}, withCodes[0].Codes)

	exact, err := chunkRepo.FindChunksByExactCode(ctx, "232.8")
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, coded, exact[0].ID)

	none, err := chunkRepo.FindChunksByExactCode(ctx, "999.99")
	require.NoError(t, err)
	assert.Empty(t, none)

	bySubstring, err := chunkRepo.FindChunksByContentSubstring(ctx, "232.8")
	require.NoError(t, err)
	require.Len(t, bySubstring, 1)
	assert.Equal(t, coded, bySubstring[0].ID)
}

func TestChunkRepository_UpdateChunkEmbedding(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := seedDocument(ctx, t, docRepo, "kec/backfill.md")

	chunkID := uuid.NewString()
	chunks := []domain.Chunk{
		{
			ID:         chunkID,
			Content:    "Awaiting embedding backfill.",
			Category:   domain.CategoryGeneral,
			ChunkIndex: 0,
			CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		},
	}
	require.NoError(t, chunkRepo.ReplaceChunks(ctx, doc.ID, chunks))

	missing, err := chunkRepo.ListChunksMissingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)

	require.NoError(t, chunkRepo.UpdateChunkEmbedding(ctx, chunkID, testEmbedding(2)))

	missing, err = chunkRepo.ListChunksMissingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)

	rows, err := chunkRepo.NearestNeighbors(ctx, testEmbedding(2), 5, 0, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, chunkID, rows[0].Chunk.ID)
}

func TestChunkRepository_UpdateChunkEmbedding_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	chunkRepo := NewChunkRepository(pool)

	err := chunkRepo.UpdateChunkEmbedding(ctx, uuid.NewString(), testEmbedding(0))
	assert.ErrorIs(t, err, domain.ErrChunkNotFound)
}
