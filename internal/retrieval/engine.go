// Package retrieval merges semantic similarity search, full-text keyword
// search, and fuzzy hierarchical-code lookup into ranked result sets over
// the reference chunk corpus.
package retrieval

import (
	"context"
	"log"
	"sort"

	"github.com/voltaic-labs/examdex/internal/domain"
)

// ScoredRow is a raw hit returned by a search collaborator before shaping.
type ScoredRow struct {
	Chunk *domain.Chunk
	Score float32
}

// SimilarityIndex is the external nearest-neighbor collaborator backing
// semantic search. The engine never computes similarity itself.
type SimilarityIndex interface {
	NearestNeighbors(ctx context.Context, embedding []float32, topK int, minScore float32, category domain.CategoryID) ([]ScoredRow, error)
}

// HybridIndex is the external collaborator that fuses vector similarity and
// text relevance itself; semanticWeight is the linear blend coefficient.
type HybridIndex interface {
	HybridSearch(ctx context.Context, embedding []float32, query string, topK int, category domain.CategoryID, semanticWeight float32) ([]ScoredRow, error)
}

// CodeCorpus provides the chunk lookups the fuzzy code search runs over.
type CodeCorpus interface {
	ListChunksWithCodes(ctx context.Context, limit int) ([]*domain.Chunk, error)
	FindChunksByExactCode(ctx context.Context, code string) ([]*domain.Chunk, error)
	FindChunksByContentSubstring(ctx context.Context, term string) ([]*domain.Chunk, error)
}

// Engine shapes collaborator output into ranked RetrievalResults and runs
// the in-process fuzzy code search. Stateless and safe for concurrent use.
type Engine struct {
	index  SimilarityIndex
	hybrid HybridIndex
	corpus CodeCorpus
}

func NewEngine(index SimilarityIndex, hybrid HybridIndex, corpus CodeCorpus) *Engine {
	return &Engine{index: index, hybrid: hybrid, corpus: corpus}
}

// SearchSemantic runs a nearest-neighbor query and shapes the results:
// scores below minScore are dropped and at most topK results are returned.
// A collaborator failure degrades to an empty result set; callers must
// treat empty as "search unavailable", not "no matches".
func (e *Engine) SearchSemantic(ctx context.Context, embedding []float32, topK int, minScore float32, category domain.CategoryID) []*domain.RetrievalResult {
	if e.index == nil || len(embedding) == 0 {
		return []*domain.RetrievalResult{}
	}

	rows, err := e.index.NearestNeighbors(ctx, embedding, topK, minScore, category)
	if err != nil {
		log.Printf("retrieval: semantic search unavailable: %v", err)
		return []*domain.RetrievalResult{}
	}

	return shapeRows(rows, topK, minScore, domain.MatchSemantic)
}

// SearchHybrid runs a fused vector+keyword query. The blend math lives in
// the collaborator; the engine only tags and caps the output.
func (e *Engine) SearchHybrid(ctx context.Context, embedding []float32, query string, topK int, category domain.CategoryID, semanticWeight float32) []*domain.RetrievalResult {
	if e.hybrid == nil {
		return []*domain.RetrievalResult{}
	}
	if semanticWeight < 0 {
		semanticWeight = 0
	}
	if semanticWeight > 1 {
		semanticWeight = 1
	}

	rows, err := e.hybrid.HybridSearch(ctx, embedding, query, topK, category, semanticWeight)
	if err != nil {
		log.Printf("retrieval: hybrid search unavailable: %v", err)
		return []*domain.RetrievalResult{}
	}

	return shapeRows(rows, topK, 0, domain.MatchHybrid)
}

func shapeRows(rows []ScoredRow, topK int, minScore float32, matchType domain.MatchType) []*domain.RetrievalResult {
	results := make([]*domain.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		if row.Chunk == nil || row.Score < minScore {
			continue
		}
		score := row.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results = append(results, &domain.RetrievalResult{
			Chunk:     row.Chunk,
			Score:     score,
			MatchType: matchType,
		})
	}

	// Descending by score, stable so first-seen wins ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
