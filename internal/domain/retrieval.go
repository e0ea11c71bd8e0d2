package domain

// MatchType tags how a retrieval result was found.
type MatchType string

const (
	MatchSemantic  MatchType = "semantic"
	MatchKeyword   MatchType = "keyword"
	MatchHybrid    MatchType = "hybrid"
	MatchFuzzyCode MatchType = "fuzzy-code"
)

// RetrievalResult is a single ranked hit from a retrieval query.
// Score is always in [0,1]. Results are ephemeral and never persisted.
type RetrievalResult struct {
	Chunk     *Chunk
	Score     float32
	MatchType MatchType
}

// CodeMatch is a single hit from a fuzzy structured-code lookup.
type CodeMatch struct {
	Chunk       *Chunk
	MatchScore  float64
	MatchedCode string
}
