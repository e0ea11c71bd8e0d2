package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/registry"
)

const (
	normalizedMatchScore = 0.95
	contentMatchScore    = 0.7
	sameParentScore      = 0.6
	minPrefixSimilarity  = 0.5

	// The structural pass scans a bounded window of the corpus so a miss
	// stays cheap even as the corpus grows.
	maxStructuralScan = 100
	maxCodeResults    = 15
)

// FuzzyCodeSearch resolves a cited regulation code to corpus chunks.
// Exact and normalized-exact lookups are authoritative and short-circuit;
// otherwise a structural pass over hierarchical code segments and a
// content-mention pass both contribute candidates, deduplicated by chunk
// keeping the highest score.
func (e *Engine) FuzzyCodeSearch(ctx context.Context, code string) ([]domain.CodeMatch, error) {
	raw := strings.TrimSpace(code)
	if raw == "" || e.corpus == nil {
		return []domain.CodeMatch{}, nil
	}

	// Exact pass: the raw input, then its canonical citation form with the
	// registry-name token stripped. Both are authoritative.
	exactCandidates := []string{raw}
	if stripped := stripRegistryPrefix(raw); stripped != raw && stripped != "" {
		exactCandidates = append(exactCandidates, stripped)
	}
	for _, candidate := range exactCandidates {
		exact, err := e.corpus.FindChunksByExactCode(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if len(exact) > 0 {
			return codeMatches(exact, 1.0, candidate), nil
		}
	}

	normalized := NormalizeCode(raw)
	if normalized == "" {
		return []domain.CodeMatch{}, nil
	}

	// Normalized-exact pass: stray separator characters stripped.
	if normalized != raw && normalized != stripRegistryPrefix(raw) {
		exact, err := e.corpus.FindChunksByExactCode(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if len(exact) > 0 {
			return codeMatches(exact, normalizedMatchScore, normalized), nil
		}
	}

	best := make(map[string]domain.CodeMatch)
	order := make([]string, 0, maxCodeResults)
	record := func(chunk *domain.Chunk, score float64, matched string) {
		existing, ok := best[chunk.ID]
		if !ok {
			order = append(order, chunk.ID)
		}
		if !ok || score > existing.MatchScore {
			best[chunk.ID] = domain.CodeMatch{Chunk: chunk, MatchScore: score, MatchedCode: matched}
		}
	}

	// Structural pass over hierarchical code segments.
	chunks, err := e.corpus.ListChunksWithCodes(ctx, maxStructuralScan)
	if err != nil {
		return nil, err
	}
	inputSegments := strings.Split(normalized, ".")
	for _, chunk := range chunks {
		for _, candidate := range chunk.Codes {
			candidateSegments := strings.Split(candidate, ".")

			if hasDotPrefixRelation(normalized, candidate) {
				similarity := hierarchicalSimilarity(inputSegments, candidateSegments)
				if similarity >= minPrefixSimilarity {
					record(chunk, similarity, candidate)
				}
			}
			if sameParentPath(inputSegments, candidateSegments) {
				record(chunk, sameParentScore, candidate)
			}
		}
	}

	// Content-mention pass: the code cited in running text.
	mentions := []string{
		normalized,
		registry.RegistryName + " " + normalized,
		registry.RegistryName + normalized,
	}
	for _, term := range mentions {
		hits, err := e.corpus.FindChunksByContentSubstring(ctx, term)
		if err != nil {
			return nil, err
		}
		for _, chunk := range hits {
			record(chunk, contentMatchScore, normalized)
		}
	}

	matches := make([]domain.CodeMatch, 0, len(order))
	for _, id := range order {
		matches = append(matches, best[id])
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > maxCodeResults {
		matches = matches[:maxCodeResults]
	}
	return matches, nil
}

// stripRegistryPrefix removes a leading registry-name token ("KEC 142"
// becomes "142") without touching anything else.
func stripRegistryPrefix(code string) string {
	s := strings.TrimSpace(code)
	lowered := strings.ToLower(s)
	prefix := strings.ToLower(registry.RegistryName)
	if strings.HasPrefix(lowered, prefix) {
		s = strings.TrimSpace(s[len(prefix):])
	}
	return s
}

// NormalizeCode strips a leading registry-name token and any separator
// characters other than dots: "KEC 232.8" becomes "232.8", "KEC_211"
// becomes "211".
func NormalizeCode(code string) string {
	s := stripRegistryPrefix(code)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			// separators such as '-', '_', ':' and spaces are dropped
		}
	}
	return strings.Trim(b.String(), ".")
}

// hierarchicalSimilarity counts contiguous equal segments from the start
// and divides by the longer segment count.
func hierarchicalSimilarity(a, b []string) float64 {
	matching := 0
	for matching < len(a) && matching < len(b) && a[matching] == b[matching] {
		matching++
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return float64(matching) / float64(longest)
}

// hasDotPrefixRelation reports whether one code is a dot-prefix of the
// other, e.g. "232.8" and "232.81" ("232.8" as a segment prefix).
func hasDotPrefixRelation(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(b, a) || strings.HasPrefix(a, b)
}

// sameParentPath reports whether both codes share every segment except the
// last, e.g. "232.8" and "232.1".
func sameParentPath(a, b []string) bool {
	if len(a) != len(b) || len(a) < 2 {
		return false
	}
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return a[len(a)-1] != b[len(b)-1]
}

func codeMatches(chunks []*domain.Chunk, score float64, matched string) []domain.CodeMatch {
	matches := make([]domain.CodeMatch, 0, len(chunks))
	for _, c := range chunks {
		matches = append(matches, domain.CodeMatch{Chunk: c, MatchScore: score, MatchedCode: matched})
	}
	return matches
}
