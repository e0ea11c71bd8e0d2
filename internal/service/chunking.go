package service

import (
	"regexp"
	"strings"
	"unicode"
)

// ChunkConfig controls chunking of reference documents for embeddings.
type ChunkConfig struct {
	MaxChars  int
	MinChars  int
	Overlap   int
	MaxChunks int
}

// DefaultChunkConfig provides sane defaults for regulation text, which
// tends to come in short numbered sections.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:  1200,
		MinChars:  400,
		Overlap:   200,
		MaxChunks: 60,
	}
}

func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		// Prefer to cut at whitespace so regulation clauses stay intact.
		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}

// Dot-delimited hierarchical codes as cited in regulation text, with or
// without the KEC prefix: "142", "232.8", "KEC 232.81".
var codePattern = regexp.MustCompile(`(?i)\b(?:KEC[ ]?)?(\d{3}(?:\.\d{1,3})*)\b`)

// extractCodes pulls the distinct structured codes mentioned in a chunk.
func extractCodes(text string) []string {
	matches := codePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		code := m[1]
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

var wordPattern = regexp.MustCompile(`[\p{L}][\p{L}\p{N}]{2,}`)

// extractKeywords picks distinct lowercase terms for the lexical index,
// capped to keep rows small.
func extractKeywords(text string, limit int) []string {
	if limit <= 0 {
		limit = 30
	}
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]bool, len(words))
	keywords := make([]string, 0, limit)
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) >= limit {
			break
		}
	}
	return keywords
}
