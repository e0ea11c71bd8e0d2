// Package classifier routes free-text exam questions to a specialist
// category by scoring them against the static category registry.
package classifier

import (
	"sort"
	"strings"

	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/registry"
)

const (
	confidenceFloor   = 0.5
	confidenceCeiling = 0.95
)

// Classifier scores question text against a fixed category set. It is pure
// computation over immutable registry data and safe for concurrent use.
type Classifier struct {
	categories []domain.Category
	crossLinks []domain.CrossLink
	fallback   domain.CategoryID
}

// New returns a classifier over the default category registry.
func New() *Classifier {
	return &Classifier{
		categories: registry.Categories(),
		crossLinks: registry.CrossLinks(),
		fallback:   registry.DefaultCategory,
	}
}

// NewWithCategories returns a classifier over an explicit category set.
// Used by tests and by callers that scope routing to a subset.
func NewWithCategories(categories []domain.Category, crossLinks []domain.CrossLink, fallback domain.CategoryID) *Classifier {
	return &Classifier{categories: categories, crossLinks: crossLinks, fallback: fallback}
}

type categoryScore struct {
	id    domain.CategoryID
	score float64
}

// Classify assigns a primary category and confidence to the given text.
// It never fails: empty or unmatchable input yields the fallback category
// at the no-signal confidence floor.
func (c *Classifier) Classify(text string) domain.ClassificationResult {
	lowered := strings.ToLower(text)

	ranked := make([]categoryScore, 0, len(c.categories))
	for _, cat := range c.categories {
		score := 0.0
		for _, kw := range cat.Keywords {
			// One hit per distinct keyword, however many times it occurs.
			if kw.Term != "" && strings.Contains(lowered, strings.ToLower(kw.Term)) {
				score += kw.Weight
			}
		}
		if score > 0 {
			ranked = append(ranked, categoryScore{id: cat.ID, score: score})
		}
	}

	if len(ranked) == 0 {
		return domain.ClassificationResult{
			Primary:    c.fallback,
			Secondary:  []domain.CategoryID{},
			Confidence: confidenceFloor,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	total := 0.0
	for _, cs := range ranked {
		total += cs.score
	}

	primary := ranked[0]
	confidence := confidenceFloor + (primary.score/total)*0.5
	if confidence > confidenceCeiling {
		confidence = confidenceCeiling
	}

	secondary := c.applyCrossLinks(primary.id, ranked)

	return domain.ClassificationResult{
		Primary:    primary.id,
		Secondary:  secondary,
		Confidence: confidence,
	}
}

// applyCrossLinks builds the secondary list from the declarative cross-link
// table: when a trigger category scored above zero, its linked category is
// surfaced unless it is already the primary.
func (c *Classifier) applyCrossLinks(primary domain.CategoryID, ranked []categoryScore) []domain.CategoryID {
	scored := make(map[domain.CategoryID]bool, len(ranked))
	for _, cs := range ranked {
		scored[cs.id] = true
	}

	secondary := make([]domain.CategoryID, 0, len(c.crossLinks))
	seen := make(map[domain.CategoryID]bool)
	for _, link := range c.crossLinks {
		if !scored[link.Trigger] {
			continue
		}
		if link.AlsoInclude == primary || seen[link.AlsoInclude] {
			continue
		}
		secondary = append(secondary, link.AlsoInclude)
		seen[link.AlsoInclude] = true
	}
	return secondary
}
