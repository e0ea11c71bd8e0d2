package domain

// ClassificationResult is the outcome of routing a question to a category.
// Confidence is always in [0.5, 0.95]: 0.5 is the no-signal floor and 0.95
// is a hard ceiling regardless of how many keywords matched.
type ClassificationResult struct {
	Primary    CategoryID
	Secondary  []CategoryID
	Confidence float64
}
