package domain

import "time"

// Chunk is a retrievable unit of reference content. Chunks are created at
// ingestion time and are read-only to the engines.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Embedding  []float32
	Category   CategoryID
	Keywords   []string
	Codes      []string
	ChunkIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasCode reports whether the chunk carries the given structured code verbatim.
func (c *Chunk) HasCode(code string) bool {
	for _, cc := range c.Codes {
		if cc == code {
			return true
		}
	}
	return false
}

// Document is an ingested reference document that chunks belong to.
type Document struct {
	ID        string
	Title     string
	Source    string
	Category  CategoryID
	CreatedAt time.Time
	UpdatedAt time.Time
}
