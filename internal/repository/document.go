package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltaic-labs/examdex/internal/domain"
)

// DocumentRepository persists ingested reference documents.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents (id, title, source, category, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.Title, d.Source, nullableString(string(d.Category)), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var category *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, source, category, created_at, updated_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.Title, &d.Source, &category, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if category != nil {
		d.Category = domain.CategoryID(*category)
	}
	return &d, nil
}

func (r *DocumentRepository) GetBySource(ctx context.Context, source string) (*domain.Document, error) {
	var d domain.Document
	var category *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, source, category, created_at, updated_at
		 FROM documents WHERE source = $1`, source,
	).Scan(&d.ID, &d.Title, &d.Source, &category, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if category != nil {
		d.Category = domain.CategoryID(*category)
	}
	return &d, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, source, category, created_at, updated_at
		 FROM documents ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		var d domain.Document
		var category *string
		if err := rows.Scan(&d.ID, &d.Title, &d.Source, &category, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if category != nil {
			d.Category = domain.CategoryID(*category)
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
