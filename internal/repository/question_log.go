package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltaic-labs/examdex/internal/service"
)

// QuestionLogRepository stores answered questions for evaluation loops.
type QuestionLogRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionLogRepository(pool *pgxpool.Pool) *QuestionLogRepository {
	return &QuestionLogRepository{pool: pool}
}

func (r *QuestionLogRepository) CreateQuestionLog(ctx context.Context, entry service.QuestionLogEntry) (string, error) {
	details := map[string]any{
		"question_length": entry.QuestionLength,
		"source_count":    entry.SourceCount,
		"warning_count":   entry.WarningCount,
	}
	if len(entry.Secondary) > 0 {
		details["secondary"] = entry.Secondary
	}
	detailsJSON, _ := json.Marshal(details)

	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO question_logs
			(id, category, confidence, duration_ms, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id,
		string(entry.Category),
		entry.Confidence,
		entry.DurationMs,
		detailsJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}
