package postgres

import (
	"context"
	"time"

	"datastory/models"
	"datastory/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LLMUsageRepositoryImpl implements LLMUsageRepository over sqlx. Queries are
// written with ? placeholders and rebound, so sqlite3 works as well as postgres.
type LLMUsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLLMUsageRepository creates a new LLM usage repository
func NewLLMUsageRepository(db *sqlx.DB) ports.LLMUsageRepository {
	return &LLMUsageRepositoryImpl{db: db}
}

// RecordUsage records LLM usage for an API call
func (r *LLMUsageRepositoryImpl) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_usage (
			id, request_id, provider, model, operation_type,
			prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (
			:id, :request_id, :provider, :model, :operation_type,
			:prompt_tokens, :completion_tokens, :total_tokens, :created_at
		)
	`, usage)
	return err
}

// ListUsage retrieves usage records within a date range
func (r *LLMUsageRepositoryImpl) ListUsage(ctx context.Context, start, end time.Time) ([]*models.LLMUsage, error) {
	var usages []*models.LLMUsage
	err := r.db.SelectContext(ctx, &usages, r.db.Rebind(`
		SELECT id, request_id, provider, model, operation_type,
		       prompt_tokens, completion_tokens, total_tokens, created_at
		FROM llm_usage
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC
	`), start, end)
	return usages, err
}

// GetUsageSummary returns aggregated usage statistics for a period
func (r *LLMUsageRepositoryImpl) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	summary := &models.UsageSummary{
		PeriodStart: start,
		PeriodEnd:   end,
		ByModel:     make(map[string]models.ModelUsage),
	}

	err := r.db.GetContext(ctx, summary, r.db.Rebind(`
		SELECT
			COUNT(*) AS request_count,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(SUM(prompt_tokens), 0) AS total_prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) AS total_completion_tokens
		FROM llm_usage
		WHERE created_at >= ? AND created_at <= ?
	`), start, end)
	if err != nil {
		return nil, err
	}

	var byModel []models.ModelUsage
	err = r.db.SelectContext(ctx, &byModel, r.db.Rebind(`
		SELECT model, provider, SUM(total_tokens) AS total_tokens, COUNT(*) AS request_count
		FROM llm_usage
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY model, provider
	`), start, end)
	if err != nil {
		return nil, err
	}
	for _, m := range byModel {
		summary.ByModel[m.Model] = m
	}

	return summary, nil
}
