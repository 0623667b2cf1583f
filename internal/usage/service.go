package usage

import (
	"context"
	"log"
	"time"

	"datastory/internal/errors"
	"datastory/models"
	"datastory/ports"

	"github.com/google/uuid"
)

// Service handles LLM usage tracking and persistence
type Service struct {
	repo ports.LLMUsageRepository
}

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository) *Service {
	return &Service{repo: repo}
}

// RecordUsage persists the usage block of one narrative call. Invalid usage
// is logged and skipped; persistence runs on the caller's goroutine, once.
func (s *Service) RecordUsage(ctx context.Context, requestID *uuid.UUID, operationType string, usage *ports.UsageData) error {
	if usage == nil {
		log.Printf("[UsageService] WARN: nil usage data provided for %s", operationType)
		return nil
	}

	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		log.Printf("[UsageService] ERROR: invalid token counts: %+v", usage)
		return nil
	}

	record := &models.LLMUsage{
		ID:               uuid.New(),
		RequestID:        requestID,
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.RecordUsage(ctx, record); err != nil {
		log.Printf("[UsageService] ERROR: failed to persist usage: %v", err)
		return errors.DatabaseError("failed to record llm usage", err)
	}
	return nil
}

// GetUsageSummary returns aggregated usage in a time period
func (s *Service) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	return s.repo.GetUsageSummary(ctx, start.UTC(), end.UTC())
}

// ListUsage returns detailed usage records in a time period
func (s *Service) ListUsage(ctx context.Context, start, end time.Time) ([]*models.LLMUsage, error) {
	return s.repo.ListUsage(ctx, start.UTC(), end.UTC())
}
