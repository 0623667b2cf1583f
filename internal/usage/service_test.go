package usage

import (
	"context"
	"testing"
	"time"

	"datastory/adapters/postgres"
	apperrors "datastory/internal/errors"
	"datastory/internal/migration"
	"datastory/models"
	"datastory/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return NewService(postgres.NewLLMUsageRepository(db))
}

func TestRecordAndSummarize(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	start := time.Now().Add(-time.Minute)

	requestID := uuid.New()
	require.NoError(t, svc.RecordUsage(ctx, &requestID, models.OpStoryGeneration, &ports.UsageData{
		PromptTokens: 100, CompletionTokens: 40, TotalTokens: 140, Model: "gpt-3.5-turbo", Provider: "openai",
	}))
	require.NoError(t, svc.RecordUsage(ctx, nil, models.OpQuestionAnswer, &ports.UsageData{
		PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Model: "gpt-4o", Provider: "openai",
	}))

	end := time.Now().Add(time.Minute)
	summary, err := svc.GetUsageSummary(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RequestCount)
	assert.Equal(t, 155, summary.TotalTokens)
	assert.Equal(t, 110, summary.TotalPromptTokens)
	assert.Equal(t, 140, summary.ByModel["gpt-3.5-turbo"].TotalTokens)

	records, err := svc.ListUsage(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, records, 2)
	found := false
	for _, r := range records {
		if r.RequestID != nil && *r.RequestID == requestID {
			found = true
			assert.Equal(t, models.OpStoryGeneration, r.OperationType)
		}
	}
	assert.True(t, found, "request id not stored")
}

func TestRecordUsageSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	assert.NoError(t, svc.RecordUsage(ctx, nil, models.OpStoryGeneration, nil))
	assert.NoError(t, svc.RecordUsage(ctx, nil, models.OpStoryGeneration, &ports.UsageData{PromptTokens: -1}))

	summary, err := svc.GetUsageSummary(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, summary.RequestCount)
	assert.Empty(t, summary.ByModel)
}

func TestRecordUsageOnClosedLedger(t *testing.T) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	svc := NewService(postgres.NewLLMUsageRepository(db))
	require.NoError(t, db.Close())

	err = svc.RecordUsage(context.Background(), nil, models.OpStoryGeneration, &ports.UsageData{
		PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2, Model: "gpt-3.5-turbo", Provider: "openai",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
}
