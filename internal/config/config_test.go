package config

import (
	"testing"

	apperrors "datastory/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"OPENAI_API_KEY", "LLM_MODEL", "LLM_BASE_URL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS",
		"PROMPTS_DIR", "PORT", "OPS_PORT", "MAX_UPLOAD_MB", "DATABASE_DRIVER", "DATABASE_URL",
		"CHART_FONT", "CHART_STYLE", "LOG_LEVEL", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.AI.Model)
	assert.Equal(t, DefaultTemperature, cfg.AI.Temperature)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultMaxUploadMB, cfg.Server.MaxUploadMB)
	assert.False(t, cfg.HasNarrativeService())
	assert.False(t, cfg.HasUsageLedger())
	assert.True(t, cfg.Metrics)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("CHART_STYLE", "dark")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasNarrativeService())
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 0.2, cfg.AI.Temperature)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "dark", cfg.Chart.Style)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"temperature", "LLM_TEMPERATURE", "3.5"},
		{"upload", "MAX_UPLOAD_MB", "-1"},
		{"driver", "DATABASE_DRIVER", "mysql"},
		{"ops port clash", "OPS_PORT", DefaultPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", "postgres://localhost/x")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}
