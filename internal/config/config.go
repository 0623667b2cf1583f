package config

import (
	"os"
	"strconv"
	"strings"

	"datastory/internal/errors"
)

// Config represents the complete application configuration.
// It is loaded once at startup and passed by value into the services that need it.
type Config struct {
	AI       AIConfig
	Server   ServerConfig
	Database DatabaseConfig
	Chart    ChartConfig
	LogLevel string
	Metrics  bool
}

// AIConfig holds narrative service settings
type AIConfig struct {
	OpenAIKey   string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int    // 0 leaves the limit to the service
	PromptsDir  string // empty uses the embedded templates
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	OpsPort     string // empty disables the metrics/pprof listener
	MaxUploadMB int
}

// DatabaseConfig holds the optional usage ledger connection
type DatabaseConfig struct {
	Driver string
	URL    string
}

// ChartConfig holds process-wide chart styling
type ChartConfig struct {
	Font  string
	Style string
}

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultTemperature = 0.7
	DefaultPort        = "8080"
	DefaultMaxUploadMB = 50
	DefaultChartStyle  = "whitegrid"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		AI:       loadAIConfig(),
		Server:   loadServerConfig(),
		Database: loadDatabaseConfig(),
		Chart:    loadChartConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
		Metrics:  getEnvBoolOrDefault("METRICS_ENABLED", true),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Model:       DefaultModel,
			BaseURL:     DefaultBaseURL,
			Temperature: DefaultTemperature,
		},
		Server:   ServerConfig{Port: DefaultPort, MaxUploadMB: DefaultMaxUploadMB},
		Database: DatabaseConfig{Driver: "postgres"},
		Chart:    ChartConfig{Style: DefaultChartStyle},
		LogLevel: "INFO",
		Metrics:  true,
	}
}

// HasNarrativeService reports whether an API key was provided
func (c *Config) HasNarrativeService() bool {
	return strings.TrimSpace(c.AI.OpenAIKey) != ""
}

// HasUsageLedger reports whether a database was configured
func (c *Config) HasUsageLedger() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

func loadAIConfig() AIConfig {
	// A missing key is not fatal: story requests report the error instead.
	return AIConfig{
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		Model:       getEnvOrDefault("LLM_MODEL", DefaultModel),
		BaseURL:     getEnvOrDefault("LLM_BASE_URL", DefaultBaseURL),
		Temperature: getEnvFloatOrDefault("LLM_TEMPERATURE", DefaultTemperature),
		MaxTokens:   getEnvIntOrDefault("LLM_MAX_TOKENS", 0),
		PromptsDir:  os.Getenv("PROMPTS_DIR"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnvOrDefault("PORT", DefaultPort),
		OpsPort:     os.Getenv("OPS_PORT"),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", DefaultMaxUploadMB),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

func loadChartConfig() ChartConfig {
	return ChartConfig{
		Font:  os.Getenv("CHART_FONT"),
		Style: getEnvOrDefault("CHART_STYLE", DefaultChartStyle),
	}
}

func validateConfig(config *Config) error {
	if config.AI.Temperature < 0 || config.AI.Temperature > 2 {
		return errors.ConfigInvalid("LLM_TEMPERATURE must be between 0 and 2")
	}
	if config.AI.MaxTokens < 0 {
		return errors.ConfigInvalid("LLM_MAX_TOKENS must not be negative")
	}
	if config.Server.OpsPort != "" && config.Server.OpsPort == config.Server.Port {
		return errors.ConfigInvalid("OPS_PORT must differ from PORT")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.HasUsageLedger() {
		switch config.Database.Driver {
		case "postgres", "sqlite3":
		default:
			return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite3")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
