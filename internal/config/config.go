package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported LLM providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// Google Cloud
	GCPProject  string
	GCPLocation string

	// Dataform
	DataformRepository string
	DataformWorkspace  string

	// GitHub
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	GitHubToken  string

	// Databricks
	DatabricksHost  string
	DatabricksToken string

	// Dataproc
	DataprocRegion string

	// dbt
	DBTProjectDir  string
	DBTProfilesDir string

	// LLM agent
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// REST API
	APIHost string
	APIPort int

	// Task store
	TaskCapacity int
	TaskTTL      time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		GCPProject:  getEnv("DATAPILOT_GCP_PROJECT", ""),
		GCPLocation: getEnv("DATAPILOT_GCP_LOCATION", "us-central1"),

		DataformRepository: getEnv("DATAPILOT_DATAFORM_REPOSITORY", ""),
		DataformWorkspace:  getEnv("DATAPILOT_DATAFORM_WORKSPACE", ""),

		GitHubOwner:  getEnv("DATAPILOT_GITHUB_OWNER", ""),
		GitHubRepo:   getEnv("DATAPILOT_GITHUB_REPO", ""),
		GitHubBranch: getEnv("DATAPILOT_GITHUB_BRANCH", "main"),
		GitHubToken:  getEnv("GITHUB_TOKEN", ""),

		DatabricksHost:  getEnv("DATABRICKS_HOST", ""),
		DatabricksToken: getEnv("DATABRICKS_TOKEN", ""),

		DataprocRegion: getEnv("DATAPILOT_DATAPROC_REGION", "us-central1"),

		DBTProjectDir:  getEnv("DATAPILOT_DBT_PROJECT_DIR", "."),
		DBTProfilesDir: getEnv("DBT_PROFILES_DIR", ""),

		LLMProvider:     getEnv("DATAPILOT_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("DATAPILOT_LLM_MODEL", "llama3.2"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		APIHost: getEnv("DATAPILOT_API_HOST", "127.0.0.1"),
		APIPort: getEnvInt("DATAPILOT_API_PORT", 8080),

		TaskCapacity: getEnvInt("DATAPILOT_TASK_CAPACITY", 1024),
		TaskTTL:      getEnvDuration("DATAPILOT_TASK_TTL", time.Hour),

		LogFile:  getEnv("DATAPILOT_LOG_FILE", "/tmp/datapilot.log"),
		LogLevel: parseLogLevel(getEnv("DATAPILOT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
