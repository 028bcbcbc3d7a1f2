// Package config loads process configuration from the environment and
// an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Model providers
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`
	AWSRegion       string `yaml:"aws_region"`

	// Chat model defaults
	DefaultModel  string `yaml:"default_model"`
	PromptVariant string `yaml:"prompt_variant"` // "persona" or "strict"

	// Embeddings
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Conversation history
	HistoryWindow int `yaml:"history_window"`

	// Server
	ServerPort string `yaml:"server_port"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables, overlaid on the
// optional YAML file named by PODRAG_CONFIG.
func Load() (Config, error) {
	cfg := Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "podcasts",
		SurrealDBDatabase:  "rag",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		OllamaHost: "http://localhost:11434",
		AWSRegion:  "us-east-1",

		DefaultModel:  "gpt-4o-mini",
		PromptVariant: "strict",

		EmbedProvider:  ProviderOpenAI,
		EmbedModel:     "text-embedding-3-small",
		EmbedDimension: 1536,

		HistoryWindow: 3,

		ServerPort: "8480",

		LogFile:  "/tmp/podrag.log",
		LogLevel: slog.LevelInfo,
	}

	if path := os.Getenv("PODRAG_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.SurrealDBURL = getEnv("SURREALDB_URL", cfg.SurrealDBURL)
	cfg.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", cfg.SurrealDBNamespace)
	cfg.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", cfg.SurrealDBDatabase)
	cfg.SurrealDBUser = getEnv("SURREALDB_USER", cfg.SurrealDBUser)
	cfg.SurrealDBPass = getEnv("SURREALDB_PASS", cfg.SurrealDBPass)
	cfg.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", cfg.SurrealDBAuthLevel)

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)

	cfg.DefaultModel = getEnv("PODRAG_DEFAULT_MODEL", cfg.DefaultModel)
	cfg.PromptVariant = getEnv("PODRAG_PROMPT_VARIANT", cfg.PromptVariant)

	cfg.EmbedProvider = Provider(getEnv("PODRAG_EMBED_PROVIDER", string(cfg.EmbedProvider)))
	cfg.EmbedModel = getEnv("PODRAG_EMBED_MODEL", cfg.EmbedModel)
	cfg.EmbedDimension = getEnvInt("PODRAG_EMBED_DIMENSION", cfg.EmbedDimension)

	cfg.HistoryWindow = getEnvInt("PODRAG_HISTORY_WINDOW", cfg.HistoryWindow)

	cfg.ServerPort = getEnv("PODRAG_SERVER_PORT", cfg.ServerPort)

	cfg.LogFile = getEnv("PODRAG_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = parseLogLevel(getEnv("PODRAG_LOG_LEVEL", ""))

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
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
