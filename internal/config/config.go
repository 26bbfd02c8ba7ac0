package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	OpenAI   OpenAIConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

type PipelineConfig struct {
	DataDir          string
	DefaultModel     string
	MaxTokens        int
	CompletionWindow string
	PollInterval     time.Duration
	PollDeadline     time.Duration // 0 means wait forever
	TrainRatio       float64
	SplitSeed        int64
	EmbeddingModel   string
	EmbeddingDims    int
	EmbeddingTTL     time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rateLimitRPS, err := getEnvFloat("RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := getEnvInt("RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxTokens, err := getEnvInt("PIPELINE_MAX_TOKENS", 2000)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_MAX_TOKENS: %w", err)
	}

	pollInterval, err := getEnvDuration("BATCH_POLL_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_POLL_INTERVAL: %w", err)
	}

	pollDeadline, err := getEnvDuration("BATCH_POLL_DEADLINE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_POLL_DEADLINE: %w", err)
	}

	trainRatio, err := getEnvFloat("SPLIT_TRAIN_RATIO", 0.8)
	if err != nil {
		return nil, fmt.Errorf("invalid SPLIT_TRAIN_RATIO: %w", err)
	}

	splitSeed, err := getEnvInt("SPLIT_SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid SPLIT_SEED: %w", err)
	}

	// The eval_outputs.embedding column is declared vector(1024).
	// Changing this requires migrating that column to the new width,
	// or eval output persistence will fail.
	embeddingDims, err := getEnvInt("EMBEDDING_DIMENSIONS", 1024)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIMENSIONS: %w", err)
	}

	embeddingTTL, err := getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			DataDir:          getEnv("DATA_DIR", "data"),
			DefaultModel:     getEnv("PIPELINE_DEFAULT_MODEL", "gpt-4o-mini"),
			MaxTokens:        maxTokens,
			CompletionWindow: getEnv("BATCH_COMPLETION_WINDOW", "24h"),
			PollInterval:     pollInterval,
			PollDeadline:     pollDeadline,
			TrainRatio:       trainRatio,
			SplitSeed:        int64(splitSeed),
			EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDims:    embeddingDims,
			EmbeddingTTL:     embeddingTTL,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
