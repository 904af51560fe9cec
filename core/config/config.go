package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	OTel      OTelConfig
	LLM       LLMConfig
	Pipeline  PipelineConfig
	Cache     CacheConfig
	Typesense TypesenseConfig
	Ingest    IngestConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	Provider       string // "openai" or "anthropic"
	APIKey         string
	BaseURL        string // Optional: for custom endpoints
	Model          string
	MaxTokens      int
	TimeoutSeconds int
	MaxRetries     int
}

// PipelineConfig tunes the agent graph: retrieval depth, grader behavior, the
// refine-loop budget, risk-sentinel caps, and per-stage LLM temperatures.
type PipelineConfig struct {
	RetrievalK            int
	GraderDocTruncation   int
	SafetyNetMinDocs      int
	SafetyNetFallbackDocs int
	MaxAuditRevisions     int
	ContextMaxChars       int
	AnswerMaxChars        int

	RouterTemperature        float64
	GraderTemperature        float64
	SpecialistTemperature    float64
	RefineTemperature        float64
	QuantExtractTemperature  float64
	QuantStrategyTemperature float64
	QuantInsightTemperature  float64
	RiskTemperature          float64
}

type CacheConfig struct {
	TTLSeconds int
	MaxSize    int
	RedisURL   string // Optional: enables the Redis-backed response cache
}

type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Load loads configuration from environment variables. In development it
// first loads from a .env file. Invalid values fail here, at startup.
func Load() (Config, error) {
	if getEnv("CORTEX_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("CORTEX_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "cortex"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "openai"),
			APIKey:         getEnv("LLM_API_KEY", ""),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 4096),
			TimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 60),
			MaxRetries:     getEnvInt("LLM_MAX_RETRIES", 2),
		},
		Pipeline: PipelineConfig{
			RetrievalK:            getEnvInt("RETRIEVAL_K", 8),
			GraderDocTruncation:   getEnvInt("GRADER_DOC_TRUNCATION", 1500),
			SafetyNetMinDocs:      getEnvInt("SAFETY_NET_MIN_DOCS", 2),
			SafetyNetFallbackDocs: getEnvInt("SAFETY_NET_FALLBACK_DOCS", 4),
			MaxAuditRevisions:     getEnvInt("MAX_AUDIT_REVISIONS", 2),
			ContextMaxChars:       getEnvInt("CONTEXT_MAX_CHARS", 8000),
			AnswerMaxChars:        getEnvInt("ANSWER_MAX_CHARS", 4000),

			RouterTemperature:        getEnvFloat("ROUTER_TEMPERATURE", 0.0),
			GraderTemperature:        getEnvFloat("GRADER_TEMPERATURE", 0.0),
			SpecialistTemperature:    getEnvFloat("SPECIALIST_TEMPERATURE", 0.3),
			RefineTemperature:        getEnvFloat("REFINE_TEMPERATURE", 0.3),
			QuantExtractTemperature:  getEnvFloat("QUANT_EXTRACT_TEMPERATURE", 0.0),
			QuantStrategyTemperature: getEnvFloat("QUANT_STRATEGY_TEMPERATURE", 0.0),
			QuantInsightTemperature:  getEnvFloat("QUANT_INSIGHT_TEMPERATURE", 0.1),
			RiskTemperature:          getEnvFloat("RISK_TEMPERATURE", 0.1),
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 300),
			MaxSize:    getEnvInt("CACHE_MAX_SIZE", 128),
			RedisURL:   getEnv("CACHE_REDIS_URL", ""),
		},
		Typesense: TypesenseConfig{
			URL:        getEnv("TYPESENSE_URL", ""),
			APIKey:     getEnv("TYPESENSE_API_KEY", ""),
			Collection: getEnv("TYPESENSE_COLLECTION", "cortex_chunks"),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	p := c.Pipeline

	if p.RetrievalK < 1 || p.RetrievalK > 50 {
		return fmt.Errorf("RETRIEVAL_K must be in 1..50, got %d", p.RetrievalK)
	}
	if p.GraderDocTruncation < 200 || p.GraderDocTruncation > 10000 {
		return fmt.Errorf("GRADER_DOC_TRUNCATION must be in 200..10000, got %d", p.GraderDocTruncation)
	}
	if p.SafetyNetMinDocs < 1 {
		return fmt.Errorf("SAFETY_NET_MIN_DOCS must be >= 1, got %d", p.SafetyNetMinDocs)
	}
	if p.SafetyNetFallbackDocs < 1 {
		return fmt.Errorf("SAFETY_NET_FALLBACK_DOCS must be >= 1, got %d", p.SafetyNetFallbackDocs)
	}
	if p.MaxAuditRevisions < 0 || p.MaxAuditRevisions > 10 {
		return fmt.Errorf("MAX_AUDIT_REVISIONS must be in 0..10, got %d", p.MaxAuditRevisions)
	}

	temps := map[string]float64{
		"ROUTER_TEMPERATURE":         p.RouterTemperature,
		"GRADER_TEMPERATURE":         p.GraderTemperature,
		"SPECIALIST_TEMPERATURE":     p.SpecialistTemperature,
		"REFINE_TEMPERATURE":         p.RefineTemperature,
		"QUANT_EXTRACT_TEMPERATURE":  p.QuantExtractTemperature,
		"QUANT_STRATEGY_TEMPERATURE": p.QuantStrategyTemperature,
		"QUANT_INSIGHT_TEMPERATURE":  p.QuantInsightTemperature,
		"RISK_TEMPERATURE":           p.RiskTemperature,
	}
	for key, t := range temps {
		if t < 0.0 || t > 1.0 {
			return fmt.Errorf("%s must be in 0.0..1.0, got %g", key, t)
		}
	}

	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be >= 1, got %d", c.Cache.TTLSeconds)
	}
	if c.Cache.MaxSize < 1 {
		return fmt.Errorf("CACHE_MAX_SIZE must be >= 1, got %d", c.Cache.MaxSize)
	}

	if c.Ingest.ChunkSize < 100 || c.Ingest.ChunkSize > 4000 {
		return fmt.Errorf("CHUNK_SIZE must be in 100..4000, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap > 1000 {
		return fmt.Errorf("CHUNK_OVERLAP must be in 0..1000, got %d", c.Ingest.ChunkOverlap)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c TypesenseConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

func (c CacheConfig) UseRedis() bool {
	return c.RedisURL != ""
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
