// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	// Embedding
	EmbeddingBackend  string // openai | ollama | onnx | hashing
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string
	EmbeddingModel    string
	ONNXModelPath     string
	ONNXTokenizerPath string
	ONNXRuntimeLib    string
	HashingDimension  int

	// Embedding cache
	CacheRedisAddr string
	RedisPassword  string
	RedisDB        int
	CacheTTL       time.Duration
	CacheSize      int

	// Vector index
	VectorBackend     string // sqlite | pinecone
	VectorDBPath      string
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string

	// Remote model
	LLMBackend     string // openai | ollama | static
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMStream      bool
	LLMTemperature float64

	// Pipeline
	DetectTopK          int
	ProposalSamples     int
	FinalizerMode       string // llm | vote
	LLMCallTimeout      time.Duration
	DiseaseTimeout      time.Duration
	RequestTimeout      time.Duration
	PipelineConcurrency int

	// Corpus
	CorpusPath      string
	CorpusMaxRows   int
	CorpusBatchSize int

	OTLPEndpoint       string
	RateLimitPerMinute int
	TrustProxyHeaders  bool
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8000"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		EmbeddingBackend:  strings.ToLower(getEnv("EMBEDDING_BACKEND", "openai")),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		ONNXModelPath:     getEnv("ONNX_MODEL_PATH", "models/all-MiniLM-L6-v2/model.onnx"),
		ONNXTokenizerPath: getEnv("ONNX_TOKENIZER_PATH", "models/all-MiniLM-L6-v2/tokenizer.json"),
		ONNXRuntimeLib:    getEnv("ONNX_RUNTIME_LIB", ""),
		HashingDimension:  getEnvAsInt("HASHING_DIMENSION", 384),

		CacheRedisAddr: getEnv("EMBEDDING_CACHE_REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		CacheTTL:       getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		CacheSize:      getEnvAsInt("EMBEDDING_CACHE_SIZE", 10000),

		VectorBackend:     strings.ToLower(getEnv("VECTOR_BACKEND", "sqlite")),
		VectorDBPath:      getEnv("VECTOR_DB_PATH", "data/vectors.db"),
		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: getEnv("PINECONE_NAMESPACE", "disease_symptoms"),

		LLMBackend:     strings.ToLower(getEnv("LLM_BACKEND", "openai")),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:       getEnv("LLM_MODEL", "deepseek/deepseek-chat-v3.1"),
		LLMStream:      getEnvAsBool("LLM_STREAM", true),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.1),

		DetectTopK:          getEnvAsInt("DETECT_TOP_K", 5),
		ProposalSamples:     getEnvAsInt("PROPOSAL_SAMPLES", 3),
		FinalizerMode:       strings.ToLower(getEnv("FINALIZER_MODE", "llm")),
		LLMCallTimeout:      getEnvAsDuration("LLM_CALL_TIMEOUT", 45*time.Second),
		DiseaseTimeout:      getEnvAsDuration("DISEASE_TIMEOUT", 90*time.Second),
		RequestTimeout:      getEnvAsDuration("REQUEST_TIMEOUT", 120*time.Second),
		PipelineConcurrency: getEnvAsInt("PIPELINE_CONCURRENCY", 4),

		CorpusPath:      getEnv("CORPUS_PATH", "dataset/data_textual.csv"),
		CorpusMaxRows:   getEnvAsInt("CORPUS_MAX_ROWS", 1000),
		CorpusBatchSize: getEnvAsInt("CORPUS_BATCH_SIZE", 10),

		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
	}

	// Validation for production environments
	if cfg.IsProduction() {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid production configuration: %v", err)
		}
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// Validate checks that the credentials required by the selected backends are
// present and that pipeline settings are usable.
func (c *Config) Validate() error {
	missing := []string{}

	switch c.EmbeddingBackend {
	case "openai":
		if c.EmbeddingAPIKey == "" {
			missing = append(missing, "EMBEDDING_API_KEY")
		}
	case "ollama":
		if c.EmbeddingBaseURL == "" {
			missing = append(missing, "EMBEDDING_BASE_URL")
		}
	case "onnx":
		if c.ONNXModelPath == "" {
			missing = append(missing, "ONNX_MODEL_PATH")
		}
		if c.ONNXTokenizerPath == "" {
			missing = append(missing, "ONNX_TOKENIZER_PATH")
		}
	case "hashing":
	default:
		return fmt.Errorf("unknown EMBEDDING_BACKEND %q", c.EmbeddingBackend)
	}

	switch c.VectorBackend {
	case "sqlite":
		if c.VectorDBPath == "" {
			missing = append(missing, "VECTOR_DB_PATH")
		}
	case "pinecone":
		if c.PineconeAPIKey == "" {
			missing = append(missing, "PINECONE_API_KEY")
		}
		if c.PineconeIndexHost == "" {
			missing = append(missing, "PINECONE_INDEX_HOST")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend)
	}

	switch c.LLMBackend {
	case "openai":
		if c.LLMAPIKey == "" {
			missing = append(missing, "LLM_API_KEY")
		}
	case "ollama":
		if c.LLMBaseURL == "" {
			missing = append(missing, "LLM_BASE_URL")
		}
	case "static":
	default:
		return fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}

	if c.FinalizerMode != "llm" && c.FinalizerMode != "vote" {
		return fmt.Errorf("FINALIZER_MODE must be llm or vote, got %q", c.FinalizerMode)
	}
	if c.ProposalSamples < 1 {
		return fmt.Errorf("PROPOSAL_SAMPLES must be at least 1")
	}
	if c.DetectTopK < 1 {
		return fmt.Errorf("DETECT_TOP_K must be at least 1")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as float. Using default value.", key)
		return defaultValue
	}
	return v
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as bool. Using default value.", key)
		return defaultValue
	}
	return v
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
	return defaultValue
}
