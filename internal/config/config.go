package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Nats     NatsConfig
	Ai       AIConfig
	Realtime RealtimeConfig
	Memory   MemoryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	JwtSecret          string
	AssistantIdentity  string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	// Connection is a postgres DSN. Empty selects the in-memory store.
	Connection string
}

type RedisConfig struct {
	URL               string
	EmbeddingCacheTTL time.Duration
}

type NatsConfig struct {
	URL         string
	TaskSubject string
	DurableName string
}

type AIConfig struct {
	EmbeddingProvider  string // "ollama", "gemini" or "placeholder"
	EmbeddingDimension int
	OllamaBaseURL      string
	OllamaModel        string
	GeminiApiKey       string
	LLMProvider        string // "echo", "ollama", "gemini" or "huggingface"
	LLMModel           string
	LLMBaseURL         string
	LLMApiKey          string
	HistoryWindow      int
}

type RealtimeConfig struct {
	ChunkDelay   time.Duration
	MaxChunkSize int
}

type MemoryConfig struct {
	Limit            int
	SimilarityWeight float64
	ImportanceWeight float64
	DefaultTopK      int
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			AssistantIdentity:  getEnv("ASSISTANT_IDENTITY", "assistant"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", ""),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Nats: NatsConfig{
			URL:         getEnv("NATS_URL", ""),
			TaskSubject: getEnv("NATS_TASK_SUBJECT", "events.task.progress"),
			DurableName: getEnv("NATS_TASK_DURABLE", "realtime-task-relay"),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "placeholder"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GeminiApiKey:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			LLMProvider:        getEnv("LLM_PROVIDER", "echo"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
			LLMApiKey:          getEnv("LLM_API_KEY", ""),
			HistoryWindow:      getEnvAsInt("HISTORY_WINDOW", 10),
		},
		Realtime: RealtimeConfig{
			ChunkDelay:   time.Duration(getEnvAsInt("CHUNK_DELAY_MS", 50)) * time.Millisecond,
			MaxChunkSize: getEnvAsInt("MAX_CHUNK_SIZE", 50),
		},
		Memory: MemoryConfig{
			Limit:            getEnvAsInt("MEMORY_LIMIT", 50),
			SimilarityWeight: getEnvAsFloat("MEMORY_SIMILARITY_WEIGHT", 0.7),
			ImportanceWeight: getEnvAsFloat("MEMORY_IMPORTANCE_WEIGHT", 0.3),
			DefaultTopK:      getEnvAsInt("MEMORY_TOP_K", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
