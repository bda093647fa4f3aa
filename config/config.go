package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	HTTPPort     string
	HTTPSPort    string
	Domains      []string
	CertCacheDir string

	DatabaseURL string

	OpenAIAPIKey     string
	OpenAIAPIBase    string
	EmbeddingModel   string
	GenerationModel  string
	Temperature      float64
	MaxTokens        int
	ElevenLabsAPIKey string

	StorageBucket string
	StorageRegion string

	Tokenizer    string
	ChunkSize    int
	ChunkOverlap int

	MatchThreshold float64
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8000"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIBase:    getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		GenerationModel:  getEnv("GENERATION_MODEL", "gpt-3.5-turbo"),
		Temperature:      getEnvAsFloat("GENERATION_TEMPERATURE", 0.3),
		MaxTokens:        getEnvAsInt("GENERATION_MAX_TOKENS", 500),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),

		StorageBucket: getEnv("STORAGE_BUCKET", "docs"),
		StorageRegion: getEnv("STORAGE_REGION", "me-central-1"),

		Tokenizer:    getEnv("TOKENIZER", "word"),
		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 50),

		MatchThreshold: getEnvAsFloat("MATCH_THRESHOLD", 0.1),
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
