// Package config centralises all environment configuration.
// It should be imported only by the binaries under cmd/ and by internal/app.
// Business-logic layers receive already-built values via dependency-injection.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime option. Keep it flat: primitive types only.
type Config struct {
	// Network
	Port string

	// Server tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Outbound calls
	HTTPTimeout time.Duration // data APIs
	LLMTimeout  time.Duration // chat completions

	// GitHub
	GitHubToken  string
	GitHubAPIURL string

	// Language model backends, tried in LLMBackends order.
	LLMBackends      []string
	NvidiaAPIKey     string
	NvidiaModel      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	OpenAIAPIKey     string
	OpenAIModel      string
	AnthropicAPIKey  string
	AnthropicModel   string

	// Vertex AI
	ProjectID       string
	Location        string
	VertexModel     string
	EmbeddingModel  string
	CredentialsFile string

	// Knowledge index (read side of the RAG chain)
	MongoURI            string
	DBName              string
	KnowledgeCollection string
	KnowledgeIndex      string
	CacheCollection     string // cache store when Redis is not configured
	DisableRAG          bool

	// Shared cache store. Without it the cache lives in Mongo when
	// MongoURI is set, else in process memory.
	RedisURL string

	// Logging
	LogLevel string
	Env      string
}

// DefaultBackends is the candidate order used when LLM_BACKENDS is unset.
var DefaultBackends = []string{"nvidia", "openrouter", "openai", "vertex", "anthropic"}

// Load parses the environment (and an optional .env file) into Config.
// Nothing is strictly required: missing credentials disable the feature
// that needs them.
func Load() Config {
	// godotenv.Load() is a no-op if .env doesn't exist.
	_ = godotenv.Load()

	return Config{
		Port:         getEnv("PORT", "5000"),
		ReadTimeout:  getDuration("READ_TIMEOUT_SEC", 10),
		WriteTimeout: getDuration("WRITE_TIMEOUT_SEC", 120),
		HTTPTimeout:  getDuration("HTTP_TIMEOUT_SEC", 10),
		LLMTimeout:   getDuration("LLM_TIMEOUT_SEC", 30),

		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),

		LLMBackends:      getList("LLM_BACKENDS", DefaultBackends),
		NvidiaAPIKey:     os.Getenv("NVIDIA_API_KEY"),
		NvidiaModel:      getEnv("NVIDIA_MODEL", "meta/llama-3.1-8b-instruct"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "meta-llama/llama-3.1-8b-instruct"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),

		ProjectID:       os.Getenv("GCP_PROJECT_ID"),
		Location:        getEnv("GCP_LOCATION", "us-central1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-2.0-flash-lite-001"),
		EmbeddingModel:  getEnv("VERTEX_EMBEDDING_MODEL", "text-embedding-005"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		MongoURI:            os.Getenv("MONGODB_URI"),
		DBName:              getEnv("MONGODB_DB", "githelpdesk"),
		KnowledgeCollection: getEnv("KNOWLEDGE_COLLECTION", "knowledge_chunks"),
		KnowledgeIndex:      getEnv("KNOWLEDGE_INDEX", "knowledge_vector_index"),
		CacheCollection:     getEnv("CACHE_COLLECTION", "gatherer_cache"),
		DisableRAG:          getBool("DISABLE_RAG", false),

		RedisURL: os.Getenv("REDIS_URL"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("ENV", "production"),
	}
}

// RAGEnabled reports whether the retrieval-augmented chain should be built.
func (c Config) RAGEnabled() bool {
	return !c.DisableRAG && c.MongoURI != "" && c.ProjectID != ""
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Printf("invalid %s=%q; using default %ds", key, v, defaultSec)
	}
	return time.Duration(defaultSec) * time.Second
}

// getBool accepts 1/true/yes (any case) as true.
func getBool(key string, defaultVal bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	switch v {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	log.Printf("invalid %s=%q; using default %t", key, v, defaultVal)
	return defaultVal
}

// getList splits a comma separated env var, dropping empty items.
func getList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
