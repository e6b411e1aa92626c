package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "HTTP_TIMEOUT_SEC", "LLM_TIMEOUT_SEC", "LLM_BACKENDS", "DISABLE_RAG", "MONGODB_URI", "GCP_PROJECT_ID"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, DefaultBackends, cfg.LLMBackends)
	assert.Equal(t, "meta/llama-3.1-8b-instruct", cfg.NvidiaModel)
	assert.False(t, cfg.RAGEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("HTTP_TIMEOUT_SEC", "3")
	t.Setenv("LLM_BACKENDS", " Vertex, ,nvidia ")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("GCP_PROJECT_ID", "demo")
	t.Setenv("DISABLE_RAG", "")

	cfg := Load()

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"vertex", "nvidia"}, cfg.LLMBackends)
	assert.True(t, cfg.RAGEnabled())

	t.Setenv("DISABLE_RAG", "YES")
	assert.False(t, Load().RAGEnabled())
}

func TestGetDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("READ_TIMEOUT_SEC", "soon")
	assert.Equal(t, 7*time.Second, getDuration("READ_TIMEOUT_SEC", 7))
}
