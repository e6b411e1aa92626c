package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/githelpdesk/internal/config"
	"github.com/ahmednasr/githelpdesk/internal/models"
	"github.com/ahmednasr/githelpdesk/internal/preferences"
	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"full_name":"acme/widget","name":"widget","stargazers_count":42,"language":"Go"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_MinimalConfig(t *testing.T) {
	a, err := New(context.Background(), config.Config{}, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "none", a.LLM.Name())
	assert.Nil(t, a.RAG)
	assert.Nil(t, a.MongoPing)
	assert.Nil(t, a.RedisPing)
	assert.NotNil(t, a.Chat)
	assert.NotNil(t, a.Sessions)
	assert.NotNil(t, a.Gatherers.Repos)
	assert.NotNil(t, a.Gatherers.QA)
}

func TestNew_RedisBackedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	gh := fakeGitHub(t)

	cfg := config.Config{
		RedisURL:     "redis://" + mr.Addr(),
		GitHubAPIURL: gh.URL,
	}
	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.RedisPing)
	assert.NoError(t, a.RedisPing.Ping(context.Background()))

	prefs := preferences.New()
	first := a.Gatherers.Repos.Search(context.Background(), prefs, service.RepoQuery{Language: "go"})
	require.True(t, first.Ok())
	assert.Equal(t, models.OriginLive, first.Origin)
	require.Len(t, first.Value, 1)
	assert.Equal(t, "acme/widget", first.Value[0].Name)

	assert.NotEmpty(t, mr.Keys(), "result should be written to redis")

	second := a.Gatherers.Repos.Search(context.Background(), prefs, service.RepoQuery{Language: "go"})
	assert.Equal(t, models.OriginCache, second.Origin)
}

func TestNew_UnreachableRedisFallsBackToMemory(t *testing.T) {
	cfg := config.Config{RedisURL: "redis://127.0.0.1:1"}
	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.RedisPing)
}

func TestCandidates_FollowConfiguredOrder(t *testing.T) {
	a := &App{log: logger.Nop()}
	cands := a.candidates(config.Config{LLMBackends: []string{"anthropic", "bogus", "nvidia"}})

	require.Len(t, cands, 2)
	assert.Equal(t, "anthropic", cands[0].Name)
	assert.Equal(t, "nvidia", cands[1].Name)
}

func TestNew_SelectsFirstConfiguredBackend(t *testing.T) {
	cfg := config.Config{
		LLMBackends:     []string{"nvidia", "anthropic"},
		AnthropicAPIKey: "sk-test",
		AnthropicModel:  "claude-3-5-haiku-20241022",
	}
	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "anthropic", a.LLM.Name())
}
