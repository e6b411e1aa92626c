// Package app builds the object graph shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/cache"
	"github.com/ahmednasr/githelpdesk/internal/config"
	"github.com/ahmednasr/githelpdesk/internal/database"
	"github.com/ahmednasr/githelpdesk/internal/github"
	"github.com/ahmednasr/githelpdesk/internal/llm"
	"github.com/ahmednasr/githelpdesk/internal/repository"
	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/internal/session"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds every long-lived component. Close releases them.
type App struct {
	Sessions  *session.Store
	Gatherers service.Gatherers
	Chat      service.ChatService
	LLM       llm.Client
	RAG       service.RAGChain // nil when retrieval is off

	// Set only when the backend is configured and reachable.
	MongoPing Pinger
	RedisPing Pinger

	log     *logger.Logger
	closers []func() error
}

// New wires the application from cfg. Optional backends that are
// misconfigured or unreachable are logged and left out; New fails only on
// errors that leave nothing usable.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	a := &App{Sessions: session.NewStore(), log: log}

	// ---- Stores ------------------------------------------------------------

	var db *mongo.Database
	if cfg.MongoURI != "" {
		client, err := database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.Warn("mongodb unavailable", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
			a.MongoPing = database.Pinger{Client: client}
			db = client.Database(cfg.DBName)
		}
	}

	store := a.cacheStore(ctx, cfg, db)
	c := cache.New(store, log)

	// ---- Gatherers ---------------------------------------------------------

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	ghOpts := []github.Option{github.WithTimeout(cfg.HTTPTimeout)}
	if cfg.GitHubAPIURL != "" {
		ghOpts = append(ghOpts, github.WithBaseURL(cfg.GitHubAPIURL))
	}
	gh := github.NewClient(cfg.GitHubToken, log, ghOpts...)

	trending := service.NewTrendingService(gh, httpClient, log)
	a.Gatherers = service.Gatherers{
		Repos:    service.NewRepoService(gh, c, log),
		Issues:   service.NewIssueService(gh, c, log),
		Guides:   service.NewGuideService(gh, c, log),
		Insights: service.NewInsightService(gh, trending, c, log),
		Trending: trending,
		QA:       service.NewQAService(httpClient, "", log),
	}

	// ---- Language model + retrieval ----------------------------------------

	a.LLM = llm.Select(ctx, log.Named("llm"), a.candidates(cfg)...)

	if cfg.RAGEnabled() && db != nil {
		embedder, err := service.NewVertexEmbedder(ctx, service.VertexEmbedderConfig{
			ProjectID:       cfg.ProjectID,
			Location:        cfg.Location,
			Model:           cfg.EmbeddingModel,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			log.Warn("embedder unavailable; retrieval disabled", zap.Error(err))
		} else {
			a.closers = append(a.closers, embedder.Close)
			knowledge := repository.NewKnowledgeRepository(db, cfg.KnowledgeCollection, cfg.KnowledgeIndex)
			a.RAG = service.NewRAGService(knowledge, embedder, a.LLM)
			log.Info("retrieval chain enabled", zap.String("collection", cfg.KnowledgeCollection))
		}
	}

	a.Chat = service.NewChatService(a.Gatherers, a.RAG, a.LLM, cfg.LLMTimeout, log)
	return a, nil
}

// cacheStore prefers Redis, then the Mongo collection, then process memory.
func (a *App) cacheStore(ctx context.Context, cfg config.Config, db *mongo.Database) cache.Store {
	if cfg.RedisURL != "" {
		client, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.log.Warn("redis unavailable; falling back", zap.Error(err))
		} else {
			a.closers = append(a.closers, client.Close)
			store := cache.NewRedisStore(client, "")
			a.RedisPing = store
			a.log.Info("cache store selected", zap.String("store", "redis"))
			return store
		}
	}
	if db != nil {
		a.log.Info("cache store selected", zap.String("store", "mongo"), zap.String("collection", cfg.CacheCollection))
		return repository.NewCacheRepository(db, cfg.CacheCollection)
	}
	a.log.Info("cache store selected", zap.String("store", "memory"))
	return cache.NewMemoryStore()
}

// candidates lists the language-model constructors in LLMBackends order.
func (a *App) candidates(cfg config.Config) []llm.Candidate {
	byName := map[string]func(ctx context.Context) (llm.Client, error){
		"nvidia": func(context.Context) (llm.Client, error) {
			return llm.NewOpenAIClient(llm.OpenAIConfig{Name: "nvidia", APIKey: cfg.NvidiaAPIKey, BaseURL: llm.NvidiaBaseURL, Model: cfg.NvidiaModel})
		},
		"openrouter": func(context.Context) (llm.Client, error) {
			return llm.NewOpenAIClient(llm.OpenAIConfig{Name: "openrouter", APIKey: cfg.OpenRouterAPIKey, BaseURL: llm.OpenRouterBaseURL, Model: cfg.OpenRouterModel})
		},
		"openai": func(context.Context) (llm.Client, error) {
			return llm.NewOpenAIClient(llm.OpenAIConfig{Name: "openai", APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})
		},
		"vertex": func(ctx context.Context) (llm.Client, error) {
			client, err := llm.NewVertexClient(ctx, llm.VertexConfig{
				ProjectID:       cfg.ProjectID,
				Location:        cfg.Location,
				Model:           cfg.VertexModel,
				CredentialsFile: cfg.CredentialsFile,
			})
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, client.Close)
			return client, nil
		},
		"anthropic": func(context.Context) (llm.Client, error) {
			return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		},
	}

	out := make([]llm.Candidate, 0, len(cfg.LLMBackends))
	for _, name := range cfg.LLMBackends {
		build, ok := byName[name]
		if !ok {
			a.log.Warn("unknown llm backend ignored", zap.String("backend", name))
			continue
		}
		out = append(out, llm.Candidate{Name: name, New: build})
	}
	return out
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
