package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Base URLs of OpenAI-compatible hosted endpoints.
const (
	NvidiaBaseURL     = "https://integrate.api.nvidia.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIConfig configures any OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	Name    string // backend name reported by Name(); defaults to "openai"
	APIKey  string
	BaseURL string // empty selects api.openai.com
	Model   string
}

// OpenAIClient talks to OpenAI, NVIDIA NIM or OpenRouter.
type OpenAIClient struct {
	client *openai.Client
	name   string
	model  string
}

// NewOpenAIClient creates a client for cfg. The API key and model are required.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		name:   name,
		model:  cfg.Model,
	}, nil
}

func (c *OpenAIClient) Name() string { return c.name }

// Complete sends msgs as a chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		messages[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: %w", c.name, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
