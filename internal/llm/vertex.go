package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// VertexConfig selects the Gemini model on Vertex AI.
type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// VertexClient implements Client using Gemini on Vertex AI.
type VertexClient struct {
	client *genai.Client
	model  string
}

// NewVertexClient creates a new Vertex AI client.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("GCP project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexClient{client: client, model: cfg.Model}, nil
}

func (l *VertexClient) Name() string { return "vertex" }

// Complete replays the earlier turns as chat history and sends the last one.
func (l *VertexClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	system, turns := splitSystem(msgs)
	if len(turns) == 0 {
		return "", errors.New("vertex: no messages")
	}

	// A fresh model per call: SystemInstruction is per-request state.
	model := l.client.GenerativeModel(l.model)
	model.SetTemperature(DefaultTemperature)
	model.SetTopP(0.8)
	model.SetTopK(40)
	model.SetMaxOutputTokens(DefaultMaxTokens)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	chat := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertex: %w", ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("vertex: %w", ErrEmptyResponse)
	}
	return b.String(), nil
}

// Close closes the Vertex AI client.
func (l *VertexClient) Close() error {
	return l.client.Close()
}
