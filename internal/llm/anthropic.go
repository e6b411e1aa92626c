package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient is the Anthropic Messages API backend.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete sends a completion request. System text is prepended to the
// first user turn.
func (c *AnthropicClient) Complete(ctx context.Context, msgs []Message) (string, error) {
	turns := foldSystem(msgs)
	if len(turns) == 0 {
		return "", errors.New("anthropic: no messages")
	}

	messages := make([]anthropic.MessageParam, len(turns))
	for i, msg := range turns {
		messages[i] = anthropic.MessageParam{
			Role: anthropic.F(anthropic.MessageParamRole(msg.Role)),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(msg.Content),
				},
			}),
		}
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(int64(DefaultMaxTokens)),
		Messages:  anthropic.F(messages),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}
	if content == "" {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return content, nil
}

// foldSystem merges system text into the first user message, since the
// Messages API only accepts user and assistant turns.
func foldSystem(msgs []Message) []Message {
	system, turns := splitSystem(msgs)
	if system == "" {
		return turns
	}
	for i, m := range turns {
		if m.Role == RoleUser {
			turns[i].Content = system + "\n\n" + m.Content
			return turns
		}
	}
	return append([]Message{{Role: RoleUser, Content: system}}, turns...)
}
