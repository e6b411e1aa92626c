// Package llm provides the language-model client abstraction and its backends.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahmednasr/githelpdesk/pkg/metrics"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to a model.
type Message struct {
	Role    Role
	Content string
}

// Client is the single capability every backend offers.
type Client interface {
	// Name identifies the backend, e.g. "nvidia" or "vertex".
	Name() string
	// Complete returns the model's reply to msgs.
	Complete(ctx context.Context, msgs []Message) (string, error)
}

// ErrNoBackend is returned by None.
var ErrNoBackend = errors.New("llm: no language model backend is configured")

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Sampling defaults shared by all backends.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// splitSystem separates system messages (joined with blank lines) from the
// conversation turns.
func splitSystem(msgs []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// instrumented records call latency and outcome for the wrapped client.
type instrumented struct {
	Client
}

func (i instrumented) Complete(ctx context.Context, msgs []Message) (string, error) {
	start := time.Now()
	out, err := i.Client.Complete(ctx, msgs)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLM(i.Name(), status, time.Since(start).Seconds())
	return out, err
}
