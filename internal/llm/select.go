package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// Candidate is a named backend constructor.
type Candidate struct {
	Name string
	New  func(ctx context.Context) (Client, error)
}

// Select builds the candidates in order and returns the first one that
// constructs successfully. When all fail it returns None.
func Select(ctx context.Context, log *logger.Logger, candidates ...Candidate) Client {
	for _, c := range candidates {
		client, err := c.New(ctx)
		if err != nil {
			log.Info("llm backend unavailable", zap.String("backend", c.Name), zap.Error(err))
			continue
		}
		log.Info("llm backend selected", zap.String("backend", client.Name()))
		return instrumented{Client: client}
	}
	log.Warn("no llm backend available; chat answers will fail")
	return None{}
}
