package llm

import "context"

// None is the terminal backend used when no candidate could be built.
type None struct{}

func (None) Name() string { return "none" }

func (None) Complete(context.Context, []Message) (string, error) {
	return "", ErrNoBackend
}
