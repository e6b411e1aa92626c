package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmednasr/githelpdesk/internal/llm"
	"github.com/ahmednasr/githelpdesk/internal/models"
)

// Retrieval sizes for the knowledge index.
const (
	ragTopK          = 7
	ragNumCandidates = 20
)

// KnowledgeRepository exposes vector search over curated knowledge chunks.
// The implementation typically uses MongoDB Atlas Vector Search.
type KnowledgeRepository interface {
	TopChunks(ctx context.Context, queryVec []float32, k, numCandidates int) ([]models.KnowledgeChunk, error)
}

// RAGAnswer is an answer plus the chunks that grounded it.
type RAGAnswer struct {
	Answer  string
	Sources []models.KnowledgeChunk
}

// RAGChain answers a question with retrieved knowledge added to the system
// message and the conversation so far replayed.
type RAGChain interface {
	Answer(ctx context.Context, system string, history []models.Message, question string) (RAGAnswer, error)
}

type ragService struct {
	repo     KnowledgeRepository
	embedder Embedder
	llm      llm.Client
}

func NewRAGService(repo KnowledgeRepository, embedder Embedder, client llm.Client) RAGChain {
	return &ragService{repo: repo, embedder: embedder, llm: client}
}

func (s *ragService) Answer(ctx context.Context, system string, history []models.Message, question string) (RAGAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return RAGAnswer{}, fmt.Errorf("query cannot be empty")
	}

	// 1. Get query embedding
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return RAGAnswer{}, fmt.Errorf("failed to embed query: %w", err)
	}

	// 2. Retrieve the closest chunks
	chunks, err := s.repo.TopChunks(ctx, vec, ragTopK, ragNumCandidates)
	if err != nil {
		return RAGAnswer{}, fmt.Errorf("failed to execute vector search: %w", err)
	}

	// 3. Generate the answer
	answer, err := s.llm.Complete(ctx, RAGMessages(system, chunks, history, question))
	if err != nil {
		return RAGAnswer{}, fmt.Errorf("failed to generate answer: %w", err)
	}
	return RAGAnswer{Answer: answer, Sources: chunks}, nil
}

// RAGMessages lays out the chain's prompt: the system message with the
// retrieved context appended, then prior turns, then the question.
func RAGMessages(system string, chunks []models.KnowledgeChunk, history []models.Message, question string) []llm.Message {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system + "\n\nContext:\n" + strings.Join(texts, "\n\n")})
	for _, h := range history {
		role := llm.RoleUser
		if h.Role == models.RoleAI {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
}
