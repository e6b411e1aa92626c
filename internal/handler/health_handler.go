package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is anything that can report its backend reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	mongo Pinger // nil when not configured
	redis Pinger // nil when not configured
	llm   string
}

func NewHealthHandler(mongo, redis Pinger, llmName string) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis, llm: llmName}
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status": "ok",
		"dbs": fiber.Map{
			"mongo": h.check(c.UserContext(), h.mongo),
			"redis": h.check(c.UserContext(), h.redis),
		},
		"llm": h.llm,
	}

	return c.JSON(status)
}

func (h *HealthHandler) check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not_configured"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "error"
	}
	return "connected"
}
