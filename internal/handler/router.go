package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/internal/session"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

// Services is everything the HTTP surface talks to.
type Services struct {
	Chat     service.ChatService
	Sessions *session.Store
	service.Gatherers
	Health *HealthHandler
}

// RegisterRoutes mounts the JSON API under /api and the conversation and
// health endpoints at the root.
func RegisterRoutes(app *fiber.App, s Services, log *logger.Logger) {
	chat := NewChatHandler(s.Chat, s.Sessions, log)

	api := app.Group("/api", cors.New())
	chat.Register(api)
	NewSearchHandler(s.Repos, s.Issues, s.Sessions).Register(api)
	NewGuideHandler(s.Guides, s.Insights).Register(api)
	NewCommunityHandler(s.Trending, s.QA, s.Sessions).Register(api)

	chat.RegisterRoot(app)
	if s.Health != nil {
		s.Health.Register(app)
	}
}
