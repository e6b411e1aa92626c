package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/internal/session"
)

// CommunityHandler serves the trending crawl and Stack Overflow search.
type CommunityHandler struct {
	trending service.TrendingService
	qa       service.QAService
	sessions *session.Store
}

func NewCommunityHandler(trending service.TrendingService, qa service.QAService, sessions *session.Store) *CommunityHandler {
	return &CommunityHandler{trending: trending, qa: qa, sessions: sessions}
}

func (h *CommunityHandler) Register(r fiber.Router) {
	r.Get("/trending", h.getTrending)
	r.Get("/stackoverflow", h.getQuestions)
}

// getTrending handles GET /trending?topic=&language=
func (h *CommunityHandler) getTrending(c *fiber.Ctx) error {
	sess := sessionFor(c, h.sessions)
	sess.Lock()
	q := service.ResolveTrending(service.TrendingQuery{Topic: c.Query("topic"), Language: c.Query("language")}, sess.Prefs)
	sess.Unlock()

	start := time.Now()
	res := h.trending.Crawl(c.UserContext(), q)

	return c.JSON(fiber.Map{
		"trending":        res.Value,
		"processing_time": processingTime(start),
	})
}

// getQuestions handles GET /stackoverflow?repo=&topic=
func (h *CommunityHandler) getQuestions(c *fiber.Ctx) error {
	sess := sessionFor(c, h.sessions)
	sess.Lock()
	term := service.QATerm(c.Query("repo"), c.Query("topic"), sess.Prefs)
	sess.Unlock()

	start := time.Now()
	res := h.qa.Search(c.UserContext(), term)

	return c.JSON(fiber.Map{
		"questions":       res.Value,
		"processing_time": processingTime(start),
	})
}
