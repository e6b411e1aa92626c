package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/githelpdesk/internal/service"
)

// GuideHandler wires HTTP → contribution guide and insights gatherers.
type GuideHandler struct {
	guides   service.GuideService
	insights service.InsightService
}

// NewGuideHandler creates a GuideHandler instance.
func NewGuideHandler(guides service.GuideService, insights service.InsightService) *GuideHandler {
	return &GuideHandler{guides: guides, insights: insights}
}

// Register mounts the per-repository endpoints on the given router group.
func (h *GuideHandler) Register(r fiber.Router) {
	r.Get("/contribution_guide", h.getGuide)
	r.Get("/project_insights", h.getInsights)
}

// getGuide handles GET /contribution_guide?repo=&force_refresh=
func (h *GuideHandler) getGuide(c *fiber.Ctx) error {
	repo := strings.TrimSpace(c.Query("repo"))
	if repo == "" {
		return writeError(c, fiber.StatusBadRequest, "Repository name is required", nil)
	}

	start := time.Now()
	res := h.guides.Get(c.UserContext(), repo, c.QueryBool("force_refresh"))

	return c.JSON(fiber.Map{
		"guide":           res.Value.Content,
		"source":          res.Value.Source,
		"processing_time": processingTime(start),
	})
}

// getInsights handles GET /project_insights?repo=&force_refresh=
func (h *GuideHandler) getInsights(c *fiber.Ctx) error {
	repo := strings.TrimSpace(c.Query("repo"))
	if repo == "" {
		return writeError(c, fiber.StatusBadRequest, "Repository name is required", nil)
	}

	start := time.Now()
	res := h.insights.Get(c.UserContext(), repo, c.QueryBool("force_refresh"))

	return c.JSON(fiber.Map{
		"insights":        res.Value,
		"processing_time": processingTime(start),
	})
}
