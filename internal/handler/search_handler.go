package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/githelpdesk/internal/service"
	"github.com/ahmednasr/githelpdesk/internal/session"
)

// SearchHandler wires HTTP → repository and issue gatherers.
type SearchHandler struct {
	repos    service.RepoService
	issues   service.IssueService
	sessions *session.Store
}

// NewSearchHandler returns a handler instance.
func NewSearchHandler(repos service.RepoService, issues service.IssueService, sessions *session.Store) *SearchHandler {
	return &SearchHandler{repos: repos, issues: issues, sessions: sessions}
}

// Register mounts the search endpoints on the given router group.
func (h *SearchHandler) Register(r fiber.Router) {
	r.Get("/search/repositories", h.repositories)
	r.Get("/search/issues", h.searchIssues)
}

// repositories handles GET /search/repositories?query=&language=&force_refresh=
func (h *SearchHandler) repositories(c *fiber.Ctx) error {
	sess := sessionFor(c, h.sessions)
	sess.Lock()
	defer sess.Unlock()

	start := time.Now()
	res := h.repos.Search(c.UserContext(), sess.Prefs, service.RepoQuery{
		Query:        c.Query("query"),
		Language:     c.Query("language"),
		ForceRefresh: c.QueryBool("force_refresh"),
	})

	return c.JSON(fiber.Map{
		"repositories":    res.Value,
		"processing_time": processingTime(start),
	})
}

// searchIssues handles GET /search/issues?repo=&force_refresh=
func (h *SearchHandler) searchIssues(c *fiber.Ctx) error {
	repo := strings.TrimSpace(c.Query("repo"))
	if repo == "" {
		return writeError(c, fiber.StatusBadRequest, "Repository name is required", nil)
	}

	sess := sessionFor(c, h.sessions)
	sess.Lock()
	skill := sess.Prefs.SkillLevel
	sess.Unlock()

	start := time.Now()
	res := h.issues.Search(c.UserContext(), repo, skill, c.QueryBool("force_refresh"))

	return c.JSON(fiber.Map{
		"issues":          res.Value,
		"processing_time": processingTime(start),
	})
}
