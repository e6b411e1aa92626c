package handler

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/githelpdesk/internal/session"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// writeError writes a JSON error response.
func writeError(c *fiber.Ctx, status int, message string, details any) error {
	return c.Status(status).JSON(errorBody{Error: message, Details: details})
}

// ErrorHandler renders errors that escape a handler as {error, details}.
// Install it with fiber.Config{ErrorHandler: handler.ErrorHandler}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeError(c, fe.Code, fe.Message, nil)
	}
	return writeError(c, fiber.StatusInternalServerError, "Server error", err.Error())
}

// processingTime is the elapsed time since start in seconds, two decimals.
func processingTime(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*100) / 100
}

// sessionFor picks the conversation named by ?conversation_id=, or the
// shared default one.
func sessionFor(c *fiber.Ctx, sessions *session.Store) *session.Session {
	return sessions.Get(c.Query("conversation_id"))
}
