package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/pkg/logger"
	"github.com/ahmednasr/githelpdesk/pkg/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the c.Locals key holding the request id.
const RequestIDKey = "request_id"

// Logging creates request logging middleware. Errors returned further down
// the chain are rendered by the app's error handler here so the logged
// status matches the response.
func Logging(log *logger.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Generate or extract request ID
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(RequestIDKey, requestID)

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		duration := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		log.Info("request completed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID),
			zap.String("remote_addr", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		)

		metrics.RecordRequest(c.Method(), route, strconv.Itoa(status), duration.Seconds())
		return nil
	}
}

// GetRequestID returns the id assigned by Logging, or "".
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
