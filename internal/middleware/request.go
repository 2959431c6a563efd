package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

const (
	// HeaderRequestID carries the request ID in and out.
	HeaderRequestID = "X-Request-ID"
	// LocalRequestID is the fiber Locals key holding the request ID.
	LocalRequestID = "request_id"
)

// RequestID reuses an incoming X-Request-ID or assigns a new UUID.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Locals(LocalRequestID, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestIDFrom returns the request ID assigned by RequestID, if any.
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalRequestID).(string)
	return id
}

// RequestLogger logs one line per request. Handler errors are resolved through
// the app error handler first so the logged status is the one sent.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := logx.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logx.Error()
		case status >= fiber.StatusBadRequest:
			event = logx.Warn()
		}

		event.
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Msg("HTTP request")
		return nil
	}
}

// Recover turns handler panics into 500 responses and logs the panic value.
func Recover() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logx.Error().
				Str("request_id", RequestIDFrom(c)).
				Str("path", c.Path()).
				Interface("panic", e).
				Msg("Recovered from panic")
		},
	})
}
