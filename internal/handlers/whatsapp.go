package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/synapse-ia/salesagent/internal/whatsapp"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// Gateway processes one raw webhook delivery.
type Gateway interface {
	Handle(ctx context.Context, body []byte) whatsapp.Ack
}

// WhatsAppInfo describes the outbound provider for the status endpoint.
type WhatsAppInfo struct {
	Provider    string
	Instance    string
	Configured  bool
	VerifyToken string
}

// WhatsAppHandler serves the webhook and status endpoints.
type WhatsAppHandler struct {
	gateway Gateway
	info    WhatsAppInfo
}

func NewWhatsAppHandler(gateway Gateway, info WhatsAppInfo) *WhatsAppHandler {
	return &WhatsAppHandler{gateway: gateway, info: info}
}

// Status reports the provider the gateway replies through.
func (h *WhatsAppHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "active",
		"provider":   h.info.Provider,
		"instance":   h.info.Instance,
		"configured": h.info.Configured,
	})
}

// Verify answers the provider's subscription handshake. The challenge is
// echoed verbatim; without one the endpoint acts as a liveness check.
func (h *WhatsAppHandler) Verify(c *fiber.Ctx) error {
	challenge := c.Query("hub.challenge")
	handshake := challenge != "" || c.Query("hub.mode") != ""

	if h.info.VerifyToken != "" && handshake {
		got := c.Query("hub.verify_token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.info.VerifyToken)) != 1 {
			logx.Warn().Str("path", c.Path()).Msg("Webhook verification token mismatch")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "verification token mismatch",
			})
		}
	}

	if challenge != "" {
		return c.SendString(challenge)
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "WhatsApp webhook is active",
	})
}

// Webhook hands the raw delivery to the gateway and reports its ack.
func (h *WhatsAppHandler) Webhook(c *fiber.Ctx) error {
	// fiber reuses the request buffer once the handler returns
	body := append([]byte(nil), c.Body()...)

	ack := h.gateway.Handle(c.UserContext(), body)
	return c.Status(ack.HTTPStatus()).JSON(ack)
}
