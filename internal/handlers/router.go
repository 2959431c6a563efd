package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/synapse-ia/salesagent/internal/router"
)

type classifyRequest struct {
	Text string `json:"text"`
}

// RouterHandler exposes offline intent classification.
type RouterHandler struct {
	router *router.Router
}

func NewRouterHandler(r *router.Router) *RouterHandler {
	return &RouterHandler{router: r}
}

// Classify returns the routing decision for the posted text.
func (h *RouterHandler) Classify(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return c.JSON(h.router.Route(req.Text))
}
