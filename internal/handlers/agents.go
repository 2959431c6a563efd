package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/synapse-ia/salesagent/internal/agent/graph"
	"github.com/synapse-ia/salesagent/internal/agent/graph/prompts"
	"github.com/synapse-ia/salesagent/internal/agent/model"
)

type runRequest struct {
	Message   string `json:"message" validate:"required,max=4096"`
	UserID    string `json:"user_id" validate:"max=128"`
	SessionID string `json:"session_id" validate:"max=128"`
}

func (r runRequest) input(persona string) model.QueryInput {
	return model.QueryInput{
		ConversationID: strings.TrimSpace(r.SessionID),
		UserID:         strings.TrimSpace(r.UserID),
		Query:          r.Message,
		Persona:        persona,
	}
}

// AgentHandler exposes the persona catalogue and agent runs.
type AgentHandler struct {
	runner graph.Runner
}

func NewAgentHandler(runner graph.Runner) *AgentHandler {
	return &AgentHandler{runner: runner}
}

// List returns every persona the agent can speak as.
func (h *AgentHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"agents": prompts.Personas()})
}

// Run executes one turn with the persona named in the path.
func (h *AgentHandler) Run(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := prompts.LookupPersona(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "persona not found"})
	}
	return h.run(c, id)
}

// RunWorkflow routes the message by intent and runs the chosen persona.
func (h *AgentHandler) RunWorkflow(c *fiber.Ctx) error {
	return h.run(c, "")
}

func (h *AgentHandler) run(c *fiber.Ctx, persona string) error {
	var req runRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if msg, ok := validateRequest(req); !ok {
		return badRequest(c, msg)
	}

	out, err := h.runner.Invoke(c.UserContext(), req.input(persona))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
