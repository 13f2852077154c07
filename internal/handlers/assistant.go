package handlers

import (
	"strings"

	"firdesk/internal/assistant"
	"firdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler answers free-text incident questions
type AssistantHandler struct {
	assistant *assistant.Assistant
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(a *assistant.Assistant) *AssistantHandler {
	return &AssistantHandler{assistant: a}
}

// Ask runs one assistant query. Oracle faults are answered with the
// profile's fallback reply and a 200.
// POST /api/assistant
func (h *AssistantHandler) Ask(c *fiber.Ctx) error {
	var req models.AssistantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	profile, ok := h.assistant.Profile(req.Profile)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown assistant profile: " + req.Profile,
		})
	}

	answer := h.assistant.Ask(c.UserContext(), profile, req.Text)

	return c.JSON(models.AssistantResponse{
		Reply:   answer.Reply,
		Profile: answer.Profile,
		Context: answer.Context,
	})
}
