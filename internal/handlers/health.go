package handlers

import (
	"time"

	"firdesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	drafts    *services.CollectionService
	reports   *services.CollectionService
	feed      *services.ChangeFeed
	hasOracle bool
	backend   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(drafts, reports *services.CollectionService, feed *services.ChangeFeed, hasOracle bool, backend string) *HealthHandler {
	return &HealthHandler{
		drafts:    drafts,
		reports:   reports,
		feed:      feed,
		hasOracle: hasOracle,
		backend:   backend,
	}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx := c.UserContext()

	subscribers := 0
	if h.feed != nil {
		subscribers = h.feed.Count()
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"backend": h.backend,
		"collections": fiber.Map{
			services.CollectionDrafts:  len(h.drafts.ListAll(ctx)),
			services.CollectionReports: len(h.reports.ListAll(ctx)),
		},
		"oracle_configured": h.hasOracle,
		"feed_subscribers":  subscribers,
		"timestamp":         time.Now().Format(time.RFC3339),
	})
}
