package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"time"

	"firdesk/internal/export"
	"firdesk/internal/models"
	"firdesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CollectionHandler serves the drafts and reports collections
type CollectionHandler struct {
	drafts  *services.CollectionService
	reports *services.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(drafts, reports *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{drafts: drafts, reports: reports}
}

// ListDrafts returns all drafts, or those matching ?q=
// GET /api/drafts
func (h *CollectionHandler) ListDrafts(c *fiber.Ctx) error {
	return list(c, h.drafts)
}

// CreateDraft saves a draft
// POST /api/drafts
func (h *CollectionHandler) CreateDraft(c *fiber.Ctx) error {
	return create(c, h.drafts, "Draft FIR saved successfully!")
}

// DeleteDraft removes a draft by firNumber
// DELETE /api/drafts/:firNumber
func (h *CollectionHandler) DeleteDraft(c *fiber.Ctx) error {
	id := c.Params("firNumber")

	err := h.drafts.DeleteByID(c.UserContext(), id)
	switch {
	case err == nil:
		return c.JSON(models.MessageResponse{Message: "Draft deleted successfully!"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.MessageResponse{Message: "Draft not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete draft",
		})
	}
}

// ListReports returns all finalized reports, or those matching ?q=
// GET /api/firs
func (h *CollectionHandler) ListReports(c *fiber.Ctx) error {
	return list(c, h.reports)
}

// CreateReport saves a finalized report
// POST /api/firs
func (h *CollectionHandler) CreateReport(c *fiber.Ctx) error {
	return create(c, h.reports, "FIR generated successfully!")
}

// GetReport returns one report
// GET /api/firs/:firNumber
func (h *CollectionHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.reports.Get(c.UserContext(), c.Params("firNumber"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.MessageResponse{Message: "FIR not found"})
	}
	return c.JSON(report)
}

// ExportReports returns every report as an XLSX workbook
// GET /api/firs/export
func (h *CollectionHandler) ExportReports(c *fiber.Ctx) error {
	reports := h.reports.ListAll(c.UserContext())

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, reports); err != nil {
		log.Printf("❌ [EXPORT] Failed to export reports: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export reports",
		})
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="firs-%s.xlsx"`, time.Now().UTC().Format("20060102-150405")))
	return c.Send(buf.Bytes())
}

func list(c *fiber.Ctx, svc *services.CollectionService) error {
	if q := c.Query("q"); q != "" {
		return c.JSON(svc.Search(c.UserContext(), q))
	}
	return c.JSON(svc.ListAll(c.UserContext()))
}

func create(c *fiber.Ctx, svc *services.CollectionService, message string) error {
	var report models.Report
	if err := c.BodyParser(&report); err != nil || report.Raw != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	saved, err := svc.Create(c.UserContext(), report)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Validation failed",
				"fields": verr.Fields,
			})
		case errors.Is(err, services.ErrInvalidReport):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, services.ErrDuplicateID):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A record with this firNumber already exists",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save record",
			})
		}
	}

	return c.JSON(models.MessageResponse{
		Message:   message,
		FIRNumber: saved.FIRNumber,
	})
}

// Register mounts the collection routes on an /api router.
// /firs/export is registered before /firs/:firNumber so it is not taken as an id.
func (h *CollectionHandler) Register(api fiber.Router) {
	api.Get("/drafts", h.ListDrafts)
	api.Post("/drafts", h.CreateDraft)
	api.Delete("/drafts/:firNumber", h.DeleteDraft)

	api.Get("/firs", h.ListReports)
	api.Post("/firs", h.CreateReport)
	api.Get("/firs/export", h.ExportReports)
	api.Get("/firs/:firNumber", h.GetReport)
}
