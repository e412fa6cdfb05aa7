package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/audit"
	"fleetia-access/internal/audit/domain"
	"fleetia-access/internal/audit/repository"
)

const defaultListLimit = 100

type AuditHandler struct {
	recorder audit.Recorder
	repo     repository.Repository
}

func NewAuditHandler(recorder audit.Recorder, repo repository.Repository) *AuditHandler {
	return &AuditHandler{recorder: recorder, repo: repo}
}

type logInput struct {
	EventType string         `json:"event_type"`
	Severity  string         `json:"severity"`
	Success   bool           `json:"success"`
	Details   map[string]any `json:"details"`
}

// Log appends one security event on behalf of the caller. Source address and
// client agent come from the transport, never from the payload.
func (h *AuditHandler) Log(c *fiber.Ctx) error {
	var input logInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.EventType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_type is required"})
	}

	h.recorder.Record(c.UserContext(), audit.Entry{
		EventType: input.EventType,
		Severity:  domain.Severity(input.Severity),
		Success:   input.Success,
		Details:   input.Details,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"logged": true})
}

// ListRecent returns the newest events, limited by the limit query parameter.
// Mounted behind the admin role check.
func (h *AuditHandler) ListRecent(c *fiber.Ctx) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	events, err := h.repo.ListRecent(c.UserContext(), int32(limit))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"events": events})
}
