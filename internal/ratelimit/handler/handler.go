package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/ratelimit"
)

type RateLimitHandler struct {
	limiter *ratelimit.Limiter
}

func NewRateLimitHandler(limiter *ratelimit.Limiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

type checkInput struct {
	Identifier  string `json:"identifier"`
	AttemptType string `json:"attempt_type"`
}

// Check admits or denies one attempt for (identifier, attempt_type) under the
// policy registered for that attempt type. A denied attempt returns 429 with
// the lockout horizon.
func (h *RateLimitHandler) Check(c *fiber.Ctx) error {
	var input checkInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Identifier == "" || input.AttemptType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identifier and attempt_type are required"})
	}

	res, err := h.limiter.Check(c.UserContext(), input.Identifier, input.AttemptType, ratelimit.PolicyFor(input.AttemptType))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !res.Allowed {
		body := fiber.Map{
			"allowed":   false,
			"attempts":  res.Attempts,
			"remaining": 0,
		}
		if res.LockedUntil != nil {
			body["locked_until"] = res.LockedUntil.UTC().Format(time.RFC3339)
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(body)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"allowed":   true,
		"attempts":  res.Attempts,
		"remaining": res.Remaining,
	})
}

type resetInput struct {
	Identifier  string `json:"identifier"`
	AttemptType string `json:"attempt_type"`
}

// Reset unconditionally clears the record for (identifier, attempt_type).
// Idempotent; mounted behind the admin role check.
func (h *RateLimitHandler) Reset(c *fiber.Ctx) error {
	var input resetInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Identifier == "" || input.AttemptType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identifier and attempt_type are required"})
	}

	if err := h.limiter.Reset(c.UserContext(), input.Identifier, input.AttemptType); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "rate limit reset"})
}
