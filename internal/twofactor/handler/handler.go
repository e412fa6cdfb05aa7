package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/server/reqctx"
	"fleetia-access/internal/twofactor"
)

type TwoFactorHandler struct {
	service *twofactor.Service
}

func NewTwoFactorHandler(service *twofactor.Service) *TwoFactorHandler {
	return &TwoFactorHandler{service: service}
}

// Issue mails a fresh verification code to the authenticated subject's
// registered address. Any prior pending code is discarded.
func (h *TwoFactorHandler) Issue(c *fiber.Ctx) error {
	sess := reqctx.Session(c)
	if sess == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}
	if sess.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no registered email address"})
	}

	if err := h.service.Issue(c.UserContext(), sess.UserID, sess.Email); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "verification code sent",
		"email":   sess.Email,
	})
}

type verifyInput struct {
	Code string `json:"code"`
}

// Verify checks the submitted code against the subject's pending challenge.
// Each failure cause maps to its own status so clients can branch.
func (h *TwoFactorHandler) Verify(c *fiber.Ctx) error {
	sess := reqctx.Session(c)
	if sess == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	var input verifyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if !validCodeFormat(input.Code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code must be 6 digits"})
	}

	err := h.service.Verify(c.UserContext(), sess.UserID, input.Code)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "code verified"})
	case errors.Is(err, twofactor.ErrNoChallenge):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, twofactor.ErrChallengeExpired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, twofactor.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, twofactor.ErrCodeMismatch):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func validCodeFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
