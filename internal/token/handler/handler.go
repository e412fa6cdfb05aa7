package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/blacklist"
	blacklistdomain "fleetia-access/internal/blacklist/domain"
	"fleetia-access/internal/security"
	"fleetia-access/internal/token"
)

type TokenHandler struct {
	tokens    *token.Service
	blacklist *blacklist.Registry
}

func NewTokenHandler(tokens *token.Service, registry *blacklist.Registry) *TokenHandler {
	return &TokenHandler{tokens: tokens, blacklist: registry}
}

type issueInput struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	UserType  string `json:"user_type"`
	DriverID  string `json:"driver_id"`
	StudentID string `json:"student_id"`
}

// Issue mints an access/refresh token pair for the given subject.
func (h *TokenHandler) Issue(c *fiber.Ctx) error {
	var input issueInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	pair, err := h.tokens.IssuePair(security.Subject{
		UserID:    input.UserID,
		FullName:  input.FullName,
		Email:     input.Email,
		Role:      input.Role,
		UserType:  input.UserType,
		DriverID:  input.DriverID,
		StudentID: input.StudentID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token":          pair.AccessToken,
		"access_token_expires":  pair.AccessTokenExpiresAt.UTC().Format(time.RFC3339),
		"refresh_token":         pair.RefreshToken,
		"refresh_token_expires": pair.RefreshTokenExpiresAt.UTC().Format(time.RFC3339),
	})
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a new access token from the presented refresh token. All
// rotation failures are unauthorized to the caller; the cause is in the
// security event log, not the response.
func (h *TokenHandler) Refresh(c *fiber.Ctx) error {
	var input refreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	revoked, err := h.blacklist.IsRevoked(c.UserContext(), input.RefreshToken, blacklistdomain.TypeRefreshToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if revoked {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "refresh token revoked"})
	}

	access, expiresAt, err := h.tokens.Rotate(c.UserContext(), input.RefreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidRefreshToken) ||
			errors.Is(err, token.ErrSessionNotFound) ||
			errors.Is(err, token.ErrRefreshExpired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token":         access,
		"access_token_expires": expiresAt.UTC().Format(time.RFC3339),
	})
}
