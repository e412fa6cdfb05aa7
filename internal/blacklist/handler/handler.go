package handler

import (
	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/blacklist"
	"fleetia-access/internal/blacklist/domain"
)

type BlacklistHandler struct {
	registry *blacklist.Registry
}

func NewBlacklistHandler(registry *blacklist.Registry) *BlacklistHandler {
	return &BlacklistHandler{registry: registry}
}

type checkInput struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

// Check reports whether the presented token has been revoked as the given type.
func (h *BlacklistHandler) Check(c *fiber.Ctx) error {
	var input checkInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Token == "" || input.TokenType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token and token_type are required"})
	}
	tokenType := domain.TokenType(input.TokenType)
	if !tokenType.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown token_type"})
	}

	revoked, err := h.registry.IsRevoked(c.UserContext(), input.Token, tokenType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"blacklisted": revoked})
}
