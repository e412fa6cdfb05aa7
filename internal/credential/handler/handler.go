package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/credential"
	"fleetia-access/internal/security"
)

// CredentialHandler serves the internal hash/verify and encrypt/decrypt RPCs
// used by the login channels. Not exposed to end users.
type CredentialHandler struct {
	service *credential.Service
}

func NewCredentialHandler(service *credential.Service) *CredentialHandler {
	return &CredentialHandler{service: service}
}

type hashInput struct {
	Value string `json:"value"`
}

func (h *CredentialHandler) Hash(c *fiber.Ctx) error {
	var input hashInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "value is required"})
	}

	hash, err := h.service.HashPIN(input.Value)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"hash": hash})
}

type verifyInput struct {
	Value string `json:"value"`
	Hash  string `json:"hash"`
}

func (h *CredentialHandler) Verify(c *fiber.Ctx) error {
	var input verifyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Value == "" || input.Hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "value and hash are required"})
	}

	valid, err := h.service.VerifyPIN(input.Hash, input.Value)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed hash"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"valid": valid})
}

type encryptInput struct {
	Payload string `json:"payload"`
}

func (h *CredentialHandler) Encrypt(c *fiber.Ctx) error {
	var input encryptInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Payload == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payload is required"})
	}

	sealed, err := h.service.EncryptPayload(input.Payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"encrypted": sealed})
}

type decryptInput struct {
	Encrypted string `json:"encrypted"`
}

func (h *CredentialHandler) Decrypt(c *fiber.Ctx) error {
	var input decryptInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.Encrypted == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "encrypted is required"})
	}

	plaintext, err := h.service.DecryptPayload(input.Encrypted)
	if err != nil {
		if errors.Is(err, security.ErrInvalidCiphertext) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"payload": plaintext})
}
