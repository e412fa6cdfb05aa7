package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/audit"
	auditdomain "fleetia-access/internal/audit/domain"
	"fleetia-access/internal/blacklist"
	blacklistdomain "fleetia-access/internal/blacklist/domain"
	"fleetia-access/internal/ratelimit"
	"fleetia-access/internal/security"
	"fleetia-access/internal/server/reqctx"
	"fleetia-access/internal/session"
	"fleetia-access/internal/session/domain"
	"fleetia-access/internal/token"
)

type SessionHandler struct {
	sessions  *session.Manager
	tokens    *token.Service
	blacklist *blacklist.Registry
	throttle  ratelimit.CreationThrottle
	audit     audit.Recorder
}

func NewSessionHandler(sessions *session.Manager, tokens *token.Service, registry *blacklist.Registry, throttle ratelimit.CreationThrottle, recorder audit.Recorder) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens, blacklist: registry, throttle: throttle, audit: recorder}
}

type createInput struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	UserType  string `json:"user_type"`
	DriverID  string `json:"driver_id"`
	StudentID string `json:"student_id"`
}

// Create opens a new session for the subject: issues a token pair, stores the
// session row with the client's fingerprint, and records a login event.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var input createInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	if h.throttle != nil {
		allowed, err := h.throttle.Allow(c.UserContext(), input.UserID)
		if err == nil && !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many sessions created, slow down"})
		}
	}

	subject := security.Subject{
		UserID:    input.UserID,
		FullName:  input.FullName,
		Email:     input.Email,
		Role:      input.Role,
		UserType:  input.UserType,
		DriverID:  input.DriverID,
		StudentID: input.StudentID,
	}
	pair, err := h.tokens.IssuePair(subject)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	meta, _ := reqctx.MetaFrom(c.UserContext())
	sess, err := h.sessions.Create(c.UserContext(), session.CreateInput{
		Subject:               subject,
		SourceAddress:         meta.SourceAddress,
		ClientAgent:           meta.ClientAgent,
		Locale:                meta.Locale,
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.record(c, audit.Entry{
		EventType: auditdomain.EventLogin,
		Severity:  auditdomain.SeverityLow,
		Success:   true,
		UserID:    sess.UserID,
		Email:     sess.Email,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id":    sess.ID,
		"session_token": sess.SessionToken,
		"user":          userJSON(sess),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type validateInput struct {
	SessionToken string `json:"session_token"`
}

// Validate checks a presented session token end to end: revocation, session
// lookup and expiry, fingerprint, then a coalesced heartbeat. Plain lookup
// failures are not logged as security events to avoid flooding; a suspicious
// fingerprint is.
func (h *SessionHandler) Validate(c *fiber.Ctx) error {
	var input validateInput
	_ = c.BodyParser(&input)
	tok := input.SessionToken
	if tok == "" {
		tok = reqctx.SessionToken(c)
	}
	if tok == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no session token provided"})
	}

	revoked, err := h.blacklist.IsRevoked(c.UserContext(), tok, blacklistdomain.TypeSessionToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if revoked {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session revoked"})
	}

	sess, err := h.sessions.Validate(c.UserContext(), tok)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, session.ErrInvalidSession), errors.Is(err, session.ErrSessionExpired):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	meta, _ := reqctx.MetaFrom(c.UserContext())
	result := session.ValidateFingerprint(sess, meta.SourceAddress, meta.ClientAgent, meta.Locale)
	if result.Suspicious {
		h.record(c, audit.Entry{
			EventType: auditdomain.EventSuspiciousActivity,
			Severity:  auditdomain.SeverityHigh,
			UserID:    sess.UserID,
			Details:   map[string]any{"session_id": sess.ID, "changes": result.Changes},
		})
		_ = h.sessions.Delete(c.UserContext(), sess.ID)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session terminated, re-authentication required"})
	}

	_ = h.sessions.Heartbeat(c.UserContext(), sess)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": userJSON(sess)})
}

// ListActive returns the authenticated subject's sessions for self-service
// review, expired rows included and flagged.
func (h *SessionHandler) ListActive(c *fiber.Ctx) error {
	sess := reqctx.Session(c)
	if sess == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	rows, err := h.sessions.ListActive(c.UserContext(), sess.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"sessions": rows})
}

// Logout revokes the session's tokens and deletes the session row. The three
// revocations are independent and best-effort; the session delete is the
// authoritative logged-out signal.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	sess := reqctx.Session(c)
	if sess == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
	}

	ctx := c.UserContext()
	_ = h.blacklist.Revoke(ctx, sess.SessionToken, blacklistdomain.TypeSessionToken, sess.UserID, "logout")
	if sess.AccessToken != "" {
		_ = h.blacklist.Revoke(ctx, sess.AccessToken, blacklistdomain.TypeAccessToken, sess.UserID, "logout")
	}
	if sess.RefreshToken != "" {
		_ = h.blacklist.Revoke(ctx, sess.RefreshToken, blacklistdomain.TypeRefreshToken, sess.UserID, "logout")
	}

	if err := h.sessions.Delete(ctx, sess.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.record(c, audit.Entry{
		EventType: auditdomain.EventLogout,
		Severity:  auditdomain.SeverityLow,
		Success:   true,
		UserID:    sess.UserID,
		Email:     sess.Email,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

type deriveInput struct {
	SourceAddress string `json:"source_address"`
	ClientAgent   string `json:"client_agent"`
	Locale        string `json:"locale"`
}

// DeriveFingerprint computes the fingerprint for the given origin components.
func (h *SessionHandler) DeriveFingerprint(c *fiber.Ctx) error {
	var input deriveInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.SourceAddress == "" || input.ClientAgent == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "source_address and client_agent are required"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"fingerprint": security.DeriveFingerprint(input.SourceAddress, input.ClientAgent, input.Locale),
	})
}

type validateFingerprintInput struct {
	SessionID     string `json:"session_id"`
	SourceAddress string `json:"source_address"`
	ClientAgent   string `json:"client_agent"`
	Locale        string `json:"locale"`
}

// ValidateFingerprint checks the given origin components against the stored
// session fingerprint. A suspicious verdict terminates the session.
func (h *SessionHandler) ValidateFingerprint(c *fiber.Ctx) error {
	var input validateFingerprintInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.SessionID == "" || input.SourceAddress == "" || input.ClientAgent == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id, source_address and client_agent are required"})
	}

	sess, err := h.sessions.GetByID(c.UserContext(), input.SessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	result := session.ValidateFingerprint(sess, input.SourceAddress, input.ClientAgent, input.Locale)
	if result.Suspicious {
		h.record(c, audit.Entry{
			EventType: auditdomain.EventSuspiciousActivity,
			Severity:  auditdomain.SeverityHigh,
			UserID:    sess.UserID,
			Details:   map[string]any{"session_id": sess.ID, "changes": result.Changes},
		})
		_ = h.sessions.Delete(c.UserContext(), sess.ID)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *SessionHandler) record(c *fiber.Ctx, e audit.Entry) {
	if h.audit != nil {
		h.audit.Record(c.UserContext(), e)
	}
}

func userJSON(s *domain.Session) fiber.Map {
	return fiber.Map{
		"user_id":    s.UserID,
		"full_name":  s.FullName,
		"email":      s.Email,
		"role":       s.Role,
		"user_type":  s.UserType,
		"driver_id":  s.DriverID,
		"student_id": s.StudentID,
		"portal":     session.ResolvePortal(s.Role, s.UserType),
	}
}
