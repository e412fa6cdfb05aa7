package server

import (
	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/audit"
	auditdomain "fleetia-access/internal/audit/domain"
	"fleetia-access/internal/blacklist"
	blacklistdomain "fleetia-access/internal/blacklist/domain"
	"fleetia-access/internal/ratelimit"
	"fleetia-access/internal/server/reqctx"
	"fleetia-access/internal/session"
)

// CORS answers preflight requests with an empty 204 and attaches permissive
// cross-origin headers to everything else.
func CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, X-Session-Token")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

// ClientMeta captures the caller's source address, agent, and locale from the
// transport and stores them on the request context for services and the audit
// logger. Payload-supplied values never override these.
func ClientMeta() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(reqctx.WithMeta(c.UserContext(), reqctx.Meta{
			SourceAddress: c.IP(),
			ClientAgent:   string(c.Request().Header.UserAgent()),
			Locale:        c.Get(fiber.HeaderAcceptLanguage),
		}))
		return c.Next()
	}
}

// GlobalThrottle applies the per-source-address request limit to every route.
// The identifier is the caller's address suffixed with "_global" so the
// counter is shared across all endpoints.
func GlobalThrottle(limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := limiter.Check(c.UserContext(), c.IP()+"_global", ratelimit.AttemptAPIRequest, ratelimit.GlobalAPIPolicy)
		if err != nil {
			// A broken throttle store must not take the API down with it.
			return c.Next()
		}
		if !res.Allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		}
		return c.Next()
	}
}

// RequireSession authenticates the request from its session token: revocation
// check, session validation, fingerprint check, then a coalesced heartbeat.
// The validated session is stored in locals for handlers. A suspicious
// fingerprint terminates the session and fails the request.
func RequireSession(sessions *session.Manager, registry *blacklist.Registry, recorder audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := reqctx.SessionToken(c)
		if tok == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
		}

		revoked, err := registry.IsRevoked(c.UserContext(), tok, blacklistdomain.TypeSessionToken)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if revoked {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session revoked"})
		}

		sess, err := sessions.Validate(c.UserContext(), tok)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
		}

		meta, _ := reqctx.MetaFrom(c.UserContext())
		result := session.ValidateFingerprint(sess, meta.SourceAddress, meta.ClientAgent, meta.Locale)
		if result.Suspicious {
			if recorder != nil {
				recorder.Record(c.UserContext(), audit.Entry{
					EventType: auditdomain.EventSuspiciousActivity,
					Severity:  auditdomain.SeverityHigh,
					UserID:    sess.UserID,
					Details:   map[string]any{"session_id": sess.ID, "changes": result.Changes},
				})
			}
			_ = sessions.Delete(c.UserContext(), sess.ID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session terminated, re-authentication required"})
		}

		_ = sessions.Heartbeat(c.UserContext(), sess)

		c.Locals(reqctx.SessionKey, sess)
		return c.Next()
	}
}

// RequireRole admits only subjects whose session carries the given role.
// Mount after RequireSession.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := reqctx.Session(c)
		if sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
		}
		if sess.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}
		return c.Next()
	}
}
