// Package server assembles the Fiber application: middleware chain, route
// registration, and the health endpoint.
package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/audit"
	audithandler "fleetia-access/internal/audit/handler"
	auditrepo "fleetia-access/internal/audit/repository"
	"fleetia-access/internal/blacklist"
	blacklisthandler "fleetia-access/internal/blacklist/handler"
	"fleetia-access/internal/credential"
	credentialhandler "fleetia-access/internal/credential/handler"
	"fleetia-access/internal/ratelimit"
	ratelimithandler "fleetia-access/internal/ratelimit/handler"
	"fleetia-access/internal/session"
	sessionhandler "fleetia-access/internal/session/handler"
	"fleetia-access/internal/token"
	tokenhandler "fleetia-access/internal/token/handler"
	"fleetia-access/internal/twofactor"
	twofactorhandler "fleetia-access/internal/twofactor/handler"
)

// Pinger reports store reachability for the health endpoint (e.g. *pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the services the HTTP handlers are built from.
type Deps struct {
	Limiter   *ratelimit.Limiter
	Tokens    *token.Service
	Sessions  *session.Manager
	Blacklist *blacklist.Registry
	TwoFactor *twofactor.Service
	// Credentials serves the internal hash/verify and encrypt/decrypt RPCs.
	Credentials *credential.Service
	Audit       audit.Recorder
	AuditRepo   auditrepo.Repository
	// Throttle bounds session creation per subject. If nil, creation is unthrottled.
	Throttle ratelimit.CreationThrottle
	// Pinger is used by the health endpoint. If nil the store ping is skipped.
	Pinger Pinger
}

// New builds the Fiber app with the full middleware chain and all routes
// mounted under /api/v1.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(CORS())
	app.Use(ClientMeta())
	app.Use(GlobalThrottle(deps.Limiter))

	registerRoutes(app, deps)
	return app
}

func registerRoutes(app *fiber.App, deps Deps) {
	rl := ratelimithandler.NewRateLimitHandler(deps.Limiter)
	tk := tokenhandler.NewTokenHandler(deps.Tokens, deps.Blacklist)
	ss := sessionhandler.NewSessionHandler(deps.Sessions, deps.Tokens, deps.Blacklist, deps.Throttle, deps.Audit)
	bl := blacklisthandler.NewBlacklistHandler(deps.Blacklist)
	tf := twofactorhandler.NewTwoFactorHandler(deps.TwoFactor)
	ev := audithandler.NewAuditHandler(deps.Audit, deps.AuditRepo)
	cr := credentialhandler.NewCredentialHandler(deps.Credentials)

	authed := RequireSession(deps.Sessions, deps.Blacklist, deps.Audit)
	admin := RequireRole("admin")

	v1 := app.Group("/api/v1")
	v1.Get("/health", healthHandler(deps.Pinger))

	auth := v1.Group("/auth")
	auth.Post("/rate-limit/check", rl.Check)
	auth.Post("/rate-limit/reset", authed, admin, rl.Reset)

	auth.Post("/tokens", tk.Issue)
	auth.Post("/tokens/refresh", tk.Refresh)
	auth.Post("/tokens/revoked", bl.Check)

	auth.Post("/sessions", ss.Create)
	auth.Post("/sessions/validate", ss.Validate)
	auth.Get("/sessions", authed, ss.ListActive)
	auth.Delete("/sessions", authed, ss.Logout)

	auth.Post("/fingerprint", ss.DeriveFingerprint)
	auth.Post("/fingerprint/validate", ss.ValidateFingerprint)

	auth.Post("/2fa", authed, tf.Issue)
	auth.Post("/2fa/verify", authed, tf.Verify)

	auth.Post("/credentials/hash", cr.Hash)
	auth.Post("/credentials/verify", cr.Verify)
	auth.Post("/credentials/encrypt", cr.Encrypt)
	auth.Post("/credentials/decrypt", cr.Decrypt)

	auth.Post("/events", ev.Log)
	auth.Get("/events", authed, admin, ev.ListRecent)
}

func healthHandler(pinger Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pinger != nil {
			if err := pinger.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "degraded",
					"store":  err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}
