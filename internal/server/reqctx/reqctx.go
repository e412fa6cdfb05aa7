// Package reqctx carries per-request client metadata and the authenticated
// session between middleware and handlers.
package reqctx

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fleetia-access/internal/session/domain"
)

type ctxKey int

const metaKey ctxKey = 0

// SessionKey is the Fiber locals key under which the auth middleware stores
// the validated session.
const SessionKey = "session"

// Meta is the client origin captured by middleware from the transport. These
// fields are never trusted from request payloads.
type Meta struct {
	SourceAddress string
	ClientAgent   string
	Locale        string
}

// WithMeta returns a context carrying the client metadata.
func WithMeta(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, metaKey, m)
}

// MetaFrom returns the client metadata stored in ctx, if any.
func MetaFrom(ctx context.Context) (Meta, bool) {
	m, ok := ctx.Value(metaKey).(Meta)
	return m, ok
}

// ExtractMeta is an audit meta extractor reading from the request context.
// Missing fields are reported as "unknown".
func ExtractMeta(ctx context.Context) (sourceAddress, clientAgent string) {
	m, ok := MetaFrom(ctx)
	if !ok {
		return "unknown", "unknown"
	}
	if m.SourceAddress == "" {
		m.SourceAddress = "unknown"
	}
	if m.ClientAgent == "" {
		m.ClientAgent = "unknown"
	}
	return m.SourceAddress, m.ClientAgent
}

// Session returns the session stored by the auth middleware, or nil when the
// request is unauthenticated.
func Session(c *fiber.Ctx) *domain.Session {
	s, _ := c.Locals(SessionKey).(*domain.Session)
	return s
}

// SessionToken extracts the session token from the request, in order of
// precedence: Authorization bearer, X-Session-Token header, then a
// session_token cookie parsed manually from the raw Cookie header.
func SessionToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if tok, ok := strings.CutPrefix(auth, "Bearer "); ok && tok != "" {
			return tok
		}
	}
	if tok := c.Get("X-Session-Token"); tok != "" {
		return tok
	}
	return cookieValue(c.Get(fiber.HeaderCookie), "session_token")
}

func cookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}
