package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
)

const sessionKey = "session"

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession rejects requests without a valid, unrevoked bearer token
// and stores the resulting *domain.Session in Locals.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return errUnauthorized(c, "Authentication required")
		}
		sess, err := deps.Auth.Authenticate(c.UserContext(), tok)
		if err != nil {
			return errUnauthorized(c, "Invalid or expired token")
		}
		c.Locals(sessionKey, sess)
		c.SetUserContext(logging.WithLogger(c.UserContext(),
			logging.FromContext(c.UserContext()).With("user_id", sess.UserID)))
		return c.Next()
	}
}

// sessionFrom returns the session set by RequireSession, or nil.
func sessionFrom(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(sessionKey).(*domain.Session)
	return sess
}
