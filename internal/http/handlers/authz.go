package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"isdn/internal/domain"
	applog "isdn/internal/log"
	"isdn/internal/services"
)

const sessionCookie = "sid"

// sessionID reads the sid cookie, falling back to an "Authorization: Bearer <sid>" header.
func sessionID(c *fiber.Ctx) string {
	if sid := c.Cookies(sessionCookie); sid != "" {
		return sid
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// CurrentSession returns the session a guard attached to the request.
func CurrentSession(c *fiber.Ctx) (domain.Session, bool) {
	s, ok := c.Locals("session").(domain.Session)
	return s, ok
}

// resolve finds the request session, reusing one already attached.
func resolve(c *fiber.Ctx, auth *services.AuthService) (domain.Session, bool) {
	if s, ok := CurrentSession(c); ok {
		return s, true
	}
	s, err := auth.Current(c.UserContext(), sessionID(c))
	if err != nil {
		return domain.Session{}, false
	}
	c.Locals("session", s)
	return s, true
}

// Attach puts the session, if any, into Locals so templates can show who is logged in.
func Attach(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sessionID(c) != "" {
			resolve(c, auth)
		}
		return c.Next()
	}
}

func deniedAction(roles []domain.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return "access.denied." + strings.Join(names, "|")
}

// RequirePage guards an HTML route. No session redirects to /login, a role outside
// roles redirects to /dashboard. Nothing behind the guard runs on denial.
func RequirePage(auth *services.AuthService, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := resolve(c, auth)
		if !ok {
			applog.Security(c, deniedAction(roles), map[string]any{"reason": "no_session"})
			return c.Redirect("/login")
		}
		if !s.Allows(roles...) {
			applog.Security(c, deniedAction(roles), map[string]any{"reason": "role", "have": string(s.Role)})
			return c.Redirect("/dashboard")
		}
		return c.Next()
	}
}

// RequireAPI is RequirePage for JSON routes: 401 without a session, 403 for the wrong role.
// With no roles any logged-in session passes.
func RequireAPI(auth *services.AuthService, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := resolve(c, auth)
		if !ok {
			applog.Security(c, deniedAction(roles), map[string]any{"reason": "no_session"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		if len(roles) > 0 && !s.Allows(roles...) {
			applog.Security(c, deniedAction(roles), map[string]any{"reason": "role", "have": string(s.Role)})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
