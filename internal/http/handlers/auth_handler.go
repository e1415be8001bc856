package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "isdn/internal/log"
	"isdn/internal/services"
	"isdn/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func setSessionCookie(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable behind TLS
		Expires:  expires,
	})
}

// GET /login
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if s, ok := resolve(c, h.Auth); ok {
		return c.Redirect(s.Role.Home())
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

func loginFailed(c *fiber.Ctx) error {
	c.Status(fiber.StatusUnauthorized)
	return render(c, "login", fiber.Map{"Err": "Invalid username or password"})
}

// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username, ok := validate.Username(c.FormValue("username"))
	pass := c.FormValue("password")
	if !ok || pass == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return loginFailed(c)
	}
	s, err := h.Auth.Login(c.UserContext(), username, pass)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "auth.login.fail", map[string]any{"username": username})
			return loginFailed(c)
		}
		applog.Error(c, "auth.login.error", err, map[string]any{"username": username})
		return page(c, fiber.StatusInternalServerError, "Could not sign you in. Please try again.")
	}
	setSessionCookie(c, s.ID, time.Time{})
	c.Locals("session", s)
	applog.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.Redirect(s.Role.Home())
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Invalidate(c.UserContext(), sessionID(c)); err != nil {
		applog.Error(c, "auth.logout.fail", err, nil)
	}
	setSessionCookie(c, "", time.Now().Add(-time.Hour))
	applog.Audit(c, "auth.logout", nil)
	return c.Redirect("/login")
}

// GET /dashboard sends each role to its own dashboard.
func (h *AuthHandler) Dashboard(c *fiber.Ctx) error {
	s, ok := resolve(c, h.Auth)
	if !ok {
		return c.Redirect("/login")
	}
	return c.Redirect(s.Role.Home())
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/v1/session returns a bearer token for API clients.
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	var in loginRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	username, ok := validate.Username(in.Username)
	if !ok || in.Password == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}
	s, err := h.Auth.Login(c.UserContext(), username, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "auth.login.fail", map[string]any{"username": username})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, "auth.login.error", err, map[string]any{"username": username})
	}
	c.Locals("session", s)
	applog.Audit(c, "auth.login.success", map[string]any{"username": username, "api": true})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": s.ID, "session": s, "home": s.Role.Home()})
}

// GET /api/v1/session
func (h *AuthHandler) ShowSession(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	return c.JSON(s)
}

// DELETE /api/v1/session
func (h *AuthHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.Auth.Invalidate(c.UserContext(), sessionID(c)); err != nil {
		return fail(c, "auth.logout.fail", err, nil)
	}
	applog.Audit(c, "auth.logout", map[string]any{"api": true})
	return c.SendStatus(fiber.StatusNoContent)
}

// DELETE /api/v1/admin/users/:id
func (h *AuthHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	s, _ := CurrentSession(c)
	u, err := h.Auth.DeleteUser(c.UserContext(), s, id)
	if err != nil {
		return fail(c, "users.delete.fail", err, map[string]any{"id": id})
	}
	applog.Audit(c, "users.delete", map[string]any{"id": id, "role": string(u.Role)})
	return c.SendStatus(fiber.StatusNoContent)
}
