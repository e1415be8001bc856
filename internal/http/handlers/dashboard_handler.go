package handlers

import (
	"github.com/gofiber/fiber/v2"

	"isdn/internal/domain"
	applog "isdn/internal/log"
	"isdn/internal/services"
)

// DashboardHandler renders the four role dashboards and their JSON twins.
type DashboardHandler struct {
	Dash *services.DashboardService
}

const dashboardRetry = "Could not load the dashboard. Please retry."

func (h *DashboardHandler) overview(c *fiber.Ctx) (any, string, error) {
	s, _ := CurrentSession(c)
	ctx := c.UserContext()
	switch s.Role {
	case domain.RoleAdmin:
		v, err := h.Dash.Admin(ctx)
		return v, "Admin", err
	case domain.RoleDriver:
		v, err := h.Dash.Driver(ctx, s)
		return v, "Driver", err
	case domain.RoleRDC:
		v, err := h.Dash.RDC(ctx, s)
		return v, "RDC", err
	}
	v, err := h.Dash.Customer(ctx, s)
	return v, "Customer", err
}

// GET /admin, /customer, /driver, /rdc
func (h *DashboardHandler) Page(c *fiber.Ctx) error {
	v, title, err := h.overview(c)
	if err != nil {
		applog.Error(c, "dashboard.load.fail", err, nil)
		return page(c, fiber.StatusInternalServerError, dashboardRetry)
	}
	return render(c, "dashboard", fiber.Map{"Title": title, "View": v})
}

// GET /api/v1/overview
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	v, _, err := h.overview(c)
	if err != nil {
		return fail(c, "dashboard.load.fail", err, nil)
	}
	return c.JSON(v)
}
