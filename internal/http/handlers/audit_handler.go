package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"isdn/internal/audit"
	"isdn/internal/validate"
)

// AuditTrail reads back stored audit events.
type AuditTrail interface {
	Recent(ctx context.Context, action string, limit int64) ([]audit.Record, error)
}

type AuditHandler struct {
	Trail AuditTrail
}

// GET /api/v1/admin/audit?action=orders.status&limit=50
func (h *AuditHandler) Recent(c *fiber.Ctx) error {
	if h.Trail == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "audit trail not configured"})
	}
	limit := int64(c.QueryInt("limit", 50))
	if limit < 1 || limit > 500 {
		return badRequest(c, "limit")
	}
	action := c.Query("action")
	if action != "" && !validate.Action(action) {
		return badRequest(c, "action")
	}
	recs, err := h.Trail.Recent(c.UserContext(), action, limit)
	if err != nil {
		return fail(c, "audit.list.fail", err, map[string]any{"action": action})
	}
	if recs == nil {
		recs = []audit.Record{}
	}
	return c.JSON(fiber.Map{"records": recs})
}
