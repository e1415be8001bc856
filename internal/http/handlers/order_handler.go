package handlers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"isdn/internal/export"
	applog "isdn/internal/log"
	"isdn/internal/repos"
	"isdn/internal/services"
	"isdn/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// GET /api/v1/orders, scoped to what the caller may see.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	orders, err := h.Orders.List(c.UserContext(), s)
	if err != nil {
		return fail(c, "orders.list.fail", err, nil)
	}
	return c.JSON(orders)
}

// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	s, _ := CurrentSession(c)
	o, err := h.Orders.Get(c.UserContext(), s, id)
	if err != nil {
		return fail(c, "orders.get.fail", err, map[string]any{"order_id": id})
	}
	return c.JSON(o)
}

// PATCH /api/v1/orders/:id/status {"status": "..."}
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	s, _ := CurrentSession(c)
	ch, err := h.Orders.UpdateStatus(c.UserContext(), s, id, in.Status)
	if err != nil {
		return fail(c, "orders.status.fail", err, map[string]any{"order_id": id, "status": in.Status})
	}
	applog.Audit(c, "orders.status", map[string]any{"order_id": id, "from": string(ch.From), "to": string(ch.To)})
	return c.JSON(ch)
}

// PATCH /api/v1/orders/:id/driver {"driver_id": "..."}
func (h *OrderHandler) AssignDriver(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		DriverID string `json:"driver_id" form:"driver_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	if in.DriverID != "" {
		if _, ok := validate.ID(in.DriverID); !ok {
			return badRequest(c, "driver_id")
		}
	}
	s, _ := CurrentSession(c)
	if err := h.Orders.AssignDriver(c.UserContext(), s, id, in.DriverID); err != nil {
		return fail(c, "orders.assign.fail", err, map[string]any{"order_id": id, "driver_id": in.DriverID})
	}
	applog.Audit(c, "orders.assign", map[string]any{"order_id": id, "driver_id": in.DriverID})
	return c.JSON(fiber.Map{"order_id": id, "driver_id": in.DriverID})
}

// DELETE /api/v1/orders/:id
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Orders.Delete(c.UserContext(), id); err != nil {
		return fail(c, "orders.delete.fail", err, map[string]any{"order_id": id})
	}
	applog.Audit(c, "orders.delete", map[string]any{"order_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/transactions
func (h *OrderHandler) Transactions(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	txs, err := h.Orders.ListTransactions(c.UserContext(), s)
	if err != nil {
		return fail(c, "transactions.list.fail", err, nil)
	}
	return c.JSON(txs)
}

// PATCH /api/v1/transactions/:id/status
func (h *OrderHandler) UpdatePayment(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	st, err := h.Orders.SetPaymentStatus(c.UserContext(), id, in.Status)
	if err != nil {
		return fail(c, "transactions.status.fail", err, map[string]any{"tx_id": id})
	}
	applog.Audit(c, "transactions.status", map[string]any{"tx_id": id, "status": string(st)})
	return c.JSON(fiber.Map{"id": id, "status": st})
}

func sendCSV(c *fiber.Ctx, name string, body []byte) error {
	stamp := time.Now().Format("20060102")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`-`+stamp+`.csv"`)
	return c.Send(body)
}

// GET /api/v1/admin/orders/export
func (h *OrderHandler) ExportOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.Orders.List(c.UserContext(), repos.OrderFilter{})
	if err != nil {
		return fail(c, "orders.export.fail", err, nil)
	}
	var buf bytes.Buffer
	if err := export.OrdersCSV(&buf, orders); err != nil {
		return fail(c, "orders.export.fail", err, nil)
	}
	applog.Audit(c, "orders.export", map[string]any{"rows": len(orders)})
	return sendCSV(c, "isdn-orders", buf.Bytes())
}

// GET /api/v1/admin/transactions/export
func (h *OrderHandler) ExportTransactions(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	txs, err := h.Orders.ListTransactions(c.UserContext(), s)
	if err != nil {
		return fail(c, "transactions.export.fail", err, nil)
	}
	var buf bytes.Buffer
	if err := export.TransactionsCSV(&buf, txs); err != nil {
		return fail(c, "transactions.export.fail", err, nil)
	}
	applog.Audit(c, "transactions.export", map[string]any{"rows": len(txs)})
	return sendCSV(c, "isdn-transactions", buf.Bytes())
}
