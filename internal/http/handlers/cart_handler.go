package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "isdn/internal/log"
	"isdn/internal/services"
	"isdn/internal/validate"
)

type CartHandler struct {
	Cart   *services.CartService
	Orders *services.OrderService
}

// GET /api/v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	v, err := h.Cart.View(c.UserContext(), s.ID)
	if err != nil {
		return fail(c, "cart.view.fail", err, nil)
	}
	return c.JSON(v)
}

// POST /api/v1/cart {"product_id": "...", "qty": 2}
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"product_id" form:"product_id"`
		Qty       int    `json:"qty" form:"qty"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	pid, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id")
	}
	qty := validate.Qty(strconv.Itoa(in.Qty))
	s, _ := CurrentSession(c)
	if err := h.Cart.Add(c.UserContext(), s.ID, pid, qty); err != nil {
		return fail(c, "cart.add.fail", err, map[string]any{"product_id": pid, "qty": qty})
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": pid, "qty": qty})
	return h.View(c)
}

// DELETE /api/v1/cart/:productID removes one unit.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productID"))
	if !ok {
		return badRequest(c, "product_id")
	}
	s, _ := CurrentSession(c)
	if err := h.Cart.Remove(c.UserContext(), s.ID, pid); err != nil {
		return fail(c, "cart.remove.fail", err, map[string]any{"product_id": pid})
	}
	applog.Info(c, "cart.remove", map[string]any{"product_id": pid})
	return h.View(c)
}

// DELETE /api/v1/cart empties the cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	s, _ := CurrentSession(c)
	if err := h.Cart.Clear(c.UserContext(), s.ID); err != nil {
		return fail(c, "cart.clear.fail", err, nil)
	}
	applog.Info(c, "cart.clear", nil)
	return h.View(c)
}

// POST /api/v1/checkout {"rdc": "Colombo", "method": "Card"}
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var in struct {
		RDC    string `json:"rdc" form:"rdc"`
		Method string `json:"method" form:"method"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	s, _ := CurrentSession(c)
	o, err := h.Orders.Checkout(c.UserContext(), s, in.RDC, in.Method)
	if err != nil {
		return fail(c, "order.place.fail", err, map[string]any{"rdc": in.RDC, "method": in.Method})
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "total": o.Total, "rdc": o.RDC})
	return c.Status(fiber.StatusCreated).JSON(o)
}
