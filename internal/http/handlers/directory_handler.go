package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"isdn/internal/domain"
	applog "isdn/internal/log"
	"isdn/internal/services"
	"isdn/internal/validate"
)

// DirectoryHandler serves products, staff, partners, drivers and hubs.
type DirectoryHandler struct {
	Dir *services.DirectoryService
}

func list[T any](c *fiber.Ctx, action string, fetch func(ctx context.Context) ([]T, error)) error {
	rows, err := fetch(c.UserContext())
	if err != nil {
		return fail(c, action, err, nil)
	}
	return c.JSON(rows)
}

func (h *DirectoryHandler) remove(c *fiber.Ctx, entity string, del func(ctx context.Context, id string) error) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	if err := del(c.UserContext(), id); err != nil {
		return fail(c, entity+".delete.fail", err, map[string]any{"id": id})
	}
	applog.Audit(c, entity+".delete", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- products ----------

func (h *DirectoryHandler) Products(c *fiber.Ctx) error {
	return list(c, "products.list.fail", h.Dir.Products.List)
}

func (h *DirectoryHandler) CreateProduct(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Dir.CreateProduct(c.UserContext(), p)
	if err != nil {
		return fail(c, "products.create.fail", err, map[string]any{"sku": p.SKU})
	}
	applog.Audit(c, "products.create", map[string]any{"id": p.ID, "sku": p.SKU})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *DirectoryHandler) UpdateProduct(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	p.ID = c.Params("id")
	p, err := h.Dir.UpdateProduct(c.UserContext(), p)
	if err != nil {
		return fail(c, "products.update.fail", err, map[string]any{"id": p.ID})
	}
	applog.Audit(c, "products.update", map[string]any{"id": p.ID, "stock": p.Stock, "price": p.Price})
	return c.JSON(p)
}

func (h *DirectoryHandler) DeleteProduct(c *fiber.Ctx) error {
	return h.remove(c, "products", h.Dir.Products.Delete)
}

// ---------- staff ----------

func (h *DirectoryHandler) Staff(c *fiber.Ctx) error {
	return list(c, "staff.list.fail", h.Dir.Staff.List)
}

func (h *DirectoryHandler) CreateStaff(c *fiber.Ctx) error {
	var m domain.StaffMember
	if err := c.BodyParser(&m); err != nil {
		return badRequest(c, "body")
	}
	m, err := h.Dir.CreateStaff(c.UserContext(), m)
	if err != nil {
		return fail(c, "staff.create.fail", err, nil)
	}
	applog.Audit(c, "staff.create", map[string]any{"id": m.ID})
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *DirectoryHandler) UpdateStaff(c *fiber.Ctx) error {
	var m domain.StaffMember
	if err := c.BodyParser(&m); err != nil {
		return badRequest(c, "body")
	}
	m.ID = c.Params("id")
	m, err := h.Dir.UpdateStaff(c.UserContext(), m)
	if err != nil {
		return fail(c, "staff.update.fail", err, map[string]any{"id": m.ID})
	}
	applog.Audit(c, "staff.update", map[string]any{"id": m.ID, "status": m.Status})
	return c.JSON(m)
}

func (h *DirectoryHandler) DeleteStaff(c *fiber.Ctx) error {
	return h.remove(c, "staff", h.Dir.Staff.Delete)
}

// ---------- partners ----------

type partnerInput struct {
	Name          string  `json:"name"`
	Hub           string  `json:"hub"`
	Status        string  `json:"status"`
	Rating        float64 `json:"rating"`
	ContractStart string  `json:"contract_start"`
	ContractEnd   string  `json:"contract_end"`
}

func (in partnerInput) partner() (domain.RDCPartner, error) {
	start, err := domain.ParseTime(in.ContractStart)
	if err != nil {
		return domain.RDCPartner{}, err
	}
	end, err := domain.ParseTime(in.ContractEnd)
	if err != nil {
		return domain.RDCPartner{}, err
	}
	return domain.RDCPartner{
		Name: in.Name, Hub: in.Hub, Status: in.Status, Rating: in.Rating,
		ContractStart: start, ContractEnd: end,
	}, nil
}

func (h *DirectoryHandler) Partners(c *fiber.Ctx) error {
	return list(c, "partners.list.fail", h.Dir.Partners.List)
}

func (h *DirectoryHandler) CreatePartner(c *fiber.Ctx) error {
	var in partnerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := in.partner()
	if err == nil {
		p, err = h.Dir.CreatePartner(c.UserContext(), p)
	}
	if err != nil {
		return fail(c, "partners.create.fail", err, nil)
	}
	applog.Audit(c, "partners.create", map[string]any{"id": p.ID, "hub": p.Hub})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *DirectoryHandler) UpdatePartner(c *fiber.Ctx) error {
	var in partnerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := in.partner()
	if err == nil {
		p.ID = c.Params("id")
		p, err = h.Dir.UpdatePartner(c.UserContext(), p)
	}
	if err != nil {
		return fail(c, "partners.update.fail", err, map[string]any{"id": c.Params("id")})
	}
	applog.Audit(c, "partners.update", map[string]any{"id": p.ID, "status": p.Status})
	return c.JSON(p)
}

// POST /api/v1/partners/:id/audits {"date": "2025-10-01", "score": 90, "note": "..."}
func (h *DirectoryHandler) AddAudit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Date  string `json:"date"`
		Score int    `json:"score"`
		Note  string `json:"note"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	d, err := domain.ParseTime(in.Date)
	if err == nil {
		err = h.Dir.AddAudit(c.UserContext(), id, domain.PartnerAudit{Date: d, Score: in.Score, Note: in.Note})
	}
	if err != nil {
		return fail(c, "partners.audit.fail", err, map[string]any{"id": id})
	}
	applog.Audit(c, "partners.audit", map[string]any{"id": id, "score": in.Score})
	return c.SendStatus(fiber.StatusCreated)
}

func (h *DirectoryHandler) DeletePartner(c *fiber.Ctx) error {
	return h.remove(c, "partners", h.Dir.Partners.Delete)
}

// ---------- drivers ----------

func (h *DirectoryHandler) Drivers(c *fiber.Ctx) error {
	return list(c, "drivers.list.fail", h.Dir.Drivers.List)
}

func (h *DirectoryHandler) CreateDriver(c *fiber.Ctx) error {
	var in struct {
		domain.DriverUser
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	d, err := h.Dir.CreateDriver(c.UserContext(), in.DriverUser, in.Password)
	if err != nil {
		return fail(c, "drivers.create.fail", err, map[string]any{"username": in.Username})
	}
	applog.Audit(c, "drivers.create", map[string]any{"id": d.ID, "username": d.Username, "default_password": in.Password == ""})
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (h *DirectoryHandler) UpdateDriver(c *fiber.Ctx) error {
	var d domain.DriverUser
	if err := c.BodyParser(&d); err != nil {
		return badRequest(c, "body")
	}
	d.ID = c.Params("id")
	d, err := h.Dir.UpdateDriver(c.UserContext(), d)
	if err != nil {
		return fail(c, "drivers.update.fail", err, map[string]any{"id": d.ID})
	}
	applog.Audit(c, "drivers.update", map[string]any{"id": d.ID, "rdc_hub": d.RDCHub})
	return c.JSON(d)
}

func (h *DirectoryHandler) DeleteDriver(c *fiber.Ctx) error {
	return h.remove(c, "drivers", h.Dir.DeleteDriver)
}

// ---------- hubs ----------

func (h *DirectoryHandler) Hubs(c *fiber.Ctx) error {
	return list(c, "hubs.list.fail", h.Dir.Hubs.List)
}

func (h *DirectoryHandler) CreateHub(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	hub, err := h.Dir.CreateHub(c.UserContext(), in.Name)
	if err != nil {
		return fail(c, "hubs.create.fail", err, map[string]any{"name": in.Name})
	}
	applog.Audit(c, "hubs.create", map[string]any{"id": hub.ID})
	return c.Status(fiber.StatusCreated).JSON(hub)
}

func (h *DirectoryHandler) DeleteHub(c *fiber.Ctx) error {
	return h.remove(c, "hubs", h.Dir.Hubs.Delete)
}
