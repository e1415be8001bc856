package handlers

import (
	"github.com/gofiber/fiber/v2"

	"isdn/internal/domain"
)

// Mount registers every page and API route. loginLimit, when non-nil, runs in front
// of both login endpoints.
func Mount(app fiber.Router, d *Deps, loginLimit fiber.Handler) {
	if loginLimit == nil {
		loginLimit = func(c *fiber.Ctx) error { return c.Next() }
	}
	auth := d.Auth
	admin, customer, driver, rdc := domain.RoleAdmin, domain.RoleCustomer, domain.RoleDriver, domain.RoleRDC

	// ---------- pages ----------
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/dashboard") })
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", loginLimit, d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)
	app.Get("/dashboard", d.AuthHandler.Dashboard)
	app.Get("/admin", RequirePage(auth, admin), d.DashboardHandler.Page)
	app.Get("/customer", RequirePage(auth, customer), d.DashboardHandler.Page)
	app.Get("/driver", RequirePage(auth, driver), d.DashboardHandler.Page)
	app.Get("/rdc", RequirePage(auth, rdc), d.DashboardHandler.Page)

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Post("/session", loginLimit, d.AuthHandler.CreateSession)
	api.Get("/session", RequireAPI(auth), d.AuthHandler.ShowSession)
	api.Delete("/session", RequireAPI(auth), d.AuthHandler.DeleteSession)
	api.Get("/overview", RequireAPI(auth), d.DashboardHandler.Overview)

	oh := d.OrderHandler
	api.Get("/orders", RequireAPI(auth), oh.List)
	api.Get("/orders/:id", RequireAPI(auth), oh.Get)
	api.Patch("/orders/:id/status", RequireAPI(auth, admin, driver, rdc), oh.UpdateStatus)
	api.Patch("/orders/:id/driver", RequireAPI(auth, admin, rdc), oh.AssignDriver)
	api.Delete("/orders/:id", RequireAPI(auth, admin), oh.Delete)
	api.Get("/transactions", RequireAPI(auth, admin, customer), oh.Transactions)
	api.Patch("/transactions/:id/status", RequireAPI(auth, admin), oh.UpdatePayment)

	ch := d.CartHandler
	api.Get("/cart", RequireAPI(auth, customer), ch.View)
	api.Post("/cart", RequireAPI(auth, customer), ch.Add)
	api.Delete("/cart", RequireAPI(auth, customer), ch.Clear)
	api.Delete("/cart/:productID", RequireAPI(auth, customer), ch.Remove)
	api.Post("/checkout", RequireAPI(auth, customer), ch.Checkout)

	mh := d.MissionHandler
	api.Get("/missions", RequireAPI(auth, admin, driver), mh.List)
	api.Post("/missions", RequireAPI(auth, admin), mh.Create)
	api.Patch("/missions/:id/progress", RequireAPI(auth, admin), mh.Progress)
	api.Patch("/missions/:id/status", RequireAPI(auth, admin), mh.Status)
	api.Post("/missions/:id/tasks/:seq/complete", RequireAPI(auth, admin), mh.CompleteTask)
	api.Delete("/missions/:id", RequireAPI(auth, admin), mh.Delete)

	dh := d.DirectoryHandler
	api.Get("/products", RequireAPI(auth), dh.Products)
	api.Get("/hubs", RequireAPI(auth), dh.Hubs)
	api.Get("/partners", RequireAPI(auth, admin, rdc), dh.Partners)
	api.Get("/drivers", RequireAPI(auth, admin, rdc), dh.Drivers)

	// ---------- admin API ----------
	adm := api.Group("/admin", RequireAPI(auth, admin))
	adm.Get("/live", mh.Live)
	adm.Get("/audit", d.AuditHandler.Recent)
	adm.Get("/orders/export", oh.ExportOrders)
	adm.Get("/transactions/export", oh.ExportTransactions)
	adm.Post("/products", dh.CreateProduct)
	adm.Put("/products/:id", dh.UpdateProduct)
	adm.Delete("/products/:id", dh.DeleteProduct)
	adm.Get("/staff", dh.Staff)
	adm.Post("/staff", dh.CreateStaff)
	adm.Put("/staff/:id", dh.UpdateStaff)
	adm.Delete("/staff/:id", dh.DeleteStaff)
	adm.Post("/partners", dh.CreatePartner)
	adm.Put("/partners/:id", dh.UpdatePartner)
	adm.Post("/partners/:id/audits", dh.AddAudit)
	adm.Delete("/partners/:id", dh.DeletePartner)
	adm.Post("/drivers", dh.CreateDriver)
	adm.Put("/drivers/:id", dh.UpdateDriver)
	adm.Delete("/drivers/:id", dh.DeleteDriver)
	adm.Delete("/users/:id", d.AuthHandler.DeleteUser)
	adm.Post("/hubs", dh.CreateHub)
	adm.Delete("/hubs/:id", dh.DeleteHub)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
}
