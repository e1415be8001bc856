package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"isdn/internal/audit"
	"isdn/internal/cache"
	"isdn/internal/config"
	"isdn/internal/events"
	"isdn/internal/http/handlers"
	applog "isdn/internal/log"
	"isdn/internal/repos"
	"isdn/internal/services"
	"isdn/internal/simulation"
)

func main() {
	cfg := config.Load()

	closeLog, err := applog.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		applog.L().Fatal("log.init", zap.Error(err))
	}
	defer closeLog()
	lg := applog.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		lg.Fatal("db.open", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	// ---------- optional backends ----------
	var sessions services.SessionStore
	if cfg.Redis.Addr != "" {
		rs := cache.NewRedisSessions(cfg.Redis)
		if err := rs.Ping(ctx); err != nil {
			lg.Fatal("redis.ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rs.Close()
		sessions = rs
		lg.Info("sessions.redis", zap.String("addr", cfg.Redis.Addr))
	}

	var trail handlers.AuditTrail
	if cfg.Mongo.URI != "" {
		sink, err := audit.NewMongoSink(ctx, cfg.Mongo)
		if err != nil {
			lg.Warn("audit.mongo.unavailable", zap.Error(err))
		} else {
			applog.SetAuditSink(sink)
			trail = sink
			defer sink.Close(context.Background())
			lg.Info("audit.mongo", zap.String("db", cfg.Mongo.Database), zap.String("collection", cfg.Mongo.Collection))
		}
	}

	var pub events.Publisher
	if cfg.AMQP.URL != "" {
		a, err := events.DialAMQP(cfg.AMQP)
		if err != nil {
			lg.Warn("events.amqp.unavailable", zap.Error(err))
		} else {
			defer a.Close()
			pub = a
			lg.Info("events.amqp", zap.String("exchange", cfg.AMQP.Exchange))
		}
	}

	deps := handlers.NewDeps(db, sessions, pub)
	deps.AuditHandler.Trail = trail
	if err := deps.Missions.Load(ctx); err != nil {
		lg.Fatal("missions.load", zap.Error(err))
	}
	loop := &simulation.Loop{
		Board:    deps.Missions.Board,
		Source:   simulation.NewJitter(cfg.Simulation.Seed),
		Interval: cfg.Simulation.Interval,
	}
	go loop.Run(ctx)

	// ---------- app ----------
	engine := html.New(cfg.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			applog.Error(c, "server.error", err, map[string]any{"code": code})
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(code).JSON(fiber.Map{"error": "something went wrong, please retry"})
			}
			if rerr := c.Status(code).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(code).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
		BodyLimit: 1 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		// JSON API: cookie is SameSite=Lax, bearer clients carry no cookie.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	app.Use(handlers.Attach(deps.Auth))

	app.Static("/static", cfg.StaticDir)

	loginLimit := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, retry later"})
			}
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
	handlers.Mount(app, deps, loginLimit)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		<-ctx.Done()
		lg.Info("server.shutdown")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			lg.Warn("server.shutdown", zap.Error(err))
		}
	}()

	lg.Info("server.listen", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Error("server.listen", zap.Error(err))
	}
}
