package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"smarttrade/internal/config"
	"smarttrade/internal/http/handlers"
	applog "smarttrade/internal/log"
	"smarttrade/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	deps := handlers.NewDeps(db, cfg)

	engine := html.New("./web/templates", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong",
			})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded, retry soon",
			})
		},
	}))

	// ---------- Routes ----------
	app.Get("/", deps.ReportHandler.Home)

	api := app.Group("/api/v1")

	api.Get("/products", deps.ProductHandler.List)
	api.Post("/products", deps.ProductHandler.Create)
	api.Get("/products/low-stock", deps.ProductHandler.LowStock)
	api.Get("/products/out-of-stock", deps.ProductHandler.OutOfStock)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Put("/products/:id", deps.ProductHandler.Update)
	api.Delete("/products/:id", deps.ProductHandler.Delete)

	api.Post("/sales", deps.SaleHandler.Record)
	api.Get("/sales", deps.SaleHandler.List)
	api.Get("/sales/:id", deps.SaleHandler.Detail)

	api.Get("/reports/dashboard", deps.ReportHandler.Dashboard)
	api.Get("/reports/sales", deps.ReportHandler.Sales)

	api.Get("/sync/status", deps.SyncHandler.Status)
	api.Post("/sync/run", deps.SyncHandler.Run)

	api.Get("/settings", deps.SettingsHandler.List)
	api.Get("/settings/:key", deps.SettingsHandler.Get)
	api.Put("/settings/:key", deps.SettingsHandler.Put)
	api.Post("/pin", deps.SettingsHandler.SetPIN)
	api.Post("/pin/verify", deps.SettingsHandler.VerifyPIN)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(404).JSON(fiber.Map{"error": "not found"})
		}
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	// ---------- Background sync ----------
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.SyncEnabled() {
		go deps.Drainer.Run(ctx)
	} else {
		log.Println("[sync] no REMOTE_URL configured, running local-only")
	}

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
