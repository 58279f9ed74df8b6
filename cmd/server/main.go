package main

import (
	"context"
	"log"
	"os"
	"runtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campus-queue-backend/internal/config"
	"campus-queue-backend/internal/http/handler"
	"campus-queue-backend/internal/http/middleware"
	"campus-queue-backend/internal/monitoring"
	"campus-queue-backend/internal/queue"
	"campus-queue-backend/internal/realtime"
	"campus-queue-backend/internal/storage"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	config.LoadEnv()
	config.InitRedis()
	config.InitDB()
	defer config.CloseDB()

	// Queue engine wiring.
	dir := queue.NewDirectory()
	numbers := queue.NewRedisNumberSource(config.Redis)
	persister := storage.NewMySQLPersister(config.DB)
	store := queue.NewStore(numbers, persister, dir)
	router := queue.NewRouter(store, dir)

	hub := realtime.NewHub()
	broadcaster := realtime.NewBroadcaster(hub, store)
	processor := queue.NewProcessor(store, dir, router, broadcaster)

	monitoring.NewMonitor(router)
	store.StartDailyReset(context.Background(), config.GetEnv("RESET_AT", "00:00"))

	h := &handler.Handler{
		Store:       store,
		Directory:   dir,
		Router:      router,
		Processor:   processor,
		Hub:         hub,
		Broadcaster: broadcaster,
		OpensAt:     config.GetEnv("OPENS_AT", "08:00"),
		ClosesAt:    config.GetEnv("CLOSES_AT", "17:00"),
	}
	h.WireRoomMetrics()

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Queue sync engine running",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public: login, kiosk issuance, pull fallback, directory reads.
	app.Post("/san/login", handler.Login)
	app.Post("/api/queue/issue", h.Issue)
	app.Get("/api/queue/:department/snapshot", h.GetSnapshot)
	app.Get("/api/queue/:department/window/:windowId/snapshot", h.GetWindowSnapshot)
	app.Get("/api/queue/:department/services", h.GetServices)

	// Websocket rooms: department-wide displays and per-window consoles.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/queue/:department", websocket.New(h.DepartmentWS))
	app.Get("/ws/queue/:department/:windowId", websocket.New(h.WindowWS))

	// Base API (login required).
	api := app.Group("/api", middleware.JWTAuth())

	api.Post("/logout", handler.Logout)

	// ===== ADMIN (WINDOW CONSOLE) ROUTES =====
	api.Post("/queue/call-next", middleware.RoleAuth("admin", "super_admin"), h.CallNext)
	api.Post("/queue/complete", middleware.RoleAuth("admin", "super_admin"), h.Complete)
	api.Post("/queue/recall", middleware.RoleAuth("admin", "super_admin"), h.Recall)
	api.Post("/queue/transfer", middleware.RoleAuth("admin", "super_admin"), h.Transfer)
	api.Get("/queue/:department/windows", middleware.RoleAuth("admin", "super_admin"), h.GetWindows)

	// ===== SUPER ADMIN ROUTES =====
	api.Post("/services", middleware.RoleAuth("super_admin"), h.CreateService)
	api.Put("/services/:id", middleware.RoleAuth("super_admin"), h.UpdateService)
	api.Post("/windows", middleware.RoleAuth("super_admin"), h.CreateWindow)
	api.Put("/windows/:id", middleware.RoleAuth("super_admin"), h.UpdateWindow)
	api.Post("/queue/enabled", middleware.RoleAuth("super_admin"), h.SetEnabled)
	api.Post("/queue/reset-day", middleware.RoleAuth("super_admin"), h.ResetDay)

	addr := os.Getenv("APP_HOST") + ":" + config.GetEnv("APP_PORT", "8080")
	log.Println("Server running at", addr)
	log.Fatal(app.Listen(addr))
}
