package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swapsphere/swapsphere-api/internal/config"
	"github.com/swapsphere/swapsphere-api/internal/db"
	"github.com/swapsphere/swapsphere-api/internal/email"
	"github.com/swapsphere/swapsphere-api/internal/logger"
	"github.com/swapsphere/swapsphere-api/internal/services/auth"
	"github.com/swapsphere/swapsphere-api/internal/services/chat"
	"github.com/swapsphere/swapsphere-api/internal/services/exchange"
	"github.com/swapsphere/swapsphere-api/internal/services/item"
	"github.com/swapsphere/swapsphere-api/internal/services/purchase"
	"github.com/swapsphere/swapsphere-api/internal/services/rating"
	"github.com/swapsphere/swapsphere-api/internal/services/saved"
	"github.com/swapsphere/swapsphere-api/internal/services/upload"
	ws "github.com/swapsphere/swapsphere-api/internal/websocket"
)

func main() {
	logger.SetupDefault(os.Stdout)

	cfg := config.LoadConfig()

	if err := db.InitDB(cfg); err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:      "SwapSphere API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	var mailer email.Sender
	if cfg.AppEnv == "development" {
		mailer = email.LogSender{}
	} else {
		fileSender, err := email.NewFileSender("./mail")
		if err != nil {
			slog.Error("failed to initialize mail sender", "error", err)
			os.Exit(1)
		}
		mailer = fileSender
	}

	wsManager := ws.NewManager()
	defer wsManager.Shutdown()

	authService := auth.NewAuthService(cfg, mailer)
	itemService := item.NewItemService(cfg)
	exchangeService := exchange.NewExchangeService(cfg, wsManager)
	purchaseService := purchase.NewPurchaseService(cfg, wsManager)
	ratingService := rating.NewRatingService(cfg)
	chatService := chat.NewChatService(cfg, wsManager)
	savedService := saved.NewSavedService(cfg)

	uploadService, err := upload.NewUploadService(cfg)
	if err != nil {
		slog.Error("failed to initialize upload service", "error", err)
		os.Exit(1)
	}

	authService.SetupRoutes(app)
	itemService.SetupRoutes(app)
	exchangeService.SetupRoutes(app)
	purchaseService.SetupRoutes(app)
	ratingService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	savedService.SetupRoutes(app)
	uploadService.SetupRoutes(app)

	app.Get("/ws", adaptor.HTTPHandler(ws.Handler(wsManager, authService.GetJWTService())))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "connected_users": wsManager.ConnectedUsers()})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down")
		wsManager.Shutdown()
		if err := app.Shutdown(); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "addr", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
