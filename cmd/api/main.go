package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/matanchen1/voucher-manager/internal/config"
	"github.com/matanchen1/voucher-manager/internal/handler"
	"github.com/matanchen1/voucher-manager/internal/notifier"
	"github.com/matanchen1/voucher-manager/internal/repository"
	"github.com/matanchen1/voucher-manager/internal/service"
	"github.com/matanchen1/voucher-manager/internal/validator"
	"github.com/matanchen1/voucher-manager/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Voucher Manager",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB body limit
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.FrontendOrigin,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	validate := validator.New()

	// Layered wiring: repositories -> service -> handlers
	couponRepo := repository.NewCouponRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	couponService := service.NewCouponService(pool, couponRepo, usageRepo, cfg.Coupon.DefaultCurrency)
	couponHandler := handler.NewCouponHandler(couponService, validate, cfg.Coupon.RecentLimit)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)

	// Static coupon routes must register before /coupons/:id.
	app.Get("/coupons/recent", couponHandler.RecentCoupons)
	app.Get("/coupons/stats/summary", couponHandler.StatsSummary)
	app.Get("/coupons", couponHandler.ListCoupons)
	app.Get("/coupons/:id", couponHandler.GetCoupon)
	app.Post("/coupons", couponHandler.CreateCoupon)
	app.Put("/coupons/:id/use", couponHandler.UseCoupon)
	app.Put("/coupons/:id", couponHandler.UpdateCoupon)
	app.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	// Expiring-coupon scan (read-and-log only)
	var scan *notifier.Notifier
	if cfg.Notifier.Enabled {
		scan = notifier.New(couponRepo, cfg.Notifier.Schedule)
		if err := scan.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start expiry scan")
		}
	}

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	if scan != nil {
		scan.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
