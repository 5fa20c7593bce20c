package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"points-reward-system/config"
	"points-reward-system/database"
	"points-reward-system/handlers"
	"points-reward-system/middleware"
	"points-reward-system/services"
	"points-reward-system/utils"
	"points-reward-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// --- Services ---
	referralService := services.NewReferralService(db)
	ledgerService := services.NewLedgerService(db, referralService)
	userService := services.NewUserService(db, referralService)
	tweets := services.NewSyndicationClient(cfg.Twitter.SyndicationURL, cfg.Twitter.Timeout)
	rewardService := services.NewRewardService(db, ledgerService, userService, tweets, cfg.Twitter.RequiredTag)

	if err := rewardService.Achievements.SeedCatalog(); err != nil {
		log.Fatal("failed to seed achievements:", err)
	}

	// --- Rate limiting: Redis when configured, in-process otherwise ---
	var (
		limiter services.RateLimiter
		jobs    []services.MaintenanceJob
	)
	rdb, err := database.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal(err)
	}
	if rdb != nil {
		defer rdb.Close()
		limiter = services.NewRedisLimiter(rdb)
		log.Println("✅ Rate limiting backed by Redis")
	} else {
		mem := services.NewMemoryLimiter()
		limiter = mem
		jobs = append(jobs, services.LimiterSweepJob(mem))
		log.Println("⚠️  REDIS_ADDRESS not set, rate limits are per instance")
	}

	// --- Reconciliation ---
	if cfg.Reconciliation.Enabled {
		var uploader workers.ReportUploader
		if cfg.R2.Enabled() {
			r2, err := utils.NewR2Uploader(ctx, cfg.R2)
			if err != nil {
				log.Fatal("failed to initialize R2 client:", err)
			}
			uploader = r2
		}
		reconciler := workers.NewAuditReconciler(db, uploader, cfg.Reconciliation.Repair)
		jobs = append(jobs, reconciler.Job(cfg.Reconciliation.Interval))
	}

	scheduler, err := services.StartMaintenanceScheduler(ctx, jobs...)
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	// --- HTTP ---
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	origins := strings.Join(cfg.Server.Origins(), ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID, Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining",
		MaxAge:        86400,
	}))

	app.Use(middleware.GatewayAuthMiddleware(cfg.Gateway.ServiceToken))

	handlers.SetupHealthRoutes(app, db)
	handlers.SetupAuthRoutes(app, userService, limiter)
	handlers.SetupRewardRoutes(app, rewardService, limiter)
	handlers.SetupUserRoutes(app, userService, referralService, limiter)

	go func() {
		if err := app.Listen(cfg.Server.Address); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on %s", cfg.Server.Address)
	log.Printf("✅ CORS configured for origins: %s", origins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️  HTTP shutdown: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("⚠️  Scheduler shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
