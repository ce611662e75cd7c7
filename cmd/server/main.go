package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/contentflow/configs"
	"github.com/maheshrc27/contentflow/internal/api/handlers"
	"github.com/maheshrc27/contentflow/internal/api/middleware"
	"github.com/maheshrc27/contentflow/internal/app"
	"github.com/maheshrc27/contentflow/internal/queue"
	"github.com/maheshrc27/contentflow/internal/service"
	"github.com/maheshrc27/contentflow/pkg/logging"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync()
	zlog := logging.GetLogger()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		zlog.Fatal("Database is unreachable", zap.Error(err))
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	components := app.Build(cfg, db)
	enqueuer := queue.NewEnqueuer(client)
	postService := service.NewPostService(components.Posts, enqueuer)

	r2Service, err := service.NewR2Service(context.Background(), cfg.R2)
	if err != nil {
		zlog.Fatal("Failed to configure object storage", zap.Error(err))
	}
	mediaService := service.NewMediaService(r2Service)

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			zlog.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	fiberApp.Use(logger.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	health := handlers.NewHealthHandler(db)
	fiberApp.Get("/health", health.Health)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	api := fiberApp.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	admin := middleware.RequireRole(service.RoleAdmin)

	publish := handlers.NewPublishHandler(components.Delivery)
	api.Post("/publish", admin, publish.Publish)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/:id/submit", admin, post.Submit)
	api.Post("/posts/:id/approve", post.Approve)
	api.Post("/posts/:id/request-changes", post.RequestChanges)
	api.Post("/posts/:id/reject", post.Reject)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media", admin, media.Upload)

	jobs := handlers.NewJobsHandler(components.TokenRefresh, components.OverduePosts)
	api.Post("/jobs/refresh-tokens", admin, jobs.RefreshTokens)
	api.Post("/jobs/publish-overdue", admin, jobs.PublishOverdue)

	// queue
	queueW := queue.NewQueue(components.Delivery)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.Jobs.Concurrency,
	})
	go func() {
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		zlog.Info("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			zlog.Fatal("Could not start Asynq server", zap.Error(err))
		}
	}()

	// cron jobs, off when an external scheduler calls the job endpoints
	var c *cron.Cron
	if cfg.Jobs.CronEnabled {
		c = cron.New()
		if _, err := c.AddFunc(cfg.Jobs.ScanSchedule, func() {
			if _, err := components.OverduePosts.Run(context.Background()); err != nil {
				zlog.Error("scheduled overdue scan failed", zap.Error(err))
			}
		}); err != nil {
			zlog.Fatal("Invalid JOBS_SCAN_SCHEDULE", zap.Error(err))
		}
		if _, err := c.AddFunc(cfg.Jobs.RefreshSchedule, func() {
			if _, err := components.TokenRefresh.Run(context.Background()); err != nil {
				zlog.Error("scheduled token refresh failed", zap.Error(err))
			}
		}); err != nil {
			zlog.Fatal("Invalid JOBS_REFRESH_SCHEDULE", zap.Error(err))
		}
		c.Start()
	}

	go func() {
		if err := fiberApp.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zlog.Info("Server is running", zap.String("port", cfg.Port))

	gracefulShutdown(fiberApp, server, c)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(fiberApp *fiber.App, server *asynq.Server, c *cron.Cron) {
	zlog := logging.GetLogger()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	zlog.Info("Shutting down server...")

	if c != nil {
		<-c.Stop().Done()
	}
	server.Shutdown()

	if err := fiberApp.Shutdown(); err != nil {
		zlog.Error("Failed to shut down server", zap.Error(err))
	}
	zlog.Info("Server shutdown complete.")
}
