package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/postcraft/configs"
	"github.com/maheshrc27/postcraft/internal/api/handlers"
	"github.com/maheshrc27/postcraft/internal/api/middleware"
	"github.com/maheshrc27/postcraft/internal/database"
	job "github.com/maheshrc27/postcraft/internal/jobs"
	"github.com/maheshrc27/postcraft/internal/queue"
	"github.com/maheshrc27/postcraft/internal/repository"
	"github.com/maheshrc27/postcraft/internal/service"
	"github.com/maheshrc27/postcraft/internal/timezone"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	_ "time/tzdata"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer closeDB(db)

	if err := database.RunMigrations(ctx, db); err != nil {
		fatal("failed to run migrations", err)
	}

	serverLoc, err := timezone.LoadServerLocation(cfg.ServerTimezone)
	if err != nil {
		fatal("invalid SERVER_TIMEZONE", err)
	}
	calendar := timezone.NewCalendar(serverLoc, time.Now)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("unhandled request error", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.TimezoneHeader,
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db, postRepo)
	settingsRepo := repository.NewSettingsRepository(db)
	reconciliationRepo := repository.NewPublishReconciliationRepository(db)

	aiService := service.NewAIService(*cfg)
	settingsService := service.NewSettingsService(settingsRepo)
	postService := service.NewPostService(postRepo, scheduledPostRepo, aiService)
	scheduleService := service.NewScheduleService(postRepo, scheduledPostRepo, settingsService, calendar)

	var archiver job.SummaryArchiver
	if cfg.ArchiveEnabled() {
		archiver = service.NewR2Service(*cfg)
	}
	sweeper := job.NewDuePostSweeper(cfg.Sweep, scheduledPostRepo, reconciliationRepo, archiver, time.Now)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	cronHandler := handlers.NewCronHandler(sweeper, reconciliationRepo)
	cronAPI := app.Group("/api/cron", middleware.CronSecret(cfg.CronSecret))
	cronAPI.Get("/process-scheduled-posts", cronHandler.ProcessScheduledPosts)
	cronAPI.Post("/process-scheduled-posts", cronHandler.ProcessScheduledPosts)
	cronAPI.Get("/reconciliations", cronHandler.ListReconciliations)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	api.Use(middleware.ViewerTimezone())

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/preferences", settings.GetPreferences)
	api.Post("/settings/update", settings.UpdateSettings)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Post("/posts/generate", post.GeneratePost)
	api.Post("/posts/regenerate", post.RegeneratePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/publish", post.PublishPost)
	api.Post("/posts/remove", post.RemovePost)

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Post("/posts/schedule", schedule.SchedulePost)
	api.Get("/posts/scheduled", schedule.ListScheduled)

	stopSweeps := startSweeper(cfg, sweeper)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("failed to start server", err)
		}
	}()
	slog.Info("server is running", "port", cfg.Port, "sweep_driver", cfg.Sweep.Driver, "server_timezone", serverLoc.String())

	gracefulShutdown(app, stopSweeps)
}

// startSweeper starts the configured sweep driver and returns its stop func.
func startSweeper(cfg *config.Config, sweeper *job.DuePostSweeper) func() {
	switch cfg.Sweep.Driver {
	case config.SweepDriverCron:
		c := cron.New()
		if err := c.AddFunc(cfg.Sweep.Spec, sweeper.RunScheduled); err != nil {
			fatal("invalid SWEEP_SPEC", err)
		}
		c.Start()
		return c.Stop

	case config.SweepDriverAsynq:
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}

		scheduler := asynq.NewScheduler(redisConn, nil)
		if _, err := queue.RegisterSweep(scheduler, cfg.Sweep.Spec, uniqueWindow(cfg.Sweep.Spec)); err != nil {
			fatal("invalid SWEEP_SPEC", err)
		}
		if err := scheduler.Start(); err != nil {
			fatal("could not start asynq scheduler", err)
		}

		server := asynq.NewServer(redisConn, asynq.Config{Concurrency: 1})
		if err := server.Start(queue.NewQueue(sweeper).Mux()); err != nil {
			fatal("could not start asynq server", err)
		}
		slog.Info("asynq sweep driver started")

		return func() {
			scheduler.Shutdown()
			server.Shutdown()
		}

	case config.SweepDriverExternal:
		slog.Info("sweeps are triggered externally via /api/cron/process-scheduled-posts")
		return func() {}

	default:
		fatal("unknown SWEEP_DRIVER", fmt.Errorf("%q", cfg.Sweep.Driver))
		return nil
	}
}

// uniqueWindow keeps an "@every" tick unique for slightly less than its
// period. Other specs fall back to one minute.
func uniqueWindow(spec string) time.Duration {
	if every, ok := strings.CutPrefix(spec, "@every "); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(every)); err == nil && d > time.Second {
			return d - time.Second
		}
	}
	return time.Minute
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, stopSweeps func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	stopSweeps()

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}

	slog.Info("server shutdown complete")
}
