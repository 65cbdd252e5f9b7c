package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"klinika/admin"
	"klinika/app"
	"klinika/appointment"
	"klinika/cache"
	"klinika/common"
	"klinika/config"
	"klinika/database"
	"klinika/email"
	"klinika/middleware"
	"klinika/sms"
	"klinika/upload"
)

// view events older than this are dropped by the nightly job
const analyticsRetention = 366 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := common.NewLogger(cfg)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	db, err := common.ConnectDb(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := admin.SeedAdmin(context.Background(), db, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		logger.Fatal("failed to seed admin user", zap.Error(err))
	}

	store, err := cache.NewStore(cfg)
	if err != nil {
		logger.Warn("response cache disabled", zap.Error(err))
		store = nil
	}

	storage, err := upload.NewStorage(cfg)
	if err != nil {
		logger.Warn("uploads disabled", zap.Error(err))
		storage = nil
	}

	mailer := email.NewEmailService(cfg)
	if !mailer.Configured() {
		logger.Warn("SMTP not configured, appointment emails will not be sent")
	}
	texts := sms.NewSender(cfg)
	dispatcher := &appointment.Dispatcher{
		Mail:        mailer,
		Text:        texts,
		ClinicEmail: cfg.ClinicEmail,
		Log:         logger,
	}

	application, err := app.New(cfg, app.Services{
		DB:          db,
		AnalyticsDB: common.ConnectAnalyticsDb(cfg, logger),
		Cache:       store,
		Storage:     storage,
		Notifier:    dispatcher,
		Limiter:     middleware.NewRateLimiter(cfg.SubmissionsPerMin, logger),
		Log:         logger,
	})
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}

	scheduler := scheduleJobs(application, store, logger)
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("server is shutting down")

	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}

func scheduleJobs(a *app.App, store cache.Store, logger *zap.Logger) *cron.Cron {
	c := cron.New()

	if files, ok := store.(*cache.FileStore); ok {
		mustSchedule(c, logger, "@hourly", func() {
			removed, err := files.Sweep(context.Background())
			if err != nil {
				logger.Error("cache sweep failed", zap.Error(err))
				return
			}
			logger.Debug("cache sweep finished", zap.Int("removed", removed))
		})
	}

	mustSchedule(c, logger, "@daily", func() {
		removed, err := a.Analytics.Prune(context.Background(), analyticsRetention)
		if err != nil {
			logger.Error("analytics prune failed", zap.Error(err))
			return
		}
		logger.Info("analytics prune finished", zap.Int64("removed", removed))
	})

	mustSchedule(c, logger, "@every 10m", func() {
		for _, l := range a.Limiters {
			l.Prune(30 * time.Minute)
		}
	})

	return c
}

func mustSchedule(c *cron.Cron, logger *zap.Logger, spec string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		logger.Fatal("invalid cron spec", zap.String("spec", spec), zap.Error(err))
	}
}
