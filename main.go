package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/LovationAdmin/triptrack-api/config"
	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/migration"
	"github.com/LovationAdmin/triptrack-api/routes"
	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/storage"
	"github.com/LovationAdmin/triptrack-api/utils"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	utils.SetupLogging(cfg.LogLevel, cfg.Production)
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	db, driver, err := config.InitDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database connected", "driver", driver)

	if err := config.RunMigrations(db, driver); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	if cfg.BackfillOwners {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := migration.BackfillOwners(ctx, db); err != nil {
			slog.Error("Owner backfill failed", "error", err)
			os.Exit(1)
		}
		return
	}

	bucket, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("Failed to configure storage", "error", err)
		os.Exit(1)
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	users := services.NewUserService(db)
	auth := services.NewAuthService(db, tokens, users, cfg.EncryptionKey, cfg.SessionTTL)

	var mailer services.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = services.NewEmailService(cfg.ResendAPIKey, cfg.FromEmail)
	} else {
		slog.Warn("RESEND_API_KEY not set, share links will not be emailed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)

	router := routes.NewRouter(routes.Deps{
		Auth:           auth,
		Users:          users,
		Trips:          services.NewTripService(db),
		Members:        services.NewMemberService(db),
		Shares:         services.NewShareService(db, cfg.FrontendURL, mailer),
		Photos:         services.NewPhotoService(users, bucket),
		Bucket:         bucket,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    limiter,
		Metrics:        metrics,
		Gatherer:       reg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go limiter.Run(ctx)
	go scheduleSessionCleanup(ctx, auth)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogStartup("TripTrack API", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

func scheduleSessionCleanup(ctx context.Context, auth *services.AuthService) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	cleanExpiredSessions(ctx, auth)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanExpiredSessions(ctx, auth)
		}
	}
}

func cleanExpiredSessions(ctx context.Context, auth *services.AuthService) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := auth.CleanExpiredSessions(ctx)
	if err != nil {
		slog.Error("Session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Cleaned expired sessions", "count", n)
	}
}
