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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"real4d-backend/internal/cache"
	"real4d-backend/internal/config"
	"real4d-backend/internal/database"
	"real4d-backend/internal/email"
	"real4d-backend/internal/handlers"
	"real4d-backend/internal/logging"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/services"
	"real4d-backend/internal/session"
	"real4d-backend/internal/supabase"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Registry(cfg.MetricsNamespace)

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Fatal("failed to initialize supabase client", zap.Error(err))
	}

	authClient := supabase.NewAuthClient(supabaseClient, m)
	var identity services.IdentityProvider = authClient
	var healthChecks []handlers.Pinger

	if cfg.RedisAddr != "" {
		redisClient := cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, identity lookups will not be cached", zap.Error(err))
		}
		identity = cache.NewIdentityCache(authClient, redisClient, cfg.IdentityCacheTTL, logger.Named("identity_cache"))
	}

	var ledger services.OrderLedger
	if cfg.DatabaseURL != "" {
		migrator, err := database.NewMigrator(cfg.DatabaseURL, logger.Named("migrator"))
		if err != nil {
			logger.Fatal("failed to initialize migrator", zap.Error(err))
		}
		if err := migrator.Run(); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		migrator.Close()

		dbClient, err := supabase.NewDatabaseClient(ctx, cfg.DatabaseURL, m)
		if err != nil {
			logger.Fatal("failed to initialize database client", zap.Error(err))
		}
		defer dbClient.Close()

		ledger = dbClient
		healthChecks = append(healthChecks, dbClient)
	} else {
		logger.Info("DATABASE_URL not set, using PostgREST for orders")
		ledger = supabase.NewRestLedger(supabaseClient, m)
	}

	prints := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.PrintsBucket, m)
	reports := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.ReportsBucket, m)

	renderer, err := email.NewRenderer(email.Branding{
		LogoURL:      cfg.LogoURL,
		SiteURL:      cfg.SiteURL,
		ContactEmail: cfg.ContactEmail,
	})
	if err != nil {
		logger.Fatal("failed to load email templates", zap.Error(err))
	}
	notifier := email.NewNotifier(renderer, email.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom), m, logger)

	purchases := services.NewPurchaseService(identity, ledger, notifier, services.Links{
		UploadURL:  cfg.SiteLink(cfg.UploadPath),
		ResultsURL: cfg.SiteLink(cfg.ResultsPath),
	}, logger)
	accounts := services.NewAccountService(ledger, prints, reports, identity, notifier, m, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		Webhook:      handlers.NewWebhookHandler(purchases, cfg.HotmartHottok, m, logger),
		Account:      handlers.NewAccountHandler(accounts, logger),
		Dashboard:    handlers.NewDashboardHandler(ledger, session.LoadLocation(cfg.DisplayTimezone), logger),
		Tokens:       identity,
		Sessions:     session.NewVerifier(cfg.SupabaseJWTSecret),
		SignInPath:   cfg.SignInPath,
		AdminEmail:   cfg.AdminEmail,
		Metrics:      promhttp.Handler(),
		HealthChecks: healthChecks,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
