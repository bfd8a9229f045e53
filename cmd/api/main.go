package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/karthikraju/granary-backend/api/routes"
	"github.com/karthikraju/granary-backend/internal/auth"
	"github.com/karthikraju/granary-backend/internal/catalog"
	"github.com/karthikraju/granary-backend/internal/customers"
	"github.com/karthikraju/granary-backend/internal/inventory"
	"github.com/karthikraju/granary-backend/internal/notifications"
	"github.com/karthikraju/granary-backend/internal/purchasing"
	"github.com/karthikraju/granary-backend/internal/reports"
	"github.com/karthikraju/granary-backend/internal/sales"
	"github.com/karthikraju/granary-backend/internal/settings"
	"github.com/karthikraju/granary-backend/internal/suppliers"
	"github.com/karthikraju/granary-backend/internal/users"
	"github.com/karthikraju/granary-backend/pkg/auth/session"
	"github.com/karthikraju/granary-backend/pkg/config"
	"github.com/karthikraju/granary-backend/pkg/db"
	"github.com/karthikraju/granary-backend/pkg/logger"
	"github.com/karthikraju/granary-backend/pkg/metrics"
	"github.com/karthikraju/granary-backend/pkg/migrate"
	"github.com/karthikraju/granary-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	inventoryRepo := inventory.NewRepository(gormDB)
	supplierRepo := suppliers.NewRepository(gormDB)
	customerRepo := customers.NewRepository(gormDB)
	purchasingRepo := purchasing.NewRepository(gormDB)
	salesRepo := sales.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	if cfg.Features.SeedAdminUser {
		created, err := users.EnsureSuperAdmin(
			context.Background(),
			userRepo,
			cfg.Password,
			cfg.Features.SeedAdminEmail,
			cfg.Features.SeedAdminPassword,
		)
		if err != nil {
			logg.Error(context.Background(), "failed to seed super admin", err)
			os.Exit(1)
		}
		if created {
			logg.Info(logg.WithField(context.Background(), "email", cfg.Features.SeedAdminEmail), "seeded super admin user")
		}
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	exitOnError(logg, "auth service", err)

	usersService, err := users.NewService(userRepo, cfg.Password)
	exitOnError(logg, "users service", err)

	catalogService, err := catalog.NewService(catalogRepo)
	exitOnError(logg, "catalog service", err)

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:          inventoryRepo,
		Tx:            dbClient,
		Lookups:       catalogRepo,
		Settings:      settingsRepo,
		Notifications: notificationsRepo,
	})
	exitOnError(logg, "inventory service", err)

	suppliersService, err := suppliers.NewService(supplierRepo)
	exitOnError(logg, "suppliers service", err)

	customersService, err := customers.NewService(customerRepo)
	exitOnError(logg, "customers service", err)

	purchasingService, err := purchasing.NewService(purchasing.ServiceParams{
		Repo:          purchasingRepo,
		Tx:            dbClient,
		Stock:         inventoryRepo,
		Suppliers:     supplierRepo,
		Settings:      settingsRepo,
		Notifications: notificationsRepo,
	})
	exitOnError(logg, "purchasing service", err)

	salesService, err := sales.NewService(sales.ServiceParams{
		Repo:          salesRepo,
		Tx:            dbClient,
		Stock:         inventoryRepo,
		Customers:     customerRepo,
		Settings:      settingsRepo,
		Notifications: notificationsRepo,
	})
	exitOnError(logg, "sales service", err)

	reportsService, err := reports.NewService(gormDB)
	exitOnError(logg, "reports service", err)

	settingsService, err := settings.NewService(settingsRepo)
	exitOnError(logg, "settings service", err)

	notificationsService, err := notifications.NewService(notificationsRepo)
	exitOnError(logg, "notifications service", err)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, gormDB, sessionManager, httpMetrics, registry, routes.Services{
			Auth:          authService,
			Users:         usersService,
			Catalog:       catalogService,
			Inventory:     inventoryService,
			Suppliers:     suppliersService,
			Customers:     customersService,
			Purchasing:    purchasingService,
			Sales:         salesService,
			Reports:       reportsService,
			Settings:      settingsService,
			Notifications: notificationsService,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

func exitOnError(logg *logger.Logger, component string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+component, err)
		os.Exit(1)
	}
}
