// Package main provides the fleet server entry point. It hosts the printer,
// spool, job, and audit APIs under a single process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang/glog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/audit"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/authz"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/ha"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/inventory"
	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/printjob"
)

func main() {
	var (
		listenAddr   string
		databaseType string
		databaseDSN  string
	)

	flag.StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	flag.StringVar(&databaseType, "db-type", "sqlite", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting fleet server",
		"listen", listenAddr,
		"dbType", databaseType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := setupDatabase(databaseType, databaseDSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	invStore := inventory.NewStore(gormDB, logger)
	auditStore := audit.NewStore(gormDB, logger)
	auditCfg := audit.ConfigFromEnv()

	var recorder printjob.Recorder
	if auditCfg.Enabled {
		recorder = auditStore
	} else {
		logger.Info("audit recording disabled")
	}

	engine := printjob.NewEngine(gormDB, logger, recorder)
	jobStore := printjob.NewStore(gormDB, logger)

	// Multiple replicas share one schema; serialize migrations.
	haCfg := ha.ConfigFromEnv()
	migrate := func() error {
		if err := invStore.AutoMigrate(); err != nil {
			return err
		}
		if err := engine.AutoMigrate(); err != nil {
			return err
		}
		return auditStore.AutoMigrate()
	}
	if haCfg.MigrationLockEnabled {
		locker := ha.NewMigrationLocker(gormDB)
		err = locker.WithLock(ctx, migrate)
	} else {
		err = migrate()
	}
	if err != nil {
		glog.Fatalf("Failed to migrate database: %v", err)
	}

	authorizer, err := setupAuthorizer(logger)
	if err != nil {
		glog.Fatalf("Failed to configure authorization: %v", err)
	}

	extractRole, err := setupRoleExtractor(logger)
	if err != nil {
		glog.Fatalf("Failed to configure auth: %v", err)
	}

	sweepCfg := printjob.SweepConfigFromEnv()
	sweeper := printjob.NewSweeper(engine, jobStore, sweepCfg, logger)
	go sweeper.Run(ctx)

	retention := audit.NewRetentionWorker(auditStore, auditCfg.RetentionDays, logger)
	go retention.Run(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Remote-User", "X-User-Role"},
	}))
	router.Use(authz.IdentityMiddleware(extractRole))

	router.Mount("/api/fleet/v1alpha1", fleetRoutes(invStore, engine, jobStore, sweeper, sweepCfg, authorizer))
	router.Mount("/api/audit/v1alpha1", audit.Router(auditStore, authorizer))

	healthHandler := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	router.Get("/healthz", healthHandler)
	router.Get("/livez", healthHandler)
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := gormDB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	logger.Info("fleet server ready", "listen", listenAddr)

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("fleet server stopped")
}

// fleetRoutes combines the inventory and job endpoints on one subtree.
func fleetRoutes(inv *inventory.Store, engine *printjob.Engine, jobStore *printjob.Store,
	sweeper *printjob.Sweeper, sweepCfg *printjob.SweepConfig, authorizer authz.Authorizer) chi.Router {
	r := chi.NewRouter()
	inventory.Routes(r, inv, jobStore, authorizer)
	printjob.Routes(r, engine, jobStore, inv, sweeper, sweepCfg, authorizer)
	return r
}

func setupDatabase(dbType, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_DSN")
	}
	if dbType == "" {
		dbType = os.Getenv("DATABASE_TYPE")
	}

	cfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch dbType {
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("database DSN is required for postgres (use -db-dsn or DATABASE_DSN)")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("database DSN is required for mysql (use -db-dsn or DATABASE_DSN)")
		}
		return gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite", "":
		if dsn == "" {
			dsn = "fleet.db"
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unknown database type %q (expected postgres, mysql, or sqlite)", dbType)
	}
}

// setupAuthorizer reads FLEET_AUTHZ_MODE: "roles" (default) or "none".
func setupAuthorizer(logger *slog.Logger) (authz.Authorizer, error) {
	switch mode := os.Getenv("FLEET_AUTHZ_MODE"); mode {
	case "none":
		logger.Info("authorization disabled")
		return &authz.NoopAuthorizer{}, nil
	case "roles", "":
		logger.Info("using role-based authorization")
		return authz.NewRoleAuthorizer(), nil
	default:
		return nil, fmt.Errorf("unknown authz mode %q (expected roles or none)", mode)
	}
}

// setupRoleExtractor reads FLEET_AUTH_MODE: "header" (default) or "jwt".
func setupRoleExtractor(logger *slog.Logger) (authz.RoleExtractor, error) {
	switch mode := os.Getenv("FLEET_AUTH_MODE"); mode {
	case "jwt":
		extract, err := authz.NewJWTRoleExtractor(authz.JWTRoleExtractorConfig{
			RoleClaim:     envOrDefault("FLEET_JWT_ROLE_CLAIM", "role"),
			PublicKeyPath: os.Getenv("FLEET_JWT_PUBLIC_KEY_PATH"),
			Issuer:        os.Getenv("FLEET_JWT_ISSUER"),
			Audience:      os.Getenv("FLEET_JWT_AUDIENCE"),
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using JWT auth", "roleClaim", envOrDefault("FLEET_JWT_ROLE_CLAIM", "role"))
		return extract, nil
	case "header", "":
		logger.Info("using header-based auth (X-User-Role)")
		return authz.HeaderRoleExtractor, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q (expected jwt or header)", mode)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
