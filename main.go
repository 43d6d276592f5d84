package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource/mssql"    // Register SQL Server adapter
	_ "github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource/postgres" // Register PostgreSQL adapter
	"github.com/ekaya-inc/ekaya-bi/pkg/audit"
	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	"github.com/ekaya-inc/ekaya-bi/pkg/config"
	"github.com/ekaya-inc/ekaya-bi/pkg/crypto"
	"github.com/ekaya-inc/ekaya-bi/pkg/database"
	"github.com/ekaya-inc/ekaya-bi/pkg/handlers"
	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
	"github.com/ekaya-inc/ekaya-bi/pkg/middleware"
	"github.com/ekaya-inc/ekaya-bi/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bi/pkg/retry"
	"github.com/ekaya-inc/ekaya-bi/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load("config.yaml", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.String("store", cfg.Store.Type))

	store, closeStore, err := openConnectionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	factory := datasource.NewConnectionFactory()
	adapters := factory.ListAdapters()
	if len(adapters) == 0 {
		logger.Warn("No database adapters compiled in; build with -tags all_adapters")
	}
	for _, a := range adapters {
		logger.Info("Adapter registered", zap.String("provider", a.Provider.String()), zap.String("name", a.DisplayName))
	}

	auditor := audit.NewSecurityAuditor(logger)

	querySvc := services.NewQueryService(factory, auditor, logger)
	schemaSvc := services.NewSchemaService(factory, logger)
	tableContextSvc := services.NewTableContextService(schemaSvc, querySvc, logger)
	connectionSvc := services.NewConnectionService(store, querySvc, logger)

	authMiddleware, err := newAuthMiddleware(ctx, cfg, auditor, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, factory, logger).RegisterRoutes(mux)
	handlers.NewConnectionsHandler(connectionSvc, querySvc, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSchemaHandler(connectionSvc, schemaSvc, tableContextSvc, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewQueryHandler(connectionSvc, querySvc, logger).RegisterRoutes(mux, authMiddleware)

	var handler http.Handler = mux
	handler = middleware.Recoverer(logger)(handler)
	handler = middleware.RequestLogger(logger.Named("http"))(handler)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-bi",
			zap.String("addr", server.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			serveErr <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serveErr <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openConnectionStore builds the configured connection store. The returned
// func releases whatever the store holds open.
func openConnectionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ConnectionStore, func(), error) {
	switch cfg.Store.Type {
	case config.StorePostgres:
		encryptor, err := crypto.NewConnectionEncryptor(cfg.ConnectionEncryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("connection encryption key: %w", err)
		}

		db, err := database.ConnectWithRetry(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		}, retry.DefaultConfig(), logger.Named("database"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect metadata database: %w", err)
		}

		sqlDB := stdlib.OpenDBFromPool(db.Pool)
		if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger.Named("migrations")); err != nil {
			_ = sqlDB.Close()
			db.Close()
			return nil, nil, fmt.Errorf("migrate metadata database: %w", err)
		}
		_ = sqlDB.Close()

		logger.Info("Using postgres connection store",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
		return repositories.NewConnectionRepository(db, encryptor), db.Close, nil

	default:
		path := cfg.Store.ConnectionsFile()
		logger.Info("Using file connection store", zap.String("path", path))
		return repositories.NewFileConnectionStore(path), func() {}, nil
	}
}

// newAuthMiddleware returns a pass-through middleware when auth is disabled.
func newAuthMiddleware(ctx context.Context, cfg *config.Config, auditor *audit.SecurityAuditor, logger *zap.Logger) (*auth.Middleware, error) {
	authLogger := logger.Named("auth")
	if !cfg.Auth.Enabled {
		authLogger.Warn("Authentication is disabled; API requests are not validated")
		return auth.NewMiddleware(nil, auditor, authLogger), nil
	}

	validator, err := auth.NewTokenValidator(ctx, auth.ValidatorConfig{
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		SigningKey: cfg.Auth.SigningKey,
		JWKSURL:    cfg.Auth.JWKSURL,
		Leeway:     cfg.Auth.ClockSkew,
	})
	if err != nil {
		return nil, fmt.Errorf("token validator: %w", err)
	}
	return auth.NewMiddleware(auth.NewAuthService(validator, authLogger), auditor, authLogger), nil
}
