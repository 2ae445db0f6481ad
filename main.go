package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	_ "github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore/mssql"
	_ "github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore/mysql"
	_ "github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore/postgres"
	_ "github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore/rest"
	"github.com/ekaya-inc/ekaya-sheets/pkg/audit"
	"github.com/ekaya-inc/ekaya-sheets/pkg/auth"
	"github.com/ekaya-inc/ekaya-sheets/pkg/config"
	"github.com/ekaya-inc/ekaya-sheets/pkg/crypto"
	"github.com/ekaya-inc/ekaya-sheets/pkg/database"
	"github.com/ekaya-inc/ekaya-sheets/pkg/handlers"
	"github.com/ekaya-inc/ekaya-sheets/pkg/ingest"
	"github.com/ekaya-inc/ekaya-sheets/pkg/middleware"
	"github.com/ekaya-inc/ekaya-sheets/pkg/profiling"
	"github.com/ekaya-inc/ekaya-sheets/pkg/repositories"
	"github.com/ekaya-inc/ekaya-sheets/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	logConfig := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := logConfig.Build()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return logger.With(zap.String("version", cfg.Version))
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Database.Host = config.ResolveHostForDocker(cfg.Database.Host)

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.User+"@"+cfg.Database.Host+"/"+cfg.Database.Database),
		zap.Bool("central_store", cfg.CentralStore.IsConfigured()),
		zap.Strings("datastore_types", adapterTypes()))

	// Migrations run over database/sql; the server uses the pgx pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	err = database.RunMigrations(migrationDB, logger.Named("migrations"))
	_ = migrationDB.Close()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger.Named("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	encryptor, err := crypto.NewCredentialEncryptor(cfg.ProjectCredentialsKey)
	if err != nil {
		return err
	}

	dict := profiling.DefaultDictionary()
	if cfg.Profiling.DictionaryPath != "" {
		if dict, err = profiling.LoadDictionary(cfg.Profiling.DictionaryPath); err != nil {
			return err
		}
	}
	layouts := ingest.DefaultLayouts(dict)
	if cfg.Profiling.LayoutsPath != "" {
		if layouts, err = ingest.LoadLayouts(cfg.Profiling.LayoutsPath, dict); err != nil {
			return err
		}
	}

	auditor := audit.NewSecurityAuditor(logger)
	resolver := services.NewCredentialResolver(cfg.CentralStore, encryptor, auditor, logger)
	engine := ingest.NewEngine(ingest.EngineConfig{
		DirectBatchSize:     cfg.Import.DirectBatchSize,
		StructuredBatchSize: cfg.Import.StructuredBatchSize,
	}, auditor, logger)

	analyzeService := services.NewAnalyzeService(
		profiling.NewAnalyzer(dict, logger).WithWorkers(cfg.Profiling.Workers), logger)
	importService := services.NewImportService(
		repositories.NewImportTargetRepository(),
		repositories.NewImportLogRepository(),
		repositories.NewAuditRepository(),
		resolver,
		datastore.NewStoreFactory(),
		ingest.NewTransformer(layouts),
		engine,
		services.ImportServiceConfig{HistoryLimit: cfg.Import.HistoryLimit},
		logger,
	)

	jwks, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return err
	}
	defer jwks.Close()
	if !cfg.Auth.EnableVerification {
		logger.Warn("JWT signature verification is disabled")
	}
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(jwks, logger), logger)
	tenantMiddleware := database.WithTenantContext(db, logger.Named("tenant"))

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewAnalyzeHandler(analyzeService, cfg.Import.MaxUploadBytes(), logger).
		RegisterRoutes(mux, authMiddleware)
	handlers.NewImportsHandler(importService, cfg.Import.MaxUploadBytes(), logger).
		RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger.Named("http"))(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Large workbooks take a while to upload and import.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-sheets",
			zap.String("addr", server.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			errCh <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func adapterTypes() []string {
	var types []string
	for _, info := range datastore.NewStoreFactory().ListTypes() {
		types = append(types, info.Type)
	}
	return types
}
