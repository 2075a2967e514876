package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"docprep-backend/internal/convert"
	"docprep-backend/internal/documents"
	"docprep-backend/internal/oplog"
	"docprep-backend/internal/readiness"
	"docprep-backend/internal/services/health"
	"docprep-backend/internal/shared/config"
	"docprep-backend/internal/shared/server"
	"docprep-backend/internal/shared/storage/db"
	"docprep-backend/internal/shared/storage/object"
	localstore "docprep-backend/internal/shared/storage/object/local"
	s3store "docprep-backend/internal/shared/storage/object/s3"
	"docprep-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Converter        *convert.Converter
	Analyzer         *readiness.Analyzer
	OplogRepo        oplog.Repo
	Oplog            *oplog.Logger
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	Health           *health.Service

	closers []io.Closer
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{Config: cfg}
	if cfg.LogLevel != "" || cfg.LogFile != "" {
		closer, err := telemetry.Configure(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("configure logging: %w", err)
		}
		app.closers = append(app.closers, closer)
	}

	sqlDB, repo, err := buildOplog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	app.OplogRepo = repo
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	app.Converter = convert.New(cfg.LibreOfficePath, cfg.ConversionTimeout)
	app.Analyzer = readiness.New(analyzerConfig(cfg))
	app.Oplog = oplog.NewLogger(repo)
	app.DocumentsService = documents.NewService(app.Store, app.Converter, app.Analyzer, app.Oplog)
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService, cfg.MaxUploadBytes)

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.Health = health.NewService(app.Converter, pinger)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DocumentsHandler: app.DocumentsHandler,
		Health:           app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":                   cfg.Env,
		"object_store":          cfg.ObjectStoreType,
		"oplog_store":           cfg.OplogStore,
		"libreoffice_available": app.Converter.Available(),
	})
	return app, nil
}

// Close waits for background work and releases the database and log file.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.DocumentsHandler != nil {
		a.DocumentsHandler.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func analyzerConfig(cfg config.Config) readiness.Config {
	rc := readiness.DefaultConfig()
	if cfg.ReadinessThreshold > 0 {
		rc.Threshold = cfg.ReadinessThreshold
	}
	if cfg.SegmentLimit > 0 {
		rc.SegmentLimit = cfg.SegmentLimit
	}
	w := readiness.Weights{
		Content:      cfg.WeightContent,
		Segmentation: cfg.WeightSegmentation,
		Language:     cfg.WeightLanguage,
		Structure:    cfg.WeightStructure,
	}
	if w.Content+w.Segmentation+w.Language+w.Structure > 0 {
		rc.Weights = w
	}
	return rc
}

// buildOplog opens the operation log backend. An empty store selects the
// in-memory repository.
func buildOplog(ctx context.Context, cfg config.Config) (*sql.DB, oplog.Repo, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.OplogStore)) {
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB == nil {
			return nil, oplog.NewMemoryRepo(), nil
		}
		if err := db.RunMigrations(ctx, sqlDB, db.DialectPostgres); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return sqlDB, &oplog.PGRepo{DB: sqlDB}, nil
	case "sqlite":
		sqlDB, err := db.ConnectSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			if isDevLike(cfg.Env) {
				telemetry.Warn("bootstrap.sqlite_failed", map[string]any{"error": err, "fallback": "memory"})
				return nil, oplog.NewMemoryRepo(), nil
			}
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, sqlDB, db.DialectSQLite); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return sqlDB, &oplog.SQLiteRepo{DB: sqlDB}, nil
	default:
		return nil, oplog.NewMemoryRepo(), nil
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"error": err, "fallback": "memory"})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
