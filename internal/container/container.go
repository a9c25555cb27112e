package container

import (
	"context"
	"fmt"

	"killcurve/adapters/excel"
	"killcurve/adapters/memory"
	"killcurve/adapters/postgres"
	"killcurve/app"
	"killcurve/internal/analysis"
	"killcurve/internal/batch"
	"killcurve/internal/config"
	"killcurve/internal/errors"
	"killcurve/internal/migration"
	"killcurve/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Log    logrus.FieldLogger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	RunRepo ports.RunRepository

	// Analysis components
	Reader   *excel.WorkbookReader
	Analyzer *analysis.Analyzer
	Executor *batch.Executor
	Exporter *excel.Exporter

	AnalysisService *app.AnalysisService
}

// New creates a container backed by the in-memory run archive
func New(cfg *config.Config, log logrus.FieldLogger, appVersion string) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Log:      log,
		RunRepo:  memory.NewRunRepository(),
		Reader:   excel.NewWorkbookReader(log),
		Analyzer: analysis.NewAnalyzer(cfg.Analysis.Criteria()),
		Executor: batch.NewExecutor(cfg.Batch.Workers, log),
	}

	exportCfg := excel.DefaultExportConfig()
	exportCfg.Criteria = cfg.Analysis.Criteria()
	exportCfg.AppVersion = appVersion
	c.Exporter = excel.NewExporter(exportCfg, log)

	c.initService()
	return c, nil
}

// Open creates a container and, when DATABASE_URL is set, connects, migrates
// and switches the run archive to PostgreSQL.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, appVersion string) (*Container, error) {
	c, err := New(cfg, log, appVersion)
	if err != nil {
		return nil, err
	}

	if !cfg.Database.Enabled() {
		log.Info("DATABASE_URL not set, runs are kept in memory")
		return c, nil
	}

	db, err := ConnectDatabase(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// ConnectDatabase opens and pings a PostgreSQL connection
func ConnectDatabase(url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to ping database"))
	}

	return db, nil
}

// InitWithDatabase migrates the schema and archives runs in db
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.RunRepo = postgres.NewRunRepository(db)
	c.initService()

	c.Log.WithField("schema_version", migrator.Version()).Info("Run archive using PostgreSQL")
	return nil
}

func (c *Container) initService() {
	c.AnalysisService = app.NewAnalysisService(c.Reader, c.Analyzer, c.RunRepo, c.Executor, c.Log)
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	if err := c.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.DB = nil
	return nil
}
