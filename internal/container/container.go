package container

import (
	"context"
	"fmt"

	"fmeagraph/adapters/excel"
	"fmeagraph/adapters/postgres"
	"fmeagraph/app"
	"fmeagraph/internal"
	"fmeagraph/internal/config"
	"fmeagraph/internal/ingestion"
	"fmeagraph/internal/migration"
	"fmeagraph/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure, nil when persistence is disabled
	DB *sqlx.DB

	// Repositories (data access layer)
	AnalysisRepo ports.AnalysisRepository

	// Services
	AnalysisService *app.AnalysisService
}

// New creates a new dependency injection container. Without a database
// URL the pipeline runs with persistence disabled.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(cfg.Log.Level),
	}

	if cfg.Database.Enabled() {
		db, err := sqlx.Open(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := migration.NewRunner(c.Logger).Run(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	c.DB = db
	c.AnalysisRepo = postgres.NewAnalysisRepository(db)
	c.Logger.With("Container").Info("persistence enabled (%s)", db.DriverName())
	return nil
}

// initServices wires the pipeline from the ingestion settings
func (c *Container) initServices() error {
	policy, err := ingestion.ParseMissingRatingPolicy(c.Config.Ingestion.MissingRatingPolicy)
	if err != nil {
		return err
	}
	opts := ingestion.Options{Policy: policy, MissingRating: c.Config.Ingestion.MissingRating}

	c.AnalysisService = app.NewAnalysisService(opts, c.AnalysisRepo, c.Logger)
	return nil
}

// SheetLayout returns the configured column layout for spreadsheet input
func (c *Container) SheetLayout() excel.ExcelConfig {
	return excel.FromIngestionConfig(c.Config.Ingestion)
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
