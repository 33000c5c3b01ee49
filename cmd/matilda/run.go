package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/matilda-discovery/matilda/internal/catalog"
	"github.com/matilda-discovery/matilda/internal/cli"
	"github.com/matilda-discovery/matilda/internal/config"
	"github.com/matilda-discovery/matilda/internal/demo"
	"github.com/matilda-discovery/matilda/internal/discovery"
	"github.com/matilda-discovery/matilda/internal/logging"
	"github.com/matilda-discovery/matilda/internal/report"
	"github.com/matilda-discovery/matilda/internal/tracking"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var demoName string
	var databasePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a discovery pass against a database or bundled demo schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscovery(cmd.Context(), configPath, demoName, databasePath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&demoName, "demo", "", "bundled demo schema to run against: perfect_database or imperfect_database")
	cmd.Flags().StringVar(&databasePath, "database", "", "path to a SQLite database file, overriding the config's database.path")
	return cmd
}

func runDiscovery(ctx context.Context, configPath, demoName, databasePath string) error {
	cfg, err := loadRunConfig(configPath, demoName, databasePath)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitConfigError, Err: err}
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitConfigError, Err: fmt.Errorf("initializing logger: %w", err)}
	}
	defer log.Sync()

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitConfigError, Err: err}
	}
	defer sink.Close()

	db, dbLabel, cleanup, err := openDatabase(cfg, demoName)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitDriverError, Err: err}
	}
	defer cleanup()

	result, err := discovery.Run(ctx, db, dbLabel, catalog.SQLiteDialect{}, cfg, log, sink)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitDriverError, Err: err}
	}

	if _, err := report.WriteJSON(cfg.Results.OutputDir, dbLabel, result); err != nil {
		return &cli.ExitError{Code: cli.ExitDriverError, Err: err}
	}
	if _, err := report.WriteMarkdown(cfg.Results.OutputDir, dbLabel, result); err != nil {
		return &cli.ExitError{Code: cli.ExitDriverError, Err: err}
	}
	report.PrintSummary(os.Stdout, dbLabel, result)

	if result.Metadata.Status == discovery.StatusPartial {
		return &cli.ExitError{Code: cli.ExitPartial, Err: fmt.Errorf("discovery cancelled: %s", result.Metadata.CancelTrigger)}
	}
	return nil
}

func loadRunConfig(configPath, demoName, databasePath string) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if databasePath != "" {
			cfg.Database.Path = databasePath
		}
		return cfg, nil
	}

	if demoName == "" && databasePath == "" {
		return nil, fmt.Errorf("one of --config, --demo, or --database is required")
	}

	cfg := config.DefaultConfig()
	switch {
	case databasePath != "":
		cfg.Database.Path = databasePath
	case demoName != "":
		// openDatabase seeds its own temp file for --demo; Database.Path
		// only needs to be non-empty to satisfy Validate.
		cfg.Database.Path = demoName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDatabase opens the target SQLite database, seeding a bundled demo
// schema into a temporary file when demoName is set, and returns the
// label used for output artifact filenames alongside a cleanup func.
func openDatabase(cfg *config.Config, demoName string) (db *sql.DB, dbLabel string, cleanup func(), err error) {
	if demoName != "" {
		tmpFile, err := os.CreateTemp("", "matilda-demo-*.db")
		if err != nil {
			return nil, "", nil, fmt.Errorf("creating demo database file: %w", err)
		}
		tmpFile.Close()
		path := tmpFile.Name()

		db, err := sql.Open("sqlite3", path)
		if err != nil {
			os.Remove(path)
			return nil, "", nil, fmt.Errorf("opening demo database: %w", err)
		}
		if err := demo.Build(db, demo.Name(demoName)); err != nil {
			db.Close()
			os.Remove(path)
			return nil, "", nil, err
		}
		return db, demoName, func() { db.Close(); os.Remove(path) }, nil
	}

	dsn, label, err := resolveDSN(cfg)
	if err != nil {
		return nil, "", nil, err
	}
	db, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening %s: %w", dsn, err)
	}
	return db, label, func() { db.Close() }, nil
}

// resolveDSN turns database.path/name/url into the DSN passed to sql.Open
// and the label used for output artifact filenames, per spec.md §6:
// database.path (directory) and database.name (filename) combine into a
// file path; database.url stands alone as a full driver URL. Only the
// sqlite3 driver is wired (see DESIGN.md), so a database.url naming a
// different driver still fails, but at sql.Open, not silently against the
// wrong file.
func resolveDSN(cfg *config.Config) (dsn, label string, err error) {
	switch {
	case cfg.Database.URL != "":
		dsn = cfg.Database.URL
	case cfg.Database.Name != "":
		dsn = filepath.Join(cfg.Database.Path, cfg.Database.Name)
	case cfg.Database.Path != "":
		dsn = cfg.Database.Path
	default:
		return "", "", fmt.Errorf("one of database.path, database.name, or database.url is required when --demo is not set")
	}
	label = strings.TrimSuffix(filepath.Base(dsn), filepath.Ext(dsn))
	return dsn, label, nil
}

func newSink(ctx context.Context, cfg *config.Config) (tracking.Sink, error) {
	if !cfg.MLflow.Use {
		return tracking.NoopSink{}, nil
	}
	return tracking.NewMLflowSink(ctx, cfg.MLflow.TrackingURI, cfg.MLflow.ExperimentName, nil)
}
