package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"ariga.io/atlas-go-sdk/atlasexec"

	"github.com/setuphub/setuphub/pkg/logger"
)

// Migrator applies versioned migrations from a directory using the Atlas CLI
type Migrator struct {
	db              *Database
	dir             fs.FS
	dryRun          bool
	baselineVersion string
	log             *logger.Logger
}

// NewMigrator creates a migrator reading migrations from dir
func NewMigrator(db *Database, dir string, log *logger.Logger) (*Migrator, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path %s is not a directory", dir)
	}

	return &Migrator{
		db:  db,
		dir: os.DirFS(dir),
		log: log.WithComponent("migrator"),
	}, nil
}

// WithDryRun prints the plan without changing the database
func (m *Migrator) WithDryRun(dryRun bool) *Migrator {
	m.dryRun = dryRun
	return m
}

// WithBaseline skips migrations up to version, for databases created by AutoMigrate
func (m *Migrator) WithBaseline(version string) *Migrator {
	m.baselineVersion = version
	return m
}

func (m *Migrator) client() (*atlasexec.Client, func(), error) {
	workdir, err := atlasexec.NewWorkingDir(atlasexec.WithMigrations(m.dir))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	client, err := atlasexec.NewClient(workdir.Path(), "atlas")
	if err != nil {
		workdir.Close()
		return nil, nil, fmt.Errorf("failed to initialize atlas client: %w", err)
	}

	return client, func() { workdir.Close() }, nil
}

// Apply applies all pending migrations
func (m *Migrator) Apply(ctx context.Context) error {
	if m.db.config == nil {
		return errors.New("migrator requires a configured PostgreSQL database")
	}

	hasSchema := m.hasTable(ctx, "setups")
	hasRevisions := m.hasTable(ctx, "atlas_schema_revisions")

	client, done, err := m.client()
	if err != nil {
		return err
	}
	defer done()

	params := &atlasexec.MigrateApplyParams{
		URL:    m.db.config.URL(),
		DryRun: m.dryRun,
	}

	// Baseline and AllowDirty are mutually exclusive in Atlas
	if hasSchema && !hasRevisions {
		version := m.baselineVersion
		if version == "" {
			if version, err = latestVersion(m.dir); err != nil {
				return err
			}
		}
		if version != "" {
			m.log.Info("Existing schema without migration history, setting baseline", logger.Version(version))
			params.BaselineVersion = version
		}
	} else {
		params.AllowDirty = true
	}

	result, err := client.MigrateApply(ctx, params)
	if err != nil {
		var applyErr *atlasexec.MigrateApplyError
		if errors.As(err, &applyErr) {
			for _, r := range applyErr.Result {
				m.log.Error("Migration failed after partial apply", logger.Int("applied", len(r.Applied)))
			}
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if result == nil {
		m.log.Info("Baseline recorded")
		return nil
	}

	for _, applied := range result.Applied {
		m.log.Info("Applied migration", logger.String("name", applied.Name))
	}
	m.log.Info("Migrations complete",
		logger.Int("applied", len(result.Applied)),
		logger.Int("pending", len(result.Pending)),
	)
	return nil
}

// Status returns the current migration status
func (m *Migrator) Status(ctx context.Context) (*atlasexec.MigrateStatus, error) {
	if m.db.config == nil {
		return nil, errors.New("migrator requires a configured PostgreSQL database")
	}

	client, done, err := m.client()
	if err != nil {
		return nil, err
	}
	defer done()

	status, err := client.MigrateStatus(ctx, &atlasexec.MigrateStatusParams{URL: m.db.config.URL()})
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}
	return status, nil
}

func (m *Migrator) hasTable(ctx context.Context, table string) bool {
	return m.db.db.WithContext(ctx).Migrator().HasTable(table)
}

// latestVersion returns the highest migration version, e.g. "20260301120000"
// for 20260301120000_init.sql
func latestVersion(dir fs.FS) (string, error) {
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var latest string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version := strings.TrimSuffix(name, ".sql")
		if i := strings.IndexByte(version, '_'); i > 0 {
			version = version[:i]
		}
		if version > latest {
			latest = version
		}
	}
	return latest, nil
}
