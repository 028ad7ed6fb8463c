// Package dbmigrate applies the snapshot history schema.
package dbmigrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/roivaz/azdo-pr-dashboard/internal/db/migrations"
)

// Manager runs the schema migrations against one database.
type Manager struct {
	migrator *migrate.Migrator
}

// Entry is one migration and whether it has been applied.
type Entry struct {
	Name    string
	Applied bool
}

type Option func(*source)

type source struct {
	fsys fs.FS
	dir  string
}

// FromDir reads migrations from a directory on disk instead of the schema
// compiled into the binary.
func FromDir(dir string) Option {
	return func(s *source) { s.dir = dir }
}

// FromFS reads migrations from fsys.
func FromFS(fsys fs.FS) Option {
	return func(s *source) { s.fsys = fsys }
}

// New builds a manager over the embedded snapshot schema unless an option
// points it elsewhere.
func New(db *bun.DB, opts ...Option) (*Manager, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	src := source{fsys: migrations.FS}
	for _, opt := range opts {
		opt(&src)
	}
	if src.dir != "" {
		abs, err := filepath.Abs(src.dir)
		if err != nil {
			return nil, fmt.Errorf("resolve migrations dir: %w", err)
		}
		src.fsys = os.DirFS(abs)
	}
	if src.fsys == nil {
		return nil, errors.New("migrations source is required")
	}

	set := migrate.NewMigrations()
	if err := set.Discover(src.fsys); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}
	return &Manager{
		migrator: migrate.NewMigrator(db, set, migrate.WithMarkAppliedOnSuccess(true)),
	}, nil
}

func (m *Manager) Init(ctx context.Context) error {
	return m.migrator.Init(ctx)
}

// Up applies every pending migration and returns the names it applied.
func (m *Manager) Up(ctx context.Context) ([]string, error) {
	if err := m.migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	group, err := m.migrator.Migrate(ctx)
	if err != nil {
		return nil, err
	}
	return groupNames(group), nil
}

// Rollback undoes the last steps migration groups; 0 undoes all of them.
func (m *Manager) Rollback(ctx context.Context, steps int) ([]string, error) {
	if steps < 0 {
		return nil, errors.New("steps must be >= 0")
	}
	status, err := m.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, err
	}
	applied := len(status.Applied())
	if steps == 0 || steps > applied {
		steps = applied
	}

	var undone []string
	for i := 0; i < steps; i++ {
		group, err := m.migrator.Rollback(ctx)
		if err != nil {
			return undone, err
		}
		if group == nil || group.IsZero() {
			break
		}
		undone = append(undone, groupNames(group)...)
	}
	return undone, nil
}

// RollbackTo undoes every applied migration newer than target.
func (m *Manager) RollbackTo(ctx context.Context, target string) ([]string, error) {
	if target == "" {
		return nil, errors.New("target version is required")
	}
	status, err := m.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, err
	}

	known := false
	newer := 0
	for _, mig := range status {
		if mig.Name == target {
			known = true
		}
		if mig.IsApplied() && mig.Name > target {
			newer++
		}
	}
	if !known {
		return nil, fmt.Errorf("migration %s not found", target)
	}
	if newer == 0 {
		return nil, nil
	}
	return m.Rollback(ctx, newer)
}

func (m *Manager) Status(ctx context.Context) ([]Entry, error) {
	status, err := m.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(status))
	for _, mig := range status {
		entries = append(entries, Entry{Name: migrationName(mig), Applied: mig.IsApplied()})
	}
	return entries, nil
}

// Reset drops the migration bookkeeping tables and recreates them empty.
func (m *Manager) Reset(ctx context.Context) error {
	return m.migrator.Reset(ctx)
}

func groupNames(group *migrate.MigrationGroup) []string {
	if group == nil {
		return nil
	}
	names := make([]string, 0, len(group.Migrations))
	for _, mig := range group.Migrations {
		names = append(names, migrationName(mig))
	}
	return names
}

func migrationName(mig migrate.Migration) string {
	if mig.Comment == "" {
		return mig.Name
	}
	return mig.Name + "_" + mig.Comment
}
