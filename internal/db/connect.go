package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	pgdriver "github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	dbmigrate "github.com/roivaz/azdo-pr-dashboard/internal/db/migrate"
)

// Config describes the snapshot history database.
type Config struct {
	DSN           string
	Debug         bool   // log every query
	MigrationsDir string // empty uses the schema compiled into the binary
	AutoMigrate   bool   // apply pending migrations on Open instead of failing
	HistoryMax    int    // snapshots kept; <= 0 keeps everything
}

type Database struct {
	bun *bun.DB
	cfg Config
}

// Connect builds the handle without touching the network.
func Connect(cfg Config) (*Database, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres DSN is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		bunDB.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Database{bun: bunDB, cfg: cfg}, nil
}

// Open connects, checks the server answers and makes sure the schema is
// current before any snapshot is written.
func Open(ctx context.Context, cfg Config) (*Database, error) {
	database, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.Ping(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.EnsureSchema(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// Migrations returns a migration manager for the configured source.
func (d *Database) Migrations() (*dbmigrate.Manager, error) {
	var opts []dbmigrate.Option
	if d.cfg.MigrationsDir != "" {
		opts = append(opts, dbmigrate.FromDir(d.cfg.MigrationsDir))
	}
	return dbmigrate.New(d.bun, opts...)
}

// EnsureSchema applies or reports pending migrations depending on AutoMigrate.
func (d *Database) EnsureSchema(ctx context.Context) error {
	manager, err := d.Migrations()
	if err != nil {
		return err
	}
	return dbmigrate.EnsureCurrent(ctx, manager, d.cfg.AutoMigrate)
}

func (d *Database) HistoryMax() int {
	return d.cfg.HistoryMax
}

func (d *Database) Bun() *bun.DB {
	return d.bun
}

func (d *Database) Close() error {
	return d.bun.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.bun.PingContext(ctx)
}
