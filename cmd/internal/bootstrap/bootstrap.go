package bootstrap

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	sitetree "github.com/goliatone/go-sitetree"
	"github.com/google/uuid"
)

// Options carries CLI flags shared by the sitetree tools.
type Options struct {
	DSN           string
	Driver        string
	DefaultLocale string
	LogLevel      string
	BatchSize     int
}

// BuildModule constructs a sitetree module for CLI use. An empty DSN wires
// the in-memory storage, anything else opens a database with the selected
// driver (sqlite3 by default, postgres via pgdriver). The returned cleanup
// closes the database handle.
func BuildModule(opts Options) (*sitetree.Module, func() error, error) {
	cfg := sitetree.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = opts.LogLevel
	if strings.TrimSpace(opts.DefaultLocale) != "" {
		cfg.DefaultLocale = opts.DefaultLocale
	}
	if opts.BatchSize > 0 {
		cfg.Scheduler.BatchSize = opts.BatchSize
	}

	cleanup := func() error { return nil }
	var moduleOpts []sitetree.Option

	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		db, err := openDB(opts.Driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		cfg.Storage.Provider = "bun"
		moduleOpts = append(moduleOpts, sitetree.WithDB(db))
		cleanup = db.Close
	}

	module, err := sitetree.New(cfg, moduleOpts...)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	return module, cleanup, nil
}

func openDB(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres", "pg":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// ParseUUID accepts an empty string as uuid.Nil.
func ParseUUID(raw string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(trimmed)
}
