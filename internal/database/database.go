// Package database persists generated layouts in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/spyice/room-generator/internal/logger"
)

// Database wraps the connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database selected by cfg.Driver and runs the
// schema migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.Postgres.DSN()
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*PostgresDialect); ok {
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
	} else {
		// One connection keeps PRAGMAs applied to every statement.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Opened layout database", "driver", dialect.DriverName())
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	pk := d.dialect.SerialPrimaryKey()
	ts := d.dialect.TimestampType()
	flag := d.dialect.BooleanType()

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS layouts (
			id ` + pk + `,
			seed BIGINT NOT NULL,
			saved_at ` + ts + ` NOT NULL,
			created_at ` + ts + ` DEFAULT CURRENT_TIMESTAMP,
			tile_size_x INTEGER NOT NULL,
			tile_size_y INTEGER NOT NULL,
			bounds_x INTEGER NOT NULL,
			bounds_y INTEGER NOT NULL,
			bounds_width INTEGER NOT NULL,
			bounds_height INTEGER NOT NULL,
			room_count INTEGER NOT NULL,
			connection_count INTEGER NOT NULL,
			` + d.dialect.PathColumn() + `
		)`,

		`CREATE TABLE IF NOT EXISTS layout_rooms (
			layout_id BIGINT NOT NULL REFERENCES layouts(id) ON DELETE CASCADE,
			room_id INTEGER NOT NULL,
			anchor_x INTEGER NOT NULL,
			anchor_y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			is_main ` + flag + ` NOT NULL,
			visible ` + flag + ` NOT NULL,
			room_type TEXT NOT NULL,
			tiles TEXT NOT NULL,
			PRIMARY KEY (layout_id, room_id)
		)`,

		`CREATE TABLE IF NOT EXISTS layout_connections (
			layout_id BIGINT NOT NULL REFERENCES layouts(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			room1_id INTEGER NOT NULL,
			room2_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			orientation TEXT NOT NULL,
			PRIMARY KEY (layout_id, position)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_layouts_seed ON layouts(seed)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}
