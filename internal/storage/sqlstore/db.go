// Package sqlstore persists the render cache in PostgreSQL or SQLite.
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Open connects to the database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables for the connection's dialect if they are
// missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	name := "schema/postgres.sql"
	if db.DriverName() == DriverSQLite {
		name = "schema/sqlite.sql"
	}

	schema, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}
