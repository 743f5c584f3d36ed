package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts the usual aliases (sqlite3, pgx, postgresql).
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported driver: %s", s)
}

// Open connects to the portal's store. The reporting engine only reads, so no
// schema is applied here; see Migrate for local replicas and tests.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:portal.db?mode=ro&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/thesis_portal?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the portal tables the report queries touch (idempotent).
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// OpenAndMigrate is Open followed by Migrate.
func OpenAndMigrate(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS thesis_groups (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  program TEXT,
  term TEXT
);

CREATE TABLE IF NOT EXISTS schedules (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  scheduled_at TEXT,
  room TEXT,
  status TEXT NOT NULL DEFAULT 'scheduled'
);

CREATE TABLE IF NOT EXISTS schedule_panelists (
  schedule_id TEXT NOT NULL,
  staff_id TEXT NOT NULL,
  PRIMARY KEY (schedule_id, staff_id)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  schedule_id TEXT NOT NULL,
  evaluator_id TEXT NOT NULL,
  status TEXT NOT NULL,
  submitted_at TEXT,
  locked_at TEXT
);

CREATE TABLE IF NOT EXISTS evaluation_scores (
  evaluation_id TEXT NOT NULL,
  criterion_id TEXT NOT NULL,
  score REAL NOT NULL,
  comment TEXT,
  PRIMARY KEY (evaluation_id, criterion_id)
);

CREATE TABLE IF NOT EXISTS rubric_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  active INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS rubric_criteria (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL,
  criterion TEXT NOT NULL,
  weight TEXT, -- free text, coerced on read
  min_score REAL NOT NULL DEFAULT 0,
  max_score REAL NOT NULL DEFAULT 10
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS thesis_groups (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  program TEXT,
  term TEXT
);

CREATE TABLE IF NOT EXISTS schedules (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  scheduled_at TIMESTAMPTZ,
  room TEXT,
  status TEXT NOT NULL DEFAULT 'scheduled'
);

CREATE TABLE IF NOT EXISTS schedule_panelists (
  schedule_id TEXT NOT NULL,
  staff_id TEXT NOT NULL,
  PRIMARY KEY (schedule_id, staff_id)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  schedule_id TEXT NOT NULL,
  evaluator_id TEXT NOT NULL,
  status TEXT NOT NULL,
  submitted_at TIMESTAMPTZ,
  locked_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS evaluation_scores (
  evaluation_id TEXT NOT NULL,
  criterion_id TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL,
  comment TEXT,
  PRIMARY KEY (evaluation_id, criterion_id)
);

CREATE TABLE IF NOT EXISTS rubric_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  version INTEGER NOT NULL DEFAULT 1,
  active BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS rubric_criteria (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL,
  criterion TEXT NOT NULL,
  weight TEXT,
  min_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  max_score DOUBLE PRECISION NOT NULL DEFAULT 10
);
`
