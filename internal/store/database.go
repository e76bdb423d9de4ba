package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fortuna/btts/internal/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const sqlitePrefix = "sqlite://"

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Database is the competition catalog connection. Postgres DSNs use lib/pq;
// sqlite://path DSNs use modernc sqlite.
type Database struct {
	conn   *sql.DB
	driver string
	logger *slog.Logger
}

// NewDatabase opens and pings the database named by dsn.
func NewDatabase(dsn string, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, source := "postgres", dsn
	if strings.HasPrefix(dsn, sqlitePrefix) {
		driver, source = "sqlite", strings.TrimPrefix(dsn, sqlitePrefix)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// :memory: databases are per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	database := &Database{
		conn:   db,
		driver: driver,
		logger: logger.With("component", "store"),
	}
	if err := database.HealthCheck(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// Driver returns the database/sql driver name in use.
func (db *Database) Driver() string {
	return db.driver
}

// Rebind rewrites $N placeholders into the driver's syntax.
func (db *Database) Rebind(query string) string {
	if db.driver != "sqlite" {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}

// RunMigrations applies the embedded migrations in filename order, skipping
// those already recorded in schema_migrations.
func (db *Database) RunMigrations(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	applied := 0
	for _, entry := range entries {
		ran, err := db.runMigration(ctx, entry.Name())
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", entry.Name(), err)
		}
		if ran {
			applied++
		}
	}

	db.logger.Info("✓ migrations complete", "applied", applied, "total", len(entries))
	return nil
}

func (db *Database) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := db.conn.ExecContext(ctx, query)
	return err
}

// runMigration applies one migration file in a transaction if it hasn't been
// applied yet.
func (db *Database) runMigration(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		db.Rebind("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)"), filename).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		db.logger.Debug("migration already applied", "file", filename)
		return false, nil
	}

	content, err := migrationFiles.ReadFile("migrations/" + filename)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return false, fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, db.Rebind("INSERT INTO schema_migrations (version) VALUES ($1)"), filename); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	db.logger.Info("✓ applied migration", "file", filename)
	return true, nil
}

// SeedData inserts competitions that are not present yet. Existing rows,
// including their active flag, are left untouched.
func (db *Database) SeedData(ctx context.Context, competitions []model.Competition) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := db.Rebind(`
		INSERT INTO competitions (competition_id, name, country)
		VALUES ($1, $2, $3)
		ON CONFLICT (competition_id) DO NOTHING
	`)

	inserted := 0
	for _, c := range competitions {
		res, err := tx.ExecContext(ctx, query, c.ID, c.Name, c.Country)
		if err != nil {
			return 0, fmt.Errorf("failed to seed competition %d: %w", c.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	db.logger.Info("✓ seed data complete", "inserted", inserted, "total", len(competitions))
	return inserted, nil
}

// HealthCheck pings the database, giving up after five seconds.
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
