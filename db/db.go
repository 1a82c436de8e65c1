// Package db loads the filtered record subset into PostgreSQL.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	"github.com/aluiziolira/go-catalog-crawler/pipeline"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	DatabaseURL string
	Table       string
}

// DB wraps the sink connection.
type DB struct {
	client *sql.DB
	table  string
}

var tablePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New opens a PostgreSQL connection and verifies it with a ping.
func New(cfg *Config) (*DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if !tablePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("table name %q is not a valid identifier", cfg.Table)
	}

	client, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &DB{client: client, table: cfg.Table}, nil
}

// InitFromEnv creates a sink connection from DATABASE_URL.
func InitFromEnv(table string) (*DB, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	return New(&Config{DatabaseURL: url, Table: table})
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.client.Close()
}

// ReplaceFiltered replaces the sink table's contents with records. The
// load is transactional: either the table ends up holding exactly the
// given rows, or it is left untouched. An empty input loads nothing and
// is not an error.
func (d *DB) ReplaceFiltered(ctx context.Context, records []*pipeline.CleanRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.client.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	createStmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			title TEXT NOT NULL,
			price_gbp DOUBLE PRECISION NOT NULL,
			availability TEXT NOT NULL,
			rating TEXT NOT NULL,
			product_url TEXT NOT NULL,
			page_num INTEGER NOT NULL
		)`, d.table)
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return 0, fmt.Errorf("create table %s: %w", d.table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", d.table)); err != nil {
		return 0, fmt.Errorf("clear table %s: %w", d.table, err)
	}

	insertStmt := fmt.Sprintf(
		"INSERT INTO %s (title, price_gbp, availability, rating, product_url, page_num) VALUES ($1, $2, $3, $4, $5, $6)",
		d.table,
	)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Title,
			rec.PriceGBP,
			rec.Availability,
			rec.Rating,
			rec.ProductURL,
			rec.PageNum,
		); err != nil {
			return 0, fmt.Errorf("insert record %q: %w", rec.ProductURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}
	return len(records), nil
}

// CountRows returns the number of rows currently in the sink table, used
// as a post-load verification.
func (d *DB) CountRows(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", d.table)
	if err := d.client.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", d.table, err)
	}
	return count, nil
}
