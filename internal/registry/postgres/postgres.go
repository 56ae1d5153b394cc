// Package postgres implements the registry store for hosts whose extension
// table lives in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/registry"
)

// DB is a pgx-backed registry store.
type DB struct {
	Pool  *pgxpool.Pool
	table string
}

// Connect opens a pool for url and verifies it with a ping. table names the
// host's extension table; empty means "extensions".
func Connect(ctx context.Context, url, table string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry DSN: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to registry: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping registry: %w", err)
	}

	if table == "" {
		table = "extensions"
	}
	return &DB{Pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

// Close releases the pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// selectColumns tolerates host schemas with nullable text columns and
// integer (0/1) enabled or client flags.
const selectColumns = `extension_id, COALESCE(name, ''), COALESCE(type, ''), COALESCE(element, ''),
        COALESCE(folder, ''), COALESCE(client_id::int, 0), COALESCE(enabled::int, 0) <> 0,
        COALESCE(manifest_cache, '')`

// ListFamily returns records whose element or folder contains prefix,
// ordered by kind then name. strpos() keeps the match case-sensitive.
func (db *DB) ListFamily(ctx context.Context, prefix string) ([]*extension.Record, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+selectColumns+`
        FROM `+db.table+`
        WHERE strpos(element, $1) > 0 OR strpos(folder, $1) > 0
        ORDER BY type, name
    `, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}
	defer rows.Close()

	var records []*extension.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extension row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extensions: %w", err)
	}
	return records, nil
}

// Get retrieves one record by id.
func (db *DB) Get(ctx context.Context, id int64) (*extension.Record, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM `+db.table+` WHERE extension_id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("extension #%d: %w", id, registry.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extension #%d: %w", id, err)
	}
	return rec, nil
}

// Delete removes exactly one registry record.
func (db *DB) Delete(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM `+db.table+` WHERE extension_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete extension #%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("extension #%d: %w", id, registry.ErrNotFound)
	}
	return nil
}

func scanRecord(row pgx.Row) (*extension.Record, error) {
	var rec extension.Record
	var kind string
	var scope int32

	if err := row.Scan(&rec.ID, &rec.Name, &kind, &rec.Element, &rec.Folder, &scope, &rec.Enabled, &rec.ManifestBlob); err != nil {
		return nil, err
	}
	rec.Kind = extension.Kind(kind)
	rec.Scope = extension.Scope(scope)
	return &rec, nil
}

var _ registry.Registry = (*DB)(nil)
