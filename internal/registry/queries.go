package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

const selectColumns = `extension_id, name, type, element, folder, client_id, enabled, manifest_cache`

// Insert adds a registry record and sets rec.ID to the assigned id.
// Hosts insert records during installation; addonsweep uses it for fixtures.
func (s *Store) Insert(ctx context.Context, rec *extension.Record) error {
	query := `
		INSERT INTO extensions (name, type, element, folder, client_id, enabled, manifest_cache)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rec.Name,
		string(rec.Kind),
		rec.Element,
		rec.Folder,
		int(rec.Scope),
		rec.Enabled,
		rec.ManifestBlob,
	)
	if err != nil {
		return wrapErr(fmt.Sprintf("failed to insert extension %s", rec.Element), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}
	rec.ID = id

	return nil
}

// Get retrieves one record by id.
func (s *Store) Get(ctx context.Context, id int64) (*extension.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM extensions WHERE extension_id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("extension #%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("failed to get extension #%d", id), err)
	}

	return rec, nil
}

// ListFamily returns every record whose element or folder contains prefix,
// ordered by kind then name. instr() keeps the match case-sensitive; LIKE
// would not be for ASCII.
func (s *Store) ListFamily(ctx context.Context, prefix string) ([]*extension.Record, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM extensions
		WHERE instr(element, ?) > 0 OR instr(folder, ?) > 0
		ORDER BY type, name
	`

	rows, err := s.db.QueryContext(ctx, query, prefix, prefix)
	if err != nil {
		return nil, wrapErr("failed to list extensions", err)
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

// Delete removes exactly one registry record.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM extensions WHERE extension_id = ?`, id)
	if err != nil {
		return wrapErr(fmt.Sprintf("failed to delete extension #%d", id), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("extension #%d: %w", id, ErrNotFound)
	}

	return nil
}

// Count returns the number of registry records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extensions`).Scan(&n); err != nil {
		return 0, wrapErr("failed to count extensions", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*extension.Record, error) {
	var rec extension.Record
	var kind string
	var scope int

	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&kind,
		&rec.Element,
		&rec.Folder,
		&scope,
		&rec.Enabled,
		&rec.ManifestBlob,
	)
	if err != nil {
		return nil, err
	}

	rec.Kind = extension.Kind(kind)
	rec.Scope = extension.Scope(scope)
	return &rec, nil
}
