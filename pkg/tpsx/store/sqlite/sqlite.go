package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/store"
)

// sqliteStore implements store.ModelStore on SQLite.
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDGenerator
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// models table when missing.
func OpenSQLite(ctx context.Context, path string) (store.ModelStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrPersistence)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrPersistence)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: init schema: %v: %w", path, err, internalerr.ErrPersistence)
	}

	return &sqliteStore{db: db, ids: store.NewIDGenerator()}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	language TEXT NOT NULL,
	created_at TEXT NOT NULL,
	data BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS models_name ON models(name, id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) SaveModel(ctx context.Context, m store.Model) (string, error) {
	now := time.Now()
	m, err := store.Prepare(m, now)
	if err != nil {
		return "", err
	}
	m.ID = s.ids.New(now)

	const stmt = `
INSERT INTO models (id, name, language, created_at, data)
VALUES (?, ?, ?, ?, ?)
`
	_, err = s.db.ExecContext(ctx, stmt,
		m.ID,
		m.Name,
		m.Language,
		m.CreatedAt.Format(time.RFC3339Nano),
		m.Data,
	)
	if err != nil {
		return "", fmt.Errorf("save model %q: %v: %w", m.Name, err, internalerr.ErrPersistence)
	}
	return m.ID, nil
}

func (s *sqliteStore) GetModel(ctx context.Context, id string) (store.Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, language, created_at, data FROM models WHERE id=?`, id)
	m, err := scanModel(row)
	if err != nil {
		return store.Model{}, fmt.Errorf("model %s: %w", id, err)
	}
	return m, nil
}

func (s *sqliteStore) LatestModel(ctx context.Context, name string) (store.Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, language, created_at, data FROM models WHERE name=? ORDER BY id DESC LIMIT 1`, name)
	m, err := scanModel(row)
	if err != nil {
		return store.Model{}, fmt.Errorf("model %q: %w", name, err)
	}
	return m, nil
}

func (s *sqliteStore) ListModels(ctx context.Context, name string) ([]store.ModelInfo, error) {
	query := `SELECT id, name, language, created_at, length(data) FROM models`
	var args []any
	if name != "" {
		query += ` WHERE name=?`
		args = append(args, name)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list models: %v: %w", err, internalerr.ErrPersistence)
	}
	defer rows.Close()

	var out []store.ModelInfo
	for rows.Next() {
		var (
			info    store.ModelInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Language, &created, &info.Size); err != nil {
			return nil, fmt.Errorf("list models: %v: %w", err, internalerr.ErrPersistence)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("list models: %s: %v: %w", info.ID, err, internalerr.ErrPersistence)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list models: %v: %w", err, internalerr.ErrPersistence)
	}
	return out, nil
}

func (s *sqliteStore) DeleteModel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete model %s: %v: %w", id, err, internalerr.ErrPersistence)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete model %s: %v: %w", id, err, internalerr.ErrPersistence)
	}
	if n == 0 {
		return fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

func scanModel(row *sql.Row) (store.Model, error) {
	var (
		m       store.Model
		created string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Language, &created, &m.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Model{}, internalerr.ErrNotFound
		}
		return store.Model{}, fmt.Errorf("%v: %w", err, internalerr.ErrPersistence)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.Model{}, fmt.Errorf("created_at %q: %v: %w", created, err, internalerr.ErrPersistence)
	}
	m.CreatedAt = t
	return m, nil
}
