package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps documents as JSON text. Used for local development and tests.
type SQLiteStore struct {
	db     *sql.DB
	tables Tables
}

func NewSQLiteStore(dbPath string, tables Tables) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, tables: tables}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	for _, coll := range []Collection{Listings, Inquiries} {
		table, err := s.tables.name(coll)
		if err != nil {
			return err
		}
		schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, table)
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, coll Collection, id string) (json.RawMessage, error) {
	table, err := s.tables.name(coll)
	if err != nil {
		return nil, err
	}

	var doc string
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %q WHERE id = ?`, table), id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (s *SQLiteStore) Scan(ctx context.Context, coll Collection) ([]json.RawMessage, error) {
	table, err := s.tables.name(coll)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %q`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, json.RawMessage(doc))
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, coll Collection, id string, doc json.RawMessage) error {
	table, err := s.tables.name(coll)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %q (id, doc) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = CURRENT_TIMESTAMP`, table),
		id, string(doc))
	return err
}

func (s *SQLiteStore) Update(ctx context.Context, coll Collection, id string, patch json.RawMessage) error {
	table, err := s.tables.name(coll)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %q SET
			doc = json_patch(doc, ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, table),
		string(patch), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, coll Collection, id string) error {
	table, err := s.tables.name(coll)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, table), id)
	return err
}
