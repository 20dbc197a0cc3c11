package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each collection in a table of (id, doc JSONB).
type PostgresStore struct {
	pool   *pgxpool.Pool
	tables Tables
}

func NewPostgresStore(ctx context.Context, connString string, tables Tables) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool, tables: tables}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) table(coll Collection) (string, error) {
	name, err := s.tables.name(coll)
	if err != nil {
		return "", err
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, coll := range []Collection{Listings, Inquiries} {
		table, err := s.table(coll)
		if err != nil {
			return err
		}
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				doc JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, table)
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, coll Collection, id string) (json.RawMessage, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, table), id).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (s *PostgresStore) Scan(ctx context.Context, coll Collection) ([]json.RawMessage, error) {
	table, err := s.table(coll)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT doc FROM %s`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, json.RawMessage(doc))
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Put(ctx context.Context, coll Collection, id string, doc json.RawMessage) error {
	table, err := s.table(coll)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			doc = EXCLUDED.doc,
			updated_at = NOW()`, table)
	_, err = s.pool.Exec(ctx, query, id, string(doc))
	return err
}

func (s *PostgresStore) Update(ctx context.Context, coll Collection, id string, patch json.RawMessage) error {
	table, err := s.table(coll)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			doc = doc || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1`, table)
	tag, err := s.pool.Exec(ctx, query, id, string(patch))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, coll Collection, id string) error {
	table, err := s.table(coll)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	return err
}
