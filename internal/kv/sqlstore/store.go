// Package sqlstore is a kv.Store on SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store keeps one row per key. Expired rows stay until Sweep removes them;
// Get treats them as absent.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// New opens driver ("sqlite3" or "postgres") and applies migrations.
func New(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if driver == "sqlite3" {
		// One writer avoids "database is locked" under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver, now: time.Now}, nil
}

type row struct {
	Value     string        `db:"entry_value"`
	ExpiresAt sql.NullInt64 `db:"expires_at"`
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var r row
	err := s.db.GetContext(ctx, &r,
		s.db.Rebind(`SELECT entry_value, expires_at FROM kv_entries WHERE entry_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if r.ExpiresAt.Valid && r.ExpiresAt.Int64 <= s.now().UnixMilli() {
		return "", false, nil
	}
	return r.Value, true, nil
}

func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: s.now().Add(ttl).UnixMilli(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO kv_entries (entry_key, entry_value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, expires_at = excluded.expires_at`),
		key, value, expires)
	return err
}

// Sweep deletes expired rows.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`),
		s.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
