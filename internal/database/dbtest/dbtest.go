// Package dbtest opens an in-memory SQLite database carrying the same
// tables and unique indexes as schema.sql, for use in tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/iliyamo/faculty-fest/internal/database"
)

const schema = `
CREATE TABLE registrants (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  sic_number    TEXT NOT NULL UNIQUE,
  email         TEXT NOT NULL UNIQUE,
  phone         TEXT NOT NULL,
  name          TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  visit_order   INTEGER NULL UNIQUE,
  created_at    DATETIME NOT NULL
);
CREATE TABLE user_roles (
  registrant_id INTEGER NOT NULL,
  role          TEXT NOT NULL,
  PRIMARY KEY (registrant_id, role)
);
CREATE TABLE refresh_tokens (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  registrant_id INTEGER NOT NULL,
  token_hash    TEXT NOT NULL UNIQUE,
  expires_at    DATETIME NOT NULL,
  revoked_at    DATETIME NULL,
  created_at    DATETIME NOT NULL
);
CREATE TABLE events (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  name        TEXT NOT NULL,
  description TEXT NULL,
  event_date  DATETIME NOT NULL,
  total_seats INTEGER NOT NULL,
  created_at  DATETIME NOT NULL
);
CREATE TABLE seat_bookings (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  registrant_id INTEGER NOT NULL,
  event_id      INTEGER NOT NULL,
  seat_number   INTEGER NOT NULL,
  booked_at     DATETIME NOT NULL,
  UNIQUE (event_id, registrant_id),
  UNIQUE (event_id, seat_number)
);
CREATE TABLE voucher_claims (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  registrant_id INTEGER NOT NULL UNIQUE,
  tier_id       TEXT NOT NULL,
  code          TEXT NOT NULL UNIQUE,
  claimed_at    DATETIME NOT NULL
);
`

// Open returns a fresh database that is closed when the test ends.
// A single connection keeps the in-memory database shared across
// goroutines, so concurrent callers are served one statement at a
// time.  Use OpenFile for tests that need statements from several
// connections to contend.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	return prepare(t, db)
}

// OpenFile returns a file-backed database in WAL mode with a pool of
// connections.  Writers still take turns on the database lock, but
// each goroutine runs on its own connection and the unique indexes
// arbitrate between them.
func OpenFile(t testing.TB, conns int) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fest.db")
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	return prepare(t, db)
}

func prepare(t testing.TB, db *sql.DB) *sql.DB {
	t.Helper()
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Exec(context.Background(), db, schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}
