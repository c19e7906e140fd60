package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (records only)
// 1 - Added checkpoint table
const currentSchemaVersion = 1

// connParams are go-sqlite3 DSN options applied to every connection.
//
// A snapshot is rewritten whole on each save, so the plain rollback journal
// with full sync is enough. Two CLI invocations may still overlap on one
// file: the busy timeout makes the second wait, and immediate transactions
// take the write lock before the old snapshot is cleared.
var connParams = url.Values{
	"_journal_mode": {"DELETE"},
	"_synchronous":  {"FULL"},
	"_busy_timeout": {"5000"},
	"_txlock":       {"immediate"},
}

// Store persists roster snapshots in SQLite.
type Store struct {
	db   *sql.DB
	path string

	// Logger receives soft warnings for skipped rows. Nil discards them.
	Logger *slog.Logger
}

// Open creates or opens the roster database at path and brings its schema
// up to date. Reopening a database keeps its snapshot.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: snapshots are saved and loaded by a single caller,
	// and ":memory:" databases only live as long as their connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate creates missing tables and upgrades older snapshots, recording
// the result in user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if version < 1 {
		if err := seedCheckpoint(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// seedCheckpoint gives databases written before the checkpoint table
// existed a counter equal to their largest stored id.
func seedCheckpoint(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO checkpoint (singleton, last_id)
		SELECT 1, m FROM (SELECT MAX(id) AS m FROM records)
		WHERE m IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM checkpoint)
	`)
	if err != nil {
		return fmt.Errorf("seed checkpoint: %w", err)
	}
	return nil
}
