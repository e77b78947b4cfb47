// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLedger keeps processed paths in a SQLite table. It suits corpora
// large enough that rewriting or scanning a text file matters, and it lets
// other tools query progress while a run is active (WAL mode).
type SQLiteLedger struct {
	mu    sync.Mutex
	db    *sql.DB
	paths set
	log   *slog.Logger

	// readOnly ledgers may have a nil db when the file does not exist.
	readOnly bool
}

// OpenSQLite opens or creates the database at path and loads every recorded
// path into memory. A failure to read existing rows is logged and the ledger
// starts empty, matching the text backend.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	// One writer; the mutex already serializes Mark.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed (
		path TEXT PRIMARY KEY,
		processed_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	l := &SQLiteLedger{db: db, paths: set{}, log: logger}
	if err := l.load(); err != nil {
		logger.Error("Failed to load processed log", "path", path, "error", err)
		l.paths = set{}
	} else {
		logger.Info(fmt.Sprintf("Loaded %d processed files from history.", len(l.paths)), "path", path)
	}
	return l, nil
}

// OpenSQLiteReadOnly loads the database at path without creating or
// migrating it. A missing file is an empty ledger; a file that is not a
// ledger database is logged and treated as empty.
func OpenSQLiteReadOnly(path string, logger *slog.Logger) (*SQLiteLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &SQLiteLedger{paths: set{}, log: logger, readOnly: true}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}
	l.db = db
	if err := l.load(); err != nil {
		logger.Error("Failed to load processed log", "path", path, "error", err)
		l.paths = set{}
	}
	return l, nil
}

func (l *SQLiteLedger) load() error {
	rows, err := l.db.Query(`SELECT path FROM processed`)
	if err != nil {
		return fmt.Errorf("querying processed paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return fmt.Errorf("scanning processed path: %w", err)
		}
		l.paths[p] = struct{}{}
	}
	return rows.Err()
}

func (l *SQLiteLedger) Contains(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.paths[path]
	return ok
}

// Mark inserts path; the insert commits before Mark returns.
func (l *SQLiteLedger) Mark(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.paths[path]; ok {
		return nil
	}
	l.paths[path] = struct{}{}

	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := l.db.Exec(
		`INSERT OR IGNORE INTO processed (path, processed_at) VALUES (?, ?)`, path, ts,
	); err != nil {
		return fmt.Errorf("recording %s: %w", path, err)
	}
	return nil
}

func (l *SQLiteLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

func (l *SQLiteLedger) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paths.sorted()
}

// Close releases the database connection.
func (l *SQLiteLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
