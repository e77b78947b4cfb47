// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records which files a batch run has fully processed so an
// interrupted run can resume without redoing completed work.
//
// The ledger is append-only. A path is marked only after its transformation
// and every destructive side effect have completed. Backends serialize the
// in-memory set and the durable write behind a single mutex, so one Ledger
// value is safe to share across workers.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pdiddy/doctoolbox/pkg/types"
)

// Ledger is the durable set of processed file paths.
type Ledger interface {
	// Contains reports whether path was already processed.
	Contains(path string) bool

	// Mark records path as processed. The path is kept in memory even when
	// the durable write fails; the error is returned for logging.
	Mark(path string) error

	// Len returns the number of known paths.
	Len() int

	// Paths returns the known paths in sorted order.
	Paths() []string

	// Close releases the backing store.
	Close() error
}

// Open returns the ledger selected by cfg.Backend. Load failures of the text
// backend are logged and never fatal; the sqlite backend fails to open only
// when the database itself cannot be created.
func Open(cfg types.LedgerConfig, logger *slog.Logger) (Ledger, error) {
	switch cfg.Backend {
	case types.LedgerText, "":
		return LoadText(cfg.Path, logger), nil
	case types.LedgerSQLite:
		return OpenSQLite(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (want %s or %s)",
			cfg.Backend, types.LedgerText, types.LedgerSQLite)
	}
}

// ErrReadOnly is returned by Mark on a ledger opened with OpenReadOnly.
var ErrReadOnly = errors.New("ledger is opened read-only")

// OpenReadOnly opens the ledger selected by cfg.Backend for inspection. It
// never creates or modifies the backing file; a missing file is an empty
// ledger and Mark fails with ErrReadOnly.
func OpenReadOnly(cfg types.LedgerConfig, logger *slog.Logger) (Ledger, error) {
	switch cfg.Backend {
	case types.LedgerText, "":
		l := LoadText(cfg.Path, logger)
		l.readOnly = true
		return l, nil
	case types.LedgerSQLite:
		return OpenSQLiteReadOnly(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (want %s or %s)",
			cfg.Backend, types.LedgerText, types.LedgerSQLite)
	}
}

// DefaultFile returns the ledger file name for base under backend:
// base.txt for text, base.db for sqlite.
func DefaultFile(base string, backend types.LedgerBackend) string {
	if backend == types.LedgerSQLite {
		return base + ".db"
	}
	return base + ".txt"
}

// set is the in-memory view shared by both backends. Callers hold the
// backend's mutex.
type set map[string]struct{}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
