// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// TextLedger stores one absolute path per line in a flat text file.
type TextLedger struct {
	mu    sync.Mutex
	path  string
	paths set
	log   *slog.Logger

	readOnly bool
}

// LoadText reads the ledger at path. A missing file is an empty ledger. Any
// other read failure is logged and the ledger starts empty; the run only
// repeats work in that case.
func LoadText(path string, logger *slog.Logger) *TextLedger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &TextLedger{path: path, paths: set{}, log: logger}

	if err := l.load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l
		}
		logger.Error("Failed to load processed log", "path", path, "error", err)
		l.paths = set{}
		return l
	}
	logger.Info(fmt.Sprintf("Loaded %d processed files from history.", len(l.paths)), "path", path)
	return l
}

func (l *TextLedger) load() error {
	f, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		l.paths[line] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", l.path, err)
	}
	return nil
}

// Contains reports whether path is in the ledger.
func (l *TextLedger) Contains(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.paths[path]
	return ok
}

// Mark adds path to the set and appends it to the file immediately. Marking
// an already-known path is a no-op.
func (l *TextLedger) Mark(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.readOnly {
		return ErrReadOnly
	}
	if _, ok := l.paths[path]; ok {
		return nil
	}
	l.paths[path] = struct{}{}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening processed log %s: %w", l.path, err)
	}
	if _, err := f.WriteString(path + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing processed log %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing processed log %s: %w", l.path, err)
	}
	return nil
}

func (l *TextLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

func (l *TextLedger) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paths.sorted()
}

// Close is a no-op; every Mark closes the file it opened.
func (l *TextLedger) Close() error { return nil }
