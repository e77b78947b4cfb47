// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds candidate documents under a directory tree.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pdiddy/doctoolbox/pkg/types"
)

// LockPrefix marks the owner-lock files an open document leaves beside it.
const LockPrefix = "~$"

// Known reports whether a path was already processed. ledger.Ledger
// satisfies it.
type Known interface {
	Contains(path string) bool
}

// IsLockFile reports whether name is an editor lock artifact.
func IsLockFile(name string) bool {
	return strings.HasPrefix(name, LockPrefix)
}

// MatchesExt reports whether name ends in ext, ignoring case.
func MatchesExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// Scan walks root recursively and returns every regular file whose extension
// matches ext (case-insensitive), that is not a lock file, and that known
// does not contain. Entries named with types.WorkPrefix are skipped along
// with their contents. Paths are absolute and cleaned; order follows the walk.
// Unreadable subdirectories are logged and skipped.
func Scan(root, ext string, known Known, logger *slog.Logger) ([]types.CandidateFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	var out []types.CandidateFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if path != absRoot && strings.HasPrefix(name, types.WorkPrefix) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !MatchesExt(name, ext) || IsLockFile(name) {
			return nil
		}
		if known != nil && known.Contains(path) {
			return nil
		}
		out = append(out, types.NewCandidateFile(path))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scan root %s does not exist: %w", absRoot, err)
		}
		return nil, fmt.Errorf("scanning %s: %w", absRoot, err)
	}
	return out, nil
}

// Paths extracts the paths from candidates.
func Paths(candidates []types.CandidateFile) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Path
	}
	return out
}
