// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine drives the external application that converts legacy
// documents to the XML-based format.
//
// An Engine creates Sessions. A Session is expensive to start and is owned
// by exactly one worker for the worker's whole run; it is never shared.
// Documents opened through a Session are saved with SaveAs and released with
// Close.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/doctoolbox/internal/container"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// Format is the engine's numeric output-format contract.
type Format int

// FormatXMLDocument is the structured XML word-processing format (.docx).
const FormatXMLDocument Format = 12

func (f Format) String() string {
	if f == FormatXMLDocument {
		return "xml-document"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ErrLocked is returned by Open when another application holds the document.
var ErrLocked = errors.New("document is locked by another application")

// ErrUnsupportedFormat is returned by SaveAs for formats the engine cannot
// write.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Engine starts conversion sessions.
type Engine interface {
	// Name identifies the backend in logs.
	Name() string

	// NewSession starts one engine instance. Callers must Quit it.
	NewSession(ctx context.Context) (Session, error)
}

// Session is one live engine instance.
type Session interface {
	// Open loads the document at path.
	Open(ctx context.Context, path string) (Document, error)

	// Quit shuts the instance down and releases its resources.
	Quit() error
}

// Document is an open document handle.
type Document interface {
	// SaveAs writes the document to path in format. An existing file at
	// path is replaced only once the new content is complete.
	SaveAs(ctx context.Context, path string, format Format) error

	// Close releases the handle. With discard set, unsaved output is
	// dropped. Close is safe to call more than once.
	Close(discard bool) error
}

// New builds the engine selected by cfg.
func New(ctx context.Context, cfg types.EngineConfig) (Engine, error) {
	switch cfg.Backend {
	case types.EngineSoffice, "":
		return NewSoffice(cfg.SofficePath), nil
	case types.EngineContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainer(rt, cfg.Image), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q (want %s or %s)",
			cfg.Backend, types.EngineSoffice, types.EngineContainer)
	}
}

// checkOpenable verifies path is a regular file that no LibreOffice instance
// has locked. LibreOffice leaves ".~lock.<name>#" beside an open document.
func checkOpenable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("opening %s: not a regular file", path)
	}
	lock := filepath.Join(filepath.Dir(path), ".~lock."+filepath.Base(path)+"#")
	if _, err := os.Stat(lock); err == nil {
		return fmt.Errorf("opening %s: %w", path, ErrLocked)
	}
	return nil
}

// replaceFile moves staged onto target. Rename within one directory is
// atomic, so a reader never observes a partial target.
func replaceFile(staged, target string) error {
	info, err := os.Stat(staged)
	if err != nil {
		return fmt.Errorf("engine produced no output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("engine produced empty output for %s", target)
	}
	if err := os.Rename(staged, target); err != nil {
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	return nil
}
