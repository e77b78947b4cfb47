// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns legacy word-processing documents into the XML-based
// format through an engine session.
//
// A conversion is strictly ordered: open, save as the new format, close,
// delete the legacy file, record it in the ledger. The legacy file is
// deleted only after the new file is completely written, so an interrupted
// conversion can always be retried.
package convert

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pdiddy/doctoolbox/internal/engine"
	"github.com/pdiddy/doctoolbox/internal/logging"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// DefaultTargetExt is the extension of converted documents.
const DefaultTargetExt = ".docx"

// Marker records a processed path. ledger.Ledger satisfies it.
type Marker interface {
	Mark(path string) error
}

// Converter converts one document per call. It holds no per-file state and
// is shared by all workers; each worker passes its own session.
type Converter struct {
	targetExt string
	ledger    Marker
	log       *slog.Logger
}

// NewConverter returns a Converter that writes targetExt files and marks
// completed sources in ledger.
func NewConverter(targetExt string, ledger Marker, logger *slog.Logger) *Converter {
	if targetExt == "" {
		targetExt = DefaultTargetExt
	}
	if logger == nil {
		logger = logging.New("convert")
	}
	return &Converter{targetExt: targetExt, ledger: ledger, log: logger}
}

// TargetPath returns the output path for src. When targetExt extends the
// source extension, the remainder is appended so the source's spelling is
// kept (report.doc -> report.docx, REPORT.DOC -> REPORT.DOCx); otherwise the
// extension is replaced.
func TargetPath(src, targetExt string) string {
	ext := filepath.Ext(src)
	if ext != "" && len(targetExt) > len(ext) && strings.EqualFold(targetExt[:len(ext)], ext) {
		return src + targetExt[len(ext):]
	}
	return strings.TrimSuffix(src, ext) + targetExt
}

// Target returns the output path for src.
func (c *Converter) Target(src string) string {
	return TargetPath(src, c.targetExt)
}

// ConvertFile converts path with sess. On any failure before the legacy file
// is removed, the document is closed without saving and the legacy file is
// left in place. A ledger write failure after a completed conversion is
// logged and does not fail the file.
func (c *Converter) ConvertFile(ctx context.Context, sess engine.Session, path string) (types.Outcome, error) {
	target := c.Target(path)

	doc, err := sess.Open(ctx, path)
	if err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, "opening %s", path)
	}

	if err := doc.SaveAs(ctx, target, engine.FormatXMLDocument); err != nil {
		c.forceClose(doc, path)
		return types.OutcomeFailed, errors.Wrapf(err, "saving %s as %s", path, target)
	}
	if err := doc.Close(false); err != nil {
		c.forceClose(doc, path)
		return types.OutcomeFailed, errors.Wrapf(err, "closing %s", path)
	}

	if err := os.Remove(path); err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, "removing %s", path)
	}

	if err := c.ledger.Mark(path); err != nil {
		c.log.Error("Failed to write to processed log", "path", path, logging.ErrorKey, err)
	}
	c.log.Info("Converted and removed: " + path)
	return types.OutcomeConverted, nil
}

// forceClose discards the document, ignoring errors.
func (c *Converter) forceClose(doc engine.Document, path string) {
	if err := doc.Close(true); err != nil {
		c.log.Debug("discarding document failed", "path", path, "error", err)
	}
}
