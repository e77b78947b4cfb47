// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strip removes the trailing graphical object from .docx documents.
package strip

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/pdiddy/doctoolbox/internal/docx"
	"github.com/pdiddy/doctoolbox/internal/logging"
	"github.com/pdiddy/doctoolbox/internal/trailing"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// Marker records a processed path. ledger.Ledger satisfies it.
type Marker interface {
	Mark(path string) error
}

// Stripper edits one document per call and is safe for concurrent use.
type Stripper struct {
	ledger Marker
	log    *slog.Logger
}

// NewStripper returns a Stripper that marks handled documents in ledger.
func NewStripper(ledger Marker, logger *slog.Logger) *Stripper {
	if logger == nil {
		logger = logging.New("strip")
	}
	return &Stripper{ledger: ledger, log: logger}
}

// StripFile removes the trailing image of the document at path, if it has
// one. The document is rewritten only when an image was removed. Both the
// removed and unchanged outcomes mark the path; a failure leaves it unmarked.
func (s *Stripper) StripFile(_ context.Context, path string) (types.Outcome, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, "loading %s", path)
	}

	res := trailing.ScanBody(doc.Body())
	outcome := types.OutcomeUnchanged
	if res.Apply() {
		if err := doc.Save(path); err != nil {
			return types.OutcomeFailed, errors.Wrapf(err, "saving %s", path)
		}
		outcome = types.OutcomeRemoved
		s.log.Debug("Removed last image from: " + path)
	} else {
		s.log.Debug("No trailing image in: "+path, "state", res.State)
	}

	if err := s.ledger.Mark(path); err != nil {
		s.log.Error("Failed to write to processed log", "path", path, logging.ErrorKey, err)
	}
	return outcome, nil
}
