// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the doctoolbox pipelines:
// candidate files, per-file outcomes, and pipeline configuration.
package types

import (
	"path/filepath"
	"strings"
)

// WorkPrefix starts the name of every temporary file or directory doctoolbox
// creates inside a scanned tree. Discovery never descends into or returns
// such entries, so output orphaned by a crash is not picked up as input.
const WorkPrefix = ".doctoolbox-"

// Outcome is the result of processing one candidate file.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeRemoved   Outcome = "removed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// Processed reports whether the outcome should be recorded in the ledger.
func (o Outcome) Processed() bool {
	return o != OutcomeFailed && o != ""
}

// CandidateFile is a discovered file eligible for processing.
type CandidateFile struct {
	// Path is absolute and cleaned.
	Path string `json:"path" yaml:"path"`

	// Ext is the lower-cased extension including the dot.
	Ext string `json:"ext" yaml:"ext"`
}

// NewCandidateFile builds a CandidateFile from an absolute path.
func NewCandidateFile(path string) CandidateFile {
	return CandidateFile{
		Path: filepath.Clean(path),
		Ext:  strings.ToLower(filepath.Ext(path)),
	}
}
