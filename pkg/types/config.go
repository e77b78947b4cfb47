// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LedgerBackend selects how processed paths are persisted.
type LedgerBackend string

const (
	LedgerText   LedgerBackend = "text"
	LedgerSQLite LedgerBackend = "sqlite"
)

// LedgerConfig holds settings for the progress ledger.
type LedgerConfig struct {
	// Backend selects the storage: text (one path per line) or sqlite.
	Backend LedgerBackend `json:"backend" yaml:"backend"`

	// Path is the ledger file location.
	Path string `json:"path" yaml:"path"`
}

// EngineBackend identifies the conversion engine implementation.
type EngineBackend string

const (
	EngineSoffice   EngineBackend = "soffice"
	EngineContainer EngineBackend = "container"
)

// EngineConfig holds settings for the external conversion engine.
type EngineConfig struct {
	// Backend selects the engine: soffice (local LibreOffice) or container.
	Backend EngineBackend `json:"backend" yaml:"backend"`

	// SofficePath is the LibreOffice binary used by the soffice backend.
	SofficePath string `json:"soffice_path" yaml:"soffice_path"`

	// Image is the container image used by the container backend. The image
	// reads a legacy document on stdin and writes the converted document to
	// stdout.
	Image string `json:"image" yaml:"image"`
}

// BatchConfig holds the settings shared by every batch pipeline.
type BatchConfig struct {
	// Root is the directory scanned recursively for candidate files.
	Root string `json:"root" yaml:"root"`

	// Workers is the number of concurrent workers (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// ErrorLog is the path of the persistent error log.
	ErrorLog string `json:"error_log" yaml:"error_log"`

	// DryRun lists candidates without processing them.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	Ledger LedgerConfig `json:"ledger" yaml:"ledger"`
}

// ConvertConfig holds settings for the legacy-to-XML conversion pipeline.
type ConvertConfig struct {
	BatchConfig `yaml:",inline"`

	// SourceExt is the legacy extension to discover (e.g. ".doc").
	SourceExt string `json:"source_ext" yaml:"source_ext"`

	// TargetExt replaces SourceExt on the converted file (e.g. ".docx").
	TargetExt string `json:"target_ext" yaml:"target_ext"`

	Engine EngineConfig `json:"engine" yaml:"engine"`
}

// StripConfig holds settings for the trailing-image removal pipeline.
type StripConfig struct {
	BatchConfig `yaml:",inline"`

	// Ext is the extension of documents to edit (e.g. ".docx").
	Ext string `json:"ext" yaml:"ext"`
}
