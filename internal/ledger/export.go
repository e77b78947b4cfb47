// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Snapshot is the exported form of a ledger.
type Snapshot struct {
	Source string   `json:"source" yaml:"source"`
	Count  int      `json:"count" yaml:"count"`
	Paths  []string `json:"paths" yaml:"paths"`
}

// Export writes the ledger's paths to w as YAML or JSON.
func Export(w io.Writer, l Ledger, source, format string) error {
	paths := l.Paths()
	snap := Snapshot{Source: source, Count: len(paths), Paths: paths}

	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding ledger YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding ledger JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatYAML, FormatJSON)
	}
}
