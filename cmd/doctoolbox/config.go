// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doctoolbox/internal/batch"
	"github.com/pdiddy/doctoolbox/internal/ledger"
	"github.com/pdiddy/doctoolbox/internal/logging"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// pipeline names one batch subcommand and its sidecar files.
type pipeline struct {
	name     string // config section and ledger --pipeline value
	ledger   string // default ledger file name without extension
	errorLog string // default error log file name
}

var (
	convertPipeline = pipeline{name: "convert", ledger: "processed_files", errorLog: "conversion_errors.log"}
	stripPipeline   = pipeline{name: "strip", ledger: "processed_image_removal", errorLog: "image_removal_errors.log"}
)

func pipelineByName(name string) (pipeline, error) {
	switch name {
	case convertPipeline.name:
		return convertPipeline, nil
	case stripPipeline.name:
		return stripPipeline, nil
	default:
		return pipeline{}, fmt.Errorf("unknown pipeline %q (want convert or strip)", name)
	}
}

// key returns the pipeline-scoped config key for name.
func (p pipeline) key(name string) string { return p.name + "." + name }

// ledgerConfig returns the configured ledger of p, defaulting to a file
// beside the executable named for the backend.
func (p pipeline) ledgerConfig() (types.LedgerConfig, error) {
	backend := types.LedgerBackend(viper.GetString("ledger.backend"))
	path, err := sidecarPath(viper.GetString(p.key("ledger")), ledger.DefaultFile(p.ledger, backend))
	if err != nil {
		return types.LedgerConfig{}, err
	}
	return types.LedgerConfig{Backend: backend, Path: path}, nil
}

// addBatchFlags registers the flags shared by the batch subcommands.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "number of concurrent workers (default 4)")
	cmd.Flags().String("root", "", "directory to scan recursively (default: current directory)")
	cmd.Flags().String("ledger", "", "ledger file (default: beside the executable)")
	cmd.Flags().String("ledger-backend", "", "ledger backend: text or sqlite")
	cmd.Flags().String("error-log", "", "error log file (default: beside the executable)")
	cmd.Flags().Bool("dry-run", false, "list candidate files without processing them")
}

// bindFlags maps flags of cmd onto config keys. Binding happens when the
// command runs, so subcommands can share flag names with different keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

func bindBatchFlags(cmd *cobra.Command, p pipeline) error {
	return bindFlags(cmd, map[string]string{
		"workers":        "workers",
		"root":           "root",
		"ledger":         p.key("ledger"),
		"ledger-backend": "ledger.backend",
		"error-log":      p.key("error_log"),
		"dry-run":        "dry_run",
	})
}

// batchConfig assembles the shared settings for p from viper.
func batchConfig(p pipeline) (types.BatchConfig, error) {
	ledgerCfg, err := p.ledgerConfig()
	if err != nil {
		return types.BatchConfig{}, err
	}
	errorLog, err := sidecarPath(viper.GetString(p.key("error_log")), p.errorLog)
	if err != nil {
		return types.BatchConfig{}, err
	}
	return types.BatchConfig{
		Root:     viper.GetString("root"),
		Workers:  viper.GetInt("workers"),
		ErrorLog: errorLog,
		DryRun:   viper.GetBool("dry_run"),
		Ledger:   ledgerCfg,
	}, nil
}

// sidecarPath returns configured when set, otherwise name in the directory
// holding the executable.
func sidecarPath(configured, name string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), name), nil
}

// setupLogging installs the default logger: console on stderr and the
// persistent error log at path. The returned closer releases the log file.
func setupLogging(path string) (io.Closer, error) {
	f, err := logging.OpenErrorLog(path)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.ParseLevel(viper.GetString("log.level")), os.Stderr, f)
	return f, nil
}

// runError turns an unsuccessful batch into the command's error.
func runError(res batch.Result, errorLog string) error {
	switch {
	case res.HasFailures():
		return fmt.Errorf("%d of %d files failed; details in %s", res.Failed, res.Total(), errorLog)
	case res.Incomplete():
		return fmt.Errorf("%d files were not attempted; details in %s", res.Pending, errorLog)
	}
	return nil
}
