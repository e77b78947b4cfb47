// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doctoolbox/internal/batch"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

func TestSidecarPath(t *testing.T) {
	got, err := sidecarPath("/var/log/custom.txt", "processed_files.txt")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/custom.txt", got)

	got, err = sidecarPath("", "processed_files.txt")
	require.NoError(t, err)
	exe, err := os.Executable()
	require.NoError(t, err)
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	assert.Equal(t, filepath.Join(filepath.Dir(exe), "processed_files.txt"), got)
}

func TestPipelineByName(t *testing.T) {
	p, err := pipelineByName("strip")
	require.NoError(t, err)
	assert.Equal(t, "processed_image_removal", p.ledger)
	assert.Equal(t, "image_removal_errors.log", p.errorLog)
	assert.Equal(t, "strip.ledger", p.key("ledger"))

	_, err = pipelineByName("rename")
	assert.Error(t, err)
}

func TestRunError(t *testing.T) {
	assert.NoError(t, runError(batch.Result{Converted: 3}, "errors.log"))

	err := runError(batch.Result{Converted: 2, Failed: 1}, "errors.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")

	err = runError(batch.Result{Pending: 4}, "errors.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 files were not attempted")
}

func TestLedgerConfig_DefaultNameFollowsBackend(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("ledger.backend", "text")
	cfg, err := convertPipeline.ledgerConfig()
	require.NoError(t, err)
	assert.Equal(t, "processed_files.txt", filepath.Base(cfg.Path))

	viper.Set("ledger.backend", "sqlite")
	cfg, err = convertPipeline.ledgerConfig()
	require.NoError(t, err)
	assert.Equal(t, types.LedgerSQLite, cfg.Backend)
	assert.Equal(t, "processed_files.db", filepath.Base(cfg.Path))

	viper.Set("convert.ledger", "/srv/progress.db")
	cfg, err = convertPipeline.ledgerConfig()
	require.NoError(t, err)
	assert.Equal(t, "/srv/progress.db", cfg.Path)
}
