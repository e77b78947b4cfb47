// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doctoolbox CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doctoolbox/internal/engine"
	"github.com/pdiddy/doctoolbox/internal/pool"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the doctoolbox CLI.
var rootCmd = &cobra.Command{
	Use:   "doctoolbox",
	Short: "Batch maintenance for word-processing document archives",
	Long: `doctoolbox walks a directory tree and applies one transformation to every
matching document with a pool of workers. Completed files are recorded in a
ledger beside the executable, so an interrupted run resumes where it stopped.

Each pipeline is a subcommand: convert turns legacy .doc files into .docx,
strip removes the trailing image from .docx files, and ledger inspects what a
pipeline has already processed.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doctoolbox.yaml or ~/.config/doctoolbox/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "console log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("workers", pool.DefaultWorkers)
	viper.SetDefault("ledger.backend", "text")
	viper.SetDefault("convert.source_ext", ".doc")
	viper.SetDefault("convert.target_ext", ".docx")
	viper.SetDefault("strip.ext", ".docx")
	viper.SetDefault("engine.backend", "soffice")
	viper.SetDefault("engine.soffice_path", "soffice")
	viper.SetDefault("engine.image", engine.DefaultImage)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doctoolbox")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doctoolbox"))
		}
	}

	viper.SetEnvPrefix("DOCTOOLBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
