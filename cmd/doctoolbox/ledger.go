// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doctoolbox/internal/ledger"
	"github.com/pdiddy/doctoolbox/internal/logging"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the paths a pipeline has processed",
	Long: `Ledger reads the processed-files record of a pipeline without changing it.
Use --pipeline to choose between the convert and strip ledgers.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every processed path",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(l ledger.Ledger, _ string) error {
			for _, p := range l.Paths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		})
	},
}

var ledgerCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of processed paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(l ledger.Ledger, _ string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", l.Len())
			return nil
		})
	},
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the ledger as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withLedger(cmd, func(l ledger.Ledger, source string) error {
			return ledger.Export(cmd.OutOrStdout(), l, source, format)
		})
	},
}

// withLedger opens the ledger selected by the --pipeline and --ledger flags
// and passes it to fn with its location.
func withLedger(cmd *cobra.Command, fn func(l ledger.Ledger, source string) error) error {
	name, _ := cmd.Flags().GetString("pipeline")
	p, err := pipelineByName(name)
	if err != nil {
		return err
	}
	if err := bindFlags(cmd, map[string]string{
		"ledger":         p.key("ledger"),
		"ledger-backend": "ledger.backend",
	}); err != nil {
		return err
	}
	cfg, err := p.ledgerConfig()
	if err != nil {
		return err
	}

	l, err := ledger.OpenReadOnly(cfg, logging.New("ledger"))
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l, cfg.Path)
}

func init() {
	ledgerCmd.PersistentFlags().String("pipeline", "convert", "pipeline whose ledger to read: convert or strip")
	ledgerCmd.PersistentFlags().String("ledger", "", "ledger file (default: beside the executable)")
	ledgerCmd.PersistentFlags().String("ledger-backend", "", "ledger backend: text or sqlite")
	ledgerExportCmd.Flags().String("format", ledger.FormatYAML, "output format: yaml or json")

	ledgerCmd.AddCommand(ledgerListCmd, ledgerCountCmd, ledgerExportCmd)
	rootCmd.AddCommand(ledgerCmd)
}
