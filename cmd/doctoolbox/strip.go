// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doctoolbox/internal/batch"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

var stripCmd = &cobra.Command{
	Use:   "strip",
	Short: "Remove the trailing image from .docx files",
	Long: `Strip finds every .docx file under the root that the ledger has not
recorded and removes its last graphical object when nothing but empty
paragraphs follows it, including text in later table cells. At most one image
is removed per document; documents ending in text are left untouched.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindBatchFlags(cmd, stripPipeline); err != nil {
			return err
		}
		return bindFlags(cmd, map[string]string{"ext": "strip.ext"})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := batchConfig(stripPipeline)
		if err != nil {
			return err
		}
		cfg := types.StripConfig{
			BatchConfig: base,
			Ext:         viper.GetString("strip.ext"),
		}

		closer, err := setupLogging(cfg.ErrorLog)
		if err != nil {
			return err
		}
		defer closer.Close()

		res, err := batch.RunStrip(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return runError(res, cfg.ErrorLog)
	},
}

func init() {
	addBatchFlags(stripCmd)
	stripCmd.Flags().String("ext", "", "extension of documents to edit (default .docx)")

	rootCmd.AddCommand(stripCmd)
}
