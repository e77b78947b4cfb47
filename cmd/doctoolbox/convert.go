// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doctoolbox/internal/batch"
	"github.com/pdiddy/doctoolbox/internal/engine"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert legacy .doc files to .docx",
	Long: `Convert finds every .doc file under the root that the ledger has not
recorded, converts it to .docx with LibreOffice, and deletes the legacy file
once the new file is completely written. Each worker owns one engine session.

The engine runs either a local soffice binary or a container image (docker or
podman) that reads a document on stdin and writes the converted document to
stdout.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindBatchFlags(cmd, convertPipeline); err != nil {
			return err
		}
		return bindFlags(cmd, map[string]string{
			"source-ext":   "convert.source_ext",
			"target-ext":   "convert.target_ext",
			"engine":       "engine.backend",
			"soffice-path": "engine.soffice_path",
			"image":        "engine.image",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := batchConfig(convertPipeline)
		if err != nil {
			return err
		}
		cfg := types.ConvertConfig{
			BatchConfig: base,
			SourceExt:   viper.GetString("convert.source_ext"),
			TargetExt:   viper.GetString("convert.target_ext"),
			Engine: types.EngineConfig{
				Backend:     types.EngineBackend(viper.GetString("engine.backend")),
				SofficePath: viper.GetString("engine.soffice_path"),
				Image:       viper.GetString("engine.image"),
			},
		}

		closer, err := setupLogging(cfg.ErrorLog)
		if err != nil {
			return err
		}
		defer closer.Close()

		eng, err := engine.New(cmd.Context(), cfg.Engine)
		if err != nil {
			return err
		}

		res, err := batch.RunConvert(cmd.Context(), cfg, eng, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return runError(res, cfg.ErrorLog)
	},
}

func init() {
	addBatchFlags(convertCmd)
	convertCmd.Flags().String("source-ext", "", "legacy extension to convert (default .doc)")
	convertCmd.Flags().String("target-ext", "", "extension of converted files (default .docx)")
	convertCmd.Flags().String("engine", "", "conversion engine: soffice or container")
	convertCmd.Flags().String("soffice-path", "", "LibreOffice binary for the soffice engine")
	convertCmd.Flags().String("image", "", "image for the container engine")

	rootCmd.AddCommand(convertCmd)
}
