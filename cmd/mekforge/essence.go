package main

import (
	"github.com/mektycoon/mekforge/internal/cli"
	"github.com/spf13/cobra"
)

var essenceCmd = &cobra.Command{
	Use:   "essence",
	Short: "Generate placeholder icons for every catalog variation",
	Long: `Renders one placeholder icon per variation of the catalog: a dark tile
with a type coloured border and the variation name, wrapped to fit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := cli.EssenceOptions{
			Format:      env.Config.Essence.Format,
			Size:        env.Config.Essence.Size,
			CatalogPath: env.Config.Catalog.Path,
		}
		fs := cmd.Flags()
		setString(fs, "output-dir", &o.OutputDir)
		setString(fs, "format", &o.Format)
		setInt(fs, "size", &o.Size)
		setString(fs, "catalog", &o.CatalogPath)
		return runWithSignals(cmd, func(ctx *cli.SignalContext) error {
			return cli.RunEssence(ctx, env, o)
		})
	},
}

func init() {
	rootCmd.AddCommand(essenceCmd)

	essenceCmd.Flags().StringP("output-dir", "o", "", "Destination folder")
	essenceCmd.Flags().String("format", "webp", "Image format: webp or png")
	essenceCmd.Flags().Int("size", 120, "Icon edge length in pixels")
	essenceCmd.Flags().String("catalog", "", "Variation catalog (YAML or JSON); the built-in one by default")
	_ = essenceCmd.MarkFlagRequired("output-dir")
}
