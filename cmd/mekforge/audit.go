package main

import (
	"github.com/mektycoon/mekforge/internal/cli"
	"github.com/mektycoon/mekforge/pkg/audit"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check asset folders and catalog source keys",
}

var auditDirsCmd = &cobra.Command{
	Use:   "dirs <dir-a> <dir-b>",
	Short: "List the files present in only one of two folders",
	Long: `Compares two folders by file key: lower-cased name without extension or
the blueprint suffix, so that renders pair with their blueprints.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := audit.DefaultDirOptions()
		if cmd.Flags().Changed("pattern") {
			opts.Pattern, _ = cmd.Flags().GetString("pattern")
		}
		return cli.RunAuditDirs(env, args[0], args[1], opts, reportOptions(cmd))
	},
}

var auditManifestCmd = &cobra.Command{
	Use:   "manifest <dir> <manifest.json>",
	Short: "Check a folder against a JSON manifest",
	Long: `Reports manifest entries with no file in the folder and files the manifest
does not list. The manifest may be an array of names, an array of objects
or an object whose member names are the entries.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mo := audit.ManifestOptions{Key: audit.DefaultManifestKey, Dir: audit.DefaultDirOptions()}
		setString(cmd.Flags(), "key", &mo.Key)
		setBool(cmd.Flags(), "slug", &mo.Slug)
		return cli.RunAuditManifest(env, args[0], args[1], mo, reportOptions(cmd))
	},
}

var auditSourceKeysCmd = &cobra.Command{
	Use:   "source-keys <frequencies.json>",
	Short: "Propose catalog source keys from a frequency table",
	Long: `Matches every variation's count against the codes of its slot in the
frequency table and groups the proposals by confidence. With --out the full
analysis is written as JSON and a summary is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath := env.Config.Catalog.Path
		setString(cmd.Flags(), "catalog", &catalogPath)
		return cli.RunSourceKeys(env, args[0], catalogPath, reportOptions(cmd))
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditDirsCmd, auditManifestCmd, auditSourceKeysCmd)

	pf := auditCmd.PersistentFlags()
	pf.String("format", "", "Report format: markdown or json (default from --out extension)")
	pf.String("out", "", "Write the report to this file")
	pf.Bool("strict", false, "Exit non-zero on differences or source keys needing review")

	auditDirsCmd.Flags().String("pattern", "", "Only compare files matching this glob")
	auditManifestCmd.Flags().String("key", audit.DefaultManifestKey, "Field read from object entries")
	auditManifestCmd.Flags().Bool("slug", false, "Turn entry names into essence file names")
	auditSourceKeysCmd.Flags().String("catalog", "", "Variation catalog; the built-in one by default")
}

func reportOptions(cmd *cobra.Command) cli.ReportOptions {
	var o cli.ReportOptions
	fs := cmd.Flags()
	setString(fs, "format", &o.Format)
	setString(fs, "out", &o.Out)
	setBool(fs, "strict", &o.Strict)
	return o
}
