package main

import (
	"strings"

	"github.com/mektycoon/mekforge"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mekforge",
	Run: func(cmd *cobra.Command, args []string) {
		if env.Printer.IsTerminal() && !env.Quiet {
			env.Printer.PrintBanner(strings.TrimSpace(mekforge.Version))
			return
		}
		env.Printer.Printf("mekforge version %s\n", strings.TrimSpace(mekforge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
