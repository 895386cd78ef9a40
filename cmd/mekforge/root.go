package main

import (
	"fmt"
	"os"

	"github.com/mektycoon/mekforge/internal/cli"
	"github.com/mektycoon/mekforge/internal/config"
	"github.com/spf13/cobra"
)

// env is built by the root PersistentPreRunE and shared by every command.
var env *cli.Env

var rootCmd = &cobra.Command{
	Use:   "mekforge",
	Short: "mekforge turns Mek renders into blueprint art",
	Long: `mekforge converts Mek renders into blueprint-style drawings, generates
placeholder icons for the variation catalog and audits asset folders.

Settings are read from mekforge.yaml in the working directory when present;
flags override the file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		quiet, _ := cmd.Flags().GetBool("quiet")

		var (
			cfg *config.Config
			err error
		)
		if cmd.Flags().Changed("config") {
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.LoadOptional(path)
		}
		if err != nil {
			return err
		}
		env = cli.NewEnv(cfg, cmd.OutOrStdout(), debug, quiet)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print errors")
}

// runWithSignals runs fn under a context cancelled by Ctrl-C.
func runWithSignals(cmd *cobra.Command, fn func(*cli.SignalContext) error) error {
	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()
	err := cli.HandleExecutionError(fn(ctx))
	if sig := ctx.Signal(); sig != nil {
		env.Logger.Info("interrupted", "signal", sig.String())
	}
	return err
}
