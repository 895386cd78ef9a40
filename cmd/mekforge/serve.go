package main

import (
	"github.com/mektycoon/mekforge/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversion HTTP server",
	Long: `Exposes the converters over HTTP. Uploads are rendered once and cached,
in Redis when --redis is given and in memory otherwise. The OpenAPI
document is served at /openapi.yaml and Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := cli.ServeOptions{Port: env.Config.Server.Port, RedisAddr: env.Config.Server.RedisAddr}
		setInt(cmd.Flags(), "port", &o.Port)
		setString(cmd.Flags(), "redis", &o.RedisAddr)
		return runWithSignals(cmd, func(ctx *cli.SignalContext) error {
			return cli.RunServe(ctx, env, o)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for the render cache (host:port)")
}
