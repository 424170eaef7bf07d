package main

import (
	"github.com/callboard/callboard/internal/dashboard"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the JSON dashboard",
		Long:  "Starts the read-only HTTP dashboard. Blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if port == 0 {
				port = cfg.Dashboard.Port
			}

			return dashboard.Start(cmd.Context(), dashboard.StartOpts{
				DB:   gormDB,
				Port: port,
				Out:  cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().IntVar(&port, "port", 0, "port override (default from config)")
	return cmd
}
