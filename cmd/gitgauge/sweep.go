package main

import (
	"github.com/spf13/cobra"

	"github.com/gitgauge/gitgauge/internal/config"
	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/logging"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale checkout directories left behind by interrupted scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		logger := logging.NewStdoutLogger("Sweep")
		gitfetch.New(cfg.Fetcher, logger).SweepStale()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
