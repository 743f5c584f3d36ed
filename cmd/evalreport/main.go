// Package main provides evalreport, a command-line front end for the thesis
// evaluation reports.
//
// Export every CSV for one program:
//
//	evalreport export --program BSCS --out ./reports --prefix ay2025
//
// Print the program and panelist summaries:
//
//	evalreport summary --term "AY 2025-2026"
//
// Configuration comes from --config (YAML) and the same environment
// variables reportd reads (SOURCE, PORTAL_BASE_URL, DB_DSN, ...).
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	sourceFlag string
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "evalreport",
		Short:        "Thesis evaluation scoring reports",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("EVALREPORT_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Data source: portal|sql (overrides config)")

	rootCmd.AddCommand(
		buildExportCmd(),
		buildSummaryCmd(),
	)
	return rootCmd
}
