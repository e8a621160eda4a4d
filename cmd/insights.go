package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/epitrack/covid-cli/internal/insight"
	"github.com/epitrack/covid-cli/internal/report"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Peak events and cross-country rankings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		outFormat, err := report.ParseFormat(flagOutput)
		if err != nil {
			return err
		}

		cleaned, _, err := loadAndClean(ctx)
		if err != nil {
			return err
		}

		insights, err := insight.Analyze(cleaned, focusCountries())
		if err != nil {
			return err
		}

		return report.Insights(os.Stdout, insights, outFormat)
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
