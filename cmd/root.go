package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/epitrack/covid-cli/internal/config"
)

var cfg *config.Config

// Shared data-source flags, registered on the root so every subcommand
// that runs the pipeline picks them up.
var (
	flagURL       string
	flagFile      string
	flagCountries []string
	flagOutput    string
)

var rootCmd = &cobra.Command{
	Use:   "covid-cli",
	Short: "COVID-19 tabular data pipeline",
	Long:  "Loads COVID-19 case data from a primary URL with a local fallback, cleans and imputes it per country, and reports summaries, rankings and peak events.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "primary data URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagFile, "file", "", "fallback locator: local file, http(s) or ftp URL (overrides config)")
	rootCmd.PersistentFlags().StringSliceVar(&flagCountries, "countries", nil, "focus countries (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "table", "output format: table or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
