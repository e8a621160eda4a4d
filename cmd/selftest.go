package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/epitrack/covid-cli/internal/cleaner"
	"github.com/epitrack/covid-cli/internal/source"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Exercise the load and clean stages against the configured source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "covid-cli selftest")

		failed := false
		primary, fallback := locators()

		src := source.New(cfg.Fetch)
		ds, err := src.Load(ctx, primary, fallback)
		if err != nil {
			failed = true
			fmt.Fprintf(out, "* load: FAIL: %v\n", err)
		} else {
			fmt.Fprintf(out, "* load: ok (%d records from %s)\n", len(ds.Records), ds.Source)
		}

		if ds != nil {
			cleaned, err := cleaner.Clean(ds, focusCountries())
			if err != nil {
				failed = true
				fmt.Fprintf(out, "* clean: FAIL: %v\n", err)
			} else {
				fmt.Fprintf(out, "* clean: ok (%d records, %d dropped)\n", len(cleaned.Records), cleaned.Dropped)
			}
		}

		if failed {
			return eris.New("selftest failed")
		}
		fmt.Fprintln(out, "all stages passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}
