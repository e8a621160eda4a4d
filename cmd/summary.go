package main

import (
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/epitrack/covid-cli/internal/model"
	"github.com/epitrack/covid-cli/internal/report"
	"github.com/epitrack/covid-cli/internal/summary"
)

var (
	summaryCountry string
	summarySave    bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Per-country summaries of the cleaned dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		outFormat, err := report.ParseFormat(flagOutput)
		if err != nil {
			return err
		}

		cleaned, src, err := loadAndClean(ctx)
		if err != nil {
			return err
		}

		countries := focusCountries()
		if summaryCountry != "" {
			countries = []string{summaryCountry}
		}

		summaries, err := summarizeAll(cleaned, countries)
		if err != nil {
			return err
		}

		if err := report.Summaries(os.Stdout, summaries, outFormat); err != nil {
			return err
		}

		if !summarySave {
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		snap, err := st.CreateSnapshot(ctx, src, cleaned.Locations(), len(cleaned.Records), cleaned.Dropped)
		if err != nil {
			return eris.Wrap(err, "create snapshot")
		}
		if err := st.SaveSummaries(ctx, snap.ID, summaries); err != nil {
			return eris.Wrap(err, "save summaries")
		}
		zap.L().Info("summaries saved", zap.String("snapshot", snap.ID), zap.Int("count", len(summaries)))
		return nil
	},
}

// summarizeAll computes summaries for each country concurrently. The
// cleaned dataset is read-only at this point so the goroutines share it
// without copies.
func summarizeAll(cleaned *model.CleanedDataset, countries []string) ([]model.CountrySummary, error) {
	g := new(errgroup.Group)
	g.SetLimit(4)

	var mu sync.Mutex
	summaries := make([]model.CountrySummary, 0, len(countries))

	for _, country := range countries {
		g.Go(func() error {
			s, err := summary.Summarize(cleaned, country)
			if err != nil {
				return err
			}
			mu.Lock()
			summaries = append(summaries, *s)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Country < summaries[j].Country })
	return summaries, nil
}

func init() {
	summaryCmd.Flags().StringVar(&summaryCountry, "country", "", "summarize a single country")
	summaryCmd.Flags().BoolVar(&summarySave, "save", false, "persist summaries alongside a snapshot")
	rootCmd.AddCommand(summaryCmd)
}
