package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/epitrack/covid-cli/internal/model"
)

var cleanSave bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Load and clean the dataset, reporting row and drop counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cleaned, src, err := loadAndClean(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("dataset cleaned",
			zap.String("source", src),
			zap.Int("rows", len(cleaned.Records)),
			zap.Int("dropped", cleaned.Dropped),
			zap.Strings("locations", cleaned.Locations()),
		)

		if !cleanSave {
			return nil
		}

		snap, err := saveSnapshot(ctx, cleaned, src)
		if err != nil {
			return err
		}
		zap.L().Info("snapshot saved", zap.String("id", snap.ID))
		return nil
	},
}

// saveSnapshot persists snapshot metadata for a cleaned dataset.
func saveSnapshot(ctx context.Context, cleaned *model.CleanedDataset, src string) (*model.Snapshot, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	snap, err := st.CreateSnapshot(ctx, src, cleaned.Locations(), len(cleaned.Records), cleaned.Dropped)
	if err != nil {
		return nil, eris.Wrap(err, "create snapshot")
	}
	return snap, nil
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanSave, "save", false, "persist a snapshot of the cleaned dataset")
	rootCmd.AddCommand(cleanCmd)
}
