package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/epitrack/covid-cli/internal/cleaner"
	"github.com/epitrack/covid-cli/internal/model"
	"github.com/epitrack/covid-cli/internal/source"
	"github.com/epitrack/covid-cli/internal/store"
)

// locators resolves the primary and fallback data locations, flags
// winning over config.
func locators() (primary, fallback string) {
	primary = cfg.Source.URL
	if flagURL != "" {
		primary = flagURL
	}
	fallback = cfg.Source.Fallback
	if flagFile != "" {
		fallback = flagFile
	}
	return primary, fallback
}

// focusCountries resolves the focus set, flags winning over config.
func focusCountries() []string {
	if len(flagCountries) > 0 {
		return flagCountries
	}
	return cfg.Clean.FocusCountries
}

// loadAndClean runs the load and clean stages and returns the cleaned
// dataset plus the locator that actually served the data.
func loadAndClean(ctx context.Context) (*model.CleanedDataset, string, error) {
	primary, fallback := locators()

	src := source.New(cfg.Fetch)
	ds, err := src.Load(ctx, primary, fallback)
	if err != nil {
		return nil, "", eris.Wrap(err, "load dataset")
	}

	cleaned, err := cleaner.Clean(ds, focusCountries())
	if err != nil {
		return nil, "", eris.Wrap(err, "clean dataset")
	}
	return cleaned, ds.Source, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "covid.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
