// Package source resolves a tabular pandemic dataset from HTTP, FTP, or
// local file locators, with primary/fallback semantics.
package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/epitrack/covid-cli/internal/config"
	"github.com/epitrack/covid-cli/internal/fetcher"
	"github.com/epitrack/covid-cli/internal/model"
)

// Source loads datasets. Remote locators go through the injected fetchers,
// everything else is treated as a local file path.
type Source struct {
	http fetcher.Fetcher
	ftp  fetcher.Fetcher
}

// New builds a Source with fetchers configured from cfg.
func New(cfg config.FetchConfig) *Source {
	return &Source{
		http: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.UserAgent,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
			MaxRetries: cfg.MaxRetries,
		}),
		ftp: fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
			MaxRetries: cfg.MaxRetries,
		}),
	}
}

// NewWithFetchers builds a Source with explicit fetchers, for tests.
func NewWithFetchers(httpF, ftpF fetcher.Fetcher) *Source {
	return &Source{http: httpF, ftp: ftpF}
}

// Load resolves the primary locator, falling back to the fallback locator
// on any retrieval or parse failure. When every attempt fails it returns
// an *UnavailableError; no partial dataset is ever returned.
func (s *Source) Load(ctx context.Context, primary, fallback string) (*model.Dataset, error) {
	log := zap.L()

	log.Info("loading dataset", zap.String("locator", primary))
	ds, primaryErr := s.loadOne(ctx, primary)
	if primaryErr == nil {
		log.Info("dataset loaded", zap.String("locator", primary), zap.Int("records", len(ds.Records)))
		return ds, nil
	}
	log.Warn("primary source failed", zap.String("locator", primary), zap.Error(primaryErr))

	if fallback == "" {
		return nil, &UnavailableError{
			PrimaryLocator: primary,
			Primary:        primaryErr,
		}
	}

	log.Info("loading dataset from fallback", zap.String("locator", fallback))
	ds, fallbackErr := s.loadOne(ctx, fallback)
	if fallbackErr == nil {
		log.Info("dataset loaded", zap.String("locator", fallback), zap.Int("records", len(ds.Records)))
		return ds, nil
	}
	log.Warn("fallback source failed", zap.String("locator", fallback), zap.Error(fallbackErr))

	return nil, &UnavailableError{
		PrimaryLocator:  primary,
		FallbackLocator: fallback,
		Primary:         primaryErr,
		Fallback:        fallbackErr,
		HadFallback:     true,
	}
}

// loadOne resolves a single locator into a Dataset.
func (s *Source) loadOne(ctx context.Context, locator string) (*model.Dataset, error) {
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return s.loadRemote(ctx, s.http, locator)
	case strings.HasPrefix(locator, "ftp://"):
		return s.loadRemote(ctx, s.ftp, locator)
	default:
		return loadFile(locator)
	}
}

func (s *Source) loadRemote(ctx context.Context, f fetcher.Fetcher, locator string) (*model.Dataset, error) {
	body, err := f.Download(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	records, err := parseCSV(body)
	if err != nil {
		return nil, err
	}
	return &model.Dataset{Source: locator, Records: records}, nil
}

func loadFile(path string) (*model.Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err := parseXLSX(path)
		if err != nil {
			return nil, err
		}
		return &model.Dataset{Source: path, Records: records}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open file")
	}
	defer file.Close() //nolint:errcheck

	records, err := parseCSV(file)
	if err != nil {
		return nil, err
	}
	return &model.Dataset{Source: path, Records: records}, nil
}
