// Package store persists pipeline snapshots and country summaries.
package store

import (
	"context"

	"github.com/epitrack/covid-cli/internal/model"
)

// Store defines the persistence interface for pipeline results.
type Store interface {
	// CreateSnapshot records a cleaning run and returns it with its
	// generated ID and timestamp.
	CreateSnapshot(ctx context.Context, source string, countries []string, rows, dropped int) (*model.Snapshot, error)

	// SaveSummaries stores the per-country summaries for a snapshot.
	SaveSummaries(ctx context.Context, snapshotID string, summaries []model.CountrySummary) error

	// GetSummaries returns the summaries stored for a snapshot, ordered
	// by country name.
	GetSummaries(ctx context.Context, snapshotID string) ([]model.CountrySummary, error)

	// ListSnapshots returns snapshots newest first, up to limit.
	ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
