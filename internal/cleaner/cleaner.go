// Package cleaner filters, normalizes, imputes, and derives metrics over a
// raw pandemic dataset.
package cleaner

import (
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/epitrack/covid-cli/internal/model"
)

// ErrEmptyFocusSet is returned when no focus countries are requested.
var ErrEmptyFocusSet = eris.New("cleaner: focus set is empty")

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Clean runs the full cleaning pipeline: filter to the focus set, normalize
// dates (dropping unparseable records), stable-sort by (location, date),
// forward-fill the key numeric columns per location, and derive the rate
// metrics. The input dataset is not modified.
func Clean(ds *model.Dataset, focus []string) (*model.CleanedDataset, error) {
	if len(focus) == 0 {
		return nil, ErrEmptyFocusSet
	}

	focusSet := make(map[string]bool, len(focus))
	for _, c := range focus {
		focusSet[c] = true
	}

	// Filter and normalize dates in one pass. Records with unparseable
	// dates are dropped and counted rather than failing the pipeline.
	var rows []workRow
	dropped := 0
	for _, rec := range ds.Records {
		if !focusSet[rec.Location] {
			continue
		}
		date, err := parseDate(rec.Date)
		if err != nil {
			dropped++
			zap.L().Debug("dropping record with malformed date",
				zap.String("location", rec.Location),
				zap.String("date", rec.Date),
			)
			continue
		}
		rows = append(rows, workRow{rec: rec, date: date})
	}

	// Stable sort keeps input order for same-day duplicates.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].rec.Location != rows[j].rec.Location {
			return rows[i].rec.Location < rows[j].rec.Location
		}
		return rows[i].date.Before(rows[j].date)
	})

	cleaned := make([]model.CleanedRecord, 0, len(rows))
	for _, row := range rows {
		cleaned = append(cleaned, model.CleanedRecord{
			Location:   row.rec.Location,
			Date:       row.date,
			Population: valueOrZero(row.rec.Population),
		})
	}

	imputeGroups(cleaned, rows)

	for i := range cleaned {
		derive(&cleaned[i])
	}

	zap.L().Info("dataset cleaned",
		zap.Int("rows", len(cleaned)),
		zap.Int("dropped", dropped),
		zap.Int("countries", countDistinct(cleaned)),
	)

	return &model.CleanedDataset{Records: cleaned, Dropped: dropped}, nil
}

// workRow pairs a raw record with its parsed date during cleaning.
type workRow struct {
	rec  model.Record
	date time.Time
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("cleaner: malformed date %q", s)
}

// imputeGroups forward-fills the six key columns within each location
// group. rows and cleaned are parallel slices in sorted order. A value
// still missing at the start of a group becomes 0; the observed flag for
// new_cases stays false in that case so the insight engine can tell a
// real zero-carried value from a defaulted one.
func imputeGroups(cleaned []model.CleanedRecord, rows []workRow) {
	type carry struct {
		value float64
		seen  bool
	}
	var (
		location string
		carried  [6]carry
	)

	columns := func(r model.Record) [6]*float64 {
		return [6]*float64{
			r.TotalCases, r.TotalDeaths, r.TotalVaccinations,
			r.PeopleVaccinated, r.NewCases, r.NewDeaths,
		}
	}

	for i, row := range rows {
		if row.rec.Location != location {
			location = row.rec.Location
			carried = [6]carry{}
		}

		var filled [6]float64
		var observed [6]bool
		for c, v := range columns(row.rec) {
			if v != nil {
				carried[c] = carry{value: *v, seen: true}
			}
			filled[c] = carried[c].value // zero when never seen
			observed[c] = carried[c].seen
		}

		cleaned[i].TotalCases = filled[0]
		cleaned[i].TotalDeaths = filled[1]
		cleaned[i].TotalVaccinations = filled[2]
		cleaned[i].PeopleVaccinated = filled[3]
		cleaned[i].NewCases = filled[4]
		cleaned[i].NewDeaths = filled[5]
		cleaned[i].NewCasesObserved = observed[4]
	}
}

// derive computes death_rate, vaccination_rate, and cases_per_million.
// Denominators at or below zero yield 0, never NaN or negatives.
func derive(r *model.CleanedRecord) {
	if r.TotalCases > 0 {
		r.DeathRate = round2(r.TotalDeaths / r.TotalCases * 100)
	}
	if r.Population > 0 {
		r.VaccinationRate = round2(r.PeopleVaccinated / r.Population * 100)
		r.CasesPerMillion = math.Round(r.TotalCases / r.Population * 1_000_000)
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func countDistinct(records []model.CleanedRecord) int {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[r.Location] = true
	}
	return len(seen)
}
