// Package insight computes cross-country rankings and peak-case events
// over a cleaned dataset.
package insight

import (
	"sort"

	"go.uber.org/zap"

	"github.com/epitrack/covid-cli/internal/model"
)

// Analyze builds the insight set for the focus countries: a per-country
// peak new_cases event and three descending rankings over the latest row
// per country. Countries whose new_cases was never observed in the raw
// input are omitted from the peak map but still ranked.
func Analyze(cd *model.CleanedDataset, focus []string) (*model.InsightSet, error) {
	set := &model.InsightSet{
		PeakCases: make(map[string]model.PeakEvent),
	}

	var latest []model.CleanedRecord
	for _, country := range focus {
		rows := cd.ByLocation(country)
		if len(rows) == 0 {
			continue
		}
		latest = append(latest, rows[len(rows)-1])

		if peak, ok := peakNewCases(rows); ok {
			set.PeakCases[country] = peak
		}
	}

	set.DeathRates = rankBy(latest, func(r model.CleanedRecord) float64 { return r.DeathRate })
	set.VaccinationRates = rankBy(latest, func(r model.CleanedRecord) float64 { return r.VaccinationRate })
	set.CasesPerMillion = rankBy(latest, func(r model.CleanedRecord) float64 { return r.CasesPerMillion })

	zap.L().Debug("insights generated",
		zap.Int("ranked", len(latest)),
		zap.Int("peaks", len(set.PeakCases)),
	)

	return set, nil
}

// peakNewCases finds the row with maximum new_cases among rows that trace
// back to a real observation. The first maximum wins on ties.
func peakNewCases(rows []model.CleanedRecord) (model.PeakEvent, bool) {
	var peak model.PeakEvent
	found := false
	for _, r := range rows {
		if !r.NewCasesObserved {
			continue
		}
		if !found || r.NewCases > peak.Cases {
			peak = model.PeakEvent{Date: r.Date, Cases: r.NewCases}
			found = true
		}
	}
	return peak, found
}

// rankBy sorts the latest-per-country view descending by the keyed value,
// breaking ties by country name ascending for determinism.
func rankBy(latest []model.CleanedRecord, key func(model.CleanedRecord) float64) []model.RankEntry {
	entries := make([]model.RankEntry, 0, len(latest))
	for _, r := range latest {
		entries = append(entries, model.RankEntry{Location: r.Location, Value: key(r)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Location < entries[j].Location
	})
	return entries
}
