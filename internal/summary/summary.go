// Package summary extracts the latest-known state per country from a
// cleaned dataset.
package summary

import (
	"fmt"

	"github.com/epitrack/covid-cli/internal/model"
)

// UnknownCountryError reports a summary request for a country with no rows
// in the cleaned dataset.
type UnknownCountryError struct {
	Country string
}

func (e *UnknownCountryError) Error() string {
	return fmt.Sprintf("summary: no cleaned rows for country %q", e.Country)
}

// Summarize builds the summary for one country. The latest row is the
// chronologically last post-sort row; FirstCaseDate is the earliest date
// with total_cases > 0, nil when the country never reported a case.
func Summarize(cd *model.CleanedDataset, country string) (*model.CountrySummary, error) {
	rows := cd.ByLocation(country)
	if len(rows) == 0 {
		return nil, &UnknownCountryError{Country: country}
	}

	latest := rows[len(rows)-1]

	s := &model.CountrySummary{
		Country:         country,
		TotalCases:      latest.TotalCases,
		TotalDeaths:     latest.TotalDeaths,
		DeathRate:       latest.DeathRate,
		VaccinationRate: latest.VaccinationRate,
		CasesPerMillion: latest.CasesPerMillion,
		Population:      latest.Population,
		LatestDate:      latest.Date,
	}

	for _, r := range rows {
		if r.TotalCases > 0 {
			d := r.Date
			s.FirstCaseDate = &d
			break
		}
	}

	return s, nil
}
