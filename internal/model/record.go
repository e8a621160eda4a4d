// Package model defines the data structures passed between pipeline stages.
package model

import "time"

// Record is one country-date observation as ingested. Numeric fields are
// pointers because any of them may be absent in the source data; the raw
// date string is kept as-is until the cleaner normalizes it.
type Record struct {
	Location          string   `json:"location"`
	Date              string   `json:"date"`
	TotalCases        *float64 `json:"total_cases,omitempty"`
	TotalDeaths       *float64 `json:"total_deaths,omitempty"`
	TotalVaccinations *float64 `json:"total_vaccinations,omitempty"`
	PeopleVaccinated  *float64 `json:"people_vaccinated,omitempty"`
	NewCases          *float64 `json:"new_cases,omitempty"`
	NewDeaths         *float64 `json:"new_deaths,omitempty"`
	Population        *float64 `json:"population,omitempty"`
}

// Dataset is the raw ingested table. Rows are in source order: not
// necessarily sorted, and one location may appear with many dates.
type Dataset struct {
	Source  string   `json:"source"`
	Records []Record `json:"records"`
}

// CleanedRecord is one row after filtering, imputation, and metric
// derivation. All numeric fields are defined; the Observed flags record
// whether a value traces back to a real observation rather than the
// zero default used when a location group starts with missing data.
type CleanedRecord struct {
	Location          string    `json:"location"`
	Date              time.Time `json:"date"`
	TotalCases        float64   `json:"total_cases"`
	TotalDeaths       float64   `json:"total_deaths"`
	TotalVaccinations float64   `json:"total_vaccinations"`
	PeopleVaccinated  float64   `json:"people_vaccinated"`
	NewCases          float64   `json:"new_cases"`
	NewDeaths         float64   `json:"new_deaths"`
	Population        float64   `json:"population"`

	DeathRate       float64 `json:"death_rate"`
	VaccinationRate float64 `json:"vaccination_rate"`
	CasesPerMillion float64 `json:"cases_per_million"`

	NewCasesObserved bool `json:"new_cases_observed"`
}

// CleanedDataset is the cleaned table, sorted by (location, date)
// ascending. Dropped counts records discarded for unparseable dates.
type CleanedDataset struct {
	Records []CleanedRecord `json:"records"`
	Dropped int             `json:"dropped"`
}

// Locations returns the distinct locations present, in first-seen
// (sorted) order.
func (cd *CleanedDataset) Locations() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range cd.Records {
		if !seen[r.Location] {
			seen[r.Location] = true
			out = append(out, r.Location)
		}
	}
	return out
}

// ByLocation returns the rows for one location, preserving date order.
func (cd *CleanedDataset) ByLocation(location string) []CleanedRecord {
	var out []CleanedRecord
	for _, r := range cd.Records {
		if r.Location == location {
			out = append(out, r)
		}
	}
	return out
}

// CountrySummary is the latest-known state of one country plus its
// first-case date. FirstCaseDate is nil when the country never reported
// a positive total_cases.
type CountrySummary struct {
	Country         string     `json:"country"`
	TotalCases      float64    `json:"total_cases"`
	TotalDeaths     float64    `json:"total_deaths"`
	DeathRate       float64    `json:"death_rate"`
	VaccinationRate float64    `json:"vaccination_rate"`
	CasesPerMillion float64    `json:"cases_per_million"`
	Population      float64    `json:"population"`
	FirstCaseDate   *time.Time `json:"first_case_date,omitempty"`
	LatestDate      time.Time  `json:"latest_date"`
}

// PeakEvent records the date a country hit its maximum new_cases value.
type PeakEvent struct {
	Date  time.Time `json:"date"`
	Cases float64   `json:"cases"`
}

// RankEntry is one (country, value) pair in a descending ranking.
type RankEntry struct {
	Location string  `json:"location"`
	Value    float64 `json:"value"`
}

// InsightSet aggregates cross-country rankings and per-country peaks.
// Countries whose new_cases was never observed are absent from PeakCases
// but still ranked.
type InsightSet struct {
	PeakCases        map[string]PeakEvent `json:"peak_cases"`
	DeathRates       []RankEntry          `json:"death_rates"`
	VaccinationRates []RankEntry          `json:"vaccination_rates"`
	CasesPerMillion  []RankEntry          `json:"cases_per_million"`
}

// Snapshot records one persisted pipeline run.
type Snapshot struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Countries []string  `json:"countries"`
	Rows      int       `json:"rows"`
	Dropped   int       `json:"dropped"`
	CreatedAt time.Time `json:"created_at"`
}
