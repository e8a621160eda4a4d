// Package report renders cleaned-data summaries and insights as console
// tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rotisserie/eris"

	"github.com/epitrack/covid-cli/internal/format"
	"github.com/epitrack/covid-cli/internal/model"
)

// Format selects the rendering mode.
type Format string

const (
	TableFormat Format = "table"
	JSONFormat  Format = "json"
)

// ParseFormat validates an --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case TableFormat, JSONFormat:
		return Format(s), nil
	case "":
		return TableFormat, nil
	default:
		return "", eris.Errorf("unknown output format %q (want table or json)", s)
	}
}

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgMagenta, color.Bold)
	moderateColor = color.New(color.FgYellow)
	lowColor      = color.New(color.FgCyan)
)

// severityLabel maps a death rate (percent) to a colored console label.
func severityLabel(deathRate float64) string {
	switch {
	case deathRate >= 5:
		return criticalColor.Sprint("Critical")
	case deathRate >= 3:
		return highColor.Sprint("High")
	case deathRate >= 1:
		return moderateColor.Sprint("Moderate")
	default:
		return lowColor.Sprint("Low")
	}
}

// Summaries renders per-country summaries in the requested format.
func Summaries(w io.Writer, summaries []model.CountrySummary, f Format) error {
	if f == JSONFormat {
		return writeJSON(w, summaries)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Country", "Total Cases", "Total Deaths", "Death Rate", "Vax Rate", "Cases/1M", "Population", "First Case", "Severity"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range summaries {
		firstCase := "-"
		if s.FirstCaseDate != nil {
			firstCase = s.FirstCaseDate.Format("2006-01-02")
		}
		data = append(data, []string{
			s.Country,
			format.Number(s.TotalCases),
			format.Number(s.TotalDeaths),
			fmt.Sprintf("%.2f%%", s.DeathRate),
			fmt.Sprintf("%.2f%%", s.VaccinationRate),
			format.Number(s.CasesPerMillion),
			format.Number(s.Population),
			firstCase,
			severityLabel(s.DeathRate),
		})
	}
	if err := table.Bulk(data); err != nil {
		return eris.Wrap(err, "report: build summary table")
	}
	return eris.Wrap(table.Render(), "report: render summary table")
}

// Insights renders peak events and the three rankings.
func Insights(w io.Writer, insights *model.InsightSet, f Format) error {
	if f == JSONFormat {
		return writeJSON(w, insights)
	}

	if len(insights.PeakCases) > 0 {
		fmt.Fprintln(w, "Peak daily cases:")
		if err := renderPeaks(w, insights.PeakCases); err != nil {
			return err
		}
	}

	sections := []struct {
		title   string
		entries []model.RankEntry
		render  func(float64) string
	}{
		{"Death rate ranking:", insights.DeathRates, func(v float64) string { return fmt.Sprintf("%.2f%%", v) }},
		{"Vaccination rate ranking:", insights.VaccinationRates, func(v float64) string { return fmt.Sprintf("%.2f%%", v) }},
		{"Cases per million ranking:", insights.CasesPerMillion, format.Number},
	}
	for _, sec := range sections {
		if len(sec.entries) == 0 {
			continue
		}
		fmt.Fprintln(w, sec.title)
		if err := renderRanking(w, sec.entries, sec.render); err != nil {
			return err
		}
	}
	return nil
}

func renderPeaks(w io.Writer, peaks map[string]model.PeakEvent) error {
	locations := make([]string, 0, len(peaks))
	for loc := range peaks {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Country", "Date", "New Cases"})

	var data [][]string
	for _, loc := range locations {
		peak := peaks[loc]
		data = append(data, []string{loc, peak.Date.Format("2006-01-02"), format.Number(peak.Cases)})
	}
	if err := table.Bulk(data); err != nil {
		return eris.Wrap(err, "report: build peak table")
	}
	return eris.Wrap(table.Render(), "report: render peak table")
}

func renderRanking(w io.Writer, entries []model.RankEntry, render func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Country", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, e := range entries {
		data = append(data, []string{strconv.Itoa(i + 1), e.Location, render(e.Value)})
	}
	if err := table.Bulk(data); err != nil {
		return eris.Wrap(err, "report: build ranking table")
	}
	return eris.Wrap(table.Render(), "report: render ranking table")
}

// Snapshots renders stored snapshot metadata, newest first.
func Snapshots(w io.Writer, snaps []model.Snapshot, f Format) error {
	if f == JSONFormat {
		return writeJSON(w, snaps)
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Source", "Countries", "Rows", "Dropped", "Created"})

	var data [][]string
	for _, s := range snaps {
		data = append(data, []string{
			s.ID,
			s.Source,
			strconv.Itoa(len(s.Countries)),
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Dropped),
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	if err := table.Bulk(data); err != nil {
		return eris.Wrap(err, "report: build snapshot table")
	}
	return eris.Wrap(table.Render(), "report: render snapshot table")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode json")
}
