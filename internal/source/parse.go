package source

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/epitrack/covid-cli/internal/model"
)

// normalizeCol lowercases and trims a header cell for column matching.
func normalizeCol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapColumns builds a normalized column name → index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[normalizeCol(col)] = i
	}
	return m
}

// getCol gets a column value by normalized name, or "" when absent.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[normalizeCol(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseFloatPtr parses a numeric cell, returning nil for empty or
// unparseable values. Absence is meaningful downstream: the cleaner
// imputes it, it is never silently zero here.
func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// recordFromRow maps one data row into a Record using the header index.
func recordFromRow(row []string, colIdx map[string]int) model.Record {
	return model.Record{
		Location:          strings.TrimSpace(getCol(row, colIdx, "location")),
		Date:              strings.TrimSpace(getCol(row, colIdx, "date")),
		TotalCases:        parseFloatPtr(getCol(row, colIdx, "total_cases")),
		TotalDeaths:       parseFloatPtr(getCol(row, colIdx, "total_deaths")),
		TotalVaccinations: parseFloatPtr(getCol(row, colIdx, "total_vaccinations")),
		PeopleVaccinated:  parseFloatPtr(getCol(row, colIdx, "people_vaccinated")),
		NewCases:          parseFloatPtr(getCol(row, colIdx, "new_cases")),
		NewDeaths:         parseFloatPtr(getCol(row, colIdx, "new_deaths")),
		Population:        parseFloatPtr(getCol(row, colIdx, "population")),
	}
}

// parseCSV reads the covid table from r. The first row must be a header
// containing at least location and date columns.
func parseCSV(r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "source: read CSV header")
	}
	colIdx := mapColumns(header)
	if err := requireColumns(colIdx); err != nil {
		return nil, err
	}

	var records []model.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "source: read CSV row")
		}
		records = append(records, recordFromRow(row, colIdx))
	}

	return records, nil
}

// parseXLSX reads the covid table from the first sheet of an XLSX file.
func parseXLSX(path string) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "source: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("source: xlsx has no sheets")
	}
	sheet := f.Sheets[0]

	var colIdx map[string]int
	var records []model.Record
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			colIdx = mapColumns(cells)
			if err := requireColumns(colIdx); err != nil {
				return nil, err
			}
			continue
		}
		records = append(records, recordFromRow(cells, colIdx))
	}

	return records, nil
}

func requireColumns(colIdx map[string]int) error {
	for _, col := range []string{"location", "date"} {
		if _, ok := colIdx[col]; !ok {
			return eris.Errorf("source: missing required column %q", col)
		}
	}
	return nil
}
