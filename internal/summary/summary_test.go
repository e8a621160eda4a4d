package summary

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epitrack/covid-cli/internal/model"
)

func day(d int) time.Time {
	return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizeUnknownCountry(t *testing.T) {
	cd := &model.CleanedDataset{Records: []model.CleanedRecord{
		{Location: "Kenya", Date: day(1)},
	}}

	_, err := Summarize(cd, "Atlantis")
	require.Error(t, err)

	var uce *UnknownCountryError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "Atlantis", uce.Country)
}

func TestSummarizeLatestRow(t *testing.T) {
	cd := &model.CleanedDataset{Records: []model.CleanedRecord{
		{Location: "Kenya", Date: day(1), TotalCases: 100, TotalDeaths: 2, DeathRate: 2.0,
			VaccinationRate: 1.0, CasesPerMillion: 100, Population: 1000},
		{Location: "Kenya", Date: day(2), TotalCases: 150, TotalDeaths: 3, DeathRate: 2.0,
			VaccinationRate: 1.5, CasesPerMillion: 150, Population: 1000},
	}}

	s, err := Summarize(cd, "Kenya")
	require.NoError(t, err)

	assert.Equal(t, "Kenya", s.Country)
	assert.Equal(t, 150.0, s.TotalCases)
	assert.Equal(t, 3.0, s.TotalDeaths)
	assert.Equal(t, 1.5, s.VaccinationRate)
	assert.Equal(t, day(2), s.LatestDate)
	require.NotNil(t, s.FirstCaseDate)
	assert.Equal(t, day(1), *s.FirstCaseDate)
}

func TestSummarizeFirstCaseDateSkipsLeadingZeros(t *testing.T) {
	cd := &model.CleanedDataset{Records: []model.CleanedRecord{
		{Location: "Kenya", Date: day(1), TotalCases: 0},
		{Location: "Kenya", Date: day(2), TotalCases: 0},
		{Location: "Kenya", Date: day(3), TotalCases: 5},
	}}

	s, err := Summarize(cd, "Kenya")
	require.NoError(t, err)
	require.NotNil(t, s.FirstCaseDate)
	assert.Equal(t, day(3), *s.FirstCaseDate)
}

func TestSummarizeNoCasesEver(t *testing.T) {
	cd := &model.CleanedDataset{Records: []model.CleanedRecord{
		{Location: "Kenya", Date: day(1), TotalCases: 0},
		{Location: "Kenya", Date: day(2), TotalCases: 0},
	}}

	s, err := Summarize(cd, "Kenya")
	require.NoError(t, err)
	assert.Nil(t, s.FirstCaseDate)
	assert.Equal(t, day(2), s.LatestDate)
}

func TestSummarizeIgnoresOtherCountries(t *testing.T) {
	cd := &model.CleanedDataset{Records: []model.CleanedRecord{
		{Location: "Brazil", Date: day(5), TotalCases: 999},
		{Location: "Kenya", Date: day(1), TotalCases: 10},
	}}

	s, err := Summarize(cd, "Kenya")
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.TotalCases)
	assert.Equal(t, day(1), s.LatestDate)
}
