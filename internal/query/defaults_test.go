package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econdata/econfed/internal/model"
)

func withFixedNow(t *testing.T, fixed time.Time) {
	t.Helper()
	old := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = old })
}

func TestFillDefaultsAppliesWideLookbackByDefault(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	intent := model.ParsedIntent{Parameters: map[string]string{}}
	filled := FillDefaults(intent)
	assert.Equal(t, "2014-06-15", filled.Parameters["startDate"])
	assert.Equal(t, "2024-06-15", filled.Parameters["endDate"])
	assert.Equal(t, "annual", filled.Parameters["frequency"])
	assert.Equal(t, "US", filled.Parameters["country"])
}

func TestFillDefaultsNarrowWindowForExchangeRate(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	intent := model.ParsedIntent{Provider: "exchangerate", Parameters: map[string]string{}}
	filled := FillDefaults(intent)
	assert.Equal(t, "2024-03-15", filled.Parameters["startDate"])
}

func TestFillDefaultsDoesNotOverwriteExplicitDates(t *testing.T) {
	intent := model.ParsedIntent{Parameters: map[string]string{"startDate": "2000-01-01"}}
	filled := FillDefaults(intent)
	assert.Equal(t, "2000-01-01", filled.Parameters["startDate"])
	assert.Equal(t, "", filled.Parameters["endDate"])
}

func TestFillDefaultsSkipsCountryWhenCountriesListGiven(t *testing.T) {
	intent := model.ParsedIntent{Parameters: map[string]string{"countries": "US,CA,MX"}}
	filled := FillDefaults(intent)
	assert.Equal(t, "", filled.Parameters["country"])
}

func TestAnalyzeComplexityFlagsMultiCountry(t *testing.T) {
	intent := model.ParsedIntent{Parameters: map[string]string{"countries": "US,CA,MX,DE,JP"}}
	c := AnalyzeComplexity(intent)
	require.Contains(t, c.Factors, "multi_country")
	assert.True(t, c.RequiresBreakdown)
	assert.Equal(t, 5, c.CountryCount)
}

func TestAnalyzeComplexitySkipsBreakdownWhenDecompositionAlreadySet(t *testing.T) {
	intent := model.ParsedIntent{
		Parameters:    map[string]string{"countries": "US,CA,MX,DE"},
		Decomposition: &model.Decomposition{Type: "region", Entities: []string{"US", "CA", "MX", "DE"}},
	}
	c := AnalyzeComplexity(intent)
	assert.False(t, c.RequiresBreakdown)
}

func TestYearsOf(t *testing.T) {
	assert.Equal(t, 2020, YearsOf("2020-05-01"))
	assert.Equal(t, 0, YearsOf(""))
	assert.Equal(t, 0, YearsOf("abcd"))
}
