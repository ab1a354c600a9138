package bis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
)

const cbpolResponse = `{
	"data": {
		"dataSets": [{"series": {"0:0": {"observations": {"0": ["5.25"], "1": ["5.5"]}}}}],
		"structure": {
			"dimensions": {
				"observation": [{"id": "TIME_PERIOD", "values": [{"id": "2023-01"}, {"id": "2023-02"}]}],
				"series": [{"id": "FREQ", "values": [{"id": "M"}]}]
			}
		}
	}
}`

func TestFetchPolicyRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cbpolResponse))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "WS_CBPOL"}, map[string]string{"country": "US"})
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderBIS, a.Tag())
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2023-01-01", series.Points[0].Date)
	require.NotNil(t, series.Points[0].Value)
	assert.InDelta(t, 5.25, *series.Points[0].Value, 0.0001)
	assert.Equal(t, model.FrequencyMonthly, series.Metadata.Frequency)
}

func TestFetchUnsupportedCountryRejected(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "WS_CBPOL"}, map[string]string{"country": "ZW"})
	require.Error(t, err)
}

func TestFetchNoDataflowCode(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{"country": "US"})
	require.Error(t, err)
}

func TestSelectBestSeriesPrefersMatchedDimensions(t *testing.T) {
	candidates := []seriesCandidate{
		{Key: "0:0:0:0", Observations: map[string][]*string{"0": {strPtr("1.0")}}},
		{Key: "1:0:0:0", Observations: map[string][]*string{"0": {strPtr("2.0")}}},
	}
	dims := []seriesDimension{
		{ID: "TC_BORROWERS", ValueByID: map[string]int{"A": 0, "P": 1}},
		{ID: "UNIT_TYPE", ValueByID: map[string]int{"770": 0}},
		{ID: "TC_ADJUST", ValueByID: map[string]int{"A": 0}},
		{ID: "VALUATION", ValueByID: map[string]int{"M": 0}},
	}
	key, obs := selectBestSeries(candidates, dims, "WS_TC")
	assert.Equal(t, "1:0:0:0", key)
	assert.NotNil(t, obs)
}

func TestSelectBestSeriesFallsBackToFirst(t *testing.T) {
	candidates := []seriesCandidate{
		{Key: "0:0", Observations: map[string][]*string{"0": {strPtr("1.0")}}},
	}
	key, obs := selectBestSeries(candidates, nil, "WS_UNKNOWN")
	assert.Equal(t, "0:0", key)
	assert.NotNil(t, obs)
}

func TestParseSDMXPeriodQuarterly(t *testing.T) {
	date, year, ok := parseSDMXPeriod("2020-Q3")
	require.True(t, ok)
	assert.Equal(t, "2020-07-01", date)
	assert.Equal(t, 2020, year)
}

func TestParseSDMXPeriodAnnual(t *testing.T) {
	date, year, ok := parseSDMXPeriod("2020")
	require.True(t, ok)
	assert.Equal(t, "2020-01-01", date)
	assert.Equal(t, 2020, year)
}

func strPtr(s string) *string { return &s }
