package eurostat

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

const unemploymentResponse = `{
	"label": "Unemployment rate",
	"value": {"0": 6.4, "1": 6.1, "2": 5.9},
	"dimension": {
		"freq": {"category": {"index": {"A": 0}}},
		"unit": {"category": {"index": {"PC_ACT": 0, "THS_PER": 1}}},
		"geo": {"category": {"index": {"DE": 0}}},
		"time": {"category": {"index": {"2021": 0, "2022": 1, "2023": 2}}}
	},
	"size": [1, 2, 1, 3],
	"id": ["freq", "unit", "geo", "time"]
}`

func TestFetchAnnualRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(unemploymentResponse))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "une_rt_a", Name: "unemployment rate"}, map[string]string{"country": "DE"})
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderEurostat, a.Tag())
	require.Len(t, series.Points, 3)
	assert.Equal(t, "2021-01-01", series.Points[0].Date)
	require.NotNil(t, series.Points[0].Value)
	assert.InDelta(t, 6.4, *series.Points[0].Value, 0.0001)
	assert.Equal(t, model.FrequencyAnnual, series.Metadata.Frequency)
}

func TestFetchRejectsNonEUCountry(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "une_rt_a"}, map[string]string{"country": "US"})
	require.Error(t, err)
}

func TestFetchNoDatasetCode(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{"country": "DE"})
	require.Error(t, err)
}

func TestInferFrequency(t *testing.T) {
	assert.Equal(t, "A", inferFrequency("une_rt_a"))
	assert.Equal(t, "Q", inferFrequency("namq_10_gdp"))
	assert.Equal(t, "M", inferFrequency("prc_hicp_m"))
}

func TestNormalizeTimeLabelQuarterly(t *testing.T) {
	assert.Equal(t, "2020-07-01", normalizeTimeLabel("2020-Q3"))
}

func TestNormalizeTimeLabelMonthly(t *testing.T) {
	assert.Equal(t, "2020-05-01", normalizeTimeLabel("2020-05"))
}

func TestNormalizeTimeLabelAnnual(t *testing.T) {
	assert.Equal(t, "2020-01-01", normalizeTimeLabel("2020"))
}
