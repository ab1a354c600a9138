package exchangerate

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

const ratesFixture = `{
	"result": "success",
	"time_last_update_utc": "Sun, 19 Oct 2025 00:02:31 +0000",
	"rates": {"EUR": 0.92, "GBP": 0.79, "JPY": 149.5}
}`

func TestFetchSingleTargetCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{
		"baseCurrency": "USD", "targetCurrency": "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderExchangeRate, a.Tag())
	require.Len(t, series.Points, 1)
	assert.Equal(t, "2025-10-19", series.Points[0].Date)
	assert.InDelta(t, 0.92, *series.Points[0].Value, 0.0001)
	assert.Equal(t, model.FrequencyDaily, series.Metadata.Frequency)
}

func TestFetchMultipleTargetCurrencies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{
		"targetCurrencies": "EUR,GBP",
	})
	require.NoError(t, err)
	assert.Len(t, series.Points, 2)
	assert.Equal(t, model.FrequencyCategory, series.Metadata.Frequency)
}

func TestFetchMissingTargetCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ratesFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{"targetCurrency": "XYZ"})
	require.Error(t, err)
}

func TestFetchHistoricalRequiresAPIKey(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.FetchHistorical(context.Background(), "USD", "EUR", 2024, 1, 15)
	require.Error(t, err)
}

func TestCurrencyCodeAliasing(t *testing.T) {
	assert.Equal(t, "USD", currencyCode("dollar"))
	assert.Equal(t, "EUR", currencyCode("EUR"))
}
