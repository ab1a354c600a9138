package coingecko

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

const simplePriceFixture = `{"bitcoin": {"usd": 67000.5, "usd_24h_vol": 30000000000, "usd_market_cap": 1300000000000, "usd_24h_change": 2.1}}`

func TestFetchSimplePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(simplePriceFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "bitcoin"}, map[string]string{"vsCurrency": "usd"})
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderCoinGecko, a.Tag())
	require.Len(t, series.Points, 1)
	assert.InDelta(t, 67000.5, *series.Points[0].Value, 0.01)
	assert.Equal(t, model.FrequencyRealtime, series.Metadata.Frequency)
}

func TestFetchSimplePriceMissingCoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "dogecoin"}, nil)
	require.Error(t, err)
}

const marketChartFixture = `{"prices": [[1700000000000, 65000.0], [1700086400000, 66000.0]]}`

func TestFetchHistoricalCapsFreeTierDays(t *testing.T) {
	var gotDays string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDays = r.URL.Query().Get("days")
		w.Write([]byte(marketChartFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "bitcoin"}, map[string]string{"days": "1000"})
	require.NoError(t, err)
	assert.Equal(t, "365", gotDays)
	require.Len(t, series.Points, 2)
	assert.Equal(t, model.FrequencyDaily, series.Metadata.Frequency)
}

func TestKeyParamNameSelection(t *testing.T) {
	assert.Equal(t, "x_cg_demo_api_key", keyParamName(true, false))
	assert.Equal(t, "x_cg_pro_api_key", keyParamName(false, true))
	assert.Equal(t, "", keyParamName(false, false))
}
