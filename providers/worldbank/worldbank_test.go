package worldbank

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

func TestFetchSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"page":1,"pages":1,"per_page":"1000","total":2},
			[
				{"indicator":{"id":"NY.GDP.MKTP.CD","value":"GDP (current US$)"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2022","value":25000000000000,"unit":""},
				{"indicator":{"id":"NY.GDP.MKTP.CD","value":"GDP (current US$)"},"country":{"id":"US","value":"United States"},"countryiso3code":"USA","date":"2021","value":23000000000000,"unit":""}
			]
		]`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "NY.GDP.MKTP.CD"}, map[string]string{"country": "US"})
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderWorldBank, a.Tag())
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2021-01-01", series.Points[0].Date)
	assert.Equal(t, "2022-01-01", series.Points[1].Date)
	assert.Equal(t, "United States", series.Metadata.Country)
}

func TestFetchPaginatesAcrossPages(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(`[{"page":1,"pages":2,"total":2},[{"indicator":{"id":"X"},"country":{"value":"World"},"date":"2022","value":1.0}]]`))
			return
		}
		w.Write([]byte(`[{"page":2,"pages":2,"total":2},[{"indicator":{"id":"X"},"country":{"value":"World"},"date":"2021","value":2.0}]]`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "X"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, series.Points, 2)
}

func TestFetchNoIndicatorCode(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, nil)
	require.Error(t, err)
}

func TestFetchEmptyRecordsIsDataNotAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"page":1,"pages":1,"total":0},[]]`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "NY.GDP.MKTP.CD"}, nil)
	require.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"page":1,"pages":1},[{"date":"2022","value":1}]]`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	require.NoError(t, a.HealthCheck(context.Background()))
}
