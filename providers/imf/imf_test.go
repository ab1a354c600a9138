package imf

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

func TestFetchExtractsSingleCountry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":{"NGDP_RPCH":{"USA":{"2021":5.7,"2022":1.9},"GBR":{"2021":8.6}}}}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "NGDP_RPCH", Name: "Real GDP growth"}, map[string]string{"country": "US"})
	require.NoError(t, err)
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2021-01-01", series.Points[0].Date)
	assert.Equal(t, model.DataTypePercentChange, series.Metadata.DataType)
	assert.Equal(t, "percent", series.Metadata.Unit)
	assert.Equal(t, routing.ProviderIMF, a.Tag())
}

func TestFetchNormalizesDecimalPercentages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":{"LUR":{"USA":{"2022":0.036}}}}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "LUR"}, map[string]string{"country": "US"})
	require.NoError(t, err)
	require.NotNil(t, series.Points[0].Value)
	assert.InDelta(t, 3.6, *series.Points[0].Value, 0.0001)
}

func TestFetchYearRangeFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":{"LP":{"USA":{"2018":1,"2019":2,"2020":3,"2021":4}}}}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "LP"}, map[string]string{
		"country": "US", "startDate": "2019", "endDate": "2020",
	})
	require.NoError(t, err)
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2019-01-01", series.Points[0].Date)
	assert.Equal(t, "2020-01-01", series.Points[1].Date)
}

func TestFetchCountryNotInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":{"NGDP_RPCH":{"GBR":{"2021":8.6}}}}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "NGDP_RPCH"}, map[string]string{"country": "US"})
	require.Error(t, err)
}

func TestFetchIndicatorNotInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":{}}`))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "NGDP_RPCH"}, nil)
	require.Error(t, err)
}

func TestFetchNoIndicatorCode(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, nil)
	require.Error(t, err)
}
