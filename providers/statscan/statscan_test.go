package statscan

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

const vectorFixture = `[{
	"status": "SUCCESS",
	"object": {
		"vectorId": 65201210,
		"coordinate": "1.1.1.1.1.1.1.1.1.1",
		"vectorDataPoint": [
			{"refPer": "2022-01", "value": 120.5},
			{"refPer": "2022-02", "value": 121.1}
		]
	}
}]`

func TestFetchKnownIndicator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(vectorFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "GDP"}, nil)
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderStatsCan, a.Tag())
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2022-01-01", series.Points[0].Date)
	assert.Equal(t, model.FrequencyMonthly, series.Metadata.Frequency)
}

func TestFetchUnknownIndicatorRejected(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{Code: "SOME_UNDISCOVERABLE_THING"}, nil)
	require.Error(t, err)
}

func TestFetchNumericVectorID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(vectorFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{"vectorId": "v65201210"})
	require.NoError(t, err)
}

func TestResolveVectorIDEmpty(t *testing.T) {
	_, _, err := resolveVectorID("")
	require.Error(t, err)
}
