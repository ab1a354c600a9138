package comtrade

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

const tradeFixture = `{"data": [
	{"period": "2021", "flowDesc": "Export", "cmdCode": "TOTAL", "cmdDesc": "Total Trade", "reporterDesc": "USA", "primaryValue": 1500000000000},
	{"period": "2022", "flowDesc": "Export", "cmdCode": "TOTAL", "cmdDesc": "Total Trade", "reporterDesc": "USA", "primaryValue": 1600000000000}
]}`

func TestFetchTotalTrade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tradeFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	series, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{
		"reporter": "US", "flow": "EXPORT", "commodity": "TOTAL",
	})
	require.NoError(t, err)
	assert.Equal(t, routing.ProviderComtrade, a.Tag())
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2021-01-01", series.Points[0].Date)
	assert.Equal(t, model.DataTypeLevel, series.Metadata.DataType)
}

func TestFetchTaiwanReporterFlipsToPartnerPerspective(t *testing.T) {
	var gotReporterCode, gotPartnerCode, gotFlow string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReporterCode = r.URL.Query().Get("reporterCode")
		gotPartnerCode = r.URL.Query().Get("partnerCode")
		gotFlow = r.URL.Query().Get("flowCode")
		w.Write([]byte(tradeFixture))
	}))
	defer server.Close()

	a := New(Config{BaseURL: server.URL})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{
		"reporter": "Taiwan", "partner": "China", "flow": "EXPORT",
	})
	require.NoError(t, err)
	assert.Equal(t, "156", gotReporterCode) // China reporting instead of Taiwan
	assert.Equal(t, taiwanPartnerCode, gotPartnerCode)
	assert.Equal(t, "M", gotFlow) // Taiwan exports -> partner imports
}

func TestFetchUnrecognizedPartnerRegion(t *testing.T) {
	a := New(Config{BaseURL: "https://example.com"})
	_, err := a.Fetch(context.Background(), model.ResolvedIndicator{}, map[string]string{
		"reporter": "US", "partner": "Middle East",
	})
	require.Error(t, err)
}

func TestCommodityCodeResolution(t *testing.T) {
	assert.Equal(t, "TOTAL", commodityCodeOf(""))
	assert.Equal(t, "8703", commodityCodeOf("automobiles"))
	assert.Equal(t, "8703", commodityCodeOf("HS 8703"))
	assert.Equal(t, "2709", commodityCodeOf("CRUDE_OIL"))
}

func TestGeneratePeriodsAnnual(t *testing.T) {
	assert.Equal(t, "2020,2021,2022", generatePeriods(2020, 2022, "A"))
}
