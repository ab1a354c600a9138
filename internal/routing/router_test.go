package routing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/model"
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	cat := catalog.New(filepath.Join("..", "..", "catalog", "concepts"))
	require.NoError(t, cat.Load())
	return New(cat)
}

func TestRouteExplicitProviderMentionLocksIn(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "show me GDP growth from FRED"}
	decision := r.Route(intent, "gdp_growth", []string{"US"})
	assert.Equal(t, "FRED", decision.Provider)
	assert.True(t, decision.IsExplicitUserChoice)
}

func TestRouteIntentDeclaredProviderLocksIn(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "unemployment rate", Provider: "WorldBank"}
	decision := r.Route(intent, "unemployment", []string{"US"})
	assert.Equal(t, "WorldBank", decision.Provider)
	assert.True(t, decision.IsExplicitUserChoice)
}

func TestRouteCryptoToCoinGecko(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "bitcoin price today"}
	decision := r.Route(intent, "", nil)
	assert.Equal(t, "CoinGecko", decision.Provider)
	assert.False(t, decision.IsExplicitUserChoice)
}

func TestRouteCurrencyPairCurrent(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "USD to EUR exchange rate"}
	decision := r.Route(intent, "exchange_rate", nil)
	assert.Equal(t, "ExchangeRate", decision.Provider)
}

func TestRouteCurrencyPairHistorical(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "USD/EUR historical trend since 2010"}
	decision := r.Route(intent, "exchange_rate", nil)
	assert.Equal(t, "FRED", decision.Provider)
}

func TestRouteTradeFlowToComtrade(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{
		OriginalQuery: "China exports to United States",
		Parameters:    map[string]string{"reporter": "China", "partner": "United States"},
	}
	decision := r.Route(intent, "exports", nil)
	assert.Equal(t, "Comtrade", decision.Provider)
}

func TestRouteCanadaToStatsCan(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "Canada unemployment rate"}
	decision := r.Route(intent, "unemployment", []string{"CA"})
	assert.Equal(t, "StatsCan", decision.Provider)
}

func TestRouteEUMembersToEurostat(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "inflation in Germany and France"}
	decision := r.Route(intent, "inflation", []string{"DE", "FR"})
	assert.Equal(t, "Eurostat", decision.Provider)
}

func TestRouteBISConceptToBIS(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "global policy rate comparison"}
	decision := r.Route(intent, "interest_rate", []string{"US", "GB"})
	assert.Equal(t, "BIS", decision.Provider)
}

func TestRouteUSOnlySeriesToFRED(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "fed funds rate history"}
	decision := r.Route(intent, "interest_rate", []string{"US"})
	assert.Equal(t, "FRED", decision.Provider)
}

func TestRouteMultiCountryToWorldBank(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "GDP of Brazil and India"}
	decision := r.Route(intent, "gdp", []string{"BR", "IN"})
	assert.Equal(t, "WorldBank", decision.Provider)
}

func TestRouteCatalogOverrideWhenProviderNotAvailable(t *testing.T) {
	r := newRouter(t)
	// GDP lists BIS as not_available and the query names no provider explicitly, so the catalog override applies.
	intent := model.ParsedIntent{OriginalQuery: "global policy rate for GDP concept"}
	decision := r.Route(intent, "gdp", []string{"US", "GB"})
	// bisConceptPattern matches "policy rate" -> routes to BIS deterministically,
	// catalog override should kick in since BIS has no GDP mapping.
	assert.NotEqual(t, "BIS", decision.Provider)
}

func TestRouteUnresolvedWhenNoRuleOrConcept(t *testing.T) {
	r := newRouter(t)
	intent := model.ParsedIntent{OriginalQuery: "something obscure with no signal"}
	decision := r.Route(intent, "", nil)
	assert.Empty(t, decision.Provider)
}

func TestValidateRoutingWarnsOnTradeToFRED(t *testing.T) {
	warning := validateRouting("trade balance this quarter", "FRED")
	assert.NotEmpty(t, warning)
}

func TestValidateRoutingNoWarningNormalCase(t *testing.T) {
	warning := validateRouting("unemployment rate", "FRED")
	assert.Empty(t, warning)
}
