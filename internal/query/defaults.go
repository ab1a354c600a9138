// Package query fills in the parameters a parsed intent left implicit —
// date ranges, frequency, and country — before the intent reaches the
// orchestrator, and flags queries whose shape the standard per-indicator
// fetch path cannot satisfy. Default-filling is provider-aware: Comtrade
// defaults to a wide multi-year range, ExchangeRate/CoinGecko default to
// a narrow recent window. Complexity analysis flags multi-country and
// multi-indicator queries and explicit decomposition requests; a
// multi-country query without a decomposition is marked as needing to be
// broken into several fetches. Ranking queries are not detected.
package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/model"
)

// defaultLookbackYears is how far back a request reaches when the caller
// gave no date range at all, for most providers.
const defaultLookbackYears = 10

// shortWindowProviders get a narrow recent-data default window instead of
// the usual multi-year lookback — exchange rates and crypto prices are
// daily/real-time series where a decade of history is rarely wanted by
// default and is expensive to fetch.
var shortWindowProviders = map[string]bool{
	"exchangerate": true,
	"coingecko":    true,
}

// now is overridable in tests; production code must not call time.Now()
// anywhere else in this package.
var now = time.Now

// FillDefaults returns a copy of intent with startDate/endDate/frequency/
// country parameters filled in wherever the caller left them empty. It
// never overwrites a parameter the caller did set.
func FillDefaults(intent model.ParsedIntent) model.ParsedIntent {
	params := cloneParams(intent.Parameters)

	fillDateRange(params, intent.Provider)
	fillFrequency(params)
	fillCountry(params)

	intent.Parameters = params
	return intent
}

func cloneParams(src map[string]string) map[string]string {
	out := make(map[string]string, len(src)+4)
	for k, v := range src {
		out[k] = v
	}
	return out
}

func fillDateRange(params map[string]string, provider string) {
	if params["startDate"] != "" || params["endDate"] != "" {
		return
	}

	end := now().UTC()
	var start time.Time
	if shortWindowProviders[strings.ToLower(provider)] {
		start = end.AddDate(0, -3, 0)
	} else {
		start = end.AddDate(-defaultLookbackYears, 0, 0)
	}

	params["startDate"] = start.Format("2006-01-02")
	params["endDate"] = end.Format("2006-01-02")
}

func fillFrequency(params map[string]string) {
	if params["frequency"] == "" {
		params["frequency"] = "annual"
	}
}

func fillCountry(params map[string]string) {
	if params["country"] == "" && params["countries"] == "" && params["reporter"] == "" {
		params["country"] = "US"
	}
}

// Complexity describes why a query may need more than a single
// provider.Fetch call to satisfy, mirroring the factors
// QueryComplexityAnalyzer.detect_complexity reports.
type Complexity struct {
	Factors           []string
	RequiresBreakdown bool // decomposition into one fetch per entity
	CountryCount      int
}

// AnalyzeComplexity inspects the resolved country list and indicator count
// to decide whether the orchestrator should decompose this intent into
// several single-entity fetches rather than one direct fetch.
func AnalyzeComplexity(intent model.ParsedIntent) Complexity {
	var factors []string

	countries := splitCountries(intent.Parameters["countries"])
	if len(countries) > 3 {
		factors = append(factors, "multi_country")
	}
	if len(intent.Indicators) > 2 {
		factors = append(factors, "multi_indicator")
	}
	if intent.Decomposition != nil {
		factors = append(factors, "decomposition_requested")
	}

	requiresBreakdown := contains(factors, "multi_country") && intent.Decomposition == nil

	return Complexity{
		Factors:           factors,
		RequiresBreakdown: requiresBreakdown,
		CountryCount:      len(countries),
	}
}

func splitCountries(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// YearsOf parses the leading 4 digits of an ISO date into a year, mirroring
// query.py's `int(params["startDate"][:4])`. Returns 0 on any malformed
// input instead of erroring — callers treat 0 as "no constraint".
func YearsOf(isoDate string) int {
	if len(isoDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(isoDate[:4])
	if err != nil {
		return 0
	}
	return y
}
