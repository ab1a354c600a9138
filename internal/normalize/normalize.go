// Package normalize is the Data Validator: it catches suspicious economic
// values before they reach a caller, via an indicator-range table,
// unit-mismatch heuristic, percent/sign sanity checks, and a
// severity-weighted confidence score.
package normalize

import (
	"strconv"
	"strings"

	"github.com/econdata/econfed/internal/model"
)

// Severity ranks how serious a validation issue is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Issue is a single validation finding against a series.
type Issue struct {
	Severity      Severity
	Field         string
	Message       string
	Value         float64
	ExpectedRange [2]float64
	Suggestion    string
}

// Result is the outcome of validating one series.
type Result struct {
	Valid      bool
	Issues     []Issue
	Confidence float64 // 0..1
}

type indicatorRange struct {
	min, max float64
	unit     string
}

// indicatorRanges are sanity-check bounds, not strict limits — a value
// outside them is suspicious, not necessarily wrong.
var indicatorRanges = map[string]indicatorRange{
	"GDP":                     {1e9, 100e12, "USD"},
	"GDP_GROWTH":              {-50, 50, "percent"},
	"GDP_PER_CAPITA":          {100, 200000, "USD"},
	"UNEMPLOYMENT":            {0, 50, "percent"},
	"UNEMPLOYMENT_RATE":       {0, 50, "percent"},
	"EMPLOYMENT_RATE":         {20, 100, "percent"},
	"LABOR_FORCE_PARTICIPATION": {20, 100, "percent"},
	"INFLATION":               {-20, 100, "percent"},
	"CPI":                     {0, 500, "index"},
	"PRICE_INDEX":             {0, 1000, "index"},
	"INTEREST_RATE":           {-5, 50, "percent"},
	"FEDERAL_FUNDS_RATE":      {-5, 30, "percent"},
	"POLICY_RATE":             {-5, 50, "percent"},
	"TREASURY_YIELD":          {-2, 20, "percent"},
	"EXPORTS":                 {1e6, 5e12, "USD"},
	"IMPORTS":                 {1e6, 5e12, "USD"},
	"TRADE_BALANCE":           {-1e12, 1e12, "USD"},
	"PROPERTY_PRICE_INDEX":    {0, 500, "index"},
	"HOUSE_PRICE":             {10000, 10e6, "USD"},
	"EXCHANGE_RATE":           {0.0001, 10000, "rate"},
	"CRYPTO_PRICE":            {0.000001, 1e6, "USD"},
	"MARKET_CAP":              {1e6, 5e12, "USD"},
	"POPULATION":              {1000, 2e10, "persons"},
	"POPULATION_GROWTH":       {-5, 10, "percent"},
	"LIFE_EXPECTANCY":         {30, 100, "years"},
	"LITERACY_RATE":           {0, 100, "percent"},
	"DEBT_TO_GDP":             {0, 300, "percent"},
	"DEFICIT_TO_GDP":          {-30, 30, "percent"},
	"FOREIGN_RESERVES":        {1e6, 5e12, "USD"},
}

// indicatorPatterns maps a lowercase substring of an indicator label to the
// indicatorRanges key it implies. Order matters: the first match wins, so
// more specific patterns are listed before their generic parents.
var indicatorPatterns = []struct {
	pattern string
	key     string
}{
	{"unemployment", "UNEMPLOYMENT"},
	{"jobless", "UNEMPLOYMENT"},
	{"employment rate", "EMPLOYMENT_RATE"},
	{"debt to gdp", "DEBT_TO_GDP"},
	{"deficit", "DEFICIT_TO_GDP"},
	{"gross domestic product", "GDP"},
	{"economic output", "GDP"},
	{"per capita", "GDP_PER_CAPITA"},
	{"growth", "GDP_GROWTH"},
	{"gdp", "GDP"},
	{"inflation", "INFLATION"},
	{"consumer price", "CPI"},
	{"cpi", "CPI"},
	{"federal funds", "FEDERAL_FUNDS_RATE"},
	{"policy rate", "POLICY_RATE"},
	{"treasury", "TREASURY_YIELD"},
	{"bond yield", "TREASURY_YIELD"},
	{"interest rate", "INTEREST_RATE"},
	{"trade balance", "TRADE_BALANCE"},
	{"export", "EXPORTS"},
	{"import", "IMPORTS"},
	{"property price", "PROPERTY_PRICE_INDEX"},
	{"house price", "PROPERTY_PRICE_INDEX"},
	{"real estate", "PROPERTY_PRICE_INDEX"},
	{"exchange rate", "EXCHANGE_RATE"},
	{"forex", "EXCHANGE_RATE"},
	{"bitcoin", "CRYPTO_PRICE"},
	{"ethereum", "CRYPTO_PRICE"},
	{"crypto", "CRYPTO_PRICE"},
	{"market cap", "MARKET_CAP"},
	{"population", "POPULATION"},
	{"life expectancy", "LIFE_EXPECTANCY"},
	{"literacy", "LITERACY_RATE"},
	{"reserves", "FOREIGN_RESERVES"},
}

// percentageIndicators may never exceed 100 except the two named here,
// which are legitimately unbounded above (debt/GDP, high-inflation regimes).
var percentageIndicators = map[string]bool{
	"UNEMPLOYMENT": true, "INFLATION": true, "INTEREST_RATE": true,
	"EMPLOYMENT_RATE": true, "LITERACY_RATE": true, "DEBT_TO_GDP": true,
}

var nonNegativeIndicators = map[string]bool{
	"UNEMPLOYMENT": true, "POPULATION": true, "EXPORTS": true,
	"IMPORTS": true, "MARKET_CAP": true, "GDP": true,
}

// Validate checks one CanonicalSeries against indicator-specific sanity
// rules and returns a confidence-weighted Result. It never mutates series.
func Validate(series model.CanonicalSeries) Result {
	if len(series.Points) == 0 {
		return Result{Valid: false, Confidence: 0, Issues: []Issue{{
			Severity: SeverityError, Field: "data", Message: "no data points in series",
		}}}
	}

	values := make([]float64, 0, len(series.Points))
	for _, p := range series.Points {
		if p.Value != nil {
			values = append(values, *p.Value)
		}
	}
	if len(values) == 0 {
		return Result{Valid: false, Confidence: 0, Issues: []Issue{{
			Severity: SeverityError, Field: "data", Message: "all data points have null values",
		}}}
	}

	indicatorKey := detectIndicatorType(series.Metadata)
	var issues []Issue

	minVal, maxVal, avgVal := values[0], values[0], 0.0
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		avgVal += v
	}
	avgVal /= float64(len(values))

	if r, ok := indicatorRanges[indicatorKey]; ok {
		if minVal < r.min*0.01 {
			issues = append(issues, Issue{
				Severity: SeverityWarning, Field: "data.value",
				Message:       "minimum value is suspiciously low for " + indicatorKey,
				Value:         minVal,
				ExpectedRange: [2]float64{r.min, r.max},
				Suggestion:    "expected values in range " + formatRange(r.min, r.max),
			})
		}
		if maxVal > r.max*100 {
			issues = append(issues, Issue{
				Severity: SeverityWarning, Field: "data.value",
				Message:       "maximum value is suspiciously high for " + indicatorKey,
				Value:         maxVal,
				ExpectedRange: [2]float64{r.min, r.max},
				Suggestion:    "expected values in range " + formatRange(r.min, r.max),
			})
		}
		if avgVal < r.min*0.001 {
			issues = append(issues, Issue{
				Severity: SeverityWarning, Field: "data.unit",
				Message:       "values might be in the wrong unit; average is far below the expected minimum for " + indicatorKey,
				Value:         avgVal,
				ExpectedRange: [2]float64{r.min, r.max},
				Suggestion:    "check if values need to be multiplied by 1000 or 1000000",
			})
		}
	}

	if percentageIndicators[indicatorKey] && maxVal > 100 && indicatorKey != "DEBT_TO_GDP" && indicatorKey != "INFLATION" {
		issues = append(issues, Issue{
			Severity: SeverityError, Field: "data.value",
			Message:    "value exceeds 100% for " + indicatorKey,
			Value:      maxVal,
			Suggestion: "check if values are actually in percentage format",
		})
	}

	if nonNegativeIndicators[indicatorKey] && minVal < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError, Field: "data.value",
			Message: "negative value found for " + indicatorKey + ", which cannot be negative",
			Value:   minVal,
		})
	}

	confidence := confidenceFromIssues(issues)
	valid := true
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			valid = false
		}
	}

	return Result{Valid: valid, Issues: issues, Confidence: confidence}
}

func detectIndicatorType(meta model.SeriesMetadata) string {
	indicator := strings.ToLower(meta.Indicator)
	unit := strings.ToLower(meta.Unit)

	for _, p := range indicatorPatterns {
		if strings.Contains(indicator, p.pattern) {
			return p.key
		}
	}

	switch {
	case strings.Contains(unit, "percent") || strings.Contains(unit, "%"):
		if strings.Contains(indicator, "gdp") {
			return "GDP_GROWTH"
		}
		return "INFLATION"
	case strings.Contains(unit, "index"):
		return "PRICE_INDEX"
	case strings.Contains(unit, "dollar") || strings.Contains(unit, "usd") || strings.Contains(unit, "$"):
		if strings.Contains(indicator, "per capita") {
			return "GDP_PER_CAPITA"
		}
		return "GDP"
	}
	return ""
}

func confidenceFromIssues(issues []Issue) float64 {
	confidence := 1.0
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			confidence -= 0.5
		case SeverityError:
			confidence -= 0.3
		case SeverityWarning:
			confidence -= 0.1
		case SeverityInfo:
			confidence -= 0.02
		}
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}

func formatRange(min, max float64) string {
	return strconv.FormatFloat(min, 'f', -1, 64) + " to " + strconv.FormatFloat(max, 'f', -1, 64)
}
