// Package model defines the canonical data shapes shared by every stage of
// the federation pipeline: parsed query intent, resolved indicators, routing
// decisions, canonical series, and per-provider circuit state.
package model

import "time"

// Frequency is the sampling cadence of a CanonicalSeries.
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiannual Frequency = "semiannual"
	FrequencyAnnual     Frequency = "annual"
	FrequencyRealtime   Frequency = "real-time"
	FrequencyCategory   Frequency = "categorical"
)

// DataType classifies the statistical nature of a series' values.
type DataType string

const (
	DataTypeLevel          DataType = "Level"
	DataTypeRate           DataType = "Rate"
	DataTypeIndex          DataType = "Index"
	DataTypePercentChange  DataType = "Percent Change"
	DataTypeChange         DataType = "Change"
)

// PriceType distinguishes real (inflation-adjusted) from nominal values.
type PriceType string

const (
	PriceTypeReal    PriceType = "Real"
	PriceTypeNominal PriceType = "Nominal"
	PriceTypeNone    PriceType = ""
)

// ResolutionSource records which stage of the Indicator Resolver produced a match.
type ResolutionSource string

const (
	SourceDatabase   ResolutionSource = "database"
	SourceTranslator ResolutionSource = "translator"
	SourceCatalog    ResolutionSource = "catalog"
	SourceFallback   ResolutionSource = "fallback"
)

// ParsedIntent is produced by an external natural-language parser and is the
// entry point into the federation pipeline. It is immutable once constructed.
type ParsedIntent struct {
	Provider               string            // optional explicit provider tag
	Indicators             []string          // ordered free-text indicator terms
	Parameters             map[string]string // country, countries, startDate, endDate, frequency, baseCurrency, targetCurrency, reporter, partner, commodity, flow, ...
	OriginalQuery          string
	Confidence             float64 // 0..1
	NeedsClarification     bool
	ClarificationQuestions []string
	Decomposition          *Decomposition
}

// Decomposition instructs the caller that a single query should be expanded
// into N subqueries over a group of entities (e.g. "GDP of all G7 countries").
type Decomposition struct {
	Type     string
	Entities []string
}

// Point is a single (date, value) observation. Value is nil for a reported
// gap, which is distinct from "not fetched".
type Point struct {
	Date  string // ISO-8601 YYYY-MM-DD, period start
	Value *float64
}

// SeriesMetadata describes the provenance and shape of a CanonicalSeries.
type SeriesMetadata struct {
	Source             string // provider name
	Indicator          string // human label
	Country            string // display name
	SeriesID           string
	Frequency          Frequency
	Unit               string
	DataType           DataType
	PriceType          PriceType
	SeasonalAdjustment string
	StartDate          string
	EndDate            string
	APIUrl             string // exact upstream query, secrets masked
	SourceURL          string // human-readable provider portal link
	Description        string
	Notes              string
}

// CanonicalSeries (the spec's "NormalizedData") is the uniform result shape
// every provider adapter converges on.
type CanonicalSeries struct {
	Metadata SeriesMetadata
	Points   []Point
}

// ConceptProviderVariant is one named code variant (primary, growth, core,
// alternate, ...) for a concept under a specific provider.
type ConceptProviderVariant struct {
	Code       string
	Name       string
	Confidence float64
	Coverage   interface{} // "global" | "oecd_members" | "eu_members" | []string
	Frequency  string
}

// ConceptProvider is the full per-provider mapping for one concept.
type ConceptProvider struct {
	Primary  ConceptProviderVariant
	Variants map[string]ConceptProviderVariant // growth, core, alternate, ...
}

// Concept is one canonical economic concept loaded from the catalog.
type Concept struct {
	Name                string
	SynonymsPrimary     []string
	SynonymsSecondary   []string
	ExplicitExclusions  []string
	Providers           map[string]ConceptProvider
	NotAvailable        []string
}

// ResolvedIndicator is the output of the Indicator Resolver: the best
// (provider, code) pair for a free-text term.
type ResolvedIndicator struct {
	Code       string
	Provider   string
	Name       string
	Confidence float64 // bounded [0,1]
	Source     ResolutionSource
	Metadata   map[string]string
}

// RoutingDecision is the output of the Provider Router.
type RoutingDecision struct {
	Provider             string
	Reasoning            string
	IsExplicitUserChoice bool
	ValidationWarning    string // optional, informational only
	Candidates           []RoutingCandidate
}

// RoutingCandidate records one provider considered during routing, for
// diagnostics (RoutingDecision.Candidates).
type RoutingCandidate struct {
	Provider string
	Reason   string
	Accepted bool
}

// CacheKey identifies a cached fetch result. It is derived from the
// provider tag plus a normalized parameter map so that equivalent requests
// (country=US vs country=USA) collide while distinct ones (currency pairs)
// never do.
type CacheKey struct {
	Provider         string
	NormalizedParams map[string]string
}

// CircuitBreakerState is the externally observable state of a per-provider
// circuit breaker.
type CircuitBreakerState string

const (
	CircuitClosed   CircuitBreakerState = "closed"
	CircuitOpen     CircuitBreakerState = "open"
	CircuitHalfOpen CircuitBreakerState = "half_open"
)

// CircuitState is the persisted-in-memory state for one provider's breaker.
type CircuitState struct {
	Failures        int
	LastFailureTime time.Time
	State           CircuitBreakerState
	ResetAt         time.Time
}
