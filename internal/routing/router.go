// Package routing implements the deterministic Provider Router: it maps a
// parsed query intent to a single primary provider via a fixed precedence
// chain, with every candidate considered recorded for diagnostics. This
// replaces ad-hoc dynamic dispatch by provider-name string with a closed
// ProviderTag enum and a table built once at startup.
package routing

import (
	"regexp"
	"strings"

	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/geo"
	"github.com/econdata/econfed/internal/model"
)

// ProviderTag is the closed set of upstream data providers this service
// federates over.
type ProviderTag string

const (
	ProviderFRED         ProviderTag = "FRED"
	ProviderWorldBank    ProviderTag = "WorldBank"
	ProviderIMF          ProviderTag = "IMF"
	ProviderBIS          ProviderTag = "BIS"
	ProviderEurostat     ProviderTag = "Eurostat"
	ProviderComtrade     ProviderTag = "Comtrade"
	ProviderExchangeRate ProviderTag = "ExchangeRate"
	ProviderCoinGecko    ProviderTag = "CoinGecko"
	ProviderStatsCan     ProviderTag = "StatsCan"
)

// AllProviders is the fixed table of known provider tags, used to build the
// adapter registry and for explicit-mention detection.
var AllProviders = []ProviderTag{
	ProviderFRED, ProviderWorldBank, ProviderIMF, ProviderBIS, ProviderEurostat,
	ProviderComtrade, ProviderExchangeRate, ProviderCoinGecko, ProviderStatsCan,
}

var explicitMentionPattern = map[ProviderTag]*regexp.Regexp{
	ProviderFRED:         regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+fred\b`),
	ProviderWorldBank:    regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+world\s*bank\b`),
	ProviderIMF:          regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+imf\b`),
	ProviderBIS:          regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+bis\b`),
	ProviderEurostat:     regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+eurostat\b`),
	ProviderComtrade:     regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+comtrade\b`),
	ProviderExchangeRate: regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+exchangerate\b`),
	ProviderCoinGecko:    regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+coingecko\b`),
	ProviderStatsCan:     regexp.MustCompile(`(?i)\b(from|via|according to|using)\s+stats\s*can(ada)?\b`),
}

var cryptoPattern = regexp.MustCompile(`(?i)\b(bitcoin|btc|ethereum|eth|nft|crypto|coingecko)\b`)
var currencyPairPattern = regexp.MustCompile(`\b[A-Z]{3}\s*(?:to|/)\s*[A-Z]{3}\b`)
var historicalIntentPattern = regexp.MustCompile(`(?i)\b(history|historical|since|from \d{4}|trend|over time)\b`)
var tradeFlowPattern = regexp.MustCompile(`(?i)\b(export|exports|import|imports|trade balance)\b`)
var usOnlySeriesPattern = regexp.MustCompile(`(?i)\b(fed funds|payems|napm|icsa|housing starts)\b`)
var bisConceptPattern = regexp.MustCompile(`(?i)\b(policy rate|property prices?|house prices?|global liquidity)\b`)

// Router selects a single primary provider for a parsed intent using the
// fixed precedence chain from spec §4.5.
type Router struct {
	catalog *catalog.Catalog
}

// New constructs a Router backed by cat for catalog-override lookups.
func New(cat *catalog.Catalog) *Router {
	return &Router{catalog: cat}
}

// Route decides the primary provider for intent, given the resolved
// concept name (if any) and the country list detected in the query.
func (r *Router) Route(intent model.ParsedIntent, conceptName string, countries []string) model.RoutingDecision {
	var candidates []model.RoutingCandidate

	// 1. Explicit user provider mention locks in immediately.
	for _, tag := range AllProviders {
		if pattern, ok := explicitMentionPattern[tag]; ok && pattern.MatchString(intent.OriginalQuery) {
			candidates = append(candidates, model.RoutingCandidate{
				Provider: string(tag), Reason: "explicit provider mention in query", Accepted: true,
			})
			return model.RoutingDecision{
				Provider: string(tag), Reasoning: "explicit user provider mention",
				IsExplicitUserChoice: true, Candidates: candidates,
			}
		}
	}

	// 2. Intent-declared provider from the parser also locks in.
	if intent.Provider != "" {
		candidates = append(candidates, model.RoutingCandidate{
			Provider: intent.Provider, Reason: "intent-declared provider", Accepted: true,
		})
		return model.RoutingDecision{
			Provider: intent.Provider, Reasoning: "intent-declared provider",
			IsExplicitUserChoice: true, Candidates: candidates,
		}
	}

	// 3. Deterministic rules, evaluated in fixed order.
	query := intent.OriginalQuery
	if provider, reason, ok := deterministicRule(query, intent, countries); ok {
		candidates = append(candidates, model.RoutingCandidate{Provider: string(provider), Reason: reason, Accepted: true})
		decision := model.RoutingDecision{Provider: string(provider), Reasoning: reason, Candidates: candidates}
		r.applyCatalogOverride(&decision, conceptName, countries)
		decision.ValidationWarning = validateRouting(query, decision.Provider)
		return decision
	}

	// No deterministic rule matched: fall back to catalog best-provider.
	if r.catalog != nil && conceptName != "" {
		provider, _, confidence := r.catalog.BestProvider(conceptName, countries, "")
		if provider != "" {
			candidates = append(candidates, model.RoutingCandidate{
				Provider: provider, Reason: "catalog best-coverage provider", Accepted: true,
			})
			decision := model.RoutingDecision{
				Provider: provider,
				Reasoning: "catalog best-coverage provider (confidence " +
					formatConfidence(confidence) + ")",
				Candidates: candidates,
			}
			decision.ValidationWarning = validateRouting(query, decision.Provider)
			return decision
		}
	}

	candidates = append(candidates, model.RoutingCandidate{Provider: "", Reason: "no provider resolved", Accepted: false})
	return model.RoutingDecision{Provider: "", Reasoning: "unresolved: no deterministic rule or catalog match", Candidates: candidates}
}

func deterministicRule(query string, intent model.ParsedIntent, countries []string) (ProviderTag, string, bool) {
	if cryptoPattern.MatchString(query) {
		return ProviderCoinGecko, "crypto token detected", true
	}

	if currencyPairPattern.MatchString(query) {
		if historicalIntentPattern.MatchString(query) {
			return ProviderFRED, "currency pair with historical intent", true
		}
		return ProviderExchangeRate, "currency pair, current rate", true
	}

	if tradeFlowPattern.MatchString(query) && (intent.Parameters["partner"] != "" || intent.Parameters["reporter"] != "") {
		return ProviderComtrade, "trade flow with reporter/partner", true
	}

	if containsOnly(countries, "CA") {
		return ProviderStatsCan, "Canada-specific query", true
	}

	if len(countries) > 0 && allEUOrEurozone(countries) {
		return ProviderEurostat, "EU/Eurozone member query", true
	}

	if bisConceptPattern.MatchString(query) {
		return ProviderBIS, "BIS-specific concept (policy rate / property prices / global liquidity)", true
	}

	if usOnlySeriesPattern.MatchString(query) {
		return ProviderFRED, "US-only series", true
	}

	if len(countries) > 1 {
		return ProviderWorldBank, "multi-country query", true
	}

	return "", "", false
}

func containsOnly(countries []string, code string) bool {
	if len(countries) != 1 {
		return false
	}
	return strings.EqualFold(countries[0], code)
}

func allEUOrEurozone(countries []string) bool {
	for _, c := range countries {
		if !geo.IsEUMember(c) {
			return false
		}
	}
	return true
}

// applyCatalogOverride re-routes the decision's provider to the best
// available alternative when the catalog lists it as not_available for the
// resolved concept, unless an explicit user choice already locked it in.
func (r *Router) applyCatalogOverride(decision *model.RoutingDecision, conceptName string, countries []string) {
	if decision.IsExplicitUserChoice || r.catalog == nil || conceptName == "" {
		return
	}
	if r.catalog.IsProviderAvailable(conceptName, decision.Provider) {
		return
	}
	decision.Candidates = append(decision.Candidates, model.RoutingCandidate{
		Provider: decision.Provider, Reason: "rejected: not_available for concept", Accepted: false,
	})
	bestProvider, _, _ := r.catalog.BestProvider(conceptName, countries, "")
	if bestProvider != "" {
		decision.Provider = bestProvider
		decision.Reasoning += "; re-routed via catalog override (original provider unavailable for concept)"
		decision.Candidates = append(decision.Candidates, model.RoutingCandidate{
			Provider: bestProvider, Reason: "catalog override replacement", Accepted: true,
		})
	}
}

// validateRouting emits an informational-only warning for suspicious
// routing decisions. It never blocks the decision.
func validateRouting(query, provider string) string {
	if tradeFlowPattern.MatchString(query) && provider == string(ProviderFRED) {
		return "trade balance/flow query routed to FRED; consider Comtrade for detailed bilateral flows"
	}
	return ""
}

func formatConfidence(c float64) string {
	switch {
	case c >= 0.9:
		return "high"
	case c >= 0.7:
		return "medium"
	default:
		return "low"
	}
}
