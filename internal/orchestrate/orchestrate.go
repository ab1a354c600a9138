// Package orchestrate is the Fetch Orchestrator: the component that turns
// one resolved indicator term into a CanonicalSeries by driving routing,
// caching, circuit breaking, retrying, the provider adapter, and finally
// the fallback relevance validator when the primary provider comes up
// empty. Composed from internal/routing, internal/catalog,
// internal/resolve, internal/breaker, internal/retry, internal/cache, and
// internal/normalize, with a single-request dispatch-with-fallback shape
// driven by catalog.FallbackProviders' confidence-ordered candidate list.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/econdata/econfed/internal/breaker"
	"github.com/econdata/econfed/internal/cache"
	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/normalize"
	"github.com/econdata/econfed/internal/query"
	"github.com/econdata/econfed/internal/resolve"
	"github.com/econdata/econfed/internal/retry"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers"
	"github.com/econdata/econfed/types"
)

// minTermOverlap is the fallback relevance validator's acceptance
// threshold: a fallback candidate whose indicator name shares fewer than
// 30% of the query's terms is rejected as an irrelevant substitution.
const minTermOverlap = 0.30

// Result is the outcome of resolving one indicator term.
type Result struct {
	Indicator string
	Series    model.CanonicalSeries
	Warnings  []string
	Err       *types.Error
}

// Orchestrator owns the shared routing/catalog/resolver/cache state and a
// per-provider circuit breaker pool; Execute is safe for concurrent use.
type Orchestrator struct {
	registry *providers.Registry
	router   *routing.Router
	catalog  *catalog.Catalog
	resolver *resolve.Resolver
	cache    *cache.SeriesCache
	policy   *retry.RetryPolicy
	logger   *zap.Logger

	breakerMu  sync.Mutex
	breakers   map[routing.ProviderTag]breaker.CircuitBreaker
	breakerCfg *breaker.Config
}

// New constructs an Orchestrator. breakerCfg/policy may be nil to take
// their respective package defaults.
func New(registry *providers.Registry, router *routing.Router, cat *catalog.Catalog, resolver *resolve.Resolver, seriesCache *cache.SeriesCache, breakerCfg *breaker.Config, policy *retry.RetryPolicy, logger *zap.Logger) *Orchestrator {
	if policy == nil {
		policy = retry.DefaultRetryPolicy()
	}
	return &Orchestrator{
		registry:   registry,
		router:     router,
		catalog:    cat,
		resolver:   resolver,
		cache:      seriesCache,
		policy:     policy,
		logger:     logger,
		breakers:   make(map[routing.ProviderTag]breaker.CircuitBreaker),
		breakerCfg: breakerCfg,
	}
}

func (o *Orchestrator) breakerFor(tag routing.ProviderTag) breaker.CircuitBreaker {
	o.breakerMu.Lock()
	defer o.breakerMu.Unlock()

	if b, ok := o.breakers[tag]; ok {
		return b
	}
	cfg := o.breakerCfg
	if cfg == nil {
		cfg = breaker.DefaultConfig()
	}
	b := breaker.NewCircuitBreaker(cfg, o.logger)
	o.breakers[tag] = b
	return b
}

// maxConcurrentIndicators bounds how many indicator terms from one request
// are resolved in parallel, so a query naming a dozen indicators doesn't
// open a dozen simultaneous upstream connections per provider.
const maxConcurrentIndicators = 4

// Execute resolves every indicator term in intent, applying default-filling
// first, and returns one Result per term in request order. Independent
// terms (each walks its own routing/cache/breaker/fallback chain) are
// resolved concurrently, bounded by maxConcurrentIndicators.
func (o *Orchestrator) Execute(ctx context.Context, intent model.ParsedIntent) []Result {
	intent = query.FillDefaults(intent)

	results := make([]Result, len(intent.Indicators))
	sem := semaphore.NewWeighted(maxConcurrentIndicators)
	g, gctx := errgroup.WithContext(ctx)

	for i, term := range intent.Indicators {
		i, term := i, term
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = Result{Indicator: term, Err: types.NewError(types.ErrInvalidInput, "request canceled before indicator was resolved")}
				return nil
			}
			defer sem.Release(1)
			results[i] = o.resolveOne(ctx, intent, term)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) resolveOne(ctx context.Context, intent model.ParsedIntent, term string) Result {
	countries := splitParam(intent.Parameters["countries"])
	if len(countries) == 0 && intent.Parameters["country"] != "" {
		countries = []string{intent.Parameters["country"]}
	}

	conceptName, hasConcept := o.catalog.FindByTerm(term)

	indicator, ok := o.resolver.Resolve(term, intent.Provider, firstOf(countries))
	if !ok {
		return Result{Indicator: term, Err: types.NewError(types.ErrInvalidInput,
			fmt.Sprintf("could not resolve indicator term %q to any known concept", term))}
	}

	decision := o.router.Route(intent, conceptName, countries)
	primary := routing.ProviderTag(firstNonEmpty(decision.Provider, indicator.Provider))

	var warnings []string
	if decision.ValidationWarning != "" {
		warnings = append(warnings, decision.ValidationWarning)
	}

	series, fetchErr := o.fetchFrom(ctx, primary, indicator, intent.Parameters)
	if fetchErr == nil {
		if valid, issues := o.validateAndCorrect(&series); !valid {
			warnings = append(warnings, issues...)
			fetchErr = types.NewError(types.ErrProviderIntegration, "primary provider result failed validation").
				WithProvider(string(primary)).WithRetryable(false)
		}
	}

	if fetchErr == nil {
		return Result{Indicator: term, Series: series, Warnings: warnings}
	}

	if !hasConcept {
		return Result{Indicator: term, Warnings: warnings, Err: asTypesError(fetchErr, string(primary))}
	}

	// Fallback Relevance Validator: walk confidence-ordered fallback
	// candidates, skipping any whose concept doesn't clear the term-overlap
	// bar against the query (candidate codes carry no human-readable name,
	// so the concept's own synonym list stands in as the descriptive text
	// to compare the query against) or fails the catalog's exclusion check.
	descriptiveText := conceptName + " " + strings.Join(o.catalog.Synonyms(conceptName), " ")
	for _, candidate := range o.catalog.FallbackProviders(conceptName, string(primary)) {
		accepted, reason := o.catalog.ValidateIndicatorMatch(candidate.Code, conceptName)
		if !accepted {
			warnings = append(warnings, fmt.Sprintf("fallback %s skipped: %s", candidate.Provider, reason))
			continue
		}
		if resolve.TermOverlapRatio(term, descriptiveText) < minTermOverlap {
			warnings = append(warnings, fmt.Sprintf("fallback %s skipped: below term-overlap threshold", candidate.Provider))
			continue
		}

		fallbackIndicator := model.ResolvedIndicator{
			Code: candidate.Code, Provider: candidate.Provider, Name: indicator.Name,
			Confidence: candidate.Confidence, Source: model.SourceFallback,
		}
		fallbackSeries, fbErr := o.fetchFrom(ctx, routing.ProviderTag(candidate.Provider), fallbackIndicator, intent.Parameters)
		if fbErr != nil {
			warnings = append(warnings, fmt.Sprintf("fallback %s failed: %v", candidate.Provider, fbErr))
			continue
		}
		if valid, issues := o.validateAndCorrect(&fallbackSeries); !valid {
			warnings = append(warnings, issues...)
			continue
		}
		warnings = append(warnings, fmt.Sprintf("served from fallback provider %s (primary %s exhausted)", candidate.Provider, primary))
		return Result{Indicator: term, Series: fallbackSeries, Warnings: warnings}
	}

	return Result{Indicator: term, Warnings: warnings, Err: types.NewError(types.ErrDataNotAvailable,
		fmt.Sprintf("no provider could serve %q after exhausting primary and fallback candidates", term)).
		WithProvider(string(primary))}
}

// fetchFrom runs one provider call through its cache entry, circuit
// breaker, and retry policy, in that order: a cache hit skips the breaker
// and provider entirely; a breaker trip fails fast without ever reaching
// the retry loop.
func (o *Orchestrator) fetchFrom(ctx context.Context, tag routing.ProviderTag, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	key := cache.KeyFromParams(string(tag)+":"+indicator.Code, params)
	if o.cache != nil {
		if series, ok := o.cache.Get(ctx, string(tag), key); ok {
			return series, nil
		}
	}

	adapter, ok := o.registry.Get(tag)
	if !ok {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration,
			fmt.Sprintf("no adapter registered for provider %q", tag)).WithRetryable(false)
	}

	cb := o.breakerFor(tag)
	retryer := retry.NewBackoffRetryer(o.policy, o.logger)

	series, err := breaker.CallWithResultTyped[model.CanonicalSeries](cb, ctx, func() (model.CanonicalSeries, error) {
		return retry.DoWithResultTyped[model.CanonicalSeries](retryer, ctx, func() (model.CanonicalSeries, error) {
			return adapter.Fetch(ctx, indicator, params)
		})
	})
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	if o.cache != nil {
		o.cache.Set(ctx, string(tag), key, series)
	}
	return series, nil
}

// FetchDirect serves a single provider/code request that already names its
// source explicitly (GET /v1/series/{provider}/{code}), skipping term
// resolution and routing but still going through the cache/breaker/retry
// chain and the data validator.
func (o *Orchestrator) FetchDirect(ctx context.Context, provider, code string, params map[string]string) (model.CanonicalSeries, []string, error) {
	tag := routing.ProviderTag(provider)
	indicator := model.ResolvedIndicator{Code: code, Provider: provider}

	series, err := o.fetchFrom(ctx, tag, indicator, params)
	if err != nil {
		return model.CanonicalSeries{}, nil, asTypesError(err, provider)
	}

	if valid, issues := o.validateAndCorrect(&series); !valid {
		return model.CanonicalSeries{}, issues, types.NewError(types.ErrProviderIntegration,
			"provider result failed validation").WithProvider(provider).WithRetryable(false)
	}
	return series, nil, nil
}

// validateAndCorrect runs the data validator over series, applying the
// percentage-scale auto-correction in place, and reports whether the
// result is usable (no CRITICAL issues).
func (o *Orchestrator) validateAndCorrect(series *model.CanonicalSeries) (bool, []string) {
	if normalize.CorrectPercentage(series.Points, series.Metadata.Unit) {
		o.logger.Debug("corrected percentage scale", zap.String("series", series.Metadata.SeriesID))
	}

	result := normalize.Validate(*series)
	var warnings []string
	for _, issue := range result.Issues {
		warnings = append(warnings, issue.Message)
	}
	return result.Valid, warnings
}

func asTypesError(err error, provider string) *types.Error {
	var typed *types.Error
	if errors.As(err, &typed) {
		return typed
	}
	return types.NewError(types.ErrProviderIntegration, err.Error()).WithCause(err).WithProvider(provider)
}

func splitParam(raw string) []string {
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

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
