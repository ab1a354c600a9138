// Package resolve is the single entry point for turning a free-text or
// IMF-style indicator term into a provider-specific code. It consolidates
// the cross-provider translator (internal/translate) and the concept
// catalog (internal/catalog) behind one resolution chain with an LRU
// result cache, mirroring the unified resolver every other service in the
// pipeline calls into.
package resolve

import (
	"container/list"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/learned"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/translate"
)

var termPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true, "in": true,
	"to": true, "and": true, "or": true, "show": true, "get": true, "find": true,
	"data": true, "series": true, "indicator": true, "rate": true, "index": true,
	"value": true, "values": true, "percent": true, "percentage": true,
	"country": true, "countries": true, "from": true, "with": true, "by": true, "on": true, "at": true,
}

func tokenize(text string) map[string]bool {
	terms := map[string]bool{}
	for _, raw := range termPattern.FindAllString(strings.ToLower(text), -1) {
		if len(raw) <= 1 || stopWords[raw] {
			continue
		}
		terms[raw] = true
		if strings.HasSuffix(raw, "ies") && len(raw) > 4 {
			terms[raw[:len(raw)-3]+"y"] = true
		} else if strings.HasSuffix(raw, "s") && len(raw) > 3 {
			terms[raw[:len(raw)-1]] = true
		}
	}
	return terms
}

// Resolver resolves free-text indicator queries to provider codes using
// the translator as the curated-mapping tier and the catalog as the
// coverage/confidence tier, with an LRU cache over resolved results.
type Resolver struct {
	catalog *catalog.Catalog
	learned *learned.Store

	mu        sync.Mutex
	cache     map[string]*list.Element
	order     *list.List
	cacheSize int
}

// SetLearnedStore attaches the learned-mapping store as resolution tier 0,
// consulted before the curated translator and recorded into after every
// translator/catalog hit. A nil store (the default) disables the tier
// entirely — Resolve behaves exactly as it did before learned persistence
// existed.
func (r *Resolver) SetLearnedStore(store *learned.Store) {
	r.learned = store
}

type cacheEntry struct {
	key    string
	result model.ResolvedIndicator
}

// New constructs a Resolver backed by cat, with an LRU result cache of the
// given capacity (spec default: 1024 entries).
func New(cat *catalog.Catalog, cacheSize int) *Resolver {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &Resolver{
		catalog:   cat,
		cache:     map[string]*list.Element{},
		order:     list.New(),
		cacheSize: cacheSize,
	}
}

func cacheKey(provider, query, country string) string {
	p := provider
	if p == "" {
		p = "any"
	}
	c := country
	if c == "" {
		c = "any"
	}
	return fmt.Sprintf("%s|%s|%s", p, strings.ToLower(strings.TrimSpace(query)), strings.ToUpper(c))
}

func (r *Resolver) getCached(key string) (model.ResolvedIndicator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.cache[key]
	if !ok {
		return model.ResolvedIndicator{}, false
	}
	r.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result, true
}

func (r *Resolver) putCached(key string, result model.ResolvedIndicator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.cache[key]; ok {
		el.Value.(*cacheEntry).result = result
		r.order.MoveToFront(el)
		return
	}
	el := r.order.PushFront(&cacheEntry{key: key, result: result})
	r.cache[key] = el
	if r.order.Len() > r.cacheSize {
		oldest := r.order.Back()
		if oldest != nil {
			r.order.Remove(oldest)
			delete(r.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Resolve turns query into a provider-specific indicator code. provider and
// country are optional hints; an empty provider lets the catalog pick the
// best-covering provider for country.
func (r *Resolver) Resolve(query, provider, country string) (model.ResolvedIndicator, bool) {
	if strings.TrimSpace(query) == "" {
		return model.ResolvedIndicator{}, false
	}

	key := cacheKey(provider, query, country)
	if cached, ok := r.getCached(key); ok {
		return cached, true
	}

	// Tier 0: a mapping this exact (query, provider, country) already
	// resolved to on a prior request, persisted in internal/learned.
	if result, ok := r.learned.Lookup(context.Background(), query, provider, country); ok {
		r.putCached(key, result)
		return result, true
	}

	conceptName, hasConcept := r.catalog.FindByTerm(query)

	// Tier 1: curated cross-provider translation (IMF codes, fuzzy aliases).
	if code, concept := translate.Translate(query, firstNonEmpty(provider, "FRED")); code != "" {
		result := model.ResolvedIndicator{
			Code:       code,
			Provider:   firstNonEmpty(provider, "FRED"),
			Name:       concept,
			Confidence: 0.75,
			Source:     model.SourceTranslator,
		}
		r.putCached(key, result)
		r.learn(query, provider, country, result)
		return result, true
	}

	// Tier 2: catalog concept lookup.
	if hasConcept {
		if provider != "" {
			if r.catalog.IsProviderAvailable(conceptName, provider) {
				if code := r.catalog.IndicatorCode(conceptName, provider, ""); code != "" {
					result := model.ResolvedIndicator{
						Code:       code,
						Provider:   provider,
						Name:       titleCase(conceptName),
						Confidence: 0.85,
						Source:     model.SourceCatalog,
					}
					r.putCached(key, result)
					r.learn(query, provider, country, result)
					return result, true
				}
			}
		} else {
			var countries []string
			if country != "" {
				countries = []string{country}
			}
			bestProvider, code, confidence := r.catalog.BestProvider(conceptName, countries, "")
			if bestProvider != "" && code != "" {
				result := model.ResolvedIndicator{
					Code:       code,
					Provider:   bestProvider,
					Name:       titleCase(conceptName),
					Confidence: confidence,
					Source:     model.SourceCatalog,
				}
				r.putCached(key, result)
				r.learn(query, provider, country, result)
				return result, true
			}
		}
	}

	return model.ResolvedIndicator{}, false
}

// learn persists a fresh translator/catalog resolution into the learned
// store in the background; Resolve never blocks on it.
func (r *Resolver) learn(query, provider, country string, result model.ResolvedIndicator) {
	if r.learned == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.learned.Record(ctx, query, provider, country, result.Code, result.Name, result.Confidence)
	}()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func titleCase(conceptName string) string {
	words := strings.Split(strings.ReplaceAll(conceptName, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ClearCache empties the resolution cache.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[string]*list.Element{}
	r.order = list.New()
}

// TermOverlapRatio computes the fraction of tokenize(query)'s terms that
// also appear in tokenize(candidateText), used by the fallback relevance
// validator's ≥30% overlap rule.
func TermOverlapRatio(query, candidateText string) float64 {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return 0.0
	}
	candidateTerms := tokenize(candidateText)
	overlap := 0
	for term := range queryTerms {
		if candidateTerms[term] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryTerms))
}
