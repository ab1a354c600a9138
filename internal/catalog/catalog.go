// Package catalog is the single source of truth for canonical economic
// concept definitions: synonyms, explicit exclusions, per-provider indicator
// codes, and coverage rules. It loads YAML concept files from disk and
// exposes the lookups every other resolution stage depends on.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/econdata/econfed/internal/geo"
)

// ProviderVariant is one named code variant for a concept under a provider.
type ProviderVariant struct {
	Code       string      `yaml:"code"`
	Confidence float64     `yaml:"confidence"`
	Coverage   interface{} `yaml:"coverage"` // "global" | "oecd_members" | "eu_members" | []string
	Frequency  string      `yaml:"frequency"`
}

// ProviderInfo is the full mapping for one concept under one provider,
// decoded permissively: "primary" is well-known, everything else is a
// named variant (growth, core, alternate, sector-specific, ...).
type ProviderInfo struct {
	Primary  ProviderVariant
	Variants map[string]ProviderVariant
}

// UnmarshalYAML decodes a provider block where "primary" is a fixed key and
// all sibling keys are free-form variants.
func (p *ProviderInfo) UnmarshalYAML(value *yaml.Node) error {
	raw := map[string]ProviderVariant{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.Variants = map[string]ProviderVariant{}
	for k, v := range raw {
		if k == "primary" {
			p.Primary = v
			continue
		}
		p.Variants[k] = v
	}
	return nil
}

// Synonyms holds a concept's primary and secondary synonym lists.
type Synonyms struct {
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
}

// Concept is one canonical economic concept as loaded from YAML.
type Concept struct {
	Name               string                  `yaml:"concept"`
	Synonyms           Synonyms                `yaml:"synonyms"`
	ExplicitExclusions []string                `yaml:"explicit_exclusions"`
	Providers          map[string]ProviderInfo `yaml:"providers"`
	NotAvailable       []string                `yaml:"not_available"`
}

type conceptFile struct {
	Concept            string                  `yaml:"concept"`
	Synonyms           Synonyms                `yaml:"synonyms"`
	ExplicitExclusions []string                `yaml:"explicit_exclusions"`
	Providers          map[string]ProviderInfo `yaml:"providers"`
	NotAvailable       []string                `yaml:"not_available"`
}

// FallbackCandidate is one (provider, code, confidence) entry returned by
// FallbackProviders, ordered by descending confidence.
type FallbackCandidate struct {
	Provider   string
	Code       string
	Confidence float64
}

// Catalog is the loaded, queryable set of concepts. It is safe for
// concurrent use; Reload atomically swaps the underlying concept map.
type Catalog struct {
	mu       sync.RWMutex
	dir      string
	concepts map[string]Concept
}

// New constructs an empty catalog rooted at dir. Call Load before use.
func New(dir string) *Catalog {
	return &Catalog{dir: dir, concepts: map[string]Concept{}}
}

// Load reads every *.yaml file in the catalog directory and populates the
// concept table. It replaces any previously loaded state.
func (c *Catalog) Load() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("catalog: read dir %s: %w", c.dir, err)
	}

	loaded := map[string]Concept{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}
		var cf conceptFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return fmt.Errorf("catalog: parse %s: %w", path, err)
		}
		if cf.Concept == "" {
			continue
		}
		loaded[cf.Concept] = Concept{
			Name:               cf.Concept,
			Synonyms:           cf.Synonyms,
			ExplicitExclusions: cf.ExplicitExclusions,
			Providers:          cf.Providers,
			NotAvailable:       cf.NotAvailable,
		}
	}

	c.mu.Lock()
	c.concepts = loaded
	c.mu.Unlock()
	return nil
}

// Reload forces a full re-read from disk, discarding the previous state.
func (c *Catalog) Reload() error {
	return c.Load()
}

func conceptKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// Get returns a concept by its canonical name (spaces or underscores
// accepted), or false if unknown.
func (c *Catalog) Get(name string) (Concept, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	concept, ok := c.concepts[conceptKey(name)]
	return concept, ok
}

// All returns every loaded concept name.
func (c *Catalog) All() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.concepts))
	for name := range c.concepts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindByTerm resolves free text to a canonical concept name by matching
// against the concept name itself, then primary and secondary synonyms.
func (c *Catalog) FindByTerm(term string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	termLower := strings.ToLower(strings.TrimSpace(term))
	for name, concept := range c.concepts {
		if termLower == strings.ReplaceAll(name, "_", " ") {
			return name, true
		}
		for _, syn := range append(append([]string{}, concept.Synonyms.Primary...), concept.Synonyms.Secondary...) {
			if strings.ToLower(syn) == termLower {
				return name, true
			}
		}
	}
	return "", false
}

// IsExcluded reports whether term contains an explicit exclusion phrase for
// the given concept. A simple substring check, matching the catalog's
// permissive-by-default design: only known false positives are rejected.
func (c *Catalog) IsExcluded(term, conceptName string) bool {
	concept, ok := c.Get(conceptName)
	if !ok {
		return false
	}
	termLower := strings.ToLower(term)
	for _, exclusion := range concept.ExplicitExclusions {
		if strings.Contains(termLower, strings.ToLower(exclusion)) {
			return true
		}
	}
	return false
}

// Synonyms returns every synonym for a concept, including the concept name
// itself, for use by fuzzy matching and validation.
func (c *Catalog) Synonyms(conceptName string) []string {
	concept, ok := c.Get(conceptName)
	if !ok {
		return nil
	}
	out := []string{strings.ReplaceAll(concept.Name, "_", " ")}
	out = append(out, concept.Synonyms.Primary...)
	out = append(out, concept.Synonyms.Secondary...)
	return out
}

// Exclusions returns the explicit exclusion phrases for a concept.
func (c *Catalog) Exclusions(conceptName string) []string {
	concept, ok := c.Get(conceptName)
	if !ok {
		return nil
	}
	return concept.ExplicitExclusions
}

func providerLookup(providers map[string]ProviderInfo, provider string) (string, ProviderInfo, bool) {
	for name, info := range providers {
		if strings.EqualFold(name, provider) {
			return name, info, true
		}
	}
	return "", ProviderInfo{}, false
}

func containsFold(list []string, target string) bool {
	for _, item := range list {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}

// IndicatorCode returns the code for one concept/provider/variant triple.
// variant defaults to "primary" if empty. Returns "" if unavailable.
func (c *Catalog) IndicatorCode(conceptName, provider, variant string) string {
	concept, ok := c.Get(conceptName)
	if !ok {
		return ""
	}
	if containsFold(concept.NotAvailable, provider) {
		return ""
	}
	_, info, ok := providerLookup(concept.Providers, provider)
	if !ok {
		return ""
	}
	if variant == "" || variant == "primary" {
		return info.Primary.Code
	}
	if v, ok := info.Variants[variant]; ok {
		return v.Code
	}
	return ""
}

// IndicatorCodes returns every known code for a concept/provider pair,
// across primary and all named variants, deduplicated case-insensitively.
func (c *Catalog) IndicatorCodes(conceptName, provider string) []string {
	concept, ok := c.Get(conceptName)
	if !ok {
		return nil
	}
	_, info, ok := providerLookup(concept.Providers, provider)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(code string) {
		if code == "" {
			return
		}
		upper := strings.ToUpper(strings.TrimSpace(code))
		if upper == "" || upper == "NULL" || upper == "NONE" || upper == "DYNAMIC" || upper == "N/A" {
			return
		}
		if !seen[upper] {
			seen[upper] = true
			out = append(out, code)
		}
	}
	add(info.Primary.Code)
	for _, v := range info.Variants {
		add(v.Code)
	}
	return out
}

// ValidateIndicatorMatch checks an indicator name against a concept's
// exclusions and synonyms: explicit exclusions reject, a synonym hit
// accepts with a reason, and anything else is permissively accepted so
// downstream relevance checks can still decide.
func (c *Catalog) ValidateIndicatorMatch(indicatorName, conceptName string) (bool, string) {
	if c.IsExcluded(indicatorName, conceptName) {
		return false, fmt.Sprintf("%q is an explicit exclusion for %q", indicatorName, conceptName)
	}
	indicatorLower := strings.ToLower(indicatorName)
	for _, syn := range c.Synonyms(conceptName) {
		if syn == "" {
			continue
		}
		if strings.Contains(indicatorLower, strings.ToLower(syn)) {
			return true, fmt.Sprintf("matches synonym %q", syn)
		}
	}
	return true, "accepted (not an explicit exclusion)"
}

func checkCoverage(coverage interface{}, countries []string) bool {
	if len(countries) == 0 {
		return true
	}
	switch v := coverage.(type) {
	case string:
		switch v {
		case "global", "":
			return true
		case "oecd_members":
			for _, c := range countries {
				if !geo.IsOECDMember(c) {
					return false
				}
			}
			return true
		case "eu_members":
			for _, c := range countries {
				if !geo.IsEUMember(c) {
					return false
				}
			}
			return true
		}
		return false
	case []interface{}:
		set := map[string]bool{}
		for _, item := range v {
			if s, ok := item.(string); ok {
				set[strings.ToUpper(s)] = true
			}
		}
		for _, c := range countries {
			if !set[strings.ToUpper(c)] {
				return false
			}
		}
		return true
	case []string:
		set := map[string]bool{}
		for _, s := range v {
			set[strings.ToUpper(s)] = true
		}
		for _, c := range countries {
			if !set[strings.ToUpper(c)] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// BestProvider selects the best (provider, code, confidence) triple for a
// concept given the requested countries and an optional preferred
// provider. preferredProvider wins outright if it covers the countries and
// is not in the concept's not_available list; otherwise the highest-
// confidence covering provider wins.
func (c *Catalog) BestProvider(conceptName string, countries []string, preferredProvider string) (provider, code string, confidence float64) {
	concept, ok := c.Get(conceptName)
	if !ok {
		return "", "", 0.0
	}

	if preferredProvider != "" && !containsFold(concept.NotAvailable, preferredProvider) {
		if name, info, ok := providerLookup(concept.Providers, preferredProvider); ok {
			if info.Primary.Code != "" && checkCoverage(info.Primary.Coverage, countries) {
				conf := info.Primary.Confidence
				if conf == 0 {
					conf = 0.8
				}
				return name, info.Primary.Code, conf
			}
		}
	}

	var bestProvider, bestCode string
	var bestConfidence float64
	for name, info := range concept.Providers {
		if containsFold(concept.NotAvailable, name) {
			continue
		}
		if info.Primary.Code == "" {
			continue
		}
		if !checkCoverage(info.Primary.Coverage, countries) {
			continue
		}
		conf := info.Primary.Confidence
		if conf == 0 {
			conf = 0.8
		}
		if conf > bestConfidence {
			bestProvider, bestCode, bestConfidence = name, info.Primary.Code, conf
		}
	}
	return bestProvider, bestCode, bestConfidence
}

// FallbackProviders returns every remaining provider for a concept (other
// than excludeProvider), sorted by descending confidence, for use when the
// primary choice fails.
func (c *Catalog) FallbackProviders(conceptName, excludeProvider string) []FallbackCandidate {
	concept, ok := c.Get(conceptName)
	if !ok {
		return nil
	}

	var out []FallbackCandidate
	for name, info := range concept.Providers {
		if strings.EqualFold(name, excludeProvider) {
			continue
		}
		if containsFold(concept.NotAvailable, name) {
			continue
		}
		if info.Primary.Code == "" {
			continue
		}
		conf := info.Primary.Confidence
		if conf == 0 {
			conf = 0.8
		}
		out = append(out, FallbackCandidate{Provider: name, Code: info.Primary.Code, Confidence: conf})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// AvailableProviders lists providers that carry this concept, excluding
// anything in not_available.
func (c *Catalog) AvailableProviders(conceptName string) []string {
	concept, ok := c.Get(conceptName)
	if !ok {
		return nil
	}
	var out []string
	for name := range concept.Providers {
		if !containsFold(concept.NotAvailable, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IsProviderAvailable reports whether provider carries data for conceptName.
// An unknown concept returns true, letting the provider attempt the fetch.
func (c *Catalog) IsProviderAvailable(conceptName, provider string) bool {
	concept, ok := c.Get(conceptName)
	if !ok {
		return true
	}
	if containsFold(concept.NotAvailable, provider) {
		return false
	}
	_, _, found := providerLookup(concept.Providers, provider)
	return found
}
