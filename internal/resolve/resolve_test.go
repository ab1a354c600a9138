package resolve

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econdata/econfed/internal/catalog"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	cat := catalog.New(filepath.Join("..", "..", "catalog", "concepts"))
	require.NoError(t, cat.Load())
	return New(cat, 0)
}

func TestResolveViaTranslatorIMFCode(t *testing.T) {
	r := newResolver(t)
	result, ok := r.Resolve("NGDP_RPCH", "FRED", "")
	require.True(t, ok)
	assert.Equal(t, "A191RL1Q225SBEA", result.Code)
	assert.Equal(t, "FRED", result.Provider)
}

func TestResolveViaCatalogWithPreferredProvider(t *testing.T) {
	r := newResolver(t)
	result, ok := r.Resolve("household debt service", "BIS", "")
	require.True(t, ok)
	assert.Equal(t, "WS_TC", result.Code)
	assert.Equal(t, "BIS", result.Provider)
}

func TestResolveWithoutProviderPicksBestCoverage(t *testing.T) {
	r := newResolver(t)
	result, ok := r.Resolve("unemployment rate", "", "DE")
	require.True(t, ok)
	assert.NotEmpty(t, result.Provider)
	assert.NotEmpty(t, result.Code)
}

func TestResolveEmptyQuery(t *testing.T) {
	r := newResolver(t)
	_, ok := r.Resolve("", "FRED", "")
	assert.False(t, ok)
}

func TestResolveUnknownTermNoMatch(t *testing.T) {
	r := newResolver(t)
	_, ok := r.Resolve("xyzzy plugh quux", "FRED", "")
	assert.False(t, ok)
}

func TestResolveCachesResult(t *testing.T) {
	r := newResolver(t)
	first, ok := r.Resolve("gdp growth", "FRED", "")
	require.True(t, ok)
	second, ok := r.Resolve("gdp growth", "FRED", "")
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestClearCache(t *testing.T) {
	r := newResolver(t)
	_, _ = r.Resolve("gdp growth", "FRED", "")
	r.ClearCache()
	assert.Equal(t, 0, len(r.cache))
}

func TestTermOverlapRatio(t *testing.T) {
	assert.Equal(t, 1.0, TermOverlapRatio("unemployment rate", "US Unemployment Rate Total"))
	assert.Less(t, TermOverlapRatio("gdp growth", "household debt ratio"), 0.3)
	assert.Equal(t, 0.0, TermOverlapRatio("", "anything"))
}

func TestLRUEviction(t *testing.T) {
	cat := catalog.New(filepath.Join("..", "..", "catalog", "concepts"))
	require.NoError(t, cat.Load())
	r := New(cat, 1)
	r.Resolve("gdp growth", "FRED", "")
	r.Resolve("unemployment rate", "FRED", "")
	_, stillCached := r.getCached(cacheKey("FRED", "gdp growth", ""))
	assert.False(t, stillCached)
}
