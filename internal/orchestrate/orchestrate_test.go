package orchestrate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/resolve"
	"github.com/econdata/econfed/internal/retry"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers"
	"github.com/econdata/econfed/types"
)

// noRetryPolicy keeps tests fast: a single attempt, no backoff sleep.
func noRetryPolicy() *retry.RetryPolicy {
	return &retry.RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New(filepath.Join("..", "..", "catalog", "concepts"))
	require.NoError(t, c.Load())
	return c
}

type fakeAdapter struct {
	tag     routing.ProviderTag
	fetch   func(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error)
	calls   int
}

func (f *fakeAdapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	f.calls++
	return f.fetch(ctx, indicator, params)
}
func (f *fakeAdapter) Tag() routing.ProviderTag           { return f.tag }
func (f *fakeAdapter) HealthCheck(ctx context.Context) error { return nil }

func val(v float64) *float64 { return &v }

func okSeries(provider string) model.CanonicalSeries {
	return model.CanonicalSeries{
		Metadata: model.SeriesMetadata{Source: provider, Unit: "percent", Indicator: "GDP growth"},
		Points: []model.Point{
			{Date: "2020-01-01", Value: val(2.1)},
			{Date: "2021-01-01", Value: val(2.4)},
		},
	}
}

func newOrchestrator(t *testing.T, adapters ...providers.Adapter) (*Orchestrator, *catalog.Catalog) {
	t.Helper()
	cat := testCatalog(t)
	router := routing.New(cat)
	resolver := resolve.New(cat, 64)
	registry := providers.NewRegistry(adapters...)
	return New(registry, router, cat, resolver, nil, nil, noRetryPolicy(), zap.NewNop()), cat
}

func TestExecuteSucceedsFromPrimaryProvider(t *testing.T) {
	fred := &fakeAdapter{tag: routing.ProviderFRED, fetch: func(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
		return okSeries("FRED"), nil
	}}
	o, _ := newOrchestrator(t, fred)

	intent := model.ParsedIntent{OriginalQuery: "US GDP", Indicators: []string{"gross domestic product"}, Provider: "FRED"}
	results := o.Execute(context.Background(), intent)

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Err)
	assert.Equal(t, "FRED", results[0].Series.Metadata.Source)
	assert.Equal(t, 1, fred.calls)
}

func TestExecuteFallsBackWhenPrimaryExhausted(t *testing.T) {
	fred := &fakeAdapter{tag: routing.ProviderFRED, fetch: func(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable, "no data").WithRetryable(false)
	}}
	wb := &fakeAdapter{tag: routing.ProviderWorldBank, fetch: func(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
		return okSeries("WorldBank"), nil
	}}
	o, _ := newOrchestrator(t, fred, wb)

	intent := model.ParsedIntent{OriginalQuery: "gross domestic product", Indicators: []string{"gross domestic product"}, Provider: "FRED"}
	results := o.Execute(context.Background(), intent)

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Err)
	assert.Equal(t, "WorldBank", results[0].Series.Metadata.Source)
	assert.NotEmpty(t, results[0].Warnings)
}

func TestExecuteReturnsDataNotAvailableWhenAllExhausted(t *testing.T) {
	failAll := func(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable, "no data").WithRetryable(false)
	}
	fred := &fakeAdapter{tag: routing.ProviderFRED, fetch: failAll}
	wb := &fakeAdapter{tag: routing.ProviderWorldBank, fetch: failAll}
	imf := &fakeAdapter{tag: routing.ProviderIMF, fetch: failAll}
	eurostat := &fakeAdapter{tag: routing.ProviderEurostat, fetch: failAll}
	statscan := &fakeAdapter{tag: routing.ProviderStatsCan, fetch: failAll}
	o, _ := newOrchestrator(t, fred, wb, imf, eurostat, statscan)

	intent := model.ParsedIntent{OriginalQuery: "gross domestic product", Indicators: []string{"gross domestic product"}, Provider: "FRED"}
	results := o.Execute(context.Background(), intent)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, types.ErrDataNotAvailable, results[0].Err.Code)
}

func TestExecuteUnresolvableTermReturnsInvalidInput(t *testing.T) {
	o, _ := newOrchestrator(t)
	intent := model.ParsedIntent{OriginalQuery: "asdkfjhasdkfjh nonsense term xyz", Indicators: []string{"asdkfjhasdkfjh nonsense term xyz"}}
	results := o.Execute(context.Background(), intent)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, types.ErrInvalidInput, results[0].Err.Code)
}
