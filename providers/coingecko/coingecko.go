// Package coingecko adapts the CoinGecko cryptocurrency market-data API
// (`/simple/price`, `/coins/{id}/market_chart`), with Demo-vs-Pro API key
// detection (query-parameter name and host differ), the free/demo tier's
// 365-day historical-data cap, and per-metric response-key mapping.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

const (
	baseURLFree = "https://api.coingecko.com/api/v3"
	baseURLPro  = "https://pro-api.coingecko.com/api/v3"

	freeTierHistoryDaysCap = 365
)

// Adapter is the CoinGecko provider adapter.
type Adapter struct {
	http    *httpbase.Client
	isDemo  bool
	isPro   bool
}

// Config configures the CoinGecko adapter. An empty APIKey uses the public
// free tier (lower rate limits, 365-day historical cap). A "CG-"-prefixed
// key is treated as a Demo key (free host, `x_cg_demo_api_key` param); any
// other non-empty key over 30 characters is treated as a Pro key (Pro host,
// `x_cg_pro_api_key` param, no historical cap).
type Config struct {
	APIKey  string
	Timeout time.Duration
	// BaseURL overrides the auto-selected free/pro host. Tests use this to
	// point at an httptest server; production leaves it empty.
	BaseURL string
}

// New constructs a CoinGecko Adapter.
func New(cfg Config) *Adapter {
	isDemo := cfg.APIKey != "" && strings.HasPrefix(cfg.APIKey, "CG-")
	isPro := cfg.APIKey != "" && !isDemo && len(cfg.APIKey) > 30

	baseURL := baseURLFree
	if isPro {
		baseURL = baseURLPro
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	a := &Adapter{isDemo: isDemo, isPro: isPro}
	a.http = httpbase.New(httpbase.Config{
		ProviderName: string(routing.ProviderCoinGecko),
		BaseURL:      baseURL,
		APIKey:       cfg.APIKey,
		APIKeyParam:  keyParamName(isDemo, isPro),
		Timeout:      cfg.Timeout,
	}, nil)
	return a
}

func keyParamName(isDemo, isPro bool) string {
	switch {
	case isPro:
		return "x_cg_pro_api_key"
	case isDemo:
		return "x_cg_demo_api_key"
	default:
		return ""
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderCoinGecko }

// HealthCheck probes Bitcoin's current price.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/simple/price", url.Values{"ids": {"bitcoin"}, "vs_currencies": {"usd"}})
	return err
}

var metricResponseKey = map[string]string{
	"price": "prices", "market_cap": "market_caps", "volume": "total_volumes",
}

var simplePriceMetricSuffix = map[string]struct {
	field string
	label string
}{
	"price":      {"%s", "Price"},
	"volume":     {"%s_24h_vol", "24h Trading Volume"},
	"market_cap": {"%s_market_cap", "Market Cap"},
	"24h_change": {"%s_24h_change", "24h Price Change"},
}

// Fetch retrieves either a current simple-price snapshot (single point,
// real-time frequency) or historical market-chart data when
// params["days"] is set, for the coin identified by indicator.Code or
// params["coinId"] (default "bitcoin").
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	coinID := firstNonEmpty(params["coinId"], indicator.Code, "bitcoin")
	vsCurrency := strings.ToLower(firstNonEmpty(params["vsCurrency"], "usd"))
	metric := strings.ToLower(firstNonEmpty(params["metric"], "price"))

	if days := params["days"]; days != "" {
		return a.fetchHistorical(ctx, coinID, vsCurrency, metric, days)
	}
	return a.fetchSimplePrice(ctx, coinID, vsCurrency, metric)
}

func (a *Adapter) fetchSimplePrice(ctx context.Context, coinID, vsCurrency, metric string) (model.CanonicalSeries, error) {
	query := url.Values{
		"ids":                {coinID},
		"vs_currencies":      {vsCurrency},
		"include_24hr_change": {"true"},
		"include_market_cap": {"true"},
		"include_24hr_vol":   {"true"},
	}
	body, err := a.http.Get(ctx, "/simple/price", query)
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var payload map[string]map[string]float64
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed CoinGecko response").
			WithProvider(string(routing.ProviderCoinGecko)).WithCause(jsonErr)
	}
	coinData, ok := payload[coinID]
	if !ok {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("CoinGecko has no data for coin %q", coinID)).WithProvider(string(routing.ProviderCoinGecko))
	}

	suffix, ok := simplePriceMetricSuffix[metric]
	if !ok {
		suffix, metric = simplePriceMetricSuffix["price"], "price"
	}
	fieldKey := fmt.Sprintf(suffix.field, vsCurrency)
	value, ok := coinData[fieldKey]
	if !ok {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("CoinGecko metric %q not available for %q in %q", metric, coinID, vsCurrency)).
			WithProvider(string(routing.ProviderCoinGecko))
	}

	unit := strings.ToUpper(vsCurrency)
	if metric == "24h_change" {
		unit = "percent"
	}
	now := time.Now().UTC().Format(time.RFC3339)

	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderCoinGecko),
		Indicator: fmt.Sprintf("%s %s", strings.Title(coinID), suffix.label),
		SeriesID:  coinID,
		Frequency: model.FrequencyRealtime,
		Unit:      unit,
		DataType:  model.DataTypeLevel,
		StartDate: now,
		EndDate:   now,
		APIUrl:    a.http.MaskedURL("/simple/price", query),
		SourceURL: fmt.Sprintf("https://www.coingecko.com/en/coins/%s", coinID),
	}
	v := value
	return model.CanonicalSeries{Metadata: meta, Points: []model.Point{{Date: now, Value: &v}}}, nil
}

func (a *Adapter) fetchHistorical(ctx context.Context, coinID, vsCurrency, metric, daysRaw string) (model.CanonicalSeries, error) {
	days, err := strconv.Atoi(daysRaw)
	if err != nil || days <= 0 {
		days = 30
	}
	if !a.isPro && days > freeTierHistoryDaysCap {
		days = freeTierHistoryDaysCap
	}

	query := url.Values{"vs_currency": {vsCurrency}, "days": {strconv.Itoa(days)}}
	path := fmt.Sprintf("/coins/%s/market_chart", coinID)
	body, err := a.http.Get(ctx, path, query)
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var payload map[string][][2]float64
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed CoinGecko market_chart response").
			WithProvider(string(routing.ProviderCoinGecko)).WithCause(jsonErr)
	}

	metricKey := metricResponseKey[metric]
	if metricKey == "" {
		metricKey = "prices"
	}
	series, ok := payload[metricKey]
	if !ok || len(series) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("no CoinGecko historical %q data for %q", metric, coinID)).WithProvider(string(routing.ProviderCoinGecko))
	}

	points := make([]model.Point, 0, len(series))
	for _, pair := range series {
		ms := int64(pair[0])
		val := pair[1]
		date := time.UnixMilli(ms).UTC().Format(time.RFC3339)
		points = append(points, model.Point{Date: date, Value: &val})
	}

	freq := model.FrequencyDaily
	switch {
	case days == 1:
		freq = model.Frequency("5-minute")
	case days <= 7:
		freq = model.Frequency("hourly")
	}

	indicatorLabel, unit := historicalLabel(coinID, vsCurrency, metric)

	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderCoinGecko),
		Indicator: indicatorLabel,
		SeriesID:  coinID,
		Frequency: freq,
		Unit:      unit,
		DataType:  model.DataTypeLevel,
		StartDate: points[0].Date,
		EndDate:   points[len(points)-1].Date,
		APIUrl:    a.http.MaskedURL(path, query),
		SourceURL: fmt.Sprintf("https://www.coingecko.com/en/coins/%s/historical_data", coinID),
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

func historicalLabel(coinID, vsCurrency, metric string) (string, string) {
	title := strings.Title(coinID)
	unit := strings.ToUpper(vsCurrency)
	switch metric {
	case "market_cap":
		return title + " Market Cap", unit
	case "volume":
		return title + " 24h Volume", unit
	default:
		return title + " Price", unit
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
