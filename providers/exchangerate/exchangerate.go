// Package exchangerate adapts ExchangeRate-API
// (`/{key?}/latest/{base}` for current rates, `/{key}/history/{base}/{y}/{m}/{d}`
// for historical — the latter requires a paid key), with currency-name
// aliasing, single/multi/all-currency response shaping, and the
// historical-requires-API-key gate.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

var currencyMappings = map[string]string{
	"DOLLAR": "USD", "EURO": "EUR", "POUND": "GBP", "YEN": "JPY", "YUAN": "CNY",
	"FRANC": "CHF", "RUPEE": "INR", "WON": "KRW", "REAL": "BRL", "RUBLE": "RUB",
	"PESO": "MXN", "RAND": "ZAR", "LIRA": "TRY",
}

var majorCurrencies = []string{
	"EUR", "GBP", "JPY", "CNY", "CHF", "CAD", "AUD", "NZD", "SEK", "NOK",
	"DKK", "INR", "BRL", "MXN", "ZAR", "KRW", "SGD", "HKD", "RUB", "TRY",
}

// Adapter is the ExchangeRate-API provider adapter.
type Adapter struct {
	http   *httpbase.Client
	apiKey string
}

// Config configures the ExchangeRate adapter. Without an API key, requests
// go to the free open-access base URL and historical lookups are rejected.
type Config struct {
	BaseURL string // free open-access base, e.g. https://open.er-api.com/v6
	APIKey  string
	Timeout time.Duration
}

// New constructs an ExchangeRate Adapter. When an API key is configured,
// requests route to the authenticated v6 host instead of BaseURL.
func New(cfg Config) *Adapter {
	baseURL := cfg.BaseURL
	if cfg.APIKey != "" {
		baseURL = "https://v6.exchangerate-api.com/v6/" + cfg.APIKey
	}
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderExchangeRate),
			BaseURL:      baseURL,
			Timeout:      cfg.Timeout,
		}, nil),
		apiKey: cfg.APIKey,
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderExchangeRate }

// HealthCheck probes the USD latest-rates endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/latest/USD", nil)
	return err
}

type ratesResponse struct {
	Result            string             `json:"result"`
	ErrorType         string             `json:"error-type"`
	TimeLastUpdateUTC string             `json:"time_last_update_utc"`
	Rates             map[string]float64 `json:"rates"`
	ConversionRates   map[string]float64 `json:"conversion_rates"`
}

// Fetch retrieves current exchange rates for params["baseCurrency"]
// (default USD). If params["targetCurrency"] is set, the result is a
// single-point daily series; if params["targetCurrencies"] (comma-separated)
// is set, the result is a categorical multi-currency snapshot; otherwise a
// categorical snapshot of major currencies is returned.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	baseCode := currencyCode(firstNonEmpty(params["baseCurrency"], "USD"))

	path := fmt.Sprintf("/latest/%s", baseCode)
	body, err := a.http.Get(ctx, path, nil)
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var payload ratesResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed ExchangeRate-API response").
			WithProvider(string(routing.ProviderExchangeRate)).WithCause(jsonErr)
	}
	if payload.Result != "success" {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration,
			fmt.Sprintf("ExchangeRate-API returned error: %s", firstNonEmpty(payload.ErrorType, "unknown error"))).
			WithProvider(string(routing.ProviderExchangeRate))
	}

	var points []model.Point
	var indicatorName string
	freq := model.FrequencyCategory

	switch {
	case params["targetCurrencies"] != "":
		targets := strings.Split(params["targetCurrencies"], ",")
		for _, t := range targets {
			code := currencyCode(strings.TrimSpace(t))
			if v, ok := payload.Rates[code]; ok {
				val := v
				points = append(points, model.Point{Date: code, Value: &val})
			}
		}
		if len(points) == 0 {
			return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
				"none of the requested target currencies were found in the rates response").
				WithProvider(string(routing.ProviderExchangeRate))
		}
		indicatorName = fmt.Sprintf("%s exchange rates", baseCode)

	case params["targetCurrency"] != "":
		targetCode := currencyCode(params["targetCurrency"])
		v, ok := payload.Rates[targetCode]
		if !ok {
			return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
				fmt.Sprintf("target currency %s not found in rates", targetCode)).
				WithProvider(string(routing.ProviderExchangeRate))
		}
		date := parseLastUpdate(payload.TimeLastUpdateUTC)
		val := v
		points = []model.Point{{Date: date, Value: &val}}
		indicatorName = fmt.Sprintf("%s to %s", baseCode, targetCode)
		freq = model.FrequencyDaily

	default:
		for _, code := range majorCurrencies {
			if v, ok := payload.Rates[code]; ok {
				val := v
				points = append(points, model.Point{Date: code, Value: &val})
			}
		}
		indicatorName = fmt.Sprintf("%s exchange rates", baseCode)
	}

	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderExchangeRate),
		Indicator: indicatorName,
		Country:   "Global",
		Frequency: freq,
		Unit:      "exchange rate",
		DataType:  model.DataTypeLevel,
		APIUrl:    a.http.MaskedURL(path, nil),
		SourceURL: "https://www.exchangerate-api.com/",
	}
	if freq != model.FrequencyCategory {
		meta.StartDate = points[0].Date
		meta.EndDate = points[len(points)-1].Date
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

// FetchHistorical retrieves a single historical rate for an exact date.
// Requires a paid API key; the free open-access endpoint has no
// historical-data tier.
func (a *Adapter) FetchHistorical(ctx context.Context, baseCurrency, targetCurrency string, year, month, day int) (model.CanonicalSeries, error) {
	if a.apiKey == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput,
			"historical exchange rates require a paid ExchangeRate-API key").
			WithProvider(string(routing.ProviderExchangeRate))
	}
	baseCode := currencyCode(baseCurrency)
	targetCode := currencyCode(targetCurrency)
	path := fmt.Sprintf("/history/%s/%d/%d/%d", baseCode, year, month, day)

	body, err := a.http.Get(ctx, path, nil)
	if err != nil {
		return model.CanonicalSeries{}, err
	}
	var payload ratesResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed ExchangeRate-API response").
			WithProvider(string(routing.ProviderExchangeRate)).WithCause(jsonErr)
	}
	if payload.Result != "success" {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration,
			fmt.Sprintf("ExchangeRate-API returned error: %s", firstNonEmpty(payload.ErrorType, "unknown error"))).
			WithProvider(string(routing.ProviderExchangeRate))
	}
	v, ok := payload.ConversionRates[targetCode]
	if !ok {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("target currency %s not found for the requested date", targetCode)).
			WithProvider(string(routing.ProviderExchangeRate))
	}
	dateStr := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	val := v
	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderExchangeRate),
		Indicator: fmt.Sprintf("%s to %s", baseCode, targetCode),
		Country:   "Global",
		Frequency: model.FrequencyDaily,
		Unit:      "exchange rate",
		DataType:  model.DataTypeLevel,
		StartDate: dateStr,
		EndDate:   dateStr,
		APIUrl:    a.http.MaskedURL(path, nil),
		SourceURL: "https://www.exchangerate-api.com/",
	}
	return model.CanonicalSeries{Metadata: meta, Points: []model.Point{{Date: dateStr, Value: &val}}}, nil
}

func currencyCode(currency string) string {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(currency), " ", "_"))
	if code, ok := currencyMappings[key]; ok {
		return code
	}
	return key
}

func parseLastUpdate(raw string) string {
	if raw == "" {
		return "1970-01-01"
	}
	t, err := time.Parse("Mon, 02 Jan 2006 15:04:05 -0700", raw)
	if err != nil {
		return "1970-01-01"
	}
	return t.Format("2006-01-02")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
