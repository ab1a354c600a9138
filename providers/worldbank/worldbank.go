// Package worldbank adapts the World Bank indicators API: plain REST JSON
// where every response is a two-element top-level array `[meta, records]`,
// paginated, one request per (indicator, country) pair. Request/response
// shape follows the World Bank API's own public contract, matched up
// against the catalog's WorldBank indicator codes (dotted SDMX-style
// series like NY.GDP.MKTP.CD).
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/geo"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

// Adapter is the World Bank provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the World Bank adapter. World Bank's indicator API
// requires no API key.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New constructs a World Bank Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderWorldBank),
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout,
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderWorldBank }

// HealthCheck probes a well-known indicator for a well-known country.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/country/US/indicator/NY.GDP.MKTP.CD", url.Values{"format": {"json"}, "per_page": {"1"}})
	return err
}

type pageMeta struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage any `json:"per_page"`
	Total   int `json:"total"`
}

type record struct {
	Indicator struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"indicator"`
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string `json:"countryiso3code"`
	Date        string `json:"date"`
	Value       *float64 `json:"value"`
	Unit        string   `json:"unit"`
}

// Fetch issues one paginated request for the country in params["country"]
// (converted to ISO3 as a single value, or "all" when none is given) and
// returns its observations as one CanonicalSeries. A comma-separated list
// is not split into several requests; callers needing N series issue N
// Fetch calls with country pinned.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	if indicator.Code == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput, "no World Bank indicator code resolved").
			WithProvider(string(routing.ProviderWorldBank))
	}

	country := params["country"]
	if country == "" {
		country = "all"
	} else {
		country = geo.ToISO3(country)
	}

	query := url.Values{"format": {"json"}, "per_page": {"1000"}}
	if start := params["startDate"]; start != "" {
		end := params["endDate"]
		if end == "" {
			end = start
		}
		query.Set("date", yearOf(start)+":"+yearOf(end))
	}

	path := fmt.Sprintf("/country/%s/indicator/%s", strings.ToLower(country), indicator.Code)
	records, err := a.fetchAllPages(ctx, path, query)
	if err != nil {
		return model.CanonicalSeries{}, err
	}
	if len(records) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("World Bank has no observations for %s/%s", country, indicator.Code)).
			WithProvider(string(routing.ProviderWorldBank))
	}

	points := make([]model.Point, 0, len(records))
	for _, rec := range records {
		if rec.Date == "" {
			continue
		}
		points = append(points, model.Point{Date: rec.Date + "-01-01", Value: rec.Value})
	}
	reversePoints(points)

	first := records[0]
	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderWorldBank),
		Indicator: first.Indicator.Value,
		Country:   first.Country.Value,
		SeriesID:  indicator.Code,
		Frequency: model.FrequencyAnnual,
		Unit:      first.Unit,
		DataType:  model.DataTypeLevel,
		APIUrl:    a.http.MaskedURL(path, query),
		SourceURL: "https://data.worldbank.org/indicator/" + indicator.Code,
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

// fetchAllPages walks World Bank's `[meta, records]` pagination until every
// page has been consumed.
func (a *Adapter) fetchAllPages(ctx context.Context, path string, query url.Values) ([]record, error) {
	var all []record
	page := 1
	for {
		pageQuery := cloneValues(query)
		pageQuery.Set("page", strconv.Itoa(page))

		body, err := a.http.Get(ctx, path, pageQuery)
		if err != nil {
			return nil, err
		}

		var parsed [2]json.RawMessage
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
			return nil, types.NewError(types.ErrProviderIntegration, "malformed World Bank response envelope").
				WithProvider(string(routing.ProviderWorldBank)).WithCause(jsonErr)
		}

		var meta pageMeta
		if jsonErr := json.Unmarshal(parsed[0], &meta); jsonErr != nil {
			return nil, types.NewError(types.ErrProviderIntegration, "malformed World Bank page metadata").
				WithProvider(string(routing.ProviderWorldBank)).WithCause(jsonErr)
		}

		var records []record
		if len(parsed[1]) > 0 && string(parsed[1]) != "null" {
			if jsonErr := json.Unmarshal(parsed[1], &records); jsonErr != nil {
				return nil, types.NewError(types.ErrProviderIntegration, "malformed World Bank records page").
					WithProvider(string(routing.ProviderWorldBank)).WithCause(jsonErr)
			}
		}
		all = append(all, records...)

		if meta.Pages == 0 || meta.Page >= meta.Pages {
			break
		}
		page++
	}
	return all, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string{}, vals...)
	}
	return out
}

func yearOf(dateStr string) string {
	if len(dateStr) >= 4 {
		return dateStr[:4]
	}
	return dateStr
}

func reversePoints(points []model.Point) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}
