// Package imf adapts the IMF DataMapper API: one call per indicator code
// returns every country's annual series at once (`values.{indicator}.
// {ISO3}.{year}`), no API key required. Carries a percent-indicator unit
// table, growth/rate DataType classification, and a <1.5 decimal
// percentage-normalization heuristic.
package imf

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/econdata/econfed/internal/geo"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

var percentIndicators = map[string]bool{
	"NGDP_RPCH": true, "LUR": true, "PCPIPCH": true, "BCA_NGDPD": true,
	"GGXWDG_NGDP": true, "GGXCNL_NGDP": true, "rev": true, "exp": true,
	"prim_exp": true, "pb": true,
}

var growthIndicators = map[string]bool{"NGDP_RPCH": true, "PCPIPCH": true}

var rateIndicators = map[string]bool{
	"LUR": true, "BCA_NGDPD": true, "GGXWDG_NGDP": true, "GGXCNL_NGDP": true,
	"rev": true, "exp": true, "prim_exp": true, "pb": true,
}

// Adapter is the IMF DataMapper provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the IMF adapter. The DataMapper API requires no key.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New constructs an IMF Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderIMF),
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout,
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderIMF }

// HealthCheck probes the DataMapper API for a known indicator.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/NGDP_RPCH", nil)
	return err
}

type datamapperResponse struct {
	Values map[string]map[string]map[string]*float64 `json:"values"`
}

// Fetch requests the indicator's full dataset and extracts the single
// country named in params["country"] (defaulting to "US"). The DataMapper
// API returns every country per call; callers needing several countries
// issue several Fetch calls — the orchestrator fans those out.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	if indicator.Code == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput, "no IMF indicator code resolved").
			WithProvider(string(routing.ProviderIMF))
	}

	countryISO3 := geo.ToISO3(firstNonEmpty(params["country"], "US"))

	path := "/" + indicator.Code
	body, err := a.http.Get(ctx, path, nil)
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var payload datamapperResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed IMF DataMapper response").
			WithProvider(string(routing.ProviderIMF)).WithCause(jsonErr)
	}

	byCountry, ok := payload.Values[indicator.Code]
	if !ok {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("IMF indicator %q not found in response", indicator.Code)).
			WithProvider(string(routing.ProviderIMF))
	}

	yearValues, ok := byCountry[countryISO3]
	if !ok || len(yearValues) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("IMF has no %q data for %s", indicator.Code, countryISO3)).
			WithProvider(string(routing.ProviderIMF))
	}

	startYear, _ := strconv.Atoi(params["startDate"])
	endYear, _ := strconv.Atoi(params["endDate"])

	years := make([]string, 0, len(yearValues))
	for y := range yearValues {
		years = append(years, y)
	}
	sort.Strings(years)

	points := make([]model.Point, 0, len(years))
	for _, y := range years {
		yearNum, convErr := strconv.Atoi(y)
		if convErr != nil {
			continue
		}
		if startYear != 0 && yearNum < startYear {
			continue
		}
		if endYear != 0 && yearNum > endYear {
			continue
		}
		points = append(points, model.Point{Date: y + "-01-01", Value: yearValues[y]})
	}
	if len(points) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("IMF %q has no observations for %s in the requested range", indicator.Code, countryISO3)).
			WithProvider(string(routing.ProviderIMF))
	}

	unit := ""
	if percentIndicators[indicator.Code] {
		unit = "percent"
		normalizePercentageValues(points)
	}

	dataType := model.DataTypeLevel
	switch {
	case growthIndicators[indicator.Code]:
		dataType = model.DataTypePercentChange
	case rateIndicators[indicator.Code]:
		dataType = model.DataTypeRate
	}

	name := firstNonEmpty(indicator.Name, indicator.Code)
	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderIMF),
		Indicator: name,
		Country:   countryISO3,
		SeriesID:  indicator.Code,
		Frequency: model.FrequencyAnnual,
		Unit:      unit,
		DataType:  dataType,
		StartDate: points[0].Date,
		EndDate:   points[len(points)-1].Date,
		APIUrl:    a.http.MaskedURL(path+"/"+countryISO3, nil),
		SourceURL: fmt.Sprintf("https://www.imf.org/external/datamapper/%s@WEO/%s", indicator.Code, countryISO3),
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

// normalizePercentageValues applies the same <1.5-magnitude decimal-to-
// percent heuristic as the FRED adapter; IMF DataMapper occasionally
// reports percent indicators as raw fractions too.
func normalizePercentageValues(points []model.Point) {
	maxAbs := 0.0
	seen := false
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		seen = true
		abs := *p.Value
		if abs < 0 {
			abs = -abs
		}
		if abs > maxAbs {
			maxAbs = abs
		}
	}
	if !seen || maxAbs >= 1.5 {
		return
	}
	for i, p := range points {
		if p.Value == nil {
			continue
		}
		scaled := *p.Value * 100
		points[i].Value = &scaled
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
