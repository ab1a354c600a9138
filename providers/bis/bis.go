// Package bis adapts the BIS Statistics SDMX-JSON API: base path
// `/data/{dataflow}/{freq}.{country}`, `Accept:
// application/vnd.sdmx.data+json;version=1.0.0`. Covers country coverage
// gating, per-dataflow forced frequency, the Eurozone-country fallback-to-
// XM retry, SDMX time-period parsing (annual/quarterly/monthly), and the
// preference-table best-series selection (see select.go).
package bis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
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

// supportedCountries is BIS_SUPPORTED_COUNTRIES, the fixed ISO2 coverage
// set (plus "XM" for the Euro Area).
var supportedCountries = map[string]bool{
	"AE": true, "AR": true, "AT": true, "AU": true, "BE": true, "BG": true,
	"BR": true, "CA": true, "CH": true, "CL": true, "CN": true, "CO": true,
	"CZ": true, "DE": true, "DK": true, "EE": true, "EG": true, "ES": true,
	"FI": true, "FR": true, "GB": true, "GR": true, "HK": true, "HR": true,
	"HU": true, "ID": true, "IE": true, "IL": true, "IN": true, "IT": true,
	"JP": true, "KE": true, "KR": true, "LT": true, "LV": true, "LU": true,
	"MT": true, "MX": true, "MY": true, "NL": true, "NO": true, "NZ": true,
	"PH": true, "PL": true, "PT": true, "RO": true, "RU": true, "SA": true,
	"SE": true, "SG": true, "SK": true, "SI": true, "TH": true, "TR": true,
	"TW": true, "US": true, "VN": true, "ZA": true, "XM": true,
}

var eurozoneCountries = map[string]bool{
	"AT": true, "BE": true, "CY": true, "EE": true, "FI": true, "FR": true,
	"DE": true, "GR": true, "IE": true, "IT": true, "LV": true, "LT": true,
	"LU": true, "MT": true, "NL": true, "PT": true, "SK": true, "SI": true, "ES": true,
}

var forcedMonthly = map[string]bool{"WS_CBPOL": true, "WS_LONG_CPI": true, "WS_XRU": true}
var forcedQuarterly = map[string]bool{
	"WS_TC": true, "WS_SPP": true, "WS_CPP": true, "WS_DPP": true,
	"WS_DSR": true, "WS_GLI": true, "WS_DEBT_SEC2_PUB": true,
}

var indicatorUnit = map[string]string{
	"WS_CBPOL": "percent", "WS_LONG_CPI": "index", "WS_CPP": "index",
	"WS_XRU": "index", "WS_TC": "percent of GDP", "WS_SPP": "index",
}

// SupportedCountries reports whether BIS covers countryISO2, exported for
// the orchestrator's coverage pre-check.
func SupportedCountries(countryISO2 string) bool {
	return supportedCountries[strings.ToUpper(countryISO2)]
}

// Adapter is the BIS Statistics provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the BIS adapter. BIS requires no API key.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New constructs a BIS Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderBIS),
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout,
			BuildHeaders: func(req *http.Request, _ string) {
				req.Header.Set("Accept", "application/vnd.sdmx.data+json;version=1.0.0")
			},
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderBIS }

// HealthCheck probes a well-known dataflow/country combination.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/data/WS_CBPOL/M.US", nil)
	return err
}

type sdmxResponse struct {
	Data struct {
		DataSets []struct {
			Series map[string]sdmxSeries `json:"series"`
		} `json:"dataSets"`
		Structure struct {
			Dimensions struct {
				Observation []sdmxDimension `json:"observation"`
				Series      []sdmxDimension `json:"series"`
			} `json:"dimensions"`
		} `json:"structure"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

type sdmxSeries struct {
	Observations map[string][]*string `json:"observations"`
}

type sdmxDimension struct {
	ID     string `json:"id"`
	Values []struct {
		ID string `json:"id"`
	} `json:"values"`
}

// Fetch resolves a BIS dataflow code (indicator.Code, e.g. "WS_CBPOL") for
// a single country, forcing the dataflow's required frequency and, for
// Eurozone members of a monetary dataflow, retrying against the Euro Area
// aggregate ("XM") if the country-specific series is empty.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	dataflow := indicator.Code
	if dataflow == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput, "no BIS dataflow code resolved").
			WithProvider(string(routing.ProviderBIS))
	}

	countryISO2 := strings.ToUpper(firstNonEmpty(geo.Normalize(params["country"]), params["country"], "US"))
	if !supportedCountries[countryISO2] {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("BIS has no coverage for %s; try FRED for US policy rates or WorldBank for a global proxy", countryISO2)).
			WithProvider(string(routing.ProviderBIS))
	}

	freq := "M"
	switch {
	case forcedMonthly[dataflow]:
		freq = "M"
	case forcedQuarterly[dataflow]:
		freq = "Q"
	}

	candidates := []string{countryISO2}
	if eurozoneCountries[countryISO2] && forcedMonthly[dataflow] {
		candidates = append(candidates, "XM")
	}

	var lastErr error
	for _, code := range candidates {
		series, err := a.fetchOne(ctx, dataflow, freq, code, params)
		if err == nil {
			return series, nil
		}
		lastErr = err
	}
	return model.CanonicalSeries{}, lastErr
}

func (a *Adapter) fetchOne(ctx context.Context, dataflow, freq, countryCode string, params map[string]string) (model.CanonicalSeries, error) {
	sdmxKey := freq + "." + countryCode
	path := "/data/" + dataflow + "/" + sdmxKey

	query := url.Values{}
	if start := params["startDate"]; start != "" {
		query.Set("startPeriod", yearOf(start))
	}
	if end := params["endDate"]; end != "" {
		query.Set("endPeriod", yearOf(end))
	}

	body, err := a.http.Get(ctx, path, query)
	if err != nil {
		// Some BIS dataflows reject startPeriod/endPeriod; retry bare.
		if len(query) > 0 {
			body, err = a.http.Get(ctx, path, nil)
		}
		if err != nil {
			return model.CanonicalSeries{}, err
		}
	}

	var payload sdmxResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed BIS SDMX-JSON response").
			WithProvider(string(routing.ProviderBIS)).WithCause(jsonErr)
	}
	if len(payload.Errors) > 0 || len(payload.Data.DataSets) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("BIS has no %s data for %s", dataflow, countryCode)).
			WithProvider(string(routing.ProviderBIS))
	}

	dataset := payload.Data.DataSets[0]
	if len(dataset.Series) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("BIS has no %s data for %s", dataflow, countryCode)).
			WithProvider(string(routing.ProviderBIS))
	}

	timeDim := findDimension(payload.Data.Structure.Dimensions.Observation, "TIME_PERIOD")
	if timeDim == nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "BIS response missing TIME_PERIOD dimension").
			WithProvider(string(routing.ProviderBIS))
	}

	candidates := make([]seriesCandidate, 0, len(dataset.Series))
	for key, s := range dataset.Series {
		candidates = append(candidates, seriesCandidate{Key: key, Observations: s.Observations})
	}
	dims := toSeriesDimensions(payload.Data.Structure.Dimensions.Series)
	_, observations := selectBestSeries(candidates, dims, dataflow)
	if len(observations) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("BIS has no usable %s series for %s", dataflow, countryCode)).
			WithProvider(string(routing.ProviderBIS))
	}

	startYear, _ := strconv.Atoi(params["startDate"])
	endYear, _ := strconv.Atoi(params["endDate"])

	points := make([]model.Point, 0, len(observations))
	for timeIdxStr, obsData := range observations {
		timeIdx, convErr := strconv.Atoi(timeIdxStr)
		if convErr != nil || timeIdx < 0 || timeIdx >= len(timeDim.Values) {
			continue
		}
		date, year, ok := parseSDMXPeriod(timeDim.Values[timeIdx].ID)
		if !ok {
			continue
		}
		if startYear != 0 && year < startYear {
			continue
		}
		if endYear != 0 && year > endYear {
			continue
		}
		points = append(points, model.Point{Date: date, Value: parseObsValue(obsData)})
	}
	sortPointsByDate(points)

	freqLabel := model.FrequencyMonthly
	switch freq {
	case "Q":
		freqLabel = model.FrequencyQuarterly
	case "A":
		freqLabel = model.FrequencyAnnual
	}

	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderBIS),
		Indicator: firstNonEmpty(dataflow, dataflow),
		Country:   countryCode,
		SeriesID:  dataflow,
		Frequency: freqLabel,
		Unit:      indicatorUnit[dataflow],
		DataType:  model.DataTypeLevel,
		APIUrl:    a.http.MaskedURL(path, query),
		SourceURL: "https://stats.bis.org/statx/toc/LBS.html",
	}
	if len(points) > 0 {
		meta.StartDate = points[0].Date
		meta.EndDate = points[len(points)-1].Date
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

func toSeriesDimensions(raw []sdmxDimension) []seriesDimension {
	dims := make([]seriesDimension, 0, len(raw))
	for _, d := range raw {
		valueByID := make(map[string]int, len(d.Values))
		for i, v := range d.Values {
			valueByID[v.ID] = i
		}
		dims = append(dims, seriesDimension{ID: d.ID, ValueByID: valueByID})
	}
	return dims
}

func findDimension(dims []sdmxDimension, id string) *sdmxDimension {
	for i := range dims {
		if dims[i].ID == id {
			return &dims[i]
		}
	}
	return nil
}

// parseSDMXPeriod converts a BIS TIME_PERIOD value ("2020", "2020-01",
// "2020-Q1") into an ISO date and its integer year.
func parseSDMXPeriod(period string) (date string, year int, ok bool) {
	switch {
	case strings.Contains(period, "-Q"):
		parts := strings.SplitN(period, "-Q", 2)
		y, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", 0, false
		}
		q, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", 0, false
		}
		month := (q-1)*3 + 1
		return fmt.Sprintf("%04d-%02d-01", y, month), y, true
	case strings.Contains(period, "-"):
		y, err := strconv.Atoi(period[:4])
		if err != nil {
			return "", 0, false
		}
		return period + "-01", y, true
	default:
		y, err := strconv.Atoi(period)
		if err != nil {
			return "", 0, false
		}
		return period + "-01-01", y, true
	}
}

func parseObsValue(obs []*string) *float64 {
	if len(obs) == 0 || obs[0] == nil || *obs[0] == "" {
		return nil
	}
	v, err := strconv.ParseFloat(*obs[0], 64)
	if err != nil {
		return nil
	}
	return &v
}

func sortPointsByDate(points []model.Point) {
	for i := 1; i < len(points); i++ {
		for j := i; j > 0 && points[j-1].Date > points[j].Date; j-- {
			points[j-1], points[j] = points[j], points[j-1]
		}
	}
}

func yearOf(dateStr string) string {
	if len(dateStr) >= 4 {
		return dateStr[:4]
	}
	return dateStr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
