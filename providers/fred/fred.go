// Package fred adapts the St. Louis Fed FRED API (JSON, API-key query
// param) to the common providers.Adapter contract: series lookup, the
// pc1/pch/log transformation-suffix convention, and a < 1.5 decimal
// percentage-normalization heuristic. FRED's 330K-series dynamic-search
// endpoint is out of scope — internal/translate and internal/catalog
// already cover indicator resolution without needing a local corpus to
// rank FRED's own search results against.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

var frequencyMap = map[string]model.Frequency{
	"Daily":      model.FrequencyDaily,
	"Weekly":     model.FrequencyWeekly,
	"Monthly":    model.FrequencyMonthly,
	"Quarterly":  model.FrequencyQuarterly,
	"Annual":     model.FrequencyAnnual,
	"Semiannual": model.FrequencySemiannual,
}

// Adapter is the FRED provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the FRED adapter's upstream connection.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New constructs a FRED Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderFRED),
			BaseURL:      cfg.BaseURL,
			APIKey:       cfg.APIKey,
			APIKeyParam:  "api_key",
			Timeout:      cfg.Timeout,
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderFRED }

// HealthCheck performs a cheap reachability probe against a known series.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/series", url.Values{"series_id": {"GDP"}, "file_type": {"json"}})
	return err
}

type seriesInfoResponse struct {
	Seriess []seriesInfo `json:"seriess"`
}

type seriesInfo struct {
	Title                  string `json:"title"`
	Units                  string `json:"units"`
	Frequency              string `json:"frequency"`
	LastUpdated            string `json:"last_updated"`
	SeasonalAdjustment     string `json:"seasonal_adjustment"`
	SeasonalAdjustmentShort string `json:"seasonal_adjustment_short"`
	Notes                  string `json:"notes"`
	ObservationStart       string `json:"observation_start"`
	ObservationEnd         string `json:"observation_end"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// Fetch resolves indicator.Code (optionally carrying a "CODE:transform"
// suffix, e.g. "CPIAUCSL:pc1" for year-over-year percent change) to a FRED
// series and returns its observations as a CanonicalSeries.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	seriesID, transform := splitTransform(indicator.Code)
	if override := params["seriesId"]; override != "" {
		seriesID, transform = splitTransform(override)
	}
	if seriesID == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput, "no FRED series id resolved for indicator").
			WithProvider(string(routing.ProviderFRED))
	}

	infoBody, err := a.http.Get(ctx, "/series", url.Values{"series_id": {seriesID}, "file_type": {"json"}})
	if err != nil {
		return model.CanonicalSeries{}, err
	}
	var infoPayload seriesInfoResponse
	if jsonErr := json.Unmarshal(infoBody, &infoPayload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed FRED series response").
			WithProvider(string(routing.ProviderFRED)).WithCause(jsonErr)
	}
	if len(infoPayload.Seriess) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable, fmt.Sprintf("FRED series %q not found", seriesID)).
			WithProvider(string(routing.ProviderFRED))
	}
	info := infoPayload.Seriess[0]

	obsParams := url.Values{"series_id": {seriesID}, "file_type": {"json"}}
	if start := params["startDate"]; start != "" {
		obsParams.Set("observation_start", start)
	}
	if end := params["endDate"]; end != "" {
		obsParams.Set("observation_end", end)
	}
	if transform != "" {
		obsParams.Set("units", transform)
	}

	obsBody, err := a.http.Get(ctx, "/series/observations", obsParams)
	if err != nil {
		return model.CanonicalSeries{}, err
	}
	var obsPayload observationsResponse
	if jsonErr := json.Unmarshal(obsBody, &obsPayload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed FRED observations response").
			WithProvider(string(routing.ProviderFRED)).WithCause(jsonErr)
	}

	unit := info.Units
	title := info.Title
	switch transform {
	case "pc1":
		unit = "Percent Change from Year Ago"
		title = title + " (YoY % Change)"
	case "pch":
		unit = "Percent Change"
		title = title + " (% Change)"
	case "log":
		unit = "Natural Log"
		title = title + " (Log)"
	}

	points := make([]model.Point, 0, len(obsPayload.Observations))
	for _, obs := range obsPayload.Observations {
		if obs.Date == "" {
			continue
		}
		points = append(points, model.Point{Date: obs.Date, Value: parseObservationValue(obs.Value)})
	}

	unitLower := strings.ToLower(unit)
	if strings.Contains(unitLower, "percent") || strings.Contains(unitLower, "rate") {
		normalizePercentageValues(points)
	}

	meta := model.SeriesMetadata{
		Source:             string(routing.ProviderFRED),
		Indicator:          title,
		Country:            "US",
		SeriesID:           seriesID,
		Frequency:          mapFrequency(info.Frequency),
		Unit:               unit,
		DataType:           classifyDataType(title, unit),
		PriceType:          classifyPriceType(title),
		SeasonalAdjustment: firstNonEmpty(info.SeasonalAdjustment, info.SeasonalAdjustmentShort),
		StartDate:          info.ObservationStart,
		EndDate:            info.ObservationEnd,
		APIUrl:             a.http.MaskedURL("/series/observations", obsParams),
		SourceURL:          "https://fred.stlouisfed.org/series/" + seriesID,
		Description:        truncate(info.Notes, 200),
		Notes:              strings.Join(splitNotes(info.Notes), "; "),
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

// splitTransform separates a "CODE:transform" indicator code (FRED's
// transformation-suffix convention, e.g. "CPIAUCSL:pc1") into its series ID
// and transform. A code with no colon has no transform.
func splitTransform(code string) (seriesID, transform string) {
	if idx := strings.Index(code, ":"); idx >= 0 {
		return code[:idx], code[idx+1:]
	}
	return code, ""
}

func parseObservationValue(raw string) *float64 {
	if raw == "" || raw == "." {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// normalizePercentageValues rewrites decimal-encoded percentages (0.025) to
// their percent form (2.5) in place, when every observed magnitude is below
// 1.5 — FRED sometimes reports percentage series as raw fractions.
func normalizePercentageValues(points []model.Point) {
	maxAbs := 0.0
	seen := false
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		seen = true
		if abs := math.Abs(*p.Value); abs > maxAbs {
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

func mapFrequency(fredFrequency string) model.Frequency {
	if f, ok := frequencyMap[fredFrequency]; ok {
		return f
	}
	return model.Frequency(strings.ToLower(fredFrequency))
}

func classifyDataType(title, unit string) model.DataType {
	titleLower, unitLower := strings.ToLower(title), strings.ToLower(unit)
	switch {
	case strings.Contains(titleLower, "percent change") || strings.Contains(titleLower, "growth rate"):
		return model.DataTypePercentChange
	case strings.Contains(titleLower, "change"):
		return model.DataTypeChange
	case strings.Contains(titleLower, "index") || strings.Contains(unitLower, "index"):
		return model.DataTypeIndex
	case strings.Contains(titleLower, "rate") && strings.Contains(unitLower, "percent"):
		return model.DataTypeRate
	default:
		return model.DataTypeLevel
	}
}

func classifyPriceType(title string) model.PriceType {
	titleLower := strings.ToLower(title)
	switch {
	case strings.Contains(titleLower, "real") || strings.Contains(titleLower, "chained") || strings.Contains(titleLower, "constant"):
		return model.PriceTypeReal
	case strings.Contains(titleLower, "nominal") || strings.Contains(titleLower, "current"):
		return model.PriceTypeNominal
	default:
		return model.PriceTypeNone
	}
}

func splitNotes(notes string) []string {
	if notes == "" {
		return nil
	}
	text := truncate(notes, 500)
	var out []string
	for _, sentence := range strings.Split(text, ".") {
		s := strings.TrimSpace(sentence)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
