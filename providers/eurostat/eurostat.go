// Package eurostat adapts the Eurostat JSON-stat 2.0 API
// (`/statistics/1.0/data/{dataset}`, params `geo`, `freq`,
// `sinceTimePeriod`), with dataset-code frequency inference from suffix
// conventions, JSON-stat flattened-array position computation, the
// unemployment-rate PC_ACT unit preference, SDMX time-label normalization,
// and an EU-only coverage gate.
package eurostat

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

// Adapter is the Eurostat provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the Eurostat adapter. Eurostat's dissemination API
// requires no API key.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New constructs a Eurostat Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderEurostat),
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout,
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderEurostat }

// HealthCheck probes a well-known dataset.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.http.Get(ctx, "/data/une_rt_a", url.Values{"geo": {"EU27_2020"}, "freq": {"A"}})
	return err
}

type jsonStatPayload struct {
	Label     string                    `json:"label"`
	Updated   string                    `json:"updated"`
	Value     map[string]float64        `json:"value"`
	Dimension map[string]jsonStatDim    `json:"dimension"`
	Size      []int                     `json:"size"`
	ID        []string                  `json:"id"`
}

type jsonStatDim struct {
	Category struct {
		Index map[string]int    `json:"index"`
		Label map[string]string `json:"label"`
	} `json:"category"`
}

// Fetch issues a JSON-stat query for indicator.Code (a Eurostat dataset
// code, e.g. "une_rt_a") against the requested country (EU-wide
// aggregate when empty) and flattens the response into a single-series
// CanonicalSeries.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	dataset := indicator.Code
	if dataset == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput, "no Eurostat dataset code resolved").
			WithProvider(string(routing.ProviderEurostat))
	}

	countryRaw := firstNonEmpty(params["country"], "EU27_2020")
	if countryRaw != "EU27_2020" && countryRaw != "EA20" && !geo.IsEUMember(countryRaw) {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("Eurostat only covers EU/Eurozone members, not %s", countryRaw)).
			WithProvider(string(routing.ProviderEurostat))
	}
	countryCode := strings.ToUpper(firstNonEmpty(geo.Normalize(countryRaw), countryRaw))

	freq := inferFrequency(dataset)
	query := url.Values{"geo": {countryCode}, "freq": {freq}}
	if start := params["startDate"]; start != "" {
		query.Set("sinceTimePeriod", yearOf(start))
	} else {
		query.Set("sinceTimePeriod", strconv.Itoa(currentYear()-5))
	}

	path := "/data/" + dataset
	body, err := a.http.Get(ctx, path, query)
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var payload jsonStatPayload
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed Eurostat JSON-stat response").
			WithProvider(string(routing.ProviderEurostat)).WithCause(jsonErr)
	}

	points, unit := parseJSONStat(payload, dataset)
	if len(points) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("Eurostat dataset %q has no observations for %s", dataset, countryCode)).
			WithProvider(string(routing.ProviderEurostat))
	}

	if strings.Contains(strings.ToLower(unit), "percent") {
		normalizePercentageValues(points)
	}

	freqLabel := model.FrequencyAnnual
	switch freq {
	case "Q":
		freqLabel = model.FrequencyQuarterly
	case "M":
		freqLabel = model.FrequencyMonthly
	}

	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderEurostat),
		Indicator: firstNonEmpty(payload.Label, dataset),
		Country:   countryCode,
		SeriesID:  dataset,
		Frequency: freqLabel,
		Unit:      unit,
		DataType:  classifyDataType(indicator.Name, dataset),
		StartDate: points[0].Date,
		EndDate:   points[len(points)-1].Date,
		APIUrl:    a.http.MaskedURL(path, query),
		SourceURL: fmt.Sprintf("https://ec.europa.eu/eurostat/databrowser/view/%s/default/table?lang=en", dataset),
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

// inferFrequency guesses a dataset's SDMX frequency from Eurostat's naming
// conventions: "namq_" prefix, "_10q_" or "_q" suffix → quarterly, "_m"
// suffix → monthly, otherwise annual.
func inferFrequency(dataset string) string {
	lower := strings.ToLower(dataset)
	switch {
	case strings.HasPrefix(lower, "namq_") || strings.Contains(lower, "_10q_") || strings.HasSuffix(lower, "_q"):
		return "Q"
	case strings.HasSuffix(lower, "_m"):
		return "M"
	default:
		return "A"
	}
}

// parseJSONStat flattens a JSON-stat 2.0 payload's "value" map into
// (date, value) points along the time dimension, holding every other
// dimension at its first index — except the unit dimension for
// unemployment-rate datasets, which prefers "PC_ACT" (percent of active
// population) per the original provider's unit-selection logic.
func parseJSONStat(payload jsonStatPayload, dataset string) ([]model.Point, string) {
	timeDim, ok := payload.Dimension["time"]
	if !ok {
		return nil, ""
	}

	unitIndex := 0
	unit := ""
	if unitDim, ok := payload.Dimension["unit"]; ok {
		if dataset == "une_rt_a" || dataset == "une_rt_m" {
			if idx, ok := unitDim.Category.Index["PC_ACT"]; ok {
				unitIndex = idx
			} else if idx, ok := unitDim.Category.Index["PC"]; ok {
				unitIndex = idx
			}
		}
		for label, idx := range unitDim.Category.Index {
			if idx == unitIndex {
				unit = label
			}
		}
	}

	timePos := indexOf(payload.ID, "time")
	unitPos := indexOf(payload.ID, "unit")

	type labeled struct {
		label string
		idx   int
	}
	ordered := make([]labeled, 0, len(timeDim.Category.Index))
	for label, idx := range timeDim.Category.Index {
		ordered = append(ordered, labeled{label, idx})
	}
	sortByIdx(ordered)

	points := make([]model.Point, 0, len(ordered))
	for _, t := range ordered {
		position := flattenPosition(payload.Size, payload.ID, timePos, t.idx, unitPos, unitIndex)
		val, ok := payload.Value[strconv.Itoa(position)]
		if !ok {
			continue
		}
		v := val
		points = append(points, model.Point{Date: normalizeTimeLabel(t.label), Value: &v})
	}
	return points, unit
}

// flattenPosition reproduces the original's "work backwards through
// dimensions" flattened-array index calculation: every dimension other
// than time/unit contributes its first (0) value.
func flattenPosition(sizes []int, ids []string, timePos, timeIdx, unitPos, unitIdx int) int {
	if len(sizes) != len(ids) {
		return timeIdx
	}
	position := 0
	multiplier := 1
	for i := len(ids) - 1; i >= 0; i-- {
		switch i {
		case timePos:
			position += timeIdx * multiplier
		case unitPos:
			position += unitIdx * multiplier
		}
		if i > 0 {
			multiplier *= sizes[i]
		}
	}
	return position
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func normalizeTimeLabel(label string) string {
	if strings.Contains(label, "-Q") {
		parts := strings.SplitN(label, "-Q", 2)
		q, err := strconv.Atoi(parts[1])
		if err != nil {
			return label + "-01-01"
		}
		month := (q-1)*3 + 1
		return fmt.Sprintf("%s-%02d-01", parts[0], month)
	}
	if strings.Contains(label, "-") {
		return label + "-01"
	}
	return label + "-01-01"
}

func classifyDataType(indicatorName, dataset string) model.DataType {
	lower := strings.ToLower(indicatorName)
	switch {
	case strings.Contains(lower, "rate") || strings.Contains(lower, "percent"):
		return model.DataTypeRate
	case strings.Contains(lower, "index") || strings.HasPrefix(dataset, "prc_"):
		return model.DataTypeIndex
	case strings.Contains(lower, "change") || strings.Contains(lower, "growth"):
		return model.DataTypePercentChange
	default:
		return model.DataTypeLevel
	}
}

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

func sortByIdx(items []struct {
	label string
	idx   int
}) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1].idx > items[j].idx; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

func yearOf(dateStr string) string {
	if len(dateStr) >= 4 {
		return dateStr[:4]
	}
	return dateStr
}

func currentYear() int {
	return time.Now().Year()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
