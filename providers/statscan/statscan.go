// Package statscan adapts Statistics Canada's Web Data Service (WDS) Vector
// API (`POST /getDataFromVectorsAndLatestNPeriods`), with a known-product/
// vector fallback table for common indicators — full product discovery
// depends on a live `getAllCubesListLite` catalog crawl this adapter
// doesn't perform.
package statscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

// vectorMappings are the verified vector IDs usable with the Vector API,
// transcribed from query.py's statscan_vectors fallback table (used when no
// live metadata-discovery result is available).
var vectorMappings = map[string]int{
	"GDP":             65201210,
	"UNEMPLOYMENT":    2062815,
	"INFLATION":       41690973,
	"CPI":             41690914,
	"POPULATION":      1,
	"HOUSING_STARTS":  50483,
	"EMPLOYMENT_RATE": 14609,
}

// Adapter is the Statistics Canada WDS provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the StatsCan adapter. The WDS REST API requires no key.
type Config struct {
	BaseURL string // default https://www150.statcan.gc.ca/t1/wds/rest
	Timeout time.Duration
}

// New constructs a StatsCan Adapter.
func New(cfg Config) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www150.statcan.gc.ca/t1/wds/rest"
	}
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderStatsCan),
			BaseURL:      baseURL,
			Timeout:      cfg.Timeout,
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderStatsCan }

// HealthCheck probes the population vector with a single latest period.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	_, err := a.postVectorRequest(ctx, []vectorRequest{{VectorID: vectorMappings["POPULATION"], LatestN: 1}})
	return err
}

type vectorRequest struct {
	VectorID int `json:"vectorId"`
	LatestN  int `json:"latestN"`
}

type vectorResponseEnvelope struct {
	Status string          `json:"status"`
	Object vectorDataObject `json:"object"`
}

type vectorDataObject struct {
	VectorID     int                `json:"vectorId"`
	CoordinateID string             `json:"coordinate"`
	VectorDataPoint []vectorDataPoint `json:"vectorDataPoint"`
}

type vectorDataPoint struct {
	RefPer string  `json:"refPer"`
	Value  float64 `json:"value"`
}

// Fetch retrieves one Statistics Canada vector series. indicator.Code (or
// params["vectorId"]) may be a verified indicator name from vectorMappings,
// a bare "v12345" / numeric vector ID, or a "PNNNNNN" product ID — the
// latter is rejected since resolving a product ID to a specific vector
// requires dimension metadata this adapter does not discover dynamically.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	vectorID, indicatorLabel, err := resolveVectorID(firstNonEmpty(params["vectorId"], indicator.Code))
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	latestN := 100
	if n := params["latestN"]; n != "" {
		if parsed, convErr := strconv.Atoi(n); convErr == nil && parsed > 0 {
			latestN = parsed
		}
	}

	body, err := a.postVectorRequest(ctx, []vectorRequest{{VectorID: vectorID, LatestN: latestN}})
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var envelopes []vectorResponseEnvelope
	if jsonErr := json.Unmarshal(body, &envelopes); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed StatsCan WDS response").
			WithProvider(string(routing.ProviderStatsCan)).WithCause(jsonErr)
	}
	if len(envelopes) == 0 || envelopes[0].Status != "SUCCESS" {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("StatsCan vector %d returned no data", vectorID)).WithProvider(string(routing.ProviderStatsCan))
	}

	obj := envelopes[0].Object
	if len(obj.VectorDataPoint) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			fmt.Sprintf("StatsCan vector %d has no observations", vectorID)).WithProvider(string(routing.ProviderStatsCan))
	}

	points := make([]model.Point, 0, len(obj.VectorDataPoint))
	for _, dp := range obj.VectorDataPoint {
		date := normalizeRefPeriod(dp.RefPer)
		v := dp.Value
		points = append(points, model.Point{Date: date, Value: &v})
	}

	meta := model.SeriesMetadata{
		Source:    string(routing.ProviderStatsCan),
		Indicator: indicatorLabel,
		Country:   "CA",
		SeriesID:  fmt.Sprintf("v%d", vectorID),
		Frequency: inferFrequency(points),
		DataType:  model.DataTypeLevel,
		StartDate: points[0].Date,
		EndDate:   points[len(points)-1].Date,
		APIUrl:    a.http.MaskedURL("/getDataFromVectorsAndLatestNPeriods", nil),
		SourceURL: fmt.Sprintf("https://www150.statcan.gc.ca/t1/tbl1/en/tv.action?pid=%d", vectorID),
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

func (a *Adapter) postVectorRequest(ctx context.Context, reqs []vectorRequest) ([]byte, error) {
	payload, err := json.Marshal(reqs)
	if err != nil {
		return nil, types.NewError(types.ErrProviderIntegration, "failed to encode StatsCan vector request").
			WithProvider(string(routing.ProviderStatsCan)).WithCause(err)
	}
	return a.http.Post(ctx, "/getDataFromVectorsAndLatestNPeriods", bytes.NewReader(payload), "application/json")
}

func resolveVectorID(code string) (int, string, error) {
	if code == "" {
		return 0, "", types.NewError(types.ErrInvalidInput, "no StatsCan vector or indicator resolved").
			WithProvider(string(routing.ProviderStatsCan))
	}
	upper := strings.ToUpper(strings.TrimSpace(code))
	if id, ok := vectorMappings[upper]; ok {
		return id, upper, nil
	}
	trimmed := strings.TrimPrefix(strings.ToLower(code), "v")
	if id, err := strconv.Atoi(trimmed); err == nil {
		return id, code, nil
	}
	return 0, "", types.NewError(types.ErrDataNotAvailable,
		fmt.Sprintf("%q is not a known StatsCan vector or verified indicator; dynamic product discovery is not available", code)).
		WithProvider(string(routing.ProviderStatsCan))
}

// normalizeRefPeriod converts a StatsCan refPer ("2023-01", "2023") into an
// ISO date; the WDS API already reports period starts, so a bare "YYYY-MM"
// just gains a day component.
func normalizeRefPeriod(refPer string) string {
	switch len(refPer) {
	case 4:
		return refPer + "-01-01"
	case 7:
		return refPer + "-01"
	default:
		return refPer
	}
}

func inferFrequency(points []model.Point) model.Frequency {
	if len(points) < 2 {
		return model.FrequencyAnnual
	}
	if len(points[0].Date) == 10 && len(points[1].Date) == 10 {
		m0, m1 := points[0].Date[5:7], points[1].Date[5:7]
		if m0 != m1 {
			return model.FrequencyMonthly
		}
	}
	return model.FrequencyAnnual
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
