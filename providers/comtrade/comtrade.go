// Package comtrade adapts the UN Comtrade trade-flow API
// (`/C/{freq}/HS`, typeCode=C, clCode=HS): commodity-name-to-HS-code
// resolution, flow/frequency mapping, period-string generation, and the
// Taiwan non-reporting-territory partner-perspective flip.
package comtrade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/econdata/econfed/internal/geo"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/providers/httpbase"
	"github.com/econdata/econfed/types"
)

// commodityMappings is a curated subset of the original's HS-code lookup,
// covering the commodities most commonly asked about.
var commodityMappings = map[string]string{
	"ALL": "TOTAL", "TOTAL": "TOTAL",
	"OIL": "27", "PETROLEUM": "27", "CRUDE_OIL": "2709", "NATURAL_GAS": "2711", "COAL": "2701",
	"PHARMACEUTICALS": "30", "MEDICINES": "30",
	"CLOTHING": "62", "APPAREL": "62", "FOOTWEAR": "64", "SHOES": "64",
	"MACHINERY": "84", "COMPUTERS": "8471", "ELECTRONICS": "85", "SEMICONDUCTORS": "8542", "CHIPS": "8542",
	"VEHICLES": "87", "CARS": "8703", "AUTOMOBILES": "8703", "AIRCRAFT": "88",
	"WHEAT": "1001", "RICE": "1006", "CORN": "1005", "SOYBEANS": "1201", "COFFEE": "0901",
	"IRON": "72", "STEEL": "72", "ALUMINUM": "76", "COPPER": "74", "GOLD": "7108",
	"PLASTIC": "39", "PLASTICS": "39", "CHEMICAL": "28", "CHEMICALS": "28",
}

var flowMappings = map[string]string{
	"EXPORT": "X", "EXPORTS": "X", "IMPORT": "M", "IMPORTS": "M", "BOTH": "M,X",
}

const taiwanUNCode = "158"
const taiwanPartnerCode = "490"

// Adapter is the UN Comtrade provider adapter.
type Adapter struct {
	http *httpbase.Client
}

// Config configures the Comtrade adapter. The Comtrade v1 bulk API accepts
// an optional subscription key; requests are unauthenticated (rate-limited)
// without one.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New constructs a Comtrade Adapter.
func New(cfg Config) *Adapter {
	return &Adapter{
		http: httpbase.New(httpbase.Config{
			ProviderName: string(routing.ProviderComtrade),
			BaseURL:      cfg.BaseURL,
			APIKey:       cfg.APIKey,
			APIKeyParam:  "subscription-key",
			Timeout:      cfg.Timeout,
		}, nil),
	}
}

// Tag identifies this adapter to the routing layer.
func (a *Adapter) Tag() routing.ProviderTag { return routing.ProviderComtrade }

// HealthCheck probes a known reporter/commodity combination.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	query := url.Values{
		"typeCode": {"C"}, "freqCode": {"A"}, "clCode": {"HS"},
		"reporterCode": {"842"}, "period": {strconv.Itoa(time.Now().Year() - 2)},
		"partnerCode": {"0"}, "cmdCode": {"TOTAL"}, "flowCode": {"X"}, "format": {"json"},
	}
	_, err := a.http.Get(ctx, "/C/A/HS", query)
	return err
}

type tradeResponse struct {
	Data []tradeRecord `json:"data"`
}

type tradeRecord struct {
	Period       json.Number `json:"period"`
	FlowDesc     string      `json:"flowDesc"`
	CmdCode      string      `json:"cmdCode"`
	CmdDesc      string      `json:"cmdDesc"`
	ReporterDesc string      `json:"reporterDesc"`
	PrimaryValue float64     `json:"primaryValue"`
}

// Fetch retrieves one reporter's trade series against the requested
// partner (world total if unset). When reporter resolves to Taiwan — a
// non-reporting territory — the call is automatically flipped to the
// partner's mirror-flow perspective with Taiwan as the partner code.
func (a *Adapter) Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error) {
	reporterRaw := firstNonEmpty(params["reporter"], "US")
	partnerRaw := params["partner"]
	commodityRaw := firstNonEmpty(params["commodity"], indicator.Code)
	flowRaw := params["flow"]
	freqCode := frequencyCode(params["frequency"])

	reporterCode := countryCode(reporterRaw)
	if reporterCode == "" {
		return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput,
			fmt.Sprintf("unrecognized Comtrade reporter %q", reporterRaw)).WithProvider(string(routing.ProviderComtrade))
	}

	flowCode := flowCodeOf(flowRaw)
	flipped := false
	if reporterCode == taiwanUNCode || reporterCode == taiwanPartnerCode {
		flipped = true
		if partnerRaw == "" {
			partnerRaw = "China"
		}
		newReporterCode := countryCode(partnerRaw)
		if newReporterCode == "" {
			return model.CanonicalSeries{}, types.NewError(types.ErrInvalidInput,
				fmt.Sprintf("unrecognized Comtrade partner %q for Taiwan flip", partnerRaw)).WithProvider(string(routing.ProviderComtrade))
		}
		reporterCode = newReporterCode
		partnerCode := taiwanPartnerCode
		flowCode = flipFlow(flowCode)
		return a.fetchOne(ctx, reporterCode, partnerCode, commodityRaw, flowCode, freqCode, params, flipped)
	}

	partnerCode := "0"
	if partnerRaw != "" {
		partnerCode = countryCode(partnerRaw)
		if partnerCode == "" {
			return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
				fmt.Sprintf("%q is not a recognized UN Comtrade country or region; specify individual countries", partnerRaw)).
				WithProvider(string(routing.ProviderComtrade))
		}
	}

	return a.fetchOne(ctx, reporterCode, partnerCode, commodityRaw, flowCode, freqCode, params, flipped)
}

func (a *Adapter) fetchOne(ctx context.Context, reporterCode, partnerCode, commodityRaw, flowCode, freqCode string, params map[string]string, flipped bool) (model.CanonicalSeries, error) {
	startYear, endYear := yearRange(params)
	periodParam := generatePeriods(startYear, endYear, freqCode)
	commodityCode := commodityCodeOf(commodityRaw)

	query := url.Values{
		"typeCode": {"C"}, "freqCode": {freqCode}, "clCode": {"HS"},
		"reporterCode": {reporterCode}, "period": {periodParam},
		"partnerCode": {partnerCode}, "cmdCode": {commodityCode}, "flowCode": {flowCode},
		"format": {"json"},
	}

	path := fmt.Sprintf("/C/%s/HS", freqCode)
	body, err := a.http.Get(ctx, path, query)
	if err != nil {
		return model.CanonicalSeries{}, err
	}

	var payload tradeResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return model.CanonicalSeries{}, types.NewError(types.ErrProviderIntegration, "malformed Comtrade response").
			WithProvider(string(routing.ProviderComtrade)).WithCause(jsonErr)
	}
	if len(payload.Data) == 0 {
		return model.CanonicalSeries{}, types.NewError(types.ErrDataNotAvailable,
			"no Comtrade records for the requested reporter/partner/commodity combination").
			WithProvider(string(routing.ProviderComtrade))
	}

	dedup := map[string]tradeRecord{}
	for _, rec := range payload.Data {
		key := rec.Period.String() + "|" + rec.FlowDesc
		if existing, ok := dedup[key]; !ok || rec.PrimaryValue > existing.PrimaryValue {
			dedup[key] = rec
		}
	}

	pointsByDate := map[string]float64{}
	var flowDesc, cmdDesc, reporterDesc string
	for _, rec := range dedup {
		date := rec.Period.String() + "-01-01"
		if v, ok := pointsByDate[date]; !ok || rec.PrimaryValue > v {
			pointsByDate[date] = rec.PrimaryValue
		}
		flowDesc = firstNonEmpty(flowDesc, rec.FlowDesc)
		cmdDesc = firstNonEmpty(cmdDesc, rec.CmdDesc)
		reporterDesc = firstNonEmpty(reporterDesc, rec.ReporterDesc)
	}

	dates := make([]string, 0, len(pointsByDate))
	for d := range pointsByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points := make([]model.Point, 0, len(dates))
	for _, d := range dates {
		v := pointsByDate[d]
		points = append(points, model.Point{Date: d, Value: &v})
	}

	flowName := firstNonEmpty(flowDesc, flowLabel(flowCode))
	commodityName := firstNonEmpty(cmdDesc, commodityLabel(commodityCode))
	reporterName := firstNonEmpty(reporterDesc, reporterCode)
	indicatorLabel := flowName + " - " + commodityName
	if flipped {
		indicatorLabel = "Taiwan " + strings.ToLower(flowName) + " (partner perspective) - " + commodityName
	}

	meta := model.SeriesMetadata{
		Source:      string(routing.ProviderComtrade),
		Indicator:   indicatorLabel,
		Country:     reporterName,
		Frequency:   frequencyLabel(freqCode),
		Unit:        "US Dollars",
		DataType:    model.DataTypeLevel,
		PriceType:   "Nominal (current prices)",
		Description: indicatorLabel,
		StartDate:   points[0].Date,
		EndDate:     points[len(points)-1].Date,
		APIUrl:      a.http.MaskedURL(path, query),
		SourceURL:   "https://comtradeplus.un.org/TradeFlow",
	}

	return model.CanonicalSeries{Metadata: meta, Points: points}, nil
}

func countryCode(country string) string {
	if country == "" {
		return ""
	}
	return geo.ToUNNumeric(country)
}

func commodityCodeOf(commodity string) string {
	if commodity == "" {
		return "TOTAL"
	}
	trimmed := strings.TrimSpace(commodity)
	if isDigits(trimmed) && len(trimmed) >= 2 && len(trimmed) <= 6 {
		return trimmed
	}
	key := strings.ToUpper(strings.ReplaceAll(trimmed, " ", "_"))
	if strings.HasPrefix(key, "HS") {
		rest := strings.TrimPrefix(key, "HS")
		numeric := digitsOnly(rest)
		if len(numeric) >= 2 && len(numeric) <= 6 {
			return numeric
		}
	}
	if code, ok := commodityMappings[key]; ok {
		return code
	}
	for mapKey, code := range commodityMappings {
		if strings.Contains(mapKey, key) || strings.Contains(key, mapKey) {
			return code
		}
	}
	return "TOTAL"
}

func commodityLabel(code string) string {
	if code == "TOTAL" {
		return "Total Trade"
	}
	return code
}

func flowCodeOf(flow string) string {
	if flow == "" {
		return "M,X"
	}
	if code, ok := flowMappings[strings.ToUpper(flow)]; ok {
		return code
	}
	return "M,X"
}

func flowLabel(code string) string {
	switch code {
	case "X":
		return "Exports"
	case "M":
		return "Imports"
	default:
		return "Trade"
	}
}

func flipFlow(flow string) string {
	switch flow {
	case "X":
		return "M"
	case "M":
		return "X"
	default:
		return flow
	}
}

func frequencyCode(frequency string) string {
	switch strings.ToLower(frequency) {
	case "monthly", "month", "m":
		return "M"
	case "quarterly", "quarter", "q":
		return "Q"
	default:
		return "A"
	}
}

func frequencyLabel(code string) model.Frequency {
	switch code {
	case "M":
		return model.FrequencyMonthly
	case "Q":
		return model.FrequencyQuarterly
	default:
		return model.FrequencyAnnual
	}
}

func yearRange(params map[string]string) (int, int) {
	now := time.Now().Year()
	start := now - 5
	end := now - 1
	if s := params["startDate"]; s != "" {
		if y, err := strconv.Atoi(yearPrefix(s)); err == nil {
			start = y
		}
	}
	if e := params["endDate"]; e != "" {
		if y, err := strconv.Atoi(yearPrefix(e)); err == nil {
			end = y
		}
	}
	return start, end
}

func yearPrefix(s string) string {
	if len(s) >= 4 {
		return s[:4]
	}
	return s
}

func generatePeriods(start, end int, freqCode string) string {
	var periods []string
	switch freqCode {
	case "M":
		for y := start; y <= end; y++ {
			for m := 1; m <= 12; m++ {
				periods = append(periods, fmt.Sprintf("%d%02d", y, m))
			}
		}
	case "Q":
		for y := start; y <= end; y++ {
			for q := 1; q <= 4; q++ {
				periods = append(periods, fmt.Sprintf("%d%d", y, q))
			}
		}
	default:
		for y := start; y <= end; y++ {
			periods = append(periods, strconv.Itoa(y))
		}
	}
	return strings.Join(periods, ",")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
