package normalize

import (
	"strings"
	"time"

	"github.com/econdata/econfed/internal/model"
)

// CorrectPercentage multiplies every non-null point in place by 100 when
// the series is unit=="percent" and every observed value's magnitude is
// below 1.5 — the signature of a provider reporting a decimal fraction
// (0.042) instead of a percentage (4.2). The FRED, IMF and Eurostat
// adapters apply the same heuristic inline; it is centralized here so the
// orchestrator can re-run it defensively on any series regardless of which
// adapter produced it. Returns whether a correction was applied.
func CorrectPercentage(points []model.Point, unit string) bool {
	if !strings.EqualFold(unit, "percent") {
		return false
	}
	hasValue := false
	for _, p := range points {
		if p.Value != nil {
			hasValue = true
			if abs(*p.Value) >= 1.5 {
				return false
			}
		}
	}
	if !hasValue {
		return false
	}
	for i := range points {
		if points[i].Value != nil {
			*points[i].Value *= 100
		}
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// NormalizeDate rewrites a provider date string to period-start ISO-8601
// (YYYY-MM-DD). It accepts bare years ("2020"), year-month ("2020-05"),
// and already-complete dates, passing anything else through unchanged.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	switch len(raw) {
	case 4:
		if _, err := time.Parse("2006", raw); err == nil {
			return raw + "-01-01"
		}
	case 7:
		if _, err := time.Parse("2006-01", raw); err == nil {
			return raw + "-01"
		}
	}
	return raw
}
