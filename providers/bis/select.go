package bis

import "strconv"

// preferenceTable maps each BIS dataflow with ambiguous multi-series
// responses to its preferred dimension values.
var preferenceTable = map[string]map[string]string{
	"WS_TC": {
		"TC_BORROWERS": "P",   // private non-financial sector
		"UNIT_TYPE":    "770", // percentage of GDP
		"TC_ADJUST":    "A",   // adjusted for breaks
		"VALUATION":    "M",   // market value
	},
	"WS_SPP": {"PP_VALUATION": "R", "UNIT_MEASURE": "628"},
	"WS_CPP": {"PP_VALUATION": "R", "UNIT_MEASURE": "628"},
	"WS_DPP": {"PP_VALUATION": "R", "UNIT_MEASURE": "628"},
	"WS_DSR": {"DSR_BORROWERS": "P", "DSR_ADJUST": "A"},
	"WS_GLI": {
		"CURR_DENOM":      "USD",
		"BORROWERS_CTY":   "3P",
		"BORROWERS_SECTOR": "A",
		"LENDERS_SECTOR":  "A",
	},
	"WS_DEBT_SEC2_PUB": {"ISSUER_RES": "5J", "UNIT_MEASURE": "USD"},
}

// seriesDimension describes one SDMX "series" structural dimension: its
// position in a colon-separated series key, and the value IDs at each
// index position.
type seriesDimension struct {
	ID          string
	ValueByID   map[string]int // value id -> position in the dimension's value list
}

// seriesCandidate is one SDMX series entry under consideration.
type seriesCandidate struct {
	Key          string
	Observations map[string][]*string // time index (string) -> observation fields
}

// selectBestSeries picks the SDMX series that best matches the dataflow's
// preference table. The score is a (matchedDimensions, observationCount)
// tuple compared lexicographically — matching dimension count dominates,
// observation count breaks ties — rather than the Python original's literal
// "+1000 per matched dimension" magnitude, since only relative ordering
// ever mattered (DESIGN.md Open Question #4).
func selectBestSeries(candidates []seriesCandidate, dims []seriesDimension, dataflow string) (string, map[string][]*string) {
	if len(candidates) == 0 {
		return "", nil
	}

	dimByID := make(map[string]struct {
		index     int
		valueByID map[string]int
	}, len(dims))
	for i, d := range dims {
		dimByID[d.ID] = struct {
			index     int
			valueByID map[string]int
		}{index: i, valueByID: d.ValueByID}
	}
	prefs := preferenceTable[dataflow]

	bestMatched, bestObsCount := -1, -1
	bestKey := ""
	var bestObs map[string][]*string

	for _, cand := range candidates {
		if len(cand.Observations) == 0 {
			continue
		}
		keyParts, ok := parseSeriesKey(cand.Key)
		if !ok {
			continue
		}

		matched := 0
		for dimID, preferredValue := range prefs {
			info, ok := dimByID[dimID]
			if !ok || info.index >= len(keyParts) {
				continue
			}
			actualIndex := keyParts[info.index]
			for valID, valIndex := range info.valueByID {
				if valIndex == actualIndex {
					if valID == preferredValue {
						matched++
					}
					break
				}
			}
		}

		obsCount := len(cand.Observations)
		if matched > bestMatched || (matched == bestMatched && obsCount > bestObsCount) {
			bestMatched, bestObsCount = matched, obsCount
			bestKey, bestObs = cand.Key, cand.Observations
		}
	}

	if bestKey == "" {
		first := candidates[0]
		return first.Key, first.Observations
	}
	return bestKey, bestObs
}

func parseSeriesKey(key string) ([]int, bool) {
	var parts []int
	start := 0
	for i := 0; i <= len(key); i++ {
		if i == len(key) || key[i] == ':' {
			n, err := strconv.Atoi(key[start:i])
			if err != nil {
				return nil, false
			}
			parts = append(parts, n)
			start = i + 1
		}
	}
	return parts, true
}
