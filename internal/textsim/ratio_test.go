package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	cases := []struct {
		name     string
		a, b     string
		wantMin  float64
		wantMax  float64
	}{
		{"identical", "gdp growth", "gdp growth", 1.0, 1.0},
		{"both empty", "", "", 1.0, 1.0},
		{"one empty", "gdp", "", 0.0, 0.0},
		{"near match", "unemployment rate", "unemployment", 0.7, 1.0},
		{"unrelated", "gdp growth", "household debt", 0.0, 0.4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Ratio(tc.a, tc.b)
			assert.GreaterOrEqual(t, got, tc.wantMin)
			assert.LessOrEqual(t, got, tc.wantMax)
			assert.Equal(t, got, Ratio(tc.b, tc.a), "ratio should be symmetric")
		})
	}
}

func TestRatioBounded(t *testing.T) {
	pairs := [][2]string{
		{"m2 growth", "gdp growth"},
		{"inflation", "cpi"},
		{"interest rate", "policy rate"},
	}
	for _, p := range pairs {
		r := Ratio(p[0], p[1])
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}
