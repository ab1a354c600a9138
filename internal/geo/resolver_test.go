package geo

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"US", "usa", "United States", "gb", "Germany", "korea, rep.", "bogus"}
	for _, in := range inputs {
		first := Normalize(in)
		second := Normalize(first)
		assert.Equal(t, first, second, "normalize(normalize(%q)) must equal normalize(%q)", in, in)
	}
}

func TestNormalizeUnknown(t *testing.T) {
	assert.Equal(t, "", Normalize("atlantis"))
	assert.Equal(t, "", Normalize(""))
}

func TestNormalizeAliases(t *testing.T) {
	assert.Equal(t, "US", Normalize("usa"))
	assert.Equal(t, "US", Normalize("United States"))
	assert.Equal(t, "GB", Normalize("uk"))
	assert.Equal(t, "KR", Normalize("korea, rep."))
}

func TestToISO3AndUNNumeric(t *testing.T) {
	assert.Equal(t, "USA", ToISO3("US"))
	assert.Equal(t, "840", ToUNNumeric("usa"))
	assert.Equal(t, "", ToISO3("atlantis"))
}

func TestExpandRegionG7(t *testing.T) {
	members := ExpandRegion("G7", FormatISO2)
	assert.Len(t, members, 7)
	want := []string{"CA", "DE", "FR", "GB", "IT", "JP", "US"}
	got := append([]string{}, members...)
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestExpandRegionUnknown(t *testing.T) {
	assert.Nil(t, ExpandRegion("nope", FormatISO2))
}

func TestExpandRegionISO3(t *testing.T) {
	members := ExpandRegion("g7", FormatISO3)
	assert.Contains(t, members, "USA")
	assert.Contains(t, members, "JPN")
}

func TestIsOECDMember(t *testing.T) {
	assert.True(t, IsOECDMember("US"))
	assert.True(t, IsOECDMember("jp"))
	assert.False(t, IsOECDMember("CN"))
}

func TestIsEUMember(t *testing.T) {
	assert.True(t, IsEUMember("DE"))
	assert.False(t, IsEUMember("GB")) // post-Brexit
	assert.False(t, IsEUMember("CH"))
}

func TestDetectRegionsInQuery(t *testing.T) {
	regions := DetectRegionsInQuery("compare GDP growth across G7 and BRICS economies")
	assert.Contains(t, regions, "g7")
	assert.Contains(t, regions, "brics")
}

func TestExpandRegionsInQuery(t *testing.T) {
	codes := ExpandRegionsInQuery("unemployment in the Nordic countries")
	for _, want := range []string{"DK", "FI", "IS", "NO", "SE"} {
		assert.Contains(t, codes, want)
	}
}

func TestDetectAllCountriesInQuery(t *testing.T) {
	countries := DetectAllCountriesInQuery("compare inflation in Germany and France to Japan")
	assert.Contains(t, countries, "DE")
	assert.Contains(t, countries, "FR")
	assert.Contains(t, countries, "JP")
}
