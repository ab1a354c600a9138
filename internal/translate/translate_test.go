package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIMFCode(t *testing.T) {
	assert.True(t, IsIMFCode("NGDP_RPCH"))
	assert.True(t, IsIMFCode("lur"))
	assert.False(t, IsIMFCode("not a real code"))
	assert.False(t, IsIMFCode(""))
}

func TestProviderCode(t *testing.T) {
	assert.Equal(t, "GDP", ProviderCode("gdp", "FRED"))
	assert.Equal(t, "", ProviderCode("gdp", "BIS")) // BIS has no GDP mapping
	assert.Equal(t, "", ProviderCode("unknown_concept", "FRED"))
}

func TestTranslateIMFCode(t *testing.T) {
	code, concept := Translate("NGDP_RPCH", "FRED")
	assert.Equal(t, "gdp_growth", concept)
	assert.Equal(t, "A191RL1Q225SBEA", code)
}

func TestTranslateDirectAlias(t *testing.T) {
	code, concept := Translate("unemployment rate", "WORLDBANK")
	assert.Equal(t, "unemployment", concept)
	assert.Equal(t, "SL.UEM.TOTL.ZS", code)
}

func TestTranslateShortQueryFalsePositiveRejected(t *testing.T) {
	// "m2 growth" is a near-miss for "gdp growth" above the 0.70 threshold
	// but below the 0.85 threshold enforced for short queries.
	code, concept := Translate("m2 growth", "FRED")
	assert.Empty(t, concept)
	assert.Empty(t, code)
}

func TestTranslateNoMatch(t *testing.T) {
	code, concept := Translate("completely unrelated phrase about nothing economic", "FRED")
	assert.Empty(t, code)
	assert.Empty(t, concept)
}

func TestTranslateEmpty(t *testing.T) {
	code, concept := Translate("", "FRED")
	assert.Empty(t, code)
	assert.Empty(t, concept)
}

func TestAliasesForProvider(t *testing.T) {
	aliases := AliasesForProvider("FRED")
	assert.Equal(t, "GDP", aliases["gdp"])
	assert.NotEmpty(t, aliases)
}

func TestConceptNamesCount(t *testing.T) {
	names := ConceptNames()
	assert.Len(t, names, 18)
}
