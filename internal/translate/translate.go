// Package translate implements cross-provider indicator translation: it
// recognizes IMF-style codes, fuzzy-matches free-text aliases, and maps
// universal economic concepts onto provider-specific indicator codes. This
// is the general-purpose layer that replaces hardcoded per-provider aliases
// wherever a query names an indicator without going through the full
// catalog-backed resolver.
package translate

import (
	"strings"

	"github.com/econdata/econfed/internal/textsim"
)

// conceptDef is one universal concept: its free-text aliases, the IMF
// codes that mean the same thing, and the first-choice code per provider.
type conceptDef struct {
	aliases  []string
	imfCodes []string
	// providers maps provider tag -> ordered candidate codes; codes[0] is primary.
	providers map[string][]string
}

// universalConcepts is the fixed set of 18 cross-provider economic
// concepts this translator knows about.
var universalConcepts = map[string]conceptDef{
	"gdp": {
		aliases:  []string{"gdp", "gross domestic product", "gross_domestic_product", "national output"},
		imfCodes: []string{"NGDP", "NGDP_R", "NGDPD"},
		providers: map[string][]string{
			"FRED": {"GDP", "GDPC1"}, "WORLDBANK": {"NY.GDP.MKTP.CD", "NY.GDP.MKTP.KD"},
			"IMF": {"NGDP_RPCH"}, "EUROSTAT": {"nama_10_gdp"}, "OECD": {"GDP"}, "STATSCAN": {"65201210"},
		},
	},
	"gdp_growth": {
		aliases:  []string{"gdp growth", "gdp_growth", "gdp growth rate", "real gdp growth", "economic growth", "growth rate"},
		imfCodes: []string{"NGDP_RPCH", "NGDP_R_PCH"},
		providers: map[string][]string{
			"FRED": {"A191RL1Q225SBEA"}, "WORLDBANK": {"NY.GDP.MKTP.KD.ZG"},
			"IMF": {"NGDP_RPCH"}, "EUROSTAT": {"nama_10_gdp"}, "OECD": {"GDP"},
		},
	},
	"gdp_per_capita": {
		aliases:  []string{"gdp per capita", "gdp_per_capita", "per capita gdp", "income per capita"},
		imfCodes: []string{"NGDPDPC", "NGDPPC"},
		providers: map[string][]string{
			"FRED": {"A939RX0Q048SBEA"}, "WORLDBANK": {"NY.GDP.PCAP.CD"},
			"IMF": {"NGDPDPC"}, "EUROSTAT": {"nama_10_pc"},
		},
	},
	"unemployment": {
		aliases:  []string{"unemployment", "unemployment rate", "jobless rate", "labor market"},
		imfCodes: []string{"LUR", "LPROD"},
		providers: map[string][]string{
			"FRED": {"UNRATE"}, "WORLDBANK": {"SL.UEM.TOTL.ZS"}, "IMF": {"LUR"},
			"EUROSTAT": {"une_rt_a"}, "OECD": {"UNE_RT"}, "STATSCAN": {"2062815"},
		},
	},
	"inflation": {
		aliases:  []string{"inflation", "inflation rate", "price level", "consumer prices"},
		imfCodes: []string{"PCPIPCH", "PCPI", "PCPIEPCH"},
		providers: map[string][]string{
			"FRED": {"CPIAUCSL"}, "WORLDBANK": {"FP.CPI.TOTL.ZG"}, "IMF": {"PCPIPCH"},
			"EUROSTAT": {"prc_hicp_aind"}, "OECD": {"CPI"}, "BIS": {"WS_LONG_CPI"}, "STATSCAN": {"41690973"},
		},
	},
	"cpi": {
		aliases:  []string{"cpi", "consumer price index", "cost of living"},
		imfCodes: []string{"PCPI", "PCPIPCH"},
		providers: map[string][]string{
			"FRED": {"CPIAUCSL"}, "WORLDBANK": {"FP.CPI.TOTL"}, "IMF": {"PCPIPCH"},
			"EUROSTAT": {"prc_hicp_aind"}, "OECD": {"CPI"}, "BIS": {"WS_LONG_CPI"}, "STATSCAN": {"41690914"},
		},
	},
	"government_debt": {
		aliases:  []string{"government debt", "public debt", "sovereign debt", "national debt", "debt to gdp", "debt ratio"},
		imfCodes: []string{"GGXWDG_NGDP", "GGXWDG"},
		providers: map[string][]string{
			"FRED": {"GFDEGDQ188S"}, "WORLDBANK": {"GC.DOD.TOTL.GD.ZS"},
			"IMF": {"GGXWDG_NGDP"}, "EUROSTAT": {"gov_10q_ggdebt"},
		},
	},
	"household_debt": {
		aliases: []string{
			"household debt", "household credit", "personal debt", "household debt to gdp",
			"household debt ratio", "household debt to income", "household debt to disposable income",
			"debt to income ratio", "household debt service",
		},
		providers: map[string][]string{
			"FRED": {"HDTGPDUSQ163N"}, "BIS": {"WS_TC"},
		},
	},
	"consumer_credit": {
		aliases: []string{
			"consumer credit", "consumer credit outstanding", "total consumer credit", "consumer loans",
			"consumer lending", "credit card debt", "revolving credit", "consumer debt",
		},
		providers: map[string][]string{"FRED": {"TOTALSL", "REVOLSL"}},
	},
	"corporate_debt": {
		aliases:   []string{"corporate debt", "business debt", "corporate credit", "nonfinancial corporate debt", "business credit"},
		providers: map[string][]string{"FRED": {"BCNSDODNS"}, "BIS": {"WS_TC"}},
	},
	"total_credit": {
		aliases:   []string{"total credit", "credit", "private credit", "credit to gdp", "credit to private sector", "private sector credit"},
		providers: map[string][]string{"WORLDBANK": {"FS.AST.PRVT.GD.ZS"}, "BIS": {"WS_TC"}},
	},
	"interest_rate": {
		aliases: []string{
			"interest rate", "policy rate", "central bank rate", "fed funds rate", "base rate", "cash rate",
			"deposit facility rate", "repo rate", "official rate", "key rate", "discount rate",
			"monetary policy rate", "bank rate", "lending rate", "ecb rate", "boe rate", "rba rate",
			"overnight rate", "real interest rate", "nominal interest rate", "government bond yield",
			"long term interest rate",
		},
		providers: map[string][]string{
			"FRED": {"FEDFUNDS", "DFEDTARU"}, "WORLDBANK": {"FR.INR.RINR"},
			"EUROSTAT": {"EI_MFIR_M"}, "OECD": {"IR"}, "BIS": {"WS_CBPOL"},
		},
	},
	"trade_balance": {
		aliases:  []string{"trade balance", "trade deficit", "net exports", "external balance"},
		imfCodes: []string{"BCA", "BCA_NGDPD"},
		providers: map[string][]string{
			"FRED": {"BOPGSTB"}, "WORLDBANK": {"NE.RSB.GNFS.ZS"}, "IMF": {"BCA_NGDPD"}, "EUROSTAT": {"tet00034"},
		},
	},
	"exports": {
		aliases:  []string{"exports", "export", "goods exports", "merchandise exports"},
		imfCodes: []string{"BX_GDP"},
		providers: map[string][]string{
			"FRED": {"EXPGS"}, "WORLDBANK": {"NE.EXP.GNFS.ZS"}, "IMF": {"BX_GDP"},
			"EUROSTAT": {"ext_lt_maineu"}, "COMTRADE": {"EXPORT"},
		},
	},
	"imports": {
		aliases:  []string{"imports", "import", "goods imports", "merchandise imports"},
		imfCodes: []string{"BM_GDP"},
		providers: map[string][]string{
			"FRED": {"IMPGS"}, "WORLDBANK": {"NE.IMP.GNFS.ZS"}, "IMF": {"BM_GDP"},
			"EUROSTAT": {"ext_lt_maineu"}, "COMTRADE": {"IMPORT"},
		},
	},
	"house_prices": {
		aliases:   []string{"house prices", "housing prices", "property prices", "real estate prices", "home prices"},
		providers: map[string][]string{"FRED": {"CSUSHPINSA"}, "EUROSTAT": {"prc_hpi_a"}, "BIS": {"WS_SPP"}},
	},
	"population": {
		aliases:  []string{"population", "total population", "pop"},
		imfCodes: []string{"LP"},
		providers: map[string][]string{
			"FRED": {"POPTHM"}, "WORLDBANK": {"SP.POP.TOTL"}, "IMF": {"LP"}, "EUROSTAT": {"demo_pjan"}, "STATSCAN": {"1"},
		},
	},
	"exchange_rate": {
		aliases:  []string{"exchange rate", "forex", "currency", "fx rate", "effective exchange rate"},
		imfCodes: []string{"EREER"},
		providers: map[string][]string{
			"FRED": {"DEXUSEU"}, "WORLDBANK": {"PA.NUS.FCRF"}, "IMF": {"EREER"},
			"BIS": {"WS_XRU"}, "EXCHANGERATE": {"rates"},
		},
	},
}

var (
	imfCodeToConcept = map[string]string{}
	aliasToConcept   = map[string]string{}
)

func init() {
	for name, def := range universalConcepts {
		for _, code := range def.imfCodes {
			imfCodeToConcept[strings.ToUpper(code)] = name
		}
		for _, alias := range def.aliases {
			aliasToConcept[strings.ToLower(alias)] = name
		}
	}
}

// IsIMFCode reports whether indicator matches a known IMF-style code
// (e.g. "NGDP_RPCH", "LUR").
func IsIMFCode(indicator string) bool {
	if indicator == "" {
		return false
	}
	key := strings.ToUpper(strings.ReplaceAll(indicator, " ", "_"))
	_, ok := imfCodeToConcept[key]
	return ok
}

// imfCodeToConceptName translates an IMF-style code to its universal concept.
func imfCodeToConceptName(code string) (string, bool) {
	key := strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
	name, ok := imfCodeToConcept[key]
	return name, ok
}

// ProviderCode returns the primary provider-specific code for a universal
// concept, or "" if the provider has no mapping for it.
func ProviderCode(concept, provider string) string {
	def, ok := universalConcepts[strings.ToLower(concept)]
	if !ok {
		return ""
	}
	codes := def.providers[strings.ToUpper(provider)]
	if len(codes) == 0 {
		return ""
	}
	return codes[0]
}

// Translate resolves a free-text or IMF-style indicator term to a code for
// targetProvider, trying (in order): IMF-code recognition, fuzzy alias
// matching, and fuzzy IMF-code matching. Returns ("", "") if nothing
// crosses the relevant threshold.
func Translate(indicator, targetProvider string) (code, concept string) {
	indicator = strings.TrimSpace(indicator)
	if indicator == "" {
		return "", ""
	}
	target := strings.ToUpper(targetProvider)

	if c, ok := imfCodeToConceptName(indicator); ok {
		if code := ProviderCode(c, target); code != "" {
			return code, c
		}
	}

	if c := fuzzyMatchConcept(indicator); c != "" {
		if code := ProviderCode(c, target); code != "" {
			return code, c
		}
	}

	if imfCode := fuzzyMatchIMFCode(indicator); imfCode != "" {
		if c, ok := imfCodeToConceptName(imfCode); ok {
			if code := ProviderCode(c, target); code != "" {
				return code, c
			}
		}
	}

	return "", ""
}

// fuzzyMatchConcept finds the best-matching universal concept for free
// text. Short queries (<15 chars) require a stricter 0.85 threshold to
// avoid near-miss false positives like "m2 growth" vs "gdp growth"; longer
// queries use 0.70.
func fuzzyMatchConcept(indicator string) string {
	lower := strings.ToLower(strings.ReplaceAll(indicator, "_", " "))
	if concept, ok := aliasToConcept[lower]; ok {
		return concept
	}

	threshold := 0.70
	if len(lower) < 15 {
		threshold = 0.85
	}

	bestConcept := ""
	bestScore := 0.0
	for alias, concept := range aliasToConcept {
		score := textsim.Ratio(lower, alias)
		if score > bestScore && score >= threshold {
			bestScore = score
			bestConcept = concept
		}
	}
	return bestConcept
}

// fuzzyMatchIMFCode finds the closest known IMF code to indicator, at a
// fixed 0.80 threshold.
func fuzzyMatchIMFCode(indicator string) string {
	const threshold = 0.80
	upper := strings.ToUpper(strings.ReplaceAll(indicator, " ", "_"))

	bestCode := ""
	bestScore := 0.0
	for code := range imfCodeToConcept {
		score := textsim.Ratio(upper, code)
		if score > bestScore && score >= threshold {
			bestScore = score
			bestCode = code
		}
	}
	return bestCode
}

// AliasesForProvider returns every alias/IMF-code known for provider,
// mapped to its primary code, for building search indices or diagnostics.
func AliasesForProvider(provider string) map[string]string {
	upper := strings.ToUpper(provider)
	result := map[string]string{}
	for _, def := range universalConcepts {
		codes := def.providers[upper]
		if len(codes) == 0 {
			continue
		}
		primary := codes[0]
		for _, alias := range def.aliases {
			result[strings.ToLower(alias)] = primary
		}
		for _, code := range def.imfCodes {
			result[strings.ToUpper(code)] = primary
		}
	}
	return result
}

// ConceptNames returns every universal concept name known to the translator.
func ConceptNames() []string {
	names := make([]string, 0, len(universalConcepts))
	for name := range universalConcepts {
		names = append(names, name)
	}
	return names
}
