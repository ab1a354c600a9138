package main

import (
	"github.com/econdata/econfed/config"
	"github.com/econdata/econfed/providers"
	"github.com/econdata/econfed/providers/bis"
	"github.com/econdata/econfed/providers/coingecko"
	"github.com/econdata/econfed/providers/comtrade"
	"github.com/econdata/econfed/providers/eurostat"
	"github.com/econdata/econfed/providers/exchangerate"
	"github.com/econdata/econfed/providers/fred"
	"github.com/econdata/econfed/providers/imf"
	"github.com/econdata/econfed/providers/statscan"
	"github.com/econdata/econfed/providers/worldbank"
)

// buildRegistry constructs every provider adapter from its configured
// connection settings and registers it under its own routing tag. All nine
// federation sources are always registered — a provider with no API key
// configured still serves key-less endpoints (World Bank, IMF, BIS,
// Eurostat, StatsCan, ExchangeRate's free tier); callers relying on a
// keyed endpoint without a key see that provider's own upstream error.
func buildRegistry(cfg config.ProvidersConfig) *providers.Registry {
	p := cfg
	return providers.NewRegistry(
		fred.New(fred.Config{BaseURL: p.FRED.BaseURL, APIKey: p.FRED.APIKey, Timeout: p.FRED.Timeout}),
		worldbank.New(worldbank.Config{BaseURL: p.WorldBank.BaseURL, Timeout: p.WorldBank.Timeout}),
		imf.New(imf.Config{BaseURL: p.IMF.BaseURL, Timeout: p.IMF.Timeout}),
		bis.New(bis.Config{BaseURL: p.BIS.BaseURL, Timeout: p.BIS.Timeout}),
		eurostat.New(eurostat.Config{BaseURL: p.Eurostat.BaseURL, Timeout: p.Eurostat.Timeout}),
		comtrade.New(comtrade.Config{BaseURL: p.Comtrade.BaseURL, APIKey: p.Comtrade.APIKey, Timeout: p.Comtrade.Timeout}),
		exchangerate.New(exchangerate.Config{BaseURL: p.ExchangeRate.BaseURL, APIKey: p.ExchangeRate.APIKey, Timeout: p.ExchangeRate.Timeout}),
		coingecko.New(coingecko.Config{BaseURL: p.CoinGecko.BaseURL, APIKey: p.CoinGecko.APIKey, Timeout: p.CoinGecko.Timeout}),
		statscan.New(statscan.Config{BaseURL: p.StatsCan.BaseURL, Timeout: p.StatsCan.Timeout}),
	)
}
