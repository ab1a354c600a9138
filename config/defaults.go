// =============================================================================
// econfed default configuration
// =============================================================================
package config

import "time"

// DefaultConfig returns a fully populated default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		HTTP:      DefaultHTTPConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Cache:     DefaultCacheConfig(),
		Catalog:   DefaultCatalogConfig(),
		Providers: DefaultProvidersConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns default HTTP API server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultHTTPConfig returns default outbound HTTP client pool settings:
// 100 total idle conns / 50 per-host keep-alive / 30s client timeout /
// 10s dial timeout.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
		ClientTimeout:       30 * time.Second,
		DialTimeout:         10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
	}
}

// DefaultRedisConfig returns default Redis cache-tier settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     20,
		MinIdleConns: 5,
	}
}

// DefaultDatabaseConfig returns default learned-mapping store settings.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "econfed_learned.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultCacheConfig returns default two-tier cache settings, including a
// per-provider TTL table (providers with slower-moving data get longer
// cache lifetimes).
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		LocalMaxSize: 2000,
		LocalTTL:     5 * time.Minute,
		DefaultTTL:   1 * time.Hour,
		EnableLocal:  true,
		EnableRedis:  true,
		ProviderTTL: map[string]time.Duration{
			"exchangerate": 5 * time.Minute,
			"coingecko":    5 * time.Minute,
			"fred":         6 * time.Hour,
			"worldbank":    24 * time.Hour,
			"imf":          24 * time.Hour,
			"bis":          24 * time.Hour,
			"eurostat":     24 * time.Hour,
			"comtrade":     24 * time.Hour,
			"statscan":     24 * time.Hour,
		},
	}
}

// DefaultCatalogConfig returns default concept catalog loader settings.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Dir:          "catalog/concepts",
		WatchReload:  true,
		PollInterval: 5 * time.Second,
	}
}

// DefaultProvidersConfig returns default per-provider connection settings.
func DefaultProvidersConfig() ProvidersConfig {
	std := func(base string) ProviderConfig {
		return ProviderConfig{BaseURL: base, Timeout: 15 * time.Second, MaxRetries: 3}
	}
	return ProvidersConfig{
		FRED:         std("https://api.stlouisfed.org/fred"),
		WorldBank:    std("https://api.worldbank.org/v2"),
		IMF:          std("https://www.imf.org/external/datamapper/api/v1"),
		BIS:          std("https://stats.bis.org/api/v1"),
		Eurostat:     std("https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1"),
		Comtrade:     std("https://comtradeapi.un.org/data/v1/get"),
		ExchangeRate: std("https://api.exchangerate.host"),
		CoinGecko:    std("https://api.coingecko.com/api/v3"),
		StatsCan:     std("https://www150.statcan.gc.ca/t1/wds/rest"),
	}
}

// DefaultLogConfig returns default zap logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

// DefaultTelemetryConfig returns default OpenTelemetry settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:     false,
		ServiceName: "econfed",
		SampleRate:  0.1,
	}
}
