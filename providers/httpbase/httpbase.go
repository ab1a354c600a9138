// Package httpbase is the shared HTTP-adapter base every concrete provider
// package embeds: request building, header injection, API-key masking for
// reproducible metadata URLs, and retryable-status classification, built
// for the SDMX/JSON-stat/custom-JSON shapes economic data providers
// actually speak.
package httpbase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/econdata/econfed/internal/tlsutil"
	"github.com/econdata/econfed/types"
)

// Config configures one provider's HTTP client.
type Config struct {
	ProviderName string
	BaseURL      string
	APIKey       string
	// APIKeyParam, if set, appends the API key as this query parameter on
	// every request (FRED/Comtrade style). Leave empty for providers that
	// use a header instead (set BuildHeaders) or need no key (World Bank).
	APIKeyParam string
	Timeout     time.Duration
	// BuildHeaders optionally sets custom headers (e.g. CoinGecko's
	// x-cg-pro-api-key) on every outgoing request.
	BuildHeaders func(req *http.Request, apiKey string)
}

// Client is the shared HTTP client every provider adapter embeds.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// defaultPool sizes the transport every Client built by New shares. Set
// once at process startup via SetDefaultPool, from config.HTTPConfig: one
// outbound connection pool for every upstream provider, rather than a
// per-provider pool each adapter package would otherwise have to thread
// through its own Config/New signature.
var defaultPool tlsutil.PoolConfig

// SetDefaultPool configures the connection pool every subsequently
// constructed Client uses. Call once during startup wiring, before any
// provider adapter is built.
func SetDefaultPool(pool tlsutil.PoolConfig) {
	defaultPool = pool
}

// New constructs a Client. A nil logger is replaced with a no-op logger.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   tlsutil.SecureHTTPClientWithPool(timeout, defaultPool),
		logger: logger,
	}
}

// ProviderName returns the configured provider tag.
func (c *Client) ProviderName() string { return c.cfg.ProviderName }

// BuildURL joins the base URL with path and appends query, injecting the
// API key query parameter if configured. The returned string is exactly
// what will be requested (before header-based auth, if any).
func (c *Client) BuildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	} else {
		query = cloneValues(query)
	}
	if c.cfg.APIKeyParam != "" && c.cfg.APIKey != "" {
		query.Set(c.cfg.APIKeyParam, c.cfg.APIKey)
	}
	full := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string{}, vals...)
	}
	return out
}

// MaskedURL returns BuildURL's result with any API-key query parameter
// replaced by "***", safe to store in SeriesMetadata.APIUrl.
func (c *Client) MaskedURL(path string, query url.Values) string {
	if c.cfg.APIKeyParam == "" {
		return c.BuildURL(path, query)
	}
	masked := cloneValues(query)
	if masked == nil {
		masked = url.Values{}
	}
	masked.Set(c.cfg.APIKeyParam, "***")
	full := strings.TrimRight(c.cfg.BaseURL, "/") + path
	return full + "?" + masked.Encode()
}

func (c *Client) buildHeaders(req *http.Request) {
	if c.cfg.BuildHeaders != nil {
		c.cfg.BuildHeaders(req, c.cfg.APIKey)
		return
	}
	req.Header.Set("Accept", "application/json")
}

// Get issues a GET request against path with query, returning the raw
// response body or a classified types.Error. 429 responses become a
// retryable ErrRateLimited; the Retry-After header is not read, so the
// retry delay follows the regular backoff. All 5xx and network errors are
// marked retryable.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.BuildURL(path, query)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, fmt.Sprintf("build request: %v", err)).
			WithProvider(c.cfg.ProviderName)
	}
	return c.do(httpReq)
}

// Post issues a POST request against path with the given body and content
// type, returning the raw response body or a classified types.Error. Used
// by providers whose upstream API only accepts POST (e.g. StatsCan's WDS
// vector endpoint). Query is not injected into the path for POST requests;
// callers that need an API key query parameter should append it to path
// directly.
func (c *Client) Post(ctx context.Context, path string, body io.Reader, contentType string) ([]byte, error) {
	fullURL := strings.TrimRight(c.cfg.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, body)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, fmt.Sprintf("build request: %v", err)).
			WithProvider(c.cfg.ProviderName)
	}
	httpReq.Header.Set("Content-Type", contentType)
	return c.do(httpReq)
}

func (c *Client) do(httpReq *http.Request) ([]byte, error) {
	c.buildHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrTransientTransport, err.Error()).
			WithProvider(c.cfg.ProviderName).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, types.NewError(types.ErrTransientTransport, readErr.Error()).
			WithProvider(c.cfg.ProviderName).WithRetryable(true).WithCause(readErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, types.NewError(types.ErrRateLimited, "rate limited by upstream").
			WithProvider(c.cfg.ProviderName).WithHTTPStatus(http.StatusTooManyRequests).WithRetryable(true)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewError(types.ErrDataNotAvailable, "series not found").
			WithProvider(c.cfg.ProviderName).WithHTTPStatus(http.StatusNotFound)
	}

	if resp.StatusCode >= 500 {
		return nil, types.NewError(types.ErrTransientTransport, fmt.Sprintf("upstream %d", resp.StatusCode)).
			WithProvider(c.cfg.ProviderName).WithHTTPStatus(resp.StatusCode).WithRetryable(true)
	}

	if resp.StatusCode >= 400 {
		return nil, types.NewError(types.ErrInvalidInput, fmt.Sprintf("upstream %d: %s", resp.StatusCode, truncate(string(body), 300))).
			WithProvider(c.cfg.ProviderName).WithHTTPStatus(resp.StatusCode)
	}

	return body, nil
}

// RetryAfterSeconds parses a Retry-After header value (seconds form only;
// economic-data providers never return the HTTP-date form in practice). 0
// means no usable value was present.
func RetryAfterSeconds(header string) int {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil {
		return 0
	}
	return seconds
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
