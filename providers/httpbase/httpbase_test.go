package httpbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/econdata/econfed/types"
)

func TestBuildURLInjectsAPIKey(t *testing.T) {
	c := New(Config{ProviderName: "FRED", BaseURL: "https://api.example.com", APIKey: "secret", APIKeyParam: "api_key"}, nil)
	got := c.BuildURL("/series", url.Values{"id": {"GDP"}})
	assert.Contains(t, got, "api_key=secret")
	assert.Contains(t, got, "id=GDP")
}

func TestMaskedURLHidesAPIKey(t *testing.T) {
	c := New(Config{ProviderName: "FRED", BaseURL: "https://api.example.com", APIKey: "secret", APIKeyParam: "api_key"}, nil)
	got := c.MaskedURL("/series", url.Values{"id": {"GDP"}})
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "api_key=%2A%2A%2A")
}

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(Config{ProviderName: "FRED", BaseURL: server.URL}, nil)
	body, err := c.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ok")
}

func TestGetRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := New(Config{ProviderName: "FRED", BaseURL: server.URL}, nil)
	_, err := c.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	typed, ok := err.(*types.Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrRateLimited, typed.Code)
	assert.True(t, typed.Retryable)
}

func TestGetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Config{ProviderName: "FRED", BaseURL: server.URL}, nil)
	_, err := c.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	typed, ok := err.(*types.Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrDataNotAvailable, typed.Code)
}

func TestGetServerErrorRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{ProviderName: "FRED", BaseURL: server.URL}, nil)
	_, err := c.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	typed, ok := err.(*types.Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrTransientTransport, typed.Code)
	assert.True(t, typed.Retryable)
}

func TestGetBadRequestNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad series id"))
	}))
	defer server.Close()

	c := New(Config{ProviderName: "FRED", BaseURL: server.URL}, nil)
	_, err := c.Get(context.Background(), "/x", nil)
	require.Error(t, err)
	typed, ok := err.(*types.Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrInvalidInput, typed.Code)
	assert.False(t, typed.Retryable)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 30, RetryAfterSeconds("30"))
	assert.Equal(t, 0, RetryAfterSeconds(""))
	assert.Equal(t, 0, RetryAfterSeconds("not-a-number"))
}
