package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHTTPClientGet(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(DefaultHTTPConfig(), zaptest.NewLogger(t))
	defer client.Close()

	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, UserAgent, gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, int64(1), client.GetStats().TotalRequests)
	assert.Equal(t, int64(1), client.Metrics().StatusCounts()["2xx"])
}

func TestHTTPClientReturnsNon2xxWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(DefaultHTTPConfig(), nil)
	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPClientConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient(DefaultHTTPConfig(), nil)
	_, err := client.Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Equal(t, int64(1), client.GetStats().FailedRequests)
}

func TestHTTPClientBearerToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	cfg := DefaultHTTPConfig()
	cfg.BearerToken = "s3cret"
	client := NewHTTPClient(cfg, nil)

	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer s3cret", auth)
}

func TestHTTPClientCircuitBreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultHTTPConfig()
	cfg.CircuitBreakerEnabled = true
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Minute
	client := NewHTTPClient(cfg, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		resp.Body.Close()
	}

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, "open", client.GetStats().CircuitState)
}

func TestHTTPConfigFromBase(t *testing.T) {
	base := config.NewBaseConfig("characters", "rickmorty")
	base.Timeouts.Request = 5 * time.Second
	base.Reliability.RateLimitPerSec = 3
	base.Reliability.CircuitBreaker = true
	base.Reliability.FailureThreshold = 7

	hc := HTTPConfigFromBase(base, "tok")
	assert.Equal(t, 5*time.Second, hc.RequestTimeout)
	assert.Equal(t, float64(3), hc.RateLimit)
	assert.Equal(t, 3, hc.RateBurst)
	assert.True(t, hc.CircuitBreakerEnabled)
	assert.Equal(t, 7, hc.FailureThreshold)
	assert.Equal(t, "tok", hc.BearerToken)
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	rl := NewTokenBucketRateLimiter(0.001, 1)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, rl.Wait(ctx))

	stats := rl.GetStats()
	assert.Equal(t, int64(1), stats.AllowedRequests)
	assert.Equal(t, int64(2), stats.BlockedRequests)
}
