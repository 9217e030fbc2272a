package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"jobfit/internal/errors"
)

func TestRateLimiterCost(t *testing.T) {
	rl := NewRateLimiter(1, 3, errors.NewNopLogger())
	defer rl.Close()

	assert.True(t, rl.Allow("ip:a", 2))
	assert.False(t, rl.Allow("ip:a", 2))
	assert.True(t, rl.Allow("ip:a", 1))
	assert.False(t, rl.Allow("ip:a", 1))

	// other keys have their own bucket
	assert.True(t, rl.Allow("ip:b", 3))
}

func TestRateLimiterClampsCostToBurst(t *testing.T) {
	rl := NewRateLimiter(60, 2, nil)
	defer rl.Close()

	assert.True(t, rl.Allow("k", 50))
	assert.GreaterOrEqual(t, rl.retryAfter("k", 50), 1)
	assert.Equal(t, 1, rl.clampCost(0))
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	defer rl.Close()

	rl.Allow("k", 1)
	assert.Equal(t, 1, rl.GetStats()["active_limiters"])
	rl.evictIdle(0)
	assert.Equal(t, 0, rl.GetStats()["active_limiters"])
}

func TestRecommendationCostsMoreTokens(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerMin = 1
	cfg.Server.RateLimit.BurstCapacity = 3
	cfg.Server.RateLimit.ByIP = true
	cfg.Server.RateLimit.RecommendCost = 3
	h := newTestServer(t, cfg).Handler(nil)

	rec := do(t, h, http.MethodPost, "/recommend_new_skills",
		`{"available_skills":["Python"],"target_job":"Developer, back-end"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/jobs", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", getRateLimitKey(req, true, true))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "api:abc", getRateLimitKey(req, true, true))
	assert.Equal(t, "ip:10.0.0.1", getRateLimitKey(req, false, true))
	assert.Equal(t, "", getRateLimitKey(req, false, false))

	req.Header.Set("X-Forwarded-For", "bogus, 192.168.1.7")
	assert.Equal(t, "192.168.1.7", getClientIP(req))
}
