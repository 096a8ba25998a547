package provider

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// noSleepClient builds a Client whose rate limiter and retry sleeps never
// actually wait, so call()'s attempt-count logic can be exercised without
// the real multi-second/minute schedules.
func noSleepClient() *Client {
	return &Client{
		limiter: rate.NewLimiter(rate.Inf, 1),
		quota:   NewQuotaLogger(""),
		log:     zerolog.Nop(),
		sleep:   func(ctx context.Context, d time.Duration) bool { return true },
	}
}

func TestCallRetriesTransientHTTPExactlyFiveAttemptsThenTerminal(t *testing.T) {
	c := noSleepClient()
	attempts := 0
	_, err := c.call(context.Background(), "videos.list", 1, func() (*resty.Response, error) {
		attempts++
		return &resty.Response{RawResponse: &http.Response{StatusCode: http.StatusServiceUnavailable}}, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminalUpstream)
	assert.Equal(t, 5, attempts)
}

func TestCallRetriesNetworkTransientExactlyThreeAttemptsThenExhausted(t *testing.T) {
	c := noSleepClient()
	attempts := 0
	_, err := c.call(context.Background(), "videos.list", 1, func() (*resty.Response, error) {
		attempts++
		return nil, errors.New("connection reset")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkExhausted)
	assert.Equal(t, 3, attempts)
}

func TestCallSucceedsAfterTransientRetriesAndLogsQuota(t *testing.T) {
	c := noSleepClient()
	quotaPath := filepath.Join(t.TempDir(), "quota.csv")
	c.quota = NewQuotaLogger(quotaPath)
	attempts := 0
	resp, err := c.call(context.Background(), "videos.list", 1, func() (*resty.Response, error) {
		attempts++
		if attempts < 3 {
			return &resty.Response{RawResponse: &http.Response{StatusCode: http.StatusTooManyRequests}}, nil
		}
		return &resty.Response{RawResponse: &http.Response{StatusCode: http.StatusOK}}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 3, attempts)

	// Only the final, successful attempt is logged to the quota CSV.
	rows, err := writer.ReadAll(quotaPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "videos.list", rows[0]["endpoint"])
}

func TestHTTPTransientScheduleFiveAttemptsThenStop(t *testing.T) {
	s := httpTransientSchedule()
	var delays []float64
	for i := 0; i < 5; i++ {
		d := s.NextBackOff()
		assert.NotEqual(t, backoff.Stop, d)
		delays = append(delays, d.Seconds())
	}
	assert.Equal(t, backoff.Stop, s.NextBackOff())
	// Each delay is at least its base value (jitter only adds).
	bases := []float64{1, 2, 4, 8, 16}
	for i, base := range bases {
		assert.GreaterOrEqual(t, delays[i], base)
		assert.Less(t, delays[i], base+1)
	}
}

func TestNetworkTransientScheduleThreeAttemptsThenStop(t *testing.T) {
	s := networkTransientSchedule()
	assert.Equal(t, float64(30), s.NextBackOff().Seconds())
	assert.Equal(t, float64(120), s.NextBackOff().Seconds())
	assert.Equal(t, float64(480), s.NextBackOff().Seconds())
	assert.Equal(t, backoff.Stop, s.NextBackOff())
}

func TestScheduleBackoffReset(t *testing.T) {
	s := httpTransientSchedule()
	s.NextBackOff()
	s.NextBackOff()
	s.Reset()
	assert.Equal(t, 0, s.attempt)
}
