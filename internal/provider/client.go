package provider

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// httpTransientStatuses are the upstream failure modes spec.md §4.1 calls
// "transient HTTP": 403-rate, 429, 500, 503.
var httpTransientStatuses = map[int]bool{
	http.StatusForbidden:           true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
}

// scheduleBackoff implements backoff.BackOff over a fixed list of delays
// plus optional additive jitter, giving the exact retry schedules spec.md
// §4.1 specifies rather than cenkalti's default multiplicative jitter.
type scheduleBackoff struct {
	delays    []time.Duration
	jitterMax time.Duration
	attempt   int
}

func (s *scheduleBackoff) NextBackOff() time.Duration {
	if s.attempt >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.attempt]
	s.attempt++
	if s.jitterMax > 0 {
		d += time.Duration(rand.Int63n(int64(s.jitterMax)))
	}
	return d
}

func (s *scheduleBackoff) Reset() { s.attempt = 0 }

func httpTransientSchedule() *scheduleBackoff {
	return &scheduleBackoff{
		delays: []time.Duration{
			1 * time.Second, 2 * time.Second, 4 * time.Second,
			8 * time.Second, 16 * time.Second,
		},
		jitterMax: 1 * time.Second,
	}
}

func networkTransientSchedule() *scheduleBackoff {
	return &scheduleBackoff{
		delays: []time.Duration{30 * time.Second, 120 * time.Second, 480 * time.Second},
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	HTTPTimeout       time.Duration
	SleepBetweenCalls time.Duration
	QuotaLogPath      string
	Logger            zerolog.Logger
}

// Client is the resty-backed implementation of Provider. It owns its own
// rate limiter and quota logger rather than relying on module-level state
// (spec.md §9 design note on "Global mutable state").
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	quota   *QuotaLogger
	log     zerolog.Logger

	// sleep is overridable so tests can exercise call()'s retry-count logic
	// without waiting out the real multi-second/minute schedules.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewClient builds a Client. A nil/zero QuotaLogPath disables quota logging.
func NewClient(cfg ClientConfig) *Client {
	if cfg.SleepBetweenCalls <= 0 {
		cfg.SleepBetweenCalls = 100 * time.Millisecond
	}
	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(orDefault(cfg.HTTPTimeout, 30*time.Second))
	if cfg.APIKey != "" {
		h.SetQueryParam("key", cfg.APIKey)
	}

	return &Client{
		http:    h,
		limiter: rate.NewLimiter(rate.Every(cfg.SleepBetweenCalls), 1),
		quota:   NewQuotaLogger(cfg.QuotaLogPath),
		log:     cfg.Logger,
		sleep:   sleepCtx,
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// call executes one upstream request, enforcing rate spacing, classifying
// failures per spec.md §4.1's retry contract, and logging successful quota
// usage. build is invoked once per attempt and must perform the actual HTTP
// call against c.http.
func (c *Client) call(ctx context.Context, endpoint string, units int, build func() (*resty.Response, error)) (*resty.Response, error) {
	var httpSched, netSched *scheduleBackoff
	var httpAttempts, netAttempts int

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := build()

		if err != nil {
			// Transient network failure: timeout, connection error, generic I/O.
			if netSched == nil {
				netSched = networkTransientSchedule()
			}
			netAttempts++
			if netAttempts >= len(netSched.delays) {
				return nil, fmt.Errorf("%w: %s: %v", ErrNetworkExhausted, endpoint, err)
			}
			d := netSched.NextBackOff()
			c.log.Warn().Str("endpoint", endpoint).Dur("retry_in", d).Err(err).Msg("network transient error, retrying")
			if !c.sleep(ctx, d) {
				return nil, ctx.Err()
			}
			continue
		}

		status := resp.StatusCode()
		if status == http.StatusNotFound {
			// Caller decides whether 404 is per-entity-absorbable (batch
			// channel fetch) or an error; surface the response as-is.
			return resp, nil
		}
		if httpTransientStatuses[status] {
			if httpSched == nil {
				httpSched = httpTransientSchedule()
			}
			httpAttempts++
			if httpAttempts >= len(httpSched.delays) {
				return nil, fmt.Errorf("%w: %s: status %d after retries", ErrTerminalUpstream, endpoint, status)
			}
			d := httpSched.NextBackOff()
			c.log.Warn().Str("endpoint", endpoint).Int("status", status).Dur("retry_in", d).Msg("transient HTTP error, retrying")
			if !c.sleep(ctx, d) {
				return nil, ctx.Err()
			}
			continue
		}
		if status >= 400 {
			return nil, fmt.Errorf("%w: %s: status %d", ErrTerminalUpstream, endpoint, status)
		}

		// Success: log quota usage. Quota-log failures never propagate
		// (spec.md §4.1: "Success calls increment a daily quota log ...
		// whose failure never propagates").
		c.quota.Record(endpoint, units)
		return resp, nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
