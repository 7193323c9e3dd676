package sentiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ecoreco/backend/internal/domain"
	"github.com/ecoreco/backend/internal/observability"
)

const (
	maxAttempts     = 3
	maxResponseSize = 64 << 10
	analyzePath     = "/v1/sentiment"
)

// errClientStatus marks non-retryable 4xx responses; they do not count against the breaker
var errClientStatus = errors.New("client error")

// ClientConfig holds configuration for the sentiment API client
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst <= 0 {
		c.Burst = 20
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	return c
}

// Client scores review text through a remote sentiment API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[float64]
	logger      zerolog.Logger
	debug       bool
}

// NewClient creates a new sentiment API client
func NewClient(config ClientConfig, logger zerolog.Logger) *Client {
	config = config.withDefaults()

	c := &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:      logger,
	}

	failures := config.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "sentiment-api",
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClientStatus) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.SentimentBreakerState.Set(float64(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return c
}

// SetDebug enables or disables request tracing
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		c.logger.Debug().Msgf("[SENTIMENT] "+format, args...)
	}
}

// Analyze returns the polarity of text in [-1,1]. Blank text is neutral and never reaches the API.
func (c *Client) Analyze(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	polarity, err := c.breaker.Execute(func() (float64, error) {
		return c.analyzeWithRetry(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		return 0, err
	}
	return polarity, nil
}

func (c *Client) analyzeWithRetry(ctx context.Context, text string) (float64, error) {
	payload, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstreamUnavailable, err)
		}

		polarity, retry, err := c.doAnalyze(ctx, payload)
		if err == nil {
			c.debugLog("polarity %.3f after %d attempt(s)", polarity, attempt)
			return polarity, nil
		}
		lastErr = err
		if !retry {
			return 0, err
		}

		c.debugLog("attempt %d failed: %v", attempt, err)
		if attempt < maxAttempts {
			if err := sleepContext(ctx, exponentialBackoff(attempt)); err != nil {
				return 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			}
		}
	}

	c.logger.Warn().Err(lastErr).Int("attempts", maxAttempts).Msg("sentiment API retries exhausted")
	return 0, lastErr
}

// doAnalyze performs one request and reports whether a failure is worth retrying
func (c *Client) doAnalyze(ctx context.Context, payload []byte) (float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return 0, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "EcoReco/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the caller gave up; retrying cannot help
		retry := ctx.Err() == nil
		return 0, retry, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxResponseSize)
	if err != nil {
		return 0, true, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return 0, true, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	default:
		return 0, false, fmt.Errorf("%w: %w: status %d: %s", domain.ErrUpstreamUnavailable, errClientStatus, resp.StatusCode, truncate(body, 200))
	}

	var decoded analyzeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, false, fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamUnavailable, err)
	}

	polarity, err := mapPolarity(decoded)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return polarity, false, nil
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// readLimitedBody reads at most limit bytes
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
