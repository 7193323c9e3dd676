package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product id is unknown to the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when a required field is missing or malformed
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUpstreamUnavailable is returned when the catalog or sentiment gateway cannot be reached
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrDegradedSignal marks a rating statistic that fell back to its neutral default
	ErrDegradedSignal = errors.New("signal degraded to neutral default")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// ErrorKind maps an error to the stable kind string exposed to API clients.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_INPUT"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	default:
		return "SERVER_ERROR"
	}
}
