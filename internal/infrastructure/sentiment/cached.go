package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
	"github.com/ecoreco/backend/internal/observability"
)

const defaultCacheTTL = 24 * time.Hour

// CachedAnalyzer memoizes another analyzer's polarity by normalized review text
type CachedAnalyzer struct {
	next   domain.SentimentGateway
	cache  domain.CacheRepository
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedAnalyzer wraps next with cache. Cache failures fall through to next.
func NewCachedAnalyzer(next domain.SentimentGateway, cache domain.CacheRepository, ttl time.Duration, logger zerolog.Logger) *CachedAnalyzer {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedAnalyzer{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Analyze returns the cached polarity or asks the wrapped analyzer and stores the answer
func (a *CachedAnalyzer) Analyze(ctx context.Context, text string) (float64, error) {
	key := cacheKey(text)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		if polarity, ok := toPolarity(cached); ok {
			observability.SentimentCacheHits.Inc()
			return polarity, nil
		}
	}
	observability.SentimentCacheMisses.Inc()

	polarity, err := a.next.Analyze(ctx, text)
	if err != nil {
		return 0, err
	}

	if err := a.cache.Set(ctx, key, polarity, a.ttl); err != nil {
		a.logger.Warn().Err(err).Msg("failed to cache sentiment polarity")
	}
	return polarity, nil
}

// cacheKey hashes the lowercased, whitespace-collapsed text
func cacheKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return "sentiment:" + hex.EncodeToString(sum[:])
}

func toPolarity(v interface{}) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, true
	case string:
		f, err := strconv.ParseFloat(p, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
