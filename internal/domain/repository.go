package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogGateway supplies product records and catalog statistics and persists rating updates.
type CatalogGateway interface {
	FetchCandidates(ctx context.Context, filter CandidateFilter) ([]Product, error)
	FetchProduct(ctx context.Context, id int64) (*Product, error)
	// FetchCategoryMedianPrice returns ok=false when the category has no priced products.
	FetchCategoryMedianPrice(ctx context.Context, categoryID int64) (median float64, ok bool, err error)
	FetchProductPopularity(ctx context.Context, productID int64) (float64, error)
	FetchMaxPopularity(ctx context.Context) (float64, error)
	// ApplyRatingDelta adds delta to the stored rating and clamps to [0,5] in one atomic step,
	// returning the rating it replaced and the stored result.
	ApplyRatingDelta(ctx context.Context, productID int64, delta float64) (previous, updated float64, err error)
}

// SentimentGateway scores review text with a polarity in [-1,1]
type SentimentGateway interface {
	Analyze(ctx context.Context, text string) (float64, error)
}
