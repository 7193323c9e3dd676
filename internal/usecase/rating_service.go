package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
	"github.com/ecoreco/backend/internal/observability"
)

// Polarity thresholds and the base delta each band maps to
const (
	strongPositivePolarity = 0.6
	positivePolarity       = 0.2
	neutralPolarityFloor   = -0.2
	negativePolarity       = -0.5

	strongPositiveDelta = 0.25
	positiveDelta       = 0.10
	negativeDelta       = -0.20
	strongNegativeDelta = -1.00
)

// Amplification applied to positive base deltas
const (
	popularityWeight     = 0.4
	affordabilityWeight  = 0.3
	premiumBonus         = 0.2
	premiumPopularityMin = 0.7
)

const (
	minEcoRating = 0.0
	maxEcoRating = 5.0

	defaultRatingTimeout = 10 * time.Second
)

// RatingConfig holds configuration for the rating service
type RatingConfig struct {
	Timeout time.Duration
}

// RatingService turns review sentiment into eco rating adjustments
type RatingService struct {
	catalog   domain.CatalogGateway
	sentiment domain.SentimentGateway
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewRatingService creates a new rating service with dependencies
func NewRatingService(
	catalog domain.CatalogGateway,
	sentiment domain.SentimentGateway,
	logger zerolog.Logger,
	config RatingConfig,
) *RatingService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultRatingTimeout
	}

	return &RatingService{
		catalog:   catalog,
		sentiment: sentiment,
		logger:    logger,
		timeout:   timeout,
	}
}

// SubmitReview scores a review and applies the resulting delta to the product's eco rating.
// Flow: sentiment -> product -> affordability & popularity -> delta -> atomic apply
func (s *RatingService) SubmitReview(ctx context.Context, productID int64, review string) (*domain.RatingAdjustment, error) {
	if productID <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := observability.LoggerFromContext(ctx, s.logger)

	polarity, err := s.sentiment.Analyze(ctx, review)
	if err != nil {
		observability.RatingAdjustments.WithLabelValues("upstream_error").Inc()
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: sentiment: %v", domain.ErrUpstreamUnavailable, err)
	}
	polarity = clamp(polarity, -1, 1)

	product, err := s.catalog.FetchProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			observability.RatingAdjustments.WithLabelValues("not_found").Inc()
			return nil, err
		}
		observability.RatingAdjustments.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("%w: fetch product: %v", domain.ErrUpstreamUnavailable, err)
	}

	adjustment := &domain.RatingAdjustment{
		ProductID: productID,
		Polarity:  polarity,
		Sentiment: domain.SentimentLabel(polarity),
	}

	afford, err := s.affordability(ctx, product)
	if err != nil {
		s.degrade(log, adjustment, domain.SignalAffordability, err)
		afford = 0
	}
	pop, err := s.popularity(ctx, productID)
	if err != nil {
		s.degrade(log, adjustment, domain.SignalPopularity, err)
		pop = 0
	}
	adjustment.Affordability = afford
	adjustment.Popularity = pop

	adjustment.BaseDelta, adjustment.Multiplier, adjustment.Delta = ComputeRatingDelta(polarity, afford, pop)

	previousRating, newRating, err := s.catalog.ApplyRatingDelta(ctx, productID, adjustment.Delta)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			observability.RatingAdjustments.WithLabelValues("not_found").Inc()
			return nil, err
		}
		observability.RatingAdjustments.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("%w: apply rating delta: %v", domain.ErrUpstreamUnavailable, err)
	}
	adjustment.PreviousRating = previousRating
	adjustment.NewRating = newRating

	outcome := "applied"
	if adjustment.Degraded() {
		outcome = "applied_degraded"
	}
	observability.RatingAdjustments.WithLabelValues(outcome).Inc()

	log.Info().
		Int64("product_id", productID).
		Float64("polarity", polarity).
		Float64("afford", afford).
		Float64("pop_norm", pop).
		Float64("delta", adjustment.Delta).
		Float64("previous_rating", adjustment.PreviousRating).
		Float64("new_rating", newRating).
		Msg("rating adjusted")

	return adjustment, nil
}

// affordability compares price to the category median: positive when cheaper, clamped to [-1,1]
func (s *RatingService) affordability(ctx context.Context, product *domain.Product) (float64, error) {
	if product.CategoryID == 0 {
		return 0, nil
	}
	median, ok, err := s.catalog.FetchCategoryMedianPrice(ctx, product.CategoryID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return Affordability(product.Price, median), nil
}

// popularity is the product's ordered quantity relative to the best seller
func (s *RatingService) popularity(ctx context.Context, productID int64) (float64, error) {
	maxQty, err := s.catalog.FetchMaxPopularity(ctx)
	if err != nil {
		return 0, err
	}
	if maxQty <= 0 {
		return 0, nil
	}
	qty, err := s.catalog.FetchProductPopularity(ctx, productID)
	if err != nil {
		return 0, err
	}
	return clamp(qty/maxQty, 0, 1), nil
}

func (s *RatingService) degrade(log zerolog.Logger, adjustment *domain.RatingAdjustment, signal string, cause error) {
	adjustment.DegradedSignals = append(adjustment.DegradedSignals, signal)
	observability.DegradedSignals.WithLabelValues(signal).Inc()
	log.Warn().
		Err(fmt.Errorf("%w: %s: %v", domain.ErrDegradedSignal, signal, cause)).
		Int64("product_id", adjustment.ProductID).
		Str("signal", signal).
		Msg("statistic unavailable, using neutral default")
}

// Affordability returns clamp((median-price)/median, -1, 1), or 0 when the median is not positive.
func Affordability(price, median float64) float64 {
	if median <= 0 {
		return 0
	}
	return clamp((median-price)/median, -1, 1)
}

// BaseDelta maps a polarity to its fixed rating step.
func BaseDelta(polarity float64) float64 {
	switch {
	case polarity >= strongPositivePolarity:
		return strongPositiveDelta
	case polarity >= positivePolarity:
		return positiveDelta
	case polarity > neutralPolarityFloor:
		return 0
	case polarity >= negativePolarity:
		return negativeDelta
	default:
		return strongNegativeDelta
	}
}

// RatingMultiplier amplifies positive deltas by popularity and affordability.
// Popular products priced above their category median get an extra premium bonus.
func RatingMultiplier(afford, pop float64) float64 {
	multiplier := 1.0 + popularityWeight*pop + affordabilityWeight*afford
	if afford < 0 && pop >= premiumPopularityMin {
		multiplier += premiumBonus
	}
	return multiplier
}

// ComputeRatingDelta returns the base delta, the multiplier applied and the final delta.
// Only positive base deltas are amplified; the multiplier is 1 otherwise.
func ComputeRatingDelta(polarity, afford, pop float64) (base, multiplier, delta float64) {
	base = BaseDelta(polarity)
	if base <= 0 {
		return base, 1.0, base
	}
	multiplier = RatingMultiplier(afford, pop)
	return base, multiplier, base * multiplier
}

// ClampRating bounds a rating to [0,5].
func ClampRating(rating float64) float64 {
	return clamp(rating, minEcoRating, maxEcoRating)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
