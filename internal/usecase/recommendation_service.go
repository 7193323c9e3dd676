package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
)

const (
	recommendationLimit = 5
	popularLimit        = 5
	similarLimit        = 3
)

// RecommendationService serves catalog-only listings: category peers, popular and look-alike products
type RecommendationService struct {
	catalog    domain.CatalogGateway
	normalizer *Normalizer
	logger     zerolog.Logger
}

// NewRecommendationService creates a recommendation service.
func NewRecommendationService(catalog domain.CatalogGateway, logger zerolog.Logger, profile Profile) *RecommendationService {
	return &RecommendationService{
		catalog:    catalog,
		normalizer: NewNormalizer(profile),
		logger:     logger,
	}
}

// Recommend returns the best-rated products of the same category as productID.
// When the category has no other products, the whole catalog is used instead.
func (s *RecommendationService) Recommend(ctx context.Context, productID int64) ([]domain.RankedResult, error) {
	product, err := s.lookup(ctx, productID)
	if err != nil {
		return nil, err
	}

	others, err := s.catalog.FetchCandidates(ctx, domain.CandidateFilter{ExcludeID: productID})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch candidates: %v", domain.ErrUpstreamUnavailable, err)
	}

	category := strings.TrimSpace(product.Category)
	pool := make([]domain.Product, 0, len(others))
	if category != "" {
		for _, p := range others {
			if strings.TrimSpace(p.Category) == category {
				pool = append(pool, p)
			}
		}
	}
	if len(pool) == 0 {
		pool = others
	}

	return topByEcoRating(pool, recommendationLimit, domain.MethodCategoryTop), nil
}

// Popular returns the best-rated products of the whole catalog.
func (s *RecommendationService) Popular(ctx context.Context) ([]domain.RankedResult, error) {
	products, err := s.catalog.FetchCandidates(ctx, domain.CandidateFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch candidates: %v", domain.ErrUpstreamUnavailable, err)
	}
	return topByEcoRating(products, popularLimit, domain.MethodCategoryTop), nil
}

// SimilarProducts returns the products whose category and description are closest to productID's
func (s *RecommendationService) SimilarProducts(ctx context.Context, productID int64) ([]domain.RankedResult, error) {
	if _, err := s.lookup(ctx, productID); err != nil {
		return nil, err
	}

	products, err := s.catalog.FetchCandidates(ctx, domain.CandidateFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch candidates: %v", domain.ErrUpstreamUnavailable, err)
	}

	tokens := make([][]string, len(products))
	target := -1
	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens[i] = s.normalizer.Normalize(p.Category + " " + p.Description)
		if p.ID == productID {
			target = i
		}
	}
	if target < 0 {
		return []domain.RankedResult{}, nil
	}

	_, vectors := BuildIndex(tokens)

	results := make([]domain.RankedResult, 0, len(products))
	for i, p := range products {
		if i == target {
			continue
		}
		similarity := CosineSimilarity(vectors[target], vectors[i])
		if similarity <= 0 {
			continue
		}
		results = append(results, domain.RankedResult{
			Product: p,
			Score:   math.Round(similarity*1000) / 10,
			Method:  domain.MethodContentSimilarity,
		})
	}

	sortRanked(results)
	s.logger.Debug().Int64("product_id", productID).Int("matches", len(results)).Msg("similar products computed")
	return capResults(results, similarLimit), nil
}

func (s *RecommendationService) lookup(ctx context.Context, productID int64) (*domain.Product, error) {
	if productID <= 0 {
		return nil, domain.ErrInvalidRequest
	}
	product, err := s.catalog.FetchProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetch product: %v", domain.ErrUpstreamUnavailable, err)
	}
	return product, nil
}

// topByEcoRating orders by eco rating desc then id desc and keeps the first limit products
func topByEcoRating(products []domain.Product, limit int, method string) []domain.RankedResult {
	sorted := make([]domain.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EcoRating != sorted[j].EcoRating {
			return sorted[i].EcoRating > sorted[j].EcoRating
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	results := make([]domain.RankedResult, 0, len(sorted))
	for _, p := range sorted {
		results = append(results, domain.RankedResult{Product: p, Score: p.EcoRating, Method: method})
	}
	return results
}
