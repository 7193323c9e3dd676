package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
	"github.com/ecoreco/backend/internal/observability"
)

// Signal weights for the intent-weighted fusion mode
const (
	weightIntent        = 7.0 // intent-match signal, or cosine when no intent is detected
	weightOverlap       = 2.0 // keyword-overlap signal
	weightCosine        = 1.0 // cosine signal when an intent is detected
	overlapPointsPerHit = 2.0 // points per shared query/document token
)

// Bonuses for the similarity (percentage) mode
const (
	categoryMatchBonus = 0.05 // category label appears in the query
	tagMatchBonus      = 0.02 // per tag appearing in the query
)

const defaultMaxResults = 10

// SearchConfig holds configuration for the search service
type SearchConfig struct {
	Mode               domain.RankingMode
	Profile            Profile
	SQLPrefilter       bool
	MaxResults         int
	EnableDebugLogging bool
}

// SearchService ranks catalog products against free-text queries
type SearchService struct {
	catalog            domain.CatalogGateway
	classifier         *IntentClassifier
	normalizer         *Normalizer
	preprocessor       *QueryPreprocessor
	logger             zerolog.Logger
	mode               domain.RankingMode
	sqlPrefilter       bool
	maxResults         int
	enableDebugLogging bool
}

// NewSearchService creates a new search service with the given configuration
func NewSearchService(catalog domain.CatalogGateway, logger zerolog.Logger, config SearchConfig) *SearchService {
	mode := config.Mode
	if !mode.Valid() {
		mode = domain.ModeIntentWeighted
	}

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > defaultMaxResults {
		maxResults = defaultMaxResults
	}

	return &SearchService{
		catalog:            catalog,
		classifier:         NewIntentClassifier(),
		normalizer:         NewNormalizer(config.Profile),
		preprocessor:       NewQueryPreprocessor(logger, config.EnableDebugLogging),
		logger:             logger,
		mode:               mode,
		sqlPrefilter:       config.SQLPrefilter,
		maxResults:         maxResults,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Mode returns the default ranking mode.
func (s *SearchService) Mode() domain.RankingMode {
	return s.mode
}

// Search ranks the catalog against the request query.
// An empty query yields an empty list; only catalog failures are reported as errors.
func (s *SearchService) Search(ctx context.Context, request *domain.SearchRequest) ([]domain.RankedResult, error) {
	if request == nil {
		return []domain.RankedResult{}, nil
	}

	query := s.preprocessor.PreprocessQuery(request.Query)
	if query == "" {
		return []domain.RankedResult{}, nil
	}

	mode := request.Mode
	if !mode.Valid() {
		mode = s.mode
	}

	start := time.Now()
	defer func() {
		observability.SearchDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	}()

	log := observability.LoggerFromContext(ctx, s.logger)

	// Explicit id requests short-circuit ranking
	if ids := s.preprocessor.ParseProductIDs(query); len(ids) > 0 {
		results, err := s.lookupIDs(ctx, ids)
		if err == nil {
			observability.SearchRequests.WithLabelValues(domain.MethodIDLookup).Inc()
			return results, nil
		}
		log.Warn().Err(err).Ints64("ids", ids).Msg("id lookup failed, continuing with text search")
	}

	filter := domain.CandidateFilter{}
	prefiltered := false
	if mode == domain.ModeSimilarity && s.sqlPrefilter {
		filter.Terms = s.preprocessor.PrefilterTerms(query)
		prefiltered = len(filter.Terms) > 0
	}

	candidates, err := s.catalog.FetchCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch candidates: %v", domain.ErrUpstreamUnavailable, err)
	}
	observability.SearchCandidates.Observe(float64(len(candidates)))

	if len(candidates) == 0 {
		return []domain.RankedResult{}, nil
	}

	results, err := s.rank(ctx, query, candidates, mode, prefiltered)
	if err != nil {
		return nil, err
	}

	method := domain.MethodIntentFusion
	if len(results) > 0 {
		method = results[0].Method
	}
	observability.SearchRequests.WithLabelValues(method).Inc()
	log.Info().
		Str("query", query).
		Str("mode", string(mode)).
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Msg("search ranked")

	return results, nil
}

// Rank scores an already-fetched candidate set without consulting the catalog.
func (s *SearchService) Rank(ctx context.Context, query string, candidates []domain.Product, mode domain.RankingMode) ([]domain.RankedResult, error) {
	query = s.preprocessor.PreprocessQuery(query)
	if query == "" || len(candidates) == 0 {
		return []domain.RankedResult{}, nil
	}
	if !mode.Valid() {
		mode = s.mode
	}
	return s.rank(ctx, query, candidates, mode, false)
}

// rank builds the vector space over the candidates, classifies the query and fuses signals
func (s *SearchService) rank(
	ctx context.Context,
	query string,
	candidates []domain.Product,
	mode domain.RankingMode,
	prefiltered bool,
) ([]domain.RankedResult, error) {
	documents := make([]string, len(candidates))
	docTokens := make([][]string, len(candidates))
	for i, p := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		documents[i] = p.Document()
		docTokens[i] = s.normalizer.Normalize(documents[i])
	}
	index, vectors := BuildIndex(docTokens)

	queryTokens := s.normalizer.Normalize(query)
	if len(queryTokens) == 0 {
		return s.fallbackRanking(candidates), nil
	}
	queryVector := index.Vectorize(queryTokens)

	intent := s.classifier.Classify(query)
	if s.enableDebugLogging {
		s.logger.Debug().
			Str("query", query).
			Strs("tokens", queryTokens).
			Str("intent", string(intent.Intent)).
			Int("confidence", intent.Confidence).
			Msg("[RANK] query analysed")
	}

	method := domain.MethodIntentFusion
	if mode == domain.ModeSimilarity {
		method = domain.MethodCosine
		if prefiltered {
			method = domain.MethodCosinePrefilter
		}
	}

	queryLower := strings.ToLower(query)
	results := make([]domain.RankedResult, 0, len(candidates))

	for i, product := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Relevance filter: a clear intent excludes off-topic products whatever their similarity
		if intent.Detected() && !s.classifier.MatchesIntent(intent.Intent, documents[i]) {
			if s.enableDebugLogging {
				s.logger.Debug().Int64("id", product.ID).Str("intent", string(intent.Intent)).Msg("[RANK] filtered off-topic")
			}
			continue
		}

		cosine := CosineSimilarity(queryVector, vectors[i])

		var score float64
		if mode == domain.ModeSimilarity {
			score = similarityScore(cosine, product, queryLower)
		} else {
			overlap, _ := findIntersection(queryTokens, docTokens[i])
			score = s.fusedScore(intent, cosine, overlap)
			if score <= 0 {
				continue
			}
		}

		if s.enableDebugLogging {
			s.logger.Debug().
				Int64("id", product.ID).
				Str("name", product.Name).
				Float64("cosine", cosine).
				Float64("score", score).
				Msg("[RANK] candidate scored")
		}

		results = append(results, domain.RankedResult{
			Product: product,
			Score:   score,
			Method:  method,
		})
	}

	sortRanked(results)
	return capResults(results, s.maxResults), nil
}

// fusedScore combines the weighted signals of the intent-weighted mode
func (s *SearchService) fusedScore(intent domain.IntentResult, cosine float64, overlap int) float64 {
	overlapSignal := float64(overlap) * overlapPointsPerHit
	if !intent.Detected() {
		return weightIntent*cosine + weightOverlap*overlapSignal
	}
	// candidates reaching this point passed the relevance filter
	intentSignal := float64(s.classifier.IntentPoints(intent.Intent))
	return weightIntent*intentSignal + weightOverlap*overlapSignal + weightCosine*cosine
}

// similarityScore returns min(cosine+bonuses, 1) as a percentage rounded to one decimal
func similarityScore(cosine float64, product domain.Product, queryLower string) float64 {
	bonus := 0.0
	if category := strings.ToLower(strings.TrimSpace(product.Category)); category != "" && strings.Contains(queryLower, category) {
		bonus += categoryMatchBonus
	}
	if product.Tags != "" {
		for _, tag := range strings.Split(strings.ToLower(product.Tags), ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" && strings.Contains(queryLower, tag) {
				bonus += tagMatchBonus
			}
		}
	}
	return math.Round(math.Min(cosine+bonus, 1.0)*1000) / 10
}

// fallbackRanking orders by eco rating then price, both descending, when the query has no usable tokens
func (s *SearchService) fallbackRanking(candidates []domain.Product) []domain.RankedResult {
	sorted := make([]domain.Product, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EcoRating != sorted[j].EcoRating {
			return sorted[i].EcoRating > sorted[j].EcoRating
		}
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price > sorted[j].Price
		}
		return sorted[i].ID < sorted[j].ID
	})

	results := make([]domain.RankedResult, 0, len(sorted))
	for _, p := range sorted {
		results = append(results, domain.RankedResult{Product: p, Score: 0, Method: domain.MethodFallbackEcoRating})
	}
	return capResults(results, s.maxResults)
}

// lookupIDs fetches explicitly requested products, newest id first
func (s *SearchService) lookupIDs(ctx context.Context, ids []int64) ([]domain.RankedResult, error) {
	products, err := s.catalog.FetchCandidates(ctx, domain.CandidateFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].ID > products[j].ID })

	results := make([]domain.RankedResult, 0, len(products))
	for _, p := range products {
		results = append(results, domain.RankedResult{Product: p, Score: 1.0, Method: domain.MethodIDLookup})
	}
	return capResults(results, s.maxResults), nil
}

// sortRanked orders by score, then eco rating, both descending, then by id
func sortRanked(results []domain.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].EcoRating != results[j].EcoRating {
			return results[i].EcoRating > results[j].EcoRating
		}
		return results[i].ID < results[j].ID
	})
}

func capResults(results []domain.RankedResult, max int) []domain.RankedResult {
	if len(results) > max {
		return results[:max]
	}
	return results
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}
