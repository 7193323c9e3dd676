package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
)

// MockCatalogGateway is an in-memory implementation of domain.CatalogGateway
type MockCatalogGateway struct {
	mu            sync.Mutex
	products      []domain.Product
	medians       map[int64]float64
	popularity    map[int64]float64
	candidatesErr error
	productErr    error
	medianErr     error
	popularityErr error
	applyErr      error
	lastFilter    domain.CandidateFilter
	fetchCalls    int
	applyCalls    int
}

func NewMockCatalogGateway(products ...domain.Product) *MockCatalogGateway {
	return &MockCatalogGateway{
		products:   products,
		medians:    make(map[int64]float64),
		popularity: make(map[int64]float64),
	}
}

func (m *MockCatalogGateway) FetchCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	m.lastFilter = filter
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}

	var ids map[int64]bool
	if len(filter.IDs) > 0 {
		ids = make(map[int64]bool)
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	var out []domain.Product
	for _, p := range m.products {
		if ids != nil && !ids[p.ID] {
			continue
		}
		if filter.ExcludeID != 0 && p.ID == filter.ExcludeID {
			continue
		}
		if !matchesAllTerms(p, filter.Terms) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func matchesAllTerms(p domain.Product, terms []string) bool {
	doc := strings.ToLower(p.Document())
	for _, term := range terms {
		if !strings.Contains(doc, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func (m *MockCatalogGateway) FetchProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.productErr != nil {
		return nil, m.productErr
	}
	for _, p := range m.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockCatalogGateway) FetchCategoryMedianPrice(ctx context.Context, categoryID int64) (float64, bool, error) {
	if m.medianErr != nil {
		return 0, false, m.medianErr
	}
	median, ok := m.medians[categoryID]
	return median, ok, nil
}

func (m *MockCatalogGateway) FetchProductPopularity(ctx context.Context, productID int64) (float64, error) {
	if m.popularityErr != nil {
		return 0, m.popularityErr
	}
	return m.popularity[productID], nil
}

func (m *MockCatalogGateway) FetchMaxPopularity(ctx context.Context) (float64, error) {
	if m.popularityErr != nil {
		return 0, m.popularityErr
	}
	max := 0.0
	for _, qty := range m.popularity {
		max = math.Max(max, qty)
	}
	return max, nil
}

func (m *MockCatalogGateway) ApplyRatingDelta(ctx context.Context, productID int64, delta float64) (float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	if m.applyErr != nil {
		return 0, 0, m.applyErr
	}
	for i := range m.products {
		if m.products[i].ID == productID {
			previous := m.products[i].EcoRating
			m.products[i].EcoRating = ClampRating(previous + delta)
			return previous, m.products[i].EcoRating, nil
		}
	}
	return 0, 0, domain.ErrProductNotFound
}

func (m *MockCatalogGateway) rating(id int64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return p.EcoRating
		}
	}
	return -1
}

func hygieneCatalog() *MockCatalogGateway {
	return NewMockCatalogGateway(
		domain.Product{ID: 1, Name: "Shampoing solide", Description: "Shampoing solide pour cheveux secs",
			CategoryID: 1, Category: "Hygiène", Price: 9.5, EcoRating: 4.2, Tags: "zéro déchet, cheveux"},
		domain.Product{ID: 2, Name: "Brosse à dents bambou", Description: "Brosse à dents en bambou biodégradable",
			CategoryID: 1, Category: "Hygiène", Price: 3.9, EcoRating: 4.8, Tags: "bambou, dents"},
		domain.Product{ID: 3, Name: "Peigne en bois", Description: "Peigne en bois pour cheveux fins",
			CategoryID: 1, Category: "Hygiène", Price: 7, EcoRating: 3.9, Tags: "bois"},
		domain.Product{ID: 4, Name: "Gourde inox", Description: "Gourde isotherme en acier inoxydable",
			CategoryID: 2, Category: "Cuisine", Price: 24, EcoRating: 4.5, Tags: "inox, gourde"},
	)
}

func resultIDs(results []domain.RankedResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewSearchService(t *testing.T) {
	t.Run("applies defaults for invalid config", func(t *testing.T) {
		svc := NewSearchService(NewMockCatalogGateway(), zerolog.Nop(), SearchConfig{Mode: "bogus", MaxResults: 0})
		if svc.Mode() != domain.ModeIntentWeighted {
			t.Errorf("mode = %v, want %v", svc.Mode(), domain.ModeIntentWeighted)
		}
		if svc.maxResults != 10 {
			t.Errorf("maxResults = %d, want 10", svc.maxResults)
		}
		if svc.normalizer.Profile() != ProfileLightweight {
			t.Errorf("profile = %v, want lightweight", svc.normalizer.Profile())
		}
	})

	t.Run("caps max results at ten", func(t *testing.T) {
		svc := NewSearchService(NewMockCatalogGateway(), zerolog.Nop(), SearchConfig{MaxResults: 50})
		if svc.maxResults != 10 {
			t.Errorf("maxResults = %d, want 10", svc.maxResults)
		}
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query returns empty list without error", func(t *testing.T) {
		catalog := hygieneCatalog()
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{})

		for _, q := range []string{"", "   ", "\t\n"} {
			results, err := svc.Search(ctx, &domain.SearchRequest{Query: q})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if results == nil || len(results) != 0 {
				t.Errorf("Search(%q) = %v, want empty list", q, results)
			}
		}
		if catalog.fetchCalls != 0 {
			t.Errorf("catalog called %d times for empty queries", catalog.fetchCalls)
		}
	})

	t.Run("nil request returns empty list", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})
		results, err := svc.Search(ctx, nil)
		if err != nil || len(results) != 0 {
			t.Errorf("Search(nil) = %v, %v", results, err)
		}
	})

	t.Run("hair care query excludes off-topic products", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "shampoing cheveux"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(resultIDs(results), []int64{1, 3}) {
			t.Errorf("ids = %v, want [1 3]", resultIDs(results))
		}
		for _, r := range results {
			if r.Method != domain.MethodIntentFusion {
				t.Errorf("method = %v, want %v", r.Method, domain.MethodIntentFusion)
			}
			if r.Score < 70 {
				t.Errorf("score = %v, want intent signal of at least 70", r.Score)
			}
		}
	})

	t.Run("relevance filter ignores keyword prefixes of unrelated words", func(t *testing.T) {
		catalog := NewMockCatalogGateway(
			domain.Product{ID: 1, Name: "Shampoo bar", Description: "Solid shampoo for dry hair", EcoRating: 4},
			domain.Product{ID: 2, Name: "Combination lock", Description: "Steel padlock", EcoRating: 3},
			domain.Product{ID: 3, Name: "Robe en dentelle", Description: "Robe de soirée", EcoRating: 3},
		)
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "hair shampoo"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(resultIDs(results), []int64{1}) {
			t.Errorf("hair shampoo ids = %v, want [1]", resultIDs(results))
		}

		results, err = svc.Search(ctx, &domain.SearchRequest{Query: "dentifrice"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("dentifrice ids = %v, want none", resultIDs(results))
		}
	})

	t.Run("linguistic profile ranks with the relevance filter", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{Profile: ProfileLinguistic})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "shampoing cheveux"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := resultIDs(results)
		if len(ids) != 2 || (ids[0] != 1 && ids[0] != 3) || (ids[1] != 1 && ids[1] != 3) {
			t.Errorf("ids = %v, want products 1 and 3", ids)
		}
		for _, r := range results {
			if r.Score < 70 {
				t.Errorf("score = %v, want intent signal of at least 70", r.Score)
			}
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := svc.Search(cancelled, &domain.SearchRequest{Query: "gourde"}); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("relevance filter also applies in similarity mode", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "brosse à dents", Mode: domain.ModeSimilarity})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(resultIDs(results), []int64{2}) {
			t.Errorf("ids = %v, want [2]", resultIDs(results))
		}
	})

	t.Run("similarity mode yields rounded percentages", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{Mode: domain.ModeSimilarity})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "isotherme"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 4 {
			t.Fatalf("len = %d, want 4 (similarity mode keeps every candidate)", len(results))
		}
		if results[0].ID != 4 {
			t.Errorf("top id = %d, want 4", results[0].ID)
		}
		for _, r := range results {
			if r.Score < 0 || r.Score > 100 {
				t.Errorf("score %v out of [0,100]", r.Score)
			}
			if math.Abs(r.Score*10-math.Round(r.Score*10)) > 1e-9 {
				t.Errorf("score %v not rounded to one decimal", r.Score)
			}
			if r.Method != domain.MethodCosine {
				t.Errorf("method = %v, want %v", r.Method, domain.MethodCosine)
			}
		}
		// zero-similarity ties fall back to eco rating order
		if !equalIDs(resultIDs(results[1:]), []int64{2, 1, 3}) {
			t.Errorf("tail ids = %v, want [2 1 3]", resultIDs(results[1:]))
		}
	})

	t.Run("intent mode drops candidates without any signal", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "lunar telescope"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("ids = %v, want none", resultIDs(results))
		}
	})

	t.Run("query without usable tokens falls back to eco rating", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "!!! ??"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(resultIDs(results), []int64{2, 4, 1, 3}) {
			t.Errorf("ids = %v, want [2 4 1 3]", resultIDs(results))
		}
		for _, r := range results {
			if r.Method != domain.MethodFallbackEcoRating {
				t.Errorf("method = %v, want %v", r.Method, domain.MethodFallbackEcoRating)
			}
		}
	})

	t.Run("fallback breaks eco ties by price descending", func(t *testing.T) {
		catalog := NewMockCatalogGateway(
			domain.Product{ID: 1, Name: "Cheap", EcoRating: 4, Price: 5},
			domain.Product{ID: 2, Name: "Pricey", EcoRating: 4, Price: 50},
		)
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{})

		results, _ := svc.Search(ctx, &domain.SearchRequest{Query: "the and of"})
		if !equalIDs(resultIDs(results), []int64{2, 1}) {
			t.Errorf("ids = %v, want [2 1]", resultIDs(results))
		}
	})

	t.Run("explicit ids short-circuit ranking", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "1, 3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(resultIDs(results), []int64{3, 1}) {
			t.Errorf("ids = %v, want [3 1]", resultIDs(results))
		}
		for _, r := range results {
			if r.Score != 1.0 || r.Method != domain.MethodIDLookup {
				t.Errorf("result = %v/%v, want 1.0/%v", r.Score, r.Method, domain.MethodIDLookup)
			}
		}
	})

	t.Run("sql prefilter narrows candidates in similarity mode", func(t *testing.T) {
		catalog := hygieneCatalog()
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{Mode: domain.ModeSimilarity, SQLPrefilter: true})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "gourde"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(catalog.lastFilter.Terms) != 1 || catalog.lastFilter.Terms[0] != "gourde" {
			t.Errorf("terms = %v, want [gourde]", catalog.lastFilter.Terms)
		}
		if !equalIDs(resultIDs(results), []int64{4}) {
			t.Errorf("ids = %v, want [4]", resultIDs(results))
		}
		if results[0].Method != domain.MethodCosinePrefilter {
			t.Errorf("method = %v, want %v", results[0].Method, domain.MethodCosinePrefilter)
		}
	})

	t.Run("empty prefilter result returns empty list", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{Mode: domain.ModeSimilarity, SQLPrefilter: true})

		results, err := svc.Search(ctx, &domain.SearchRequest{Query: "trampoline"})
		if err != nil || len(results) != 0 {
			t.Errorf("Search = %v, %v; want empty", resultIDs(results), err)
		}
	})

	t.Run("prefilter is not used in intent mode", func(t *testing.T) {
		catalog := hygieneCatalog()
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{SQLPrefilter: true})

		if _, err := svc.Search(ctx, &domain.SearchRequest{Query: "gourde"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(catalog.lastFilter.Terms) != 0 {
			t.Errorf("terms = %v, want none", catalog.lastFilter.Terms)
		}
	})

	t.Run("catalog failure surfaces as upstream unavailable", func(t *testing.T) {
		catalog := hygieneCatalog()
		catalog.candidatesErr = errors.New("connection refused")
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{})

		_, err := svc.Search(ctx, &domain.SearchRequest{Query: "gourde"})
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Errorf("error = %v, want ErrUpstreamUnavailable", err)
		}
	})

	t.Run("results are capped", func(t *testing.T) {
		var products []domain.Product
		for i := int64(1); i <= 15; i++ {
			products = append(products, domain.Product{ID: i, Name: "Gourde inox", EcoRating: float64(i % 5)})
		}
		svc := NewSearchService(NewMockCatalogGateway(products...), zerolog.Nop(), SearchConfig{})

		results, _ := svc.Search(ctx, &domain.SearchRequest{Query: "gourde"})
		if len(results) != 10 {
			t.Errorf("len = %d, want 10", len(results))
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		svc := NewSearchService(hygieneCatalog(), zerolog.Nop(), SearchConfig{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Search(cancelled, &domain.SearchRequest{Query: "gourde"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestRank(t *testing.T) {
	ctx := context.Background()

	t.Run("is deterministic", func(t *testing.T) {
		catalog := hygieneCatalog()
		svc := NewSearchService(catalog, zerolog.Nop(), SearchConfig{Mode: domain.ModeSimilarity})

		first, _ := svc.Rank(ctx, "brosse bambou biodégradable", catalog.products, domain.ModeSimilarity)
		for i := 0; i < 20; i++ {
			again, _ := svc.Rank(ctx, "brosse bambou biodégradable", catalog.products, domain.ModeSimilarity)
			if len(again) != len(first) {
				t.Fatalf("len changed: %d vs %d", len(again), len(first))
			}
			for j := range first {
				if again[j].ID != first[j].ID || again[j].Score != first[j].Score {
					t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again[j], first[j])
				}
			}
		}
	})

	t.Run("ties break by eco rating then id", func(t *testing.T) {
		products := []domain.Product{
			{ID: 7, Name: "Gourde verre", EcoRating: 3},
			{ID: 5, Name: "Gourde verre", EcoRating: 4},
			{ID: 6, Name: "Gourde verre", EcoRating: 4},
		}
		svc := NewSearchService(NewMockCatalogGateway(), zerolog.Nop(), SearchConfig{})

		results, err := svc.Rank(ctx, "gourde verre", products, domain.ModeIntentWeighted)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalIDs(resultIDs(results), []int64{5, 6, 7}) {
			t.Errorf("ids = %v, want [5 6 7]", resultIDs(results))
		}
	})

	t.Run("category and tag bonuses raise similarity", func(t *testing.T) {
		products := []domain.Product{
			{ID: 1, Name: "Gourde", Category: "Cuisine", Tags: "inox"},
			{ID: 2, Name: "Gourde", Category: "Jardin", Tags: "plastique"},
		}
		svc := NewSearchService(NewMockCatalogGateway(), zerolog.Nop(), SearchConfig{})

		results, _ := svc.Rank(ctx, "gourde cuisine inox", products, domain.ModeSimilarity)
		if len(results) != 2 || results[0].ID != 1 {
			t.Fatalf("ids = %v, want 1 first", resultIDs(results))
		}
		if results[0].Score <= results[1].Score {
			t.Errorf("bonus not applied: %v <= %v", results[0].Score, results[1].Score)
		}
	})
}

func TestSimilarityScore(t *testing.T) {
	product := domain.Product{Category: "Cuisine", Tags: "inox, gourde"}

	testCases := []struct {
		name   string
		cosine float64
		query  string
		want   float64
	}{
		{"no bonus", 0.5, "bottle", 50.0},
		{"category bonus", 0.5, "cuisine bottle", 55.0},
		{"category and two tags", 0.5, "cuisine inox gourde", 59.0},
		{"capped at 100", 0.99, "cuisine inox gourde", 100.0},
		{"rounds to one decimal", 0.12345, "bottle", 12.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := similarityScore(tc.cosine, product, tc.query)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("similarityScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFindIntersection(t *testing.T) {
	count, matched := findIntersection([]string{"gourde", "inox", "gourde"}, []string{"gourde", "gourde", "verre"})
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(matched) != 1 || matched[0] != "gourde" {
		t.Errorf("matched = %v, want [gourde]", matched)
	}
}
