package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ecoreco/backend/internal/domain"
)

// seedFile is the YAML layout accepted by LoadSeedFile
type seedFile struct {
	Products []seedProduct `yaml:"products"`
	Orders   []seedOrder   `yaml:"orders"`
}

type seedProduct struct {
	ID             int64   `yaml:"id"`
	Name           string  `yaml:"name"`
	Description    string  `yaml:"description"`
	CategoryID     int64   `yaml:"category_id"`
	Category       string  `yaml:"category"`
	Price          float64 `yaml:"price"`
	EcoRating      float64 `yaml:"eco_rating"`
	Brand          string  `yaml:"brand"`
	Materials      string  `yaml:"materials"`
	Certifications string  `yaml:"certifications"`
	Tags           string  `yaml:"tags"`
	SourceURL      string  `yaml:"source_url"`
}

type seedOrder struct {
	ProductID int64   `yaml:"product_id"`
	Quantity  float64 `yaml:"quantity"`
}

// MemoryCatalog is an in-process domain.CatalogGateway for development and tests
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	ordered  map[int64]float64
}

// NewMemoryCatalog creates a catalog from products and per-product ordered quantities.
func NewMemoryCatalog(products []domain.Product, ordered map[int64]float64) *MemoryCatalog {
	c := &MemoryCatalog{
		products: make(map[int64]domain.Product, len(products)),
		ordered:  make(map[int64]float64, len(ordered)),
	}
	for _, p := range products {
		p.EcoRating = clampRating(p.EcoRating)
		c.products[p.ID] = p
	}
	for id, qty := range ordered {
		c.ordered[id] = qty
	}
	return c
}

// LoadSeedFile reads a YAML catalog. Orders for the same product accumulate.
func LoadSeedFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data.
func ParseSeed(data []byte) (*MemoryCatalog, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	products := make([]domain.Product, 0, len(seed.Products))
	seen := make(map[int64]bool, len(seed.Products))
	for _, sp := range seed.Products {
		if sp.ID <= 0 {
			return nil, fmt.Errorf("seed product %q: id must be positive", sp.Name)
		}
		if seen[sp.ID] {
			return nil, fmt.Errorf("seed product %d: duplicate id", sp.ID)
		}
		if sp.Price < 0 {
			return nil, fmt.Errorf("seed product %d: negative price", sp.ID)
		}
		seen[sp.ID] = true
		products = append(products, domain.Product(sp))
	}

	ordered := make(map[int64]float64)
	for _, o := range seed.Orders {
		ordered[o.ProductID] += o.Quantity
	}

	return NewMemoryCatalog(products, ordered), nil
}

// FetchCandidates returns copies of the matching products ordered by id.
func (c *MemoryCatalog) FetchCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids map[int64]bool
	if len(filter.IDs) > 0 {
		ids = make(map[int64]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	out := []domain.Product{}
	for _, p := range c.products {
		if ids != nil && !ids[p.ID] {
			continue
		}
		if filter.ExcludeID != 0 && p.ID == filter.ExcludeID {
			continue
		}
		if !matchesTerms(p, filter.Terms) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// matchesTerms mirrors the SQL prefilter: every term must occur in some searchable field
func matchesTerms(p domain.Product, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	fields := []string{p.Name, p.Description, p.Tags, p.Materials, p.Certifications, p.Category, p.Brand}
	for i := range fields {
		fields[i] = strings.ToLower(fields[i])
	}
	for _, term := range terms {
		term = strings.ToLower(term)
		found := false
		for _, f := range fields {
			if strings.Contains(f, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FetchProduct returns one product or domain.ErrProductNotFound.
func (c *MemoryCatalog) FetchProduct(ctx context.Context, id int64) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// FetchCategoryMedianPrice returns the continuous median of positive prices in the category.
func (c *MemoryCatalog) FetchCategoryMedianPrice(ctx context.Context, categoryID int64) (float64, bool, error) {
	c.mu.RLock()
	var prices []float64
	for _, p := range c.products {
		if p.CategoryID == categoryID && p.Price > 0 {
			prices = append(prices, p.Price)
		}
	}
	c.mu.RUnlock()

	if len(prices) == 0 {
		return 0, false, nil
	}
	return median(prices), true, nil
}

func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

// FetchProductPopularity returns the product's total ordered quantity.
func (c *MemoryCatalog) FetchProductPopularity(ctx context.Context, productID int64) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ordered[productID], nil
}

// FetchMaxPopularity returns the highest total ordered quantity.
func (c *MemoryCatalog) FetchMaxPopularity(ctx context.Context) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	max := 0.0
	for _, qty := range c.ordered {
		if qty > max {
			max = qty
		}
	}
	return max, nil
}

// ApplyRatingDelta adds delta and clamps to [0,5] under the write lock.
func (c *MemoryCatalog) ApplyRatingDelta(ctx context.Context, productID int64, delta float64) (float64, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return 0, 0, domain.ErrProductNotFound
	}
	previous := p.EcoRating
	p.EcoRating = clampRating(previous + delta)
	c.products[productID] = p
	return previous, p.EcoRating, nil
}

// Len returns the number of products.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
