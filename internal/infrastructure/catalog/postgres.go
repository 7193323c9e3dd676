package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/ecoreco/backend/internal/domain"
)

// PostgresConfig holds connection pool settings
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresCatalog implements domain.CatalogGateway over a products table whose optional
// columns and companion tables are discovered on every call.
type PostgresCatalog struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresCatalog opens the pool and verifies the connection.
func NewPostgresCatalog(ctx context.Context, cfg PostgresConfig, logger zerolog.Logger) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: postgres ping: %v", domain.ErrUpstreamUnavailable, err)
	}

	return NewPostgresCatalogWithDB(db, logger), nil
}

// NewPostgresCatalogWithDB reuses an existing *sql.DB.
func NewPostgresCatalogWithDB(db *sql.DB, logger zerolog.Logger) *PostgresCatalog {
	return &PostgresCatalog{db: db, logger: logger}
}

// Close releases the pool.
func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}

// Ping checks connectivity.
func (c *PostgresCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// FetchCandidates returns the products matching filter, ordered by id.
func (c *PostgresCatalog) FetchCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Product, error) {
	s, err := negotiate(ctx, c.db)
	if err != nil {
		return nil, err
	}

	query, args := buildSelect(s, filter)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.Category, &p.Price, &p.EcoRating,
			&p.Brand, &p.Materials, &p.Certifications, &p.Tags, &p.SourceURL,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	c.logger.Debug().Int("count", len(products)).Int("terms", len(filter.Terms)).Msg("catalog candidates fetched")
	return products, nil
}

// FetchProduct returns one product or domain.ErrProductNotFound.
func (c *PostgresCatalog) FetchProduct(ctx context.Context, id int64) (*domain.Product, error) {
	products, err := c.FetchCandidates(ctx, domain.CandidateFilter{IDs: []int64{id}})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return &products[0], nil
}

// FetchCategoryMedianPrice computes the continuous median of known prices in the category.
func (c *PostgresCatalog) FetchCategoryMedianPrice(ctx context.Context, categoryID int64) (float64, bool, error) {
	s, err := negotiate(ctx, c.db)
	if err != nil {
		return 0, false, err
	}
	if !s.has("price") || !s.has("category_id") {
		return 0, false, nil
	}

	var median sql.NullFloat64
	err = c.db.QueryRowContext(ctx, `
SELECT PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY "price")
FROM "products"
WHERE "category_id" = $1 AND "price" IS NOT NULL`, categoryID).Scan(&median)
	if err != nil {
		return 0, false, fmt.Errorf("query median price: %w", err)
	}
	if !median.Valid {
		return 0, false, nil
	}
	return median.Float64, true, nil
}

// FetchProductPopularity sums ordered quantities for the product; 0 without order data.
func (c *PostgresCatalog) FetchProductPopularity(ctx context.Context, productID int64) (float64, error) {
	s, err := negotiate(ctx, c.db)
	if err != nil {
		return 0, err
	}
	if !s.hasOrderItems {
		return 0, nil
	}

	var qty float64
	err = c.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM("quantity"), 0)::float8 FROM "order_items" WHERE "product_id" = $1`,
		productID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("query product popularity: %w", err)
	}
	return qty, nil
}

// FetchMaxPopularity returns the best seller's total ordered quantity; 0 without order data.
func (c *PostgresCatalog) FetchMaxPopularity(ctx context.Context) (float64, error) {
	s, err := negotiate(ctx, c.db)
	if err != nil {
		return 0, err
	}
	if !s.hasOrderItems {
		return 0, nil
	}

	var qty float64
	err = c.db.QueryRowContext(ctx, `
SELECT COALESCE(MAX(t.qty), 0)::float8
FROM (SELECT SUM("quantity") AS qty FROM "order_items" GROUP BY "product_id") t`).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("query max popularity: %w", err)
	}
	return qty, nil
}

// ApplyRatingDelta adds delta and clamps to [0,5] in a single statement. The row lock taken
// by the CTE makes concurrent reviews of one product serialize, and each sees the rating
// left by the one before it.
func (c *PostgresCatalog) ApplyRatingDelta(ctx context.Context, productID int64, delta float64) (float64, float64, error) {
	var previous, updated float64
	err := c.db.QueryRowContext(ctx, `
WITH "prev" AS (
	SELECT "id", COALESCE("eco_rating", 0)::float8 AS "rating"
	FROM "products"
	WHERE "id" = $2
	FOR UPDATE
)
UPDATE "products" p
SET "eco_rating" = LEAST(GREATEST("prev"."rating" + $1::float8, 0), 5)
FROM "prev"
WHERE p."id" = "prev"."id"
RETURNING "prev"."rating", p."eco_rating"::float8`, delta, productID).Scan(&previous, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("update eco rating: %w", err)
	}
	return previous, updated, nil
}
