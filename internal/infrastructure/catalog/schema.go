package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ecoreco/backend/internal/domain"
)

var errNoProductsTable = errors.New("products table not found")

// schema records which optional tables and columns the connected database offers
type schema struct {
	productColumns map[string]bool
	hasCategories  bool
	hasBrands      bool
	hasOrderItems  bool
}

func (s schema) has(column string) bool {
	return s.productColumns[column]
}

func (s schema) joinCategories() bool {
	return s.hasCategories && s.has("category_id")
}

func (s schema) joinBrands() bool {
	return s.hasBrands && s.has("brand_id")
}

// negotiate reads information_schema once and derives the available capabilities
func negotiate(ctx context.Context, db *sql.DB) (schema, error) {
	const query = `
SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ANY($1)`

	rows, err := db.QueryContext(ctx, query, pq.Array([]string{"products", "categories", "brands", "order_items"}))
	if err != nil {
		return schema{}, fmt.Errorf("read information_schema: %w", err)
	}
	defer rows.Close()

	columns := map[string]map[string]bool{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return schema{}, fmt.Errorf("scan information_schema: %w", err)
		}
		table = strings.ToLower(table)
		if columns[table] == nil {
			columns[table] = map[string]bool{}
		}
		columns[table][strings.ToLower(column)] = true
	}
	if err := rows.Err(); err != nil {
		return schema{}, fmt.Errorf("iterate information_schema: %w", err)
	}

	return schemaFromColumns(columns)
}

func schemaFromColumns(columns map[string]map[string]bool) (schema, error) {
	products := columns["products"]
	if !products["id"] {
		return schema{}, errNoProductsTable
	}
	return schema{
		productColumns: products,
		hasCategories:  columns["categories"]["id"] && columns["categories"]["name"],
		hasBrands:      columns["brands"]["id"] && columns["brands"]["name"],
		hasOrderItems:  columns["order_items"]["product_id"] && columns["order_items"]["quantity"],
	}, nil
}

// textColumn projects an optional text column, or an empty literal when it is missing
func (s schema) textColumn(column string) string {
	if s.has(column) {
		return fmt.Sprintf(`COALESCE(p.%q::text, '')`, column)
	}
	return `''`
}

func (s schema) numberColumn(column, cast string) string {
	if s.has(column) {
		return fmt.Sprintf(`COALESCE(p.%q, 0)::%s`, column, cast)
	}
	return "0::" + cast
}

func (s schema) categoryColumn() string {
	switch {
	case s.joinCategories():
		return `COALESCE(c."name", '')`
	case s.has("category"):
		return `COALESCE(p."category"::text, '')`
	default:
		return `''`
	}
}

func (s schema) brandColumn() string {
	switch {
	case s.joinBrands():
		return `COALESCE(b."name", '')`
	case s.has("brand"):
		return `COALESCE(p."brand"::text, '')`
	default:
		return `''`
	}
}

// searchableColumns lists the expressions a prefilter term may match
func (s schema) searchableColumns() []string {
	var cols []string
	for _, c := range []string{"name", "description", "tags", "materials", "certifications"} {
		if s.has(c) {
			cols = append(cols, fmt.Sprintf(`p.%q::text`, c))
		}
	}
	if s.joinCategories() {
		cols = append(cols, `c."name"`)
	} else if s.has("category") {
		cols = append(cols, `p."category"::text`)
	}
	if s.joinBrands() {
		cols = append(cols, `b."name"`)
	} else if s.has("brand") {
		cols = append(cols, `p."brand"::text`)
	}
	return cols
}

// buildSelect renders the fixed-shape product projection for filter
func buildSelect(s schema, filter domain.CandidateFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT p."id", `)
	b.WriteString(s.textColumn("name") + ", ")
	b.WriteString(s.textColumn("description") + ", ")
	b.WriteString(s.numberColumn("category_id", "bigint") + ", ")
	b.WriteString(s.categoryColumn() + ", ")
	b.WriteString(s.numberColumn("price", "float8") + ", ")
	b.WriteString(s.numberColumn("eco_rating", "float8") + ", ")
	b.WriteString(s.brandColumn() + ", ")
	b.WriteString(s.textColumn("materials") + ", ")
	b.WriteString(s.textColumn("certifications") + ", ")
	b.WriteString(s.textColumn("tags") + ", ")
	b.WriteString(s.textColumn("source_url"))
	b.WriteString(` FROM "products" p`)
	if s.joinCategories() {
		b.WriteString(` LEFT JOIN "categories" c ON p."category_id" = c."id"`)
	}
	if s.joinBrands() {
		b.WriteString(` LEFT JOIN "brands" b ON p."brand_id" = b."id"`)
	}

	var where []string
	var args []interface{}
	param := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.IDs) > 0 {
		where = append(where, `p."id" = ANY(`+param(pq.Array(filter.IDs))+`)`)
	}
	if filter.ExcludeID != 0 {
		where = append(where, `p."id" <> `+param(filter.ExcludeID))
	}
	if searchable := s.searchableColumns(); len(searchable) > 0 {
		for _, term := range filter.Terms {
			placeholder := param("%" + escapeLike(term) + "%")
			matches := make([]string, len(searchable))
			for i, col := range searchable {
				matches[i] = col + " ILIKE " + placeholder
			}
			where = append(where, "("+strings.Join(matches, " OR ")+")")
		}
	}

	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(` ORDER BY p."id"`)

	return b.String(), args
}

// escapeLike makes LIKE wildcards in user input literal
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
