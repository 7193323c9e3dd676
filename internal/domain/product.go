package domain

import "strings"

// Product is the homogeneous catalog record handed to the ranking and rating core.
// Columns a deployment does not have are left at their zero value.
type Product struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	CategoryID     int64   `json:"category_id,omitempty"` // 0 when uncategorized
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	EcoRating      float64 `json:"eco_rating"` // bounded [0,5]
	Brand          string  `json:"brand"`
	Materials      string  `json:"materials"`
	Certifications string  `json:"certifications"`
	Tags           string  `json:"tags"` // comma-delimited
	SourceURL      string  `json:"source_url"`
}

// Document concatenates the textual fields used for vectorization.
func (p Product) Document() string {
	parts := make([]string, 0, 7)
	for _, f := range []string{p.Name, p.Description, p.Category, p.Brand, p.Materials, p.Certifications, p.Tags} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// CandidateFilter narrows the set of products the catalog returns.
type CandidateFilter struct {
	Terms     []string // every term must match at least one searchable column
	IDs       []int64  // restrict to these identifiers
	ExcludeID int64    // drop this identifier (0 = none)
}

// RankingMode selects the scoring scale used by the search ranker
type RankingMode string

const (
	// ModeIntentWeighted fuses intent, keyword overlap and cosine into a raw total
	ModeIntentWeighted RankingMode = "intent"
	// ModeSimilarity scores by cosine plus bonuses as a 0-100 percentage
	ModeSimilarity RankingMode = "similarity"
)

// Valid reports whether m is a known ranking mode.
func (m RankingMode) Valid() bool {
	return m == ModeIntentWeighted || m == ModeSimilarity
}

// Ranking method tags attached to every result
const (
	MethodIntentFusion      = "intent_weighted_fusion"
	MethodCosine            = "tfidf_cosine"
	MethodCosinePrefilter   = "tfidf_cosine_sql_prefilter"
	MethodFallbackEcoRating = "fallback_top_eco_rating"
	MethodIDLookup          = "id_lookup"
	MethodCategoryTop       = "category_top_eco_rating"
	MethodContentSimilarity = "content_similarity"
)

// RankedResult is a product with its compatibility score and the method that produced it
type RankedResult struct {
	Product
	Score  float64 `json:"compatibility"`
	Method string  `json:"search_method"`
}

// SearchRequest represents a search call
type SearchRequest struct {
	Query string      `json:"q" form:"q"`
	Mode  RankingMode `json:"mode,omitempty" form:"mode"`
}
