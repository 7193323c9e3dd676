package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// maxQueryLength caps the query before it reaches the catalog
const maxQueryLength = 200

// QueryPreprocessor cleans search queries and extracts explicit product ids and prefilter terms
type QueryPreprocessor struct {
	enableDebugLogging bool
	logger             zerolog.Logger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches a comma separated id list like "1, 2, 9"
	idListPattern = regexp.MustCompile(`^\d+(?:\s*,\s*\d+)+$`)

	// Matches a single id like "123", "id:123", "id=123", "#123"
	singleIDPattern = regexp.MustCompile(`(?i)^(?:id\s*[:=]\s*|#)?(\d+)$`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)

	// Punctuation trimmed from the edges of prefilter terms
	edgePunctuation = ",.!?;:'\"()[]{}"
)

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger zerolog.Logger, enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
		logger:             logger,
	}
}

// PreprocessQuery trims the query, collapses whitespace and caps its length at a word boundary
func (p *QueryPreprocessor) PreprocessQuery(query string) string {
	original := query

	cleaned := multiSpacePattern.ReplaceAllString(query, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		// Try to cut at word boundary
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
		cleaned = strings.ToValidUTF8(cleaned, "")
	}

	if p.enableDebugLogging {
		p.logger.Debug().Str("input", original).Str("output", cleaned).Msg("preprocess query")
	}

	return cleaned
}

// ParseProductIDs returns the ids when the query consists only of product identifiers
// ("12", "#12", "id:12", "id=12", "3, 7, 9"). Any other query yields nil.
func (p *QueryPreprocessor) ParseProductIDs(query string) []int64 {
	cleaned := strings.TrimSpace(query)
	if cleaned == "" {
		return nil
	}

	if idListPattern.MatchString(cleaned) {
		var ids []int64
		for _, part := range strings.Split(cleaned, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
		return dedupeIDs(ids)
	}

	if m := singleIDPattern.FindStringSubmatch(cleaned); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil && id > 0 {
			return []int64{id}
		}
	}

	return nil
}

// PrefilterTerms splits the query into the terms every candidate must match in the catalog
func (p *QueryPreprocessor) PrefilterTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(query) {
		term := strings.Trim(word, edgePunctuation)
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
