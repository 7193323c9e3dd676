package domain

// Degraded signal names reported on a RatingAdjustment
const (
	SignalAffordability = "affordability"
	SignalPopularity    = "popularity"
)

// RatingAdjustment describes one review-driven change to a product's eco rating
type RatingAdjustment struct {
	ProductID       int64    `json:"product_id"`
	Polarity        float64  `json:"sentiment"`
	Sentiment       string   `json:"sentiment_label"`
	Affordability   float64  `json:"afford"`
	Popularity      float64  `json:"pop_norm"`
	BaseDelta       float64  `json:"base_delta"`
	Multiplier      float64  `json:"multiplier"`
	Delta           float64  `json:"delta"`
	PreviousRating  float64  `json:"previous_rating"`
	NewRating       float64  `json:"new_rating"`
	DegradedSignals []string `json:"degraded_signals,omitempty"`
}

// Degraded reports whether any statistic fell back to a neutral default.
func (a *RatingAdjustment) Degraded() bool {
	return len(a.DegradedSignals) > 0
}

// ReviewRequest represents a review submission
type ReviewRequest struct {
	Review string `json:"review"`
}

// Sentiment labels derived from polarity
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentLabel buckets a polarity into positive (>= 0.2), negative (<= -0.2) or neutral.
func SentimentLabel(polarity float64) string {
	switch {
	case polarity >= 0.2:
		return SentimentPositive
	case polarity <= -0.2:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
