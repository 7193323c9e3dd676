package sentiment

import (
	"errors"
	"math"
)

// analyzeRequest is the body posted to the sentiment API
type analyzeRequest struct {
	Text string `json:"text"`
}

// analyzeResponse is the sentiment API reply. Some deployments report "score" instead of "polarity".
type analyzeResponse struct {
	Polarity *float64 `json:"polarity"`
	Score    *float64 `json:"score"`
	Label    string   `json:"label,omitempty"`
}

var errMissingPolarity = errors.New("response carries no polarity")

// mapPolarity extracts the polarity from an API response and clamps it to [-1,1]
func mapPolarity(resp analyzeResponse) (float64, error) {
	value := resp.Polarity
	if value == nil {
		value = resp.Score
	}
	if value == nil || math.IsNaN(*value) {
		return 0, errMissingPolarity
	}
	return clampPolarity(*value), nil
}

func clampPolarity(p float64) float64 {
	return math.Max(-1, math.Min(1, p))
}
