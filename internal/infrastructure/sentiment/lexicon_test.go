package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecoreco/backend/internal/domain"
)

func TestPolarity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"no opinion words", "bamboo toothbrush with case", 0},
		{"single positive", "Excellent product", 1.0},
		{"averaged negatives", "Terrible, broke after a week", -0.85},
		{"negation softens and flips", "not good", -0.35},
		{"intensifier", "very good", 0.91},
		{"french negation", "Je ne recommande pas ce produit", -0.25},
		{"french intensifier", "Très efficace et doux", 0.59},
		{"negation after verb", "n'est pas bon", -0.3},
		{"clamped", "absolutely perfect", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Polarity(tt.text), 1e-9)
		})
	}
}

func TestLexiconAnalyzer_Analyze(t *testing.T) {
	analyzer := NewLexiconAnalyzer()

	t.Run("labels map from polarity", func(t *testing.T) {
		p, err := analyzer.Analyze(context.Background(), "super gourde, je l'adore")
		assert.NoError(t, err)
		assert.Equal(t, domain.SentimentPositive, domain.SentimentLabel(p))

		p, err = analyzer.Analyze(context.Background(), "nulle, cassée en deux jours")
		assert.NoError(t, err)
		assert.Equal(t, domain.SentimentNegative, domain.SentimentLabel(p))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := analyzer.Analyze(ctx, "good")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
