package sentiment

import (
	"context"
	"regexp"
	"strings"
)

const (
	negationWindow = 3    // tokens after a negator whose polarity is flipped
	negationFactor = -0.5 // "not good" is mildly negative, not the opposite of good
)

var wordPattern = regexp.MustCompile(`[a-zà-öø-ÿ]+`)

// polarityLexicon maps English and French opinion words to a polarity in [-1,1]
var polarityLexicon = map[string]float64{
	// English
	"excellent": 1.0, "perfect": 1.0, "amazing": 0.9, "awesome": 0.9, "fantastic": 0.9,
	"wonderful": 0.9, "love": 0.8, "loved": 0.8, "loves": 0.8, "great": 0.8, "happy": 0.8,
	"good": 0.7, "nice": 0.6, "pleased": 0.6, "recommend": 0.5, "sturdy": 0.5, "durable": 0.5,
	"soft": 0.4, "fine": 0.3, "solid": 0.3, "okay": 0.2, "ok": 0.2,
	"cheap": -0.3, "flimsy": -0.6, "poor": -0.6, "disappointing": -0.6, "disappointed": -0.6,
	"waste": -0.6, "leaks": -0.6, "leak": -0.5, "bad": -0.7, "broke": -0.7, "broken": -0.8,
	"useless": -0.8, "hate": -0.9, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "worst": -1.0,
	// French
	"parfait": 1.0, "parfaite": 1.0, "génial": 0.9, "géniale": 0.9, "adore": 0.9, "super": 0.8,
	"top": 0.7, "satisfait": 0.7, "satisfaite": 0.7, "bon": 0.6, "bonne": 0.6, "efficace": 0.6,
	"agréable": 0.6, "bien": 0.5, "recommande": 0.5, "pratique": 0.5, "solide": 0.5,
	"doux": 0.4, "douce": 0.4, "correct": 0.2, "correcte": 0.2,
	"fragile": -0.4, "décevant": -0.6, "décevante": -0.6, "déçu": -0.7, "déçue": -0.7,
	"mauvais": -0.7, "mauvaise": -0.7, "inutile": -0.7, "nul": -0.8, "nulle": -0.8,
	"cassé": -0.8, "cassée": -0.8, "pire": -1.0,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don": true, "didn": true, "doesn": true,
	"isn": true, "wasn": true, "aren": true, "won": true,
	"ne": true, "n": true, "pas": true, "jamais": true, "aucun": true, "aucune": true,
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.2, "extremely": 1.5, "absolutely": 1.5,
	"très": 1.3, "vraiment": 1.3, "trop": 1.2, "absolument": 1.5, "tellement": 1.3,
}

// LexiconAnalyzer scores text locally from a bilingual opinion lexicon.
// Polarity is the mean of matched words after negation and intensifiers, clamped to [-1,1].
type LexiconAnalyzer struct{}

// NewLexiconAnalyzer creates a lexicon-based analyzer
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

// Analyze implements domain.SentimentGateway. Text without opinion words is neutral.
func (a *LexiconAnalyzer) Analyze(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return Polarity(text), nil
}

// Polarity scores text without a context.
func Polarity(text string) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	sum, matched := 0.0, 0
	negatedFor := 0
	boost := 1.0
	for _, w := range words {
		if negators[w] {
			negatedFor = negationWindow
			continue
		}
		if factor, ok := intensifiers[w]; ok {
			boost *= factor
			continue
		}

		if value, ok := polarityLexicon[w]; ok {
			value *= boost
			if negatedFor > 0 {
				value *= negationFactor
			}
			sum += value
			matched++
			boost = 1.0
		}
		if negatedFor > 0 {
			negatedFor--
		}
	}

	if matched == 0 {
		return 0
	}
	return clampPolarity(sum / float64(matched))
}
