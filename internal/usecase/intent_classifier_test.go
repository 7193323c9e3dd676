package usecase

import (
	"testing"

	"github.com/ecoreco/backend/internal/domain"
)

func TestClassify(t *testing.T) {
	c := NewIntentClassifier()

	testCases := []struct {
		name  string
		query string
		want  domain.Intent
	}{
		{"french hair query", "shampoing pour cheveux secs", domain.IntentHairCare},
		{"english hair query", "solid shampoo bar for hair", domain.IntentHairCare},
		{"toothbrush", "brosse à dents en bambou", domain.IntentOralCare},
		{"toothpaste english", "natural toothpaste", domain.IntentOralCare},
		{"face care", "crème visage hydratante", domain.IntentFacialCare},
		{"kitchen", "gourde inox pour la cuisine", domain.IntentKitchen},
		{"bathroom", "savon pour la douche", domain.IntentBathroom},
		{"zero waste", "produits zéro déchet réutilisables", domain.IntentEcoFriendly},
		{"materials", "bamboo", domain.IntentMaterials},
		{"cleaning", "lessive au savon noir", domain.IntentCleaning},
		{"accented word start", "écologique", domain.IntentEcoFriendly},
		{"no intent", "lunar telescope", domain.IntentNone},
		{"empty", "", domain.IntentNone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.query)
			if got.Intent != tc.want {
				t.Errorf("Classify(%q) = %v (scores %v), want %v", tc.query, got.Intent, c.Scores(tc.query), tc.want)
			}
			if tc.want == domain.IntentNone && (got.Confidence != 0 || got.Detected()) {
				t.Errorf("Classify(%q) confidence = %d, want 0", tc.query, got.Confidence)
			}
			if tc.want != domain.IntentNone && got.Confidence <= 0 {
				t.Errorf("Classify(%q) confidence = %d, want > 0", tc.query, got.Confidence)
			}
		})
	}
}

func TestClassifyScoring(t *testing.T) {
	c := NewIntentClassifier()

	t.Run("sums pattern and important word points", func(t *testing.T) {
		// patterns: cheveux, shampoing (3 each); important words: shampoing, cheveux (2 each)
		got := c.Classify("shampoing cheveux")
		if got.Intent != domain.IntentHairCare || got.Confidence != 10 {
			t.Errorf("Classify = %+v, want hair-care/10", got)
		}
	})

	t.Run("ties go to the first declared category", func(t *testing.T) {
		// kitchen (gourde) and materials (verre) both score 5
		scores := c.Scores("gourde verre")
		if scores[domain.IntentKitchen] != scores[domain.IntentMaterials] {
			t.Fatalf("scores = %v, want a tie", scores)
		}
		if got := c.Classify("gourde verre"); got.Intent != domain.IntentKitchen {
			t.Errorf("Classify = %v, want kitchen", got.Intent)
		}
	})

	t.Run("adjacent matches of one pattern all count", func(t *testing.T) {
		// one pattern matched twice (3 each); important words shampoo, conditioner (2 each)
		got := c.Classify("shampoo conditioner")
		if got.Intent != domain.IntentHairCare || got.Confidence != 10 {
			t.Errorf("Classify = %+v, want hair-care/10", got)
		}
	})

	t.Run("patterns require a trailing word boundary", func(t *testing.T) {
		for _, q := range []string{"cupboard", "mugshot", "coffeehouse"} {
			if got := c.Classify(q); got.Intent != domain.IntentNone {
				t.Errorf("Classify(%q) = %+v, want none", q, got)
			}
		}
		if got := c.Classify("mugs"); got.Intent != domain.IntentKitchen {
			t.Errorf("Classify(mugs) = %v, want kitchen", got.Intent)
		}
	})

	t.Run("does not match inside words", func(t *testing.T) {
		if got := c.Classify("chair"); got.Intent == domain.IntentHairCare {
			t.Errorf("Classify(chair) = %v, want no hair-care", got.Intent)
		}
	})
}

func TestMatchesIntent(t *testing.T) {
	c := NewIntentClassifier()

	testCases := []struct {
		name     string
		intent   domain.Intent
		document string
		want     bool
	}{
		{"hair keyword present", domain.IntentHairCare, "Shampoing solide pour cheveux secs", true},
		{"hair keyword absent", domain.IntentHairCare, "Brosse à dents en bambou", false},
		{"matches plural", domain.IntentOralCare, "Lot de brosses à dents", true},
		{"matches es plural", domain.IntentOralCare, "Two bamboo toothbrushes", true},
		{"matches multi-word keyword", domain.IntentEcoFriendly, "Kit zéro déchet", true},
		{"keyword prefix of longer word", domain.IntentHairCare, "Combination lock", false},
		{"short keyword inside french word", domain.IntentOralCare, "Robe en dentelle", false},
		{"eco does not match economy", domain.IntentEcoFriendly, "Economy plastic widget", false},
		{"cup does not match cupboard", domain.IntentKitchen, "Pine cupboard", false},
		{"hyphenated words split", domain.IntentHairCare, "Après-shampoing solide", true},
		{"does not match inside word", domain.IntentHairCare, "Chaise longue en chair", false},
		{"none matches everything", domain.IntentNone, "anything", true},
		{"unknown intent matches everything", domain.Intent("garden"), "anything", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.MatchesIntent(tc.intent, tc.document); got != tc.want {
				t.Errorf("MatchesIntent(%v, %q) = %v, want %v", tc.intent, tc.document, got, tc.want)
			}
		})
	}
}

func TestIntentPoints(t *testing.T) {
	c := NewIntentClassifier()

	if got := c.IntentPoints(domain.IntentHairCare); got != 10 {
		t.Errorf("IntentPoints(hair-care) = %d, want 10", got)
	}
	if got := c.IntentPoints(domain.IntentKitchen); got != 8 {
		t.Errorf("IntentPoints(kitchen) = %d, want 8", got)
	}
	if got := c.IntentPoints(domain.IntentNone); got != 0 {
		t.Errorf("IntentPoints(none) = %d, want 0", got)
	}
}
