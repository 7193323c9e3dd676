package usecase

import (
	"regexp"
	"strings"

	"github.com/ecoreco/backend/internal/domain"
)

// Intent scoring weights
const (
	patternMatchPoints  = 3 // each non-overlapping regex match
	importantWordPoints = 2 // each query word found in the category's important words
)

// wordStart anchors a pattern at the start of a word. RE2's \b is ASCII-only and
// would miss words starting with an accented letter.
const wordStart = `(?:^|[^\p{L}\p{N}])`

// wordEnd is the matching trailing anchor.
const wordEnd = `(?:$|[^\p{L}\p{N}])`

// intentRule is one row of the decision table
type intentRule struct {
	intent            domain.Intent
	patterns          []*regexp.Regexp
	importantWords    map[string]bool
	relevanceKeywords []string
	matchPoints       int // intent-match signal when a document carries a relevance keyword
}

// intentTable is evaluated in declaration order; ties go to the earlier row.
var intentTable = []intentRule{
	{
		intent: domain.IntentFacialCare,
		patterns: compilePatterns(
			`(?:visage|face|facial)s?`,
			`(?:soins? du visage|skin ?care|soins? de la peau)`,
			`(?:démaquillant|demaquillant|make-?up remover|cotons? lavables?)`,
			`(?:crème|creme|cream|sérum|serum|moisturi[sz]er)s?`,
		),
		importantWords: wordSet("visage", "face", "facial", "skin", "skincare", "peau", "crème", "creme",
			"cream", "serum", "sérum", "démaquillant", "demaquillant", "acne", "moisturizer"),
		relevanceKeywords: []string{"visage", "face", "facial", "skin", "peau", "démaquillant", "demaquillant",
			"crème", "creme", "cream", "sérum", "serum", "cosmétique", "cosmetic"},
		matchPoints: 10,
	},
	{
		intent: domain.IntentHairCare,
		patterns: compilePatterns(
			`(?:cheveux|hair)`,
			`(?:shampoo|shampoing|shampooing|après-shampoing|apres-shampoing|conditioner)s?`,
			`(?:peigne|comb|brosse à cheveux|brosse a cheveux|hairbrush)`,
		),
		importantWords: wordSet("cheveux", "hair", "shampoo", "shampoing", "shampooing", "conditioner",
			"peigne", "comb", "hairbrush", "scalp", "cuir"),
		relevanceKeywords: []string{"cheveux", "hair", "shampoo", "shampoing", "shampooing", "conditioner",
			"peigne", "comb", "hairbrush"},
		matchPoints: 10,
	},
	{
		intent: domain.IntentOralCare,
		patterns: compilePatterns(
			`(?:dents?|teeth|tooth)`,
			`(?:dentifrice|toothpaste|brosses? à dents|brosses? a dents|toothbrush(?:es)?)`,
			`(?:fil dentaire|floss|bain de bouche|mouthwash|haleine|breath)`,
		),
		importantWords: wordSet("dents", "dent", "dentaire", "teeth", "tooth", "dentifrice", "toothpaste", "toothbrush",
			"floss", "mouthwash", "oral", "bouche", "dentaire"),
		relevanceKeywords: []string{"dent", "dentaire", "teeth", "tooth", "dentifrice", "toothpaste", "toothbrush",
			"floss", "mouthwash", "bouche", "oral"},
		matchPoints: 10,
	},
	{
		intent: domain.IntentKitchen,
		patterns: compilePatterns(
			`(?:cuisine|kitchen|cooking)`,
			`(?:vaisselle|dishes|ustensiles?|utensils?|couverts|cutlery)`,
			`(?:tasses?|mugs?|cups?|gourdes?|bouteilles?|bottles?|pailles?|straws?|cafetière|coffee)`,
			`(?:bee ?wax wraps?|emballages? alimentaires?|lunch ?box|bento)`,
		),
		importantWords: wordSet("cuisine", "kitchen", "vaisselle", "dishes", "tasse", "mug", "cup", "gourde",
			"bouteille", "bottle", "paille", "pailles", "straw", "straws", "cafetière", "coffee",
			"lunchbox", "bento", "utensils", "ustensiles"),
		relevanceKeywords: []string{"cuisine", "kitchen", "vaisselle", "dish", "tasse", "mug", "cup", "gourde",
			"bouteille", "bottle", "paille", "straw", "cafetière", "coffee", "lunch", "lunchbox", "bento", "ustensile",
			"utensil", "couverts", "cutlery", "wrap"},
		matchPoints: 8,
	},
	{
		intent: domain.IntentBathroom,
		patterns: compilePatterns(
			`(?:salle de bains?|bathroom|bath)`,
			`(?:savons?|soaps?|gel douche|shower|douche)`,
			`(?:serviettes?|towels?|éponges?|sponges?|loofah)`,
		),
		importantWords: wordSet("bathroom", "bain", "bath", "savon", "soap", "douche", "shower", "serviette",
			"towel", "éponge", "sponge", "loofah", "hygiène", "hygiene"),
		relevanceKeywords: []string{"bain", "bath", "savon", "soap", "douche", "shower", "serviette", "towel",
			"éponge", "sponge", "loofah", "hygiène", "hygiene"},
		matchPoints: 8,
	},
	{
		intent: domain.IntentEcoFriendly,
		patterns: compilePatterns(
			`eco[- ]?friendly`,
			`(?:écologique|ecologique|éco-responsable|eco-responsable|écoresponsable)s?`,
			`(?:zéro|zero)[- ]?(?:déchets?|dechets?|waste)`,
			`(?:durable|sustainable|biodégradable|biodegradable|compostable|réutilisable|reutilisable|reusable)s?`,
		),
		importantWords: wordSet("ecologique", "sustainable", "durable", "biodegradable", "biodégradable",
			"compostable", "réutilisable", "reusable", "zero", "zéro", "waste", "déchet", "naturel",
			"natural", "bio", "organic", "recycled", "recyclé"),
		relevanceKeywords: []string{"bio", "organic", "naturel", "natural", "durable", "sustainable",
			"biodégradable", "biodegradable", "compostable", "réutilisable", "reusable", "recyclé",
			"recycled", "zéro déchet", "zero waste", "eco", "écologique", "ecologique", "biologique"},
		matchPoints: 6,
	},
	{
		intent: domain.IntentMaterials,
		patterns: compilePatterns(
			`(?:bambou|bamboo)`,
			`(?:bois|wood|wooden)`,
			`(?:verre|glass)`,
			`(?:inox|acier|steel|métal|metal)`,
			`(?:coton|cotton|linen|chanvre|hemp|jute)`,
		),
		importantWords: wordSet("bambou", "bamboo", "bois", "wood", "wooden", "verre", "glass", "inox", "acier",
			"steel", "métal", "metal", "coton", "cotton", "linen", "chanvre", "hemp", "jute", "silicone",
			"cire", "wax"),
		relevanceKeywords: []string{"bambou", "bamboo", "bois", "wood", "wooden", "verre", "glass", "inox", "acier",
			"steel", "métal", "metal", "coton", "cotton", "linen", "chanvre", "hemp", "jute", "silicone",
			"cire", "wax"},
		matchPoints: 6,
	},
	{
		intent: domain.IntentCleaning,
		patterns: compilePatterns(
			`(?:nettoyage|nettoyant|cleaning|cleaner|clean)`,
			`(?:lessive|laundry|détergent|detergent)s?`,
			`(?:chiffons?|cloths?|brosse vaisselle|dish ?brush)`,
			`(?:vinaigre|vinegar|bicarbonate|savon noir)`,
		),
		importantWords: wordSet("nettoyage", "nettoyant", "cleaning", "cleaner", "clean", "lessive", "laundry",
			"détergent", "detergent", "chiffon", "cloth", "vinaigre", "vinegar", "bicarbonate", "ménage",
			"household"),
		relevanceKeywords: []string{"nettoyage", "nettoyant", "nettoyer", "clean", "cleaning", "cleaner", "lessive", "laundry", "détergent", "detergent",
			"chiffon", "cloth", "vinaigre", "vinegar", "bicarbonate", "ménage", "entretien"},
		matchPoints: 8,
	},
}

// score sums pattern matches over the lowercased query and important words over its tokens
func (r intentRule) score(lowered string, tokens []string) int {
	score := 0
	for _, pattern := range r.patterns {
		score += countWordMatches(pattern, lowered) * patternMatchPoints
	}
	for _, token := range tokens {
		if r.importantWords[token] {
			score += importantWordPoints
		}
	}
	return score
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(wordStart + "(" + p + ")" + wordEnd)
	}
	return compiled
}

// countWordMatches counts non-overlapping matches of a compiled pattern. Each search
// resumes at the end of the matched word so its trailing separator can anchor the next one.
func countWordMatches(pattern *regexp.Regexp, text string) int {
	count := 0
	for offset := 0; offset < len(text); {
		loc := pattern.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			break
		}
		count++
		offset += loc[3]
	}
	return count
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// IntentClassifier maps a free-text query onto one of the fixed intent categories
type IntentClassifier struct {
	rules      []intentRule
	normalizer *Normalizer
	byIntent   map[domain.Intent]*intentRule
}

// NewIntentClassifier creates a classifier over the built-in decision table
func NewIntentClassifier() *IntentClassifier {
	c := &IntentClassifier{
		rules:      intentTable,
		normalizer: NewNormalizer(ProfileLightweight),
		byIntent:   make(map[domain.Intent]*intentRule, len(intentTable)),
	}
	for i := range c.rules {
		c.byIntent[c.rules[i].intent] = &c.rules[i]
	}
	return c
}

// Classify scores every category and returns the strictly highest one.
// Ties go to the first declared category; no match yields (none, 0).
func (c *IntentClassifier) Classify(query string) domain.IntentResult {
	lowered := strings.ToLower(query)
	tokens := uniqueTokens(c.normalizer.Normalize(query))

	best := domain.IntentResult{Intent: domain.IntentNone, Confidence: 0}
	for _, rule := range c.rules {
		score := rule.score(lowered, tokens)
		if score > best.Confidence {
			best = domain.IntentResult{Intent: rule.intent, Confidence: score}
		}
	}
	return best
}

// Scores returns every category's score, for diagnostics.
func (c *IntentClassifier) Scores(query string) map[domain.Intent]int {
	lowered := strings.ToLower(query)
	tokens := uniqueTokens(c.normalizer.Normalize(query))

	scores := make(map[domain.Intent]int, len(c.rules))
	for _, rule := range c.rules {
		scores[rule.intent] = rule.score(lowered, tokens)
	}
	return scores
}

// MatchesIntent reports whether the document carries at least one relevance keyword of intent.
// Unknown intents (including none) match everything.
func (c *IntentClassifier) MatchesIntent(intent domain.Intent, document string) bool {
	rule, ok := c.byIntent[intent]
	if !ok {
		return true
	}
	words := strings.Fields(keywordText(document))
	for _, kw := range rule.relevanceKeywords {
		if containsPhrase(words, strings.Fields(kw)) {
			return true
		}
	}
	return false
}

// containsPhrase reports whether phrase occurs as consecutive words, each word
// matching exactly or with a plural suffix.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for start := 0; start+len(phrase) <= len(words); start++ {
		matched := true
		for i, p := range phrase {
			if !matchesWord(words[start+i], p) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func matchesWord(word, keyword string) bool {
	if word == keyword {
		return true
	}
	suffix, ok := strings.CutPrefix(word, keyword)
	if !ok {
		return false
	}
	return suffix == "s" || suffix == "x" || suffix == "es"
}

// IntentPoints returns the intent-match signal value for a category, 0 for none.
func (c *IntentClassifier) IntentPoints(intent domain.Intent) int {
	if rule, ok := c.byIntent[intent]; ok {
		return rule.matchPoints
	}
	return 0
}

// keywordText lowercases and strips characters outside the alphabet, collapsing whitespace
// and splitting hyphenated words.
func keywordText(s string) string {
	cleaned := outsideAlphabetRegex.ReplaceAllString(strings.ToLower(s), " ")
	cleaned = strings.ReplaceAll(cleaned, "-", " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
