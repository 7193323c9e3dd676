package usecase

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
	snowballeng "github.com/kljensen/snowball/english"
	snowballfr "github.com/kljensen/snowball/french"
)

// Profile selects the normalization pipeline
type Profile string

const (
	// ProfileLightweight applies only the length and stop-word filters
	ProfileLightweight Profile = "lightweight"
	// ProfileLinguistic keeps nouns and adjectives and reduces them to their stem
	ProfileLinguistic Profile = "linguistic"
)

// Valid reports whether p is a known profile.
func (p Profile) Valid() bool {
	return p == ProfileLightweight || p == ProfileLinguistic
}

// Package-level compiled regex patterns for performance
var (
	// characters outside the alphabet (letters, accented letters, digits, hyphen, whitespace)
	outsideAlphabetRegex = regexp.MustCompile(`[^a-z0-9à-öø-ÿ\s-]`)
	// the linguistic profile also drops digits before tagging
	nonLetterRegex = regexp.MustCompile(`[^a-zà-öø-ÿ\s-]`)
	tokenRegex     = regexp.MustCompile(`[a-z0-9à-öø-ÿ]+`)
	accentRegex    = regexp.MustCompile(`[à-öø-ÿ]`)
)

const minTokenLength = 3

// nounAdjectiveTags are the Penn Treebank tags kept by the linguistic profile
var nounAdjectiveTags = map[string]bool{
	"NN": true, "NNS": true, "NNP": true, "NNPS": true,
	"JJ": true, "JJR": true, "JJS": true,
}

// stopWords holds English stop words plus French function words, since queries may be bilingual
var stopWords = map[string]bool{
	// English
	"i": true, "me": true, "my": true, "myself": true, "we": true, "our": true, "ours": true,
	"ourselves": true, "you": true, "your": true, "yours": true, "yourself": true,
	"yourselves": true, "he": true, "him": true, "his": true, "himself": true, "she": true,
	"her": true, "hers": true, "herself": true, "it": true, "its": true, "itself": true,
	"they": true, "them": true, "their": true, "theirs": true, "themselves": true,
	"what": true, "which": true, "who": true, "whom": true, "this": true, "that": true,
	"these": true, "those": true, "am": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "having": true, "do": true, "does": true, "did": true, "doing": true,
	"a": true, "an": true, "the": true, "and": true, "but": true, "if": true, "or": true,
	"because": true, "as": true, "until": true, "while": true, "of": true, "at": true,
	"by": true, "for": true, "with": true, "about": true, "against": true, "between": true,
	"into": true, "through": true, "during": true, "before": true, "after": true,
	"above": true, "below": true, "to": true, "from": true, "up": true, "down": true,
	"in": true, "out": true, "on": true, "off": true, "over": true, "under": true,
	"again": true, "further": true, "then": true, "once": true, "here": true, "there": true,
	"when": true, "where": true, "why": true, "how": true, "all": true, "any": true,
	"both": true, "each": true, "few": true, "more": true, "most": true, "other": true,
	"some": true, "such": true, "no": true, "nor": true, "not": true, "only": true,
	"own": true, "same": true, "so": true, "than": true, "too": true, "very": true,
	"can": true, "will": true, "just": true, "don": true, "should": true, "now": true,
	"aren": true, "couldn": true, "didn": true, "doesn": true, "hadn": true, "hasn": true,
	"haven": true, "isn": true, "mightn": true, "mustn": true, "needn": true, "shan": true,
	"shouldn": true, "wasn": true, "weren": true, "won": true, "wouldn": true,
	// French
	"les": true, "des": true, "pour": true, "avec": true, "dans": true, "sur": true,
	"une": true, "un": true, "le": true, "la": true, "de": true, "du": true, "et": true,
	"ou": true, "au": true, "aux": true, "en": true, "plus": true, "eco": true,
	"écologique": true,
}

// IsStopWord reports whether the token is filtered as a stop word.
func IsStopWord(token string) bool {
	return stopWords[token]
}

// Normalizer turns raw text into a normalized token sequence
type Normalizer struct {
	profile Profile
}

// NewNormalizer creates a normalizer for the given profile; unknown profiles fall back to lightweight
func NewNormalizer(profile Profile) *Normalizer {
	if !profile.Valid() {
		profile = ProfileLightweight
	}
	return &Normalizer{profile: profile}
}

// Profile returns the pipeline this normalizer applies.
func (n *Normalizer) Profile() Profile {
	return n.profile
}

// Normalize lowercases, strips characters outside the alphabet, splits into tokens and
// drops short tokens and stop words. The linguistic profile additionally keeps only
// nouns and adjectives and stems them. Empty input yields an empty sequence.
func (n *Normalizer) Normalize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	if n.profile == ProfileLinguistic {
		return linguisticTokens(text)
	}
	return lightweightTokens(text)
}

// lightweightTokens applies only the alphabet, length and stop-word filters
func lightweightTokens(text string) []string {
	cleaned := outsideAlphabetRegex.ReplaceAllString(strings.ToLower(text), " ")
	words := tokenRegex.FindAllString(cleaned, -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if keepToken(word) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// linguisticTokens tags parts of speech and keeps stemmed nouns and adjectives
func linguisticTokens(text string) []string {
	cleaned := nonLetterRegex.ReplaceAllString(strings.ToLower(text), " ")
	if strings.TrimSpace(cleaned) == "" {
		return []string{}
	}

	opts := []prose.DocOpt{prose.WithSegmentation(false), prose.WithExtraction(false)}
	if model := taggerModel(); model != nil {
		opts = append(opts, prose.UsingModel(model))
	}
	doc, err := prose.NewDocument(cleaned, opts...)
	if err != nil {
		// tagging failed; degrade to the lightweight filters plus stemming
		return stemAll(lightweightTokens(cleaned))
	}

	tokens := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		if !nounAdjectiveTags[tok.Tag] {
			continue
		}
		// the tagger keeps hyphenated words whole; split them like the lightweight profile
		for _, word := range tokenRegex.FindAllString(tok.Text, -1) {
			if keepToken(word) {
				tokens = append(tokens, stem(word))
			}
		}
	}
	return tokens
}

var (
	taggerOnce  sync.Once
	taggerCache *prose.Model
)

// taggerModel loads prose's part-of-speech model on first use and shares it afterwards.
// NewDocument otherwise decodes the model from scratch on every call.
func taggerModel() *prose.Model {
	taggerOnce.Do(func() {
		doc, err := prose.NewDocument("warm up",
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err == nil {
			taggerCache = doc.Model
		}
	})
	return taggerCache
}

func keepToken(word string) bool {
	return utf8.RuneCountInString(word) >= minTokenLength && !stopWords[word]
}

func stemAll(tokens []string) []string {
	for i, t := range tokens {
		tokens[i] = stem(t)
	}
	return tokens
}

// stem reduces a token to its base form; accented tokens use the French stemmer
func stem(token string) string {
	if accentRegex.MatchString(token) {
		return snowballfr.Stem(token, false)
	}
	return snowballeng.Stem(token, false)
}
