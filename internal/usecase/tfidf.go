package usecase

import (
	"math"
	"sort"
)

// TermVector maps a term to its tf-idf weight; absent terms weigh 0
type TermVector map[string]float64

// TfIdfIndex holds inverse document frequencies computed over one candidate set
type TfIdfIndex struct {
	idf       map[string]float64
	documents int
}

// BuildIndex computes idf over the documents and returns one vector per document,
// in input order. idf(term) = ln((N+1)/(df+1)) + 1, so every known term has positive weight.
// Documents without tokens map to an empty vector.
func BuildIndex(documents [][]string) (*TfIdfIndex, []TermVector) {
	n := len(documents)
	df := make(map[string]int)
	for _, tokens := range documents {
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log(float64(n+1)/float64(d+1)) + 1.0
	}

	index := &TfIdfIndex{idf: idf, documents: n}
	vectors := make([]TermVector, n)
	for i, tokens := range documents {
		vectors[i] = index.Vectorize(tokens)
	}
	return index, vectors
}

// IDF returns the inverse document frequency of term, or 0 for terms outside the index.
func (ix *TfIdfIndex) IDF(term string) float64 {
	return ix.idf[term]
}

// Len returns the number of documents the index was built from.
func (ix *TfIdfIndex) Len() int {
	return ix.documents
}

// Vectorize weights tokens against the index: (count/length) * idf.
// Terms unknown to the index carry no weight and are omitted.
func (ix *TfIdfIndex) Vectorize(tokens []string) TermVector {
	vec := TermVector{}
	if len(tokens) == 0 {
		return vec
	}

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	length := float64(len(tokens))
	for term, c := range counts {
		idf := ix.idf[term]
		if idf == 0 {
			continue
		}
		vec[term] = (float64(c) / length) * idf
	}
	return vec
}

// sortedTerms returns the vector's terms in lexical order so sums are reproducible
func (v TermVector) sortedTerms() []string {
	terms := make([]string, 0, len(v))
	for t := range v {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Norm returns the euclidean length of the vector.
func (v TermVector) Norm() float64 {
	sum := 0.0
	for _, t := range v.sortedTerms() {
		sum += v[t] * v[t]
	}
	return math.Sqrt(sum)
}
