package usecase

// CosineSimilarity returns dot(a,b)/(|a|*|b|) in [0,1].
// Empty vectors or zero norms yield 0.
func CosineSimilarity(a, b TermVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	dot := 0.0
	for _, t := range a.sortedTerms() {
		dot += a[t] * b[t]
	}

	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0.0
	}

	sim := dot / (na * nb)
	// rounding can push identical vectors a hair above 1
	if sim > 1 {
		return 1.0
	}
	if sim < 0 {
		return 0.0
	}
	return sim
}
