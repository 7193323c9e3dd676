package usecase

import (
	"math"
	"testing"
)

func TestBuildIndex(t *testing.T) {
	docs := [][]string{
		{"gourde", "inox"},
		{"gourde", "verre"},
		{"savon"},
		{},
	}
	index, vectors := BuildIndex(docs)

	t.Run("computes smoothed idf", func(t *testing.T) {
		// N=4: gourde df=2, savon df=1
		if got, want := index.IDF("gourde"), math.Log(5.0/3.0)+1; math.Abs(got-want) > 1e-12 {
			t.Errorf("idf(gourde) = %v, want %v", got, want)
		}
		if got, want := index.IDF("savon"), math.Log(5.0/2.0)+1; math.Abs(got-want) > 1e-12 {
			t.Errorf("idf(savon) = %v, want %v", got, want)
		}
		if got := index.IDF("unknown"); got != 0 {
			t.Errorf("idf(unknown) = %v, want 0", got)
		}
		if index.Len() != 4 {
			t.Errorf("Len = %d, want 4", index.Len())
		}
	})

	t.Run("returns one vector per document", func(t *testing.T) {
		if len(vectors) != 4 {
			t.Fatalf("len = %d, want 4", len(vectors))
		}
		if len(vectors[3]) != 0 {
			t.Errorf("empty document vector = %v, want empty", vectors[3])
		}
		want := 0.5 * index.IDF("inox")
		if math.Abs(vectors[0]["inox"]-want) > 1e-12 {
			t.Errorf("tfidf(inox) = %v, want %v", vectors[0]["inox"], want)
		}
	})

	t.Run("vectorize ignores unknown terms", func(t *testing.T) {
		vec := index.Vectorize([]string{"gourde", "bambou"})
		if _, ok := vec["bambou"]; ok {
			t.Error("unknown term present in vector")
		}
		if math.Abs(vec["gourde"]-0.5*index.IDF("gourde")) > 1e-12 {
			t.Errorf("tfidf(gourde) = %v", vec["gourde"])
		}
	})

	t.Run("empty corpus", func(t *testing.T) {
		index, vectors := BuildIndex(nil)
		if index.Len() != 0 || len(vectors) != 0 {
			t.Errorf("Len/vectors = %d/%d, want 0/0", index.Len(), len(vectors))
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	testCases := []struct {
		name string
		a    TermVector
		b    TermVector
		want float64
	}{
		{"identical vectors", TermVector{"a": 1, "b": 2}, TermVector{"a": 1, "b": 2}, 1},
		{"scaled vectors", TermVector{"a": 1, "b": 2}, TermVector{"a": 3, "b": 6}, 1},
		{"orthogonal vectors", TermVector{"a": 1}, TermVector{"b": 1}, 0},
		{"partial overlap", TermVector{"a": 1, "b": 1}, TermVector{"a": 1}, 1 / math.Sqrt2},
		{"empty vector", TermVector{}, TermVector{"a": 1}, 0},
		{"zero norm", TermVector{"a": 0}, TermVector{"a": 1}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tc.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("CosineSimilarity = %v out of [0,1]", got)
			}
		})
	}

	t.Run("is symmetric", func(t *testing.T) {
		a := TermVector{"gourde": 0.7, "inox": 0.3, "verre": 0.1}
		b := TermVector{"gourde": 0.2, "verre": 0.9}
		if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
			t.Error("cosine is not symmetric")
		}
	})
}
