package index

import (
	"context"
	"math"
	"sort"
	"strings"
)

const (
	DefaultTFIDFMaxFeatures = 5000
	DefaultTFIDFMaxNGram    = 2
)

// TFIDF is a fitted vectorizer producing L2-normalized document vectors over
// the top-N corpus n-grams. It implements the same Embed contract as the
// remote encoder so the builder can treat both uniformly.
type TFIDF struct {
	vocab    map[string]int
	idf      []float64
	maxNGram int
}

// FitTFIDF learns the vocabulary and inverse document frequencies from the
// corpus texts. Vocabulary is the maxFeatures most frequent n-grams, ties
// broken lexicographically so fits are reproducible.
func FitTFIDF(texts []string, maxFeatures, maxNGram int) *TFIDF {
	if maxFeatures <= 0 {
		maxFeatures = DefaultTFIDFMaxFeatures
	}
	if maxNGram <= 0 {
		maxNGram = DefaultTFIDFMaxNGram
	}

	df := make(map[string]int)
	totalFreq := make(map[string]int)
	for _, text := range texts {
		grams := ngrams(Tokenize(text), maxNGram)
		seen := make(map[string]struct{}, len(grams))
		for _, g := range grams {
			totalFreq[g]++
			seen[g] = struct{}{}
		}
		for g := range seen {
			df[g]++
		}
	}

	terms := make([]string, 0, len(totalFreq))
	for term := range totalFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totalFreq[terms[i]] != totalFreq[terms[j]] {
			return totalFreq[terms[i]] > totalFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	t := &TFIDF{
		vocab:    make(map[string]int, len(terms)),
		idf:      make([]float64, len(terms)),
		maxNGram: maxNGram,
	}
	n := float64(len(texts))
	for i, term := range terms {
		t.vocab[term] = i
		t.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return t
}

func (t *TFIDF) Dim() int { return len(t.vocab) }

// Embed vectorizes a batch of texts. The context parameter keeps the
// signature aligned with the remote encoder; the local path never blocks.
func (t *TFIDF) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = t.vectorize(text)
	}
	return out, nil
}

func (t *TFIDF) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := t.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (t *TFIDF) vectorize(text string) []float32 {
	vec := make([]float32, len(t.vocab))
	for _, g := range ngrams(Tokenize(text), t.maxNGram) {
		if idx, ok := t.vocab[g]; ok {
			vec[idx]++
		}
	}
	var sum float64
	for i := range vec {
		v := float64(vec[i]) * t.idf[i]
		vec[i] = float32(v)
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// ngrams expands a token slice into all 1..maxN contiguous n-grams, joined
// with a single space.
func ngrams(tokens []string, maxN int) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
