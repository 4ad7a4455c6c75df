package index

import "math"

const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
)

// FieldIndex holds Okapi BM25 statistics for one field corpus. Statistics
// are computed once at build time; scoring is read-only and safe for
// concurrent callers.
type FieldIndex struct {
	termFreq []map[string]int
	docFreq  map[string]int
	docLen   []int
	avgLen   float64
	k1, b    float64
}

func NewFieldIndex(docs [][]string, k1, b float64) *FieldIndex {
	if k1 <= 0 {
		k1 = DefaultBM25K1
	}
	if b < 0 || b > 1 {
		b = DefaultBM25B
	}

	ix := &FieldIndex{
		termFreq: make([]map[string]int, len(docs)),
		docFreq:  make(map[string]int),
		docLen:   make([]int, len(docs)),
		k1:       k1,
		b:        b,
	}

	var totalLen int
	for i, tokens := range docs {
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for term := range tf {
			ix.docFreq[term]++
		}
		ix.termFreq[i] = tf
		ix.docLen[i] = len(tokens)
		totalLen += len(tokens)
	}
	if len(docs) > 0 {
		ix.avgLen = float64(totalLen) / float64(len(docs))
	}
	return ix
}

func (ix *FieldIndex) Len() int { return len(ix.termFreq) }

// Score computes the BM25 relevance of one document row for the query tokens.
func (ix *FieldIndex) Score(queryTokens []string, row int) float64 {
	if row < 0 || row >= len(ix.termFreq) || ix.avgLen == 0 {
		return 0
	}

	n := float64(len(ix.termFreq))
	lenNorm := 1 - ix.b + ix.b*float64(ix.docLen[row])/ix.avgLen

	var score float64
	for _, term := range queryTokens {
		tf := float64(ix.termFreq[row][term])
		if tf == 0 {
			continue
		}
		df := float64(ix.docFreq[term])
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		score += idf * tf * (ix.k1 + 1) / (tf + ix.k1*lenNorm)
	}
	return score
}

// Scores evaluates the query against a candidate subset only, in candidate
// order. The result slice is freshly allocated per call; there is no shared
// scratch state between requests.
func (ix *FieldIndex) Scores(queryTokens []string, candidates []int) []float64 {
	out := make([]float64, len(candidates))
	for i, row := range candidates {
		out[i] = ix.Score(queryTokens, row)
	}
	return out
}

// FieldWeights is the weighted-sum combination over the per-field BM25
// scores. Title is shortest and most descriptive, skill names are exact-ish
// domain terms, descriptions are long and noisy; hence the default ordering.
type FieldWeights struct {
	Title       float64
	Skills      float64
	Description float64
}

func DefaultFieldWeights() FieldWeights {
	return FieldWeights{Title: 3.0, Skills: 2.0, Description: 1.0}
}

// Lexical combines the three per-field BM25 indexes of the job corpus.
type Lexical struct {
	title       *FieldIndex
	skills      *FieldIndex
	description *FieldIndex
	weights     FieldWeights
}

func NewLexical(titleDocs, skillDocs, descDocs [][]string, k1, b float64, weights FieldWeights) *Lexical {
	return &Lexical{
		title:       NewFieldIndex(titleDocs, k1, b),
		skills:      NewFieldIndex(skillDocs, k1, b),
		description: NewFieldIndex(descDocs, k1, b),
		weights:     weights,
	}
}

func (l *Lexical) Len() int { return l.title.Len() }

// Scores returns the combined weighted score per candidate. Candidates must
// be row indexes into the corpus the index was built from.
func (l *Lexical) Scores(queryTokens []string, candidates []int) []float64 {
	out := make([]float64, len(candidates))
	for i, row := range candidates {
		out[i] = l.weights.Title*l.title.Score(queryTokens, row) +
			l.weights.Skills*l.skills.Score(queryTokens, row) +
			l.weights.Description*l.description.Score(queryTokens, row)
	}
	return out
}
