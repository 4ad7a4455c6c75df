package index

import (
	"fmt"
	"math"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

// Flat is an exact-scan vector index. Rows are L2-normalized at insert so
// cosine similarity reduces to an inner product. For corpora in the low
// hundreds of thousands an exact scan over a filtered candidate set is
// cheaper and simpler than an ANN structure.
type Flat struct {
	dim  int
	rows [][]float32
}

func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

func (f *Flat) Dim() int { return f.dim }
func (f *Flat) Len() int { return len(f.rows) }

// Row returns the stored, already normalized vector for a corpus row, or nil
// when out of range.
func (f *Flat) Row(i int) []float32 {
	if i < 0 || i >= len(f.rows) {
		return nil
	}
	return f.rows[i]
}

// Add appends one vector per call, normalized in place. Row order must match
// corpus row order.
func (f *Flat) Add(vec []float32) error {
	if len(vec) != f.dim {
		return domain.WrapError(domain.ErrInvalidInput, "index.Flat.Add",
			fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vec), f.dim))
	}
	f.rows = append(f.rows, normalizeL2(vec))
	return nil
}

// AddBatch appends vectors in order, failing fast on the first bad row.
func (f *Flat) AddBatch(vecs [][]float32) error {
	for _, vec := range vecs {
		if err := f.Add(vec); err != nil {
			return err
		}
	}
	return nil
}

// Scores computes cosine similarity of the query against each candidate row,
// clamped to [0, 1] so downstream blending never sees negative mass.
func (f *Flat) Scores(query []float32, candidates []int) []float64 {
	q := normalizeL2(query)
	out := make([]float64, len(candidates))
	for i, row := range candidates {
		if row < 0 || row >= len(f.rows) || len(q) != f.dim {
			continue
		}
		var dot float64
		for j, v := range f.rows[row] {
			dot += float64(v) * float64(q[j])
		}
		if dot > 0 {
			out[i] = math.Min(dot, 1)
		}
	}
	return out
}

func normalizeL2(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
