package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

const (
	// DefaultHybridAlpha is the lexical share of the blended score.
	DefaultHybridAlpha = 0.7

	popularityRecencyHalfLife = 30 * 24 * time.Hour
)

// minMaxNormalize rescales scores to [0, 1] within one candidate set. Raw
// BM25 and cosine live on incompatible scales; blending is only meaningful
// after both are normalized over the same candidates. A degenerate set where
// every score is equal maps to all ones when there is any signal at all,
// otherwise to zeros.
func minMaxNormalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	span := hi - lo
	if span == 0 {
		if hi > 0 {
			for i := range out {
				out[i] = 1
			}
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	return out
}

func blendScores(method domain.SearchMethod, alpha, lexNorm, vecNorm float64) float64 {
	switch method {
	case domain.MethodLexical:
		return lexNorm
	case domain.MethodDense:
		return vecNorm
	default:
		return alpha*lexNorm + (1-alpha)*vecNorm
	}
}

type scoredRow struct {
	row    int
	scores domain.ScoreBreakdown
}

// sortScoredRows orders by final score descending, job id ascending on ties
// so identical corpora always produce identical rankings.
func sortScoredRows(corpus *domain.Corpus, rows []scoredRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].scores.Final != rows[j].scores.Final {
			return rows[i].scores.Final > rows[j].scores.Final
		}
		return corpus.Job(rows[i].row).ID < corpus.Job(rows[j].row).ID
	})
}

// popularityScores ranks candidates without any query signal: engagement
// volume weighted ahead of freshness, normalized within the candidate set.
func popularityScores(corpus *domain.Corpus, candidates []int, now time.Time) []float64 {
	var maxViews, maxApplies float64
	for _, row := range candidates {
		job := corpus.Job(row)
		if v := float64(job.Views); v > maxViews {
			maxViews = v
		}
		if a := float64(job.Applies); a > maxApplies {
			maxApplies = a
		}
	}

	out := make([]float64, len(candidates))
	for i, row := range candidates {
		job := corpus.Job(row)
		var views, applies float64
		if maxViews > 0 {
			views = float64(job.Views) / maxViews
		}
		if maxApplies > 0 {
			applies = float64(job.Applies) / maxApplies
		}
		out[i] = 0.5*views + 0.3*recencyDecay(job.ListedAt, now) + 0.2*applies
	}
	return out
}

func recencyDecay(listedAt time.Time, now time.Time) float64 {
	if listedAt.IsZero() || !listedAt.Before(now) {
		return 1
	}
	age := now.Sub(listedAt)
	return math.Pow(0.5, float64(age)/float64(popularityRecencyHalfLife))
}
