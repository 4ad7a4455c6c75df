package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

func hitsFrom(pattern []int) []bool {
	hits := make([]bool, len(pattern))
	for i, v := range pattern {
		hits[i] = v == 1
	}
	return hits
}

func TestPrecisionAtK(t *testing.T) {
	hits := hitsFrom([]int{1, 1, 0, 1, 0})
	if got := precisionAtK(hits, 5); got != 0.6 {
		t.Fatalf("P@5 = %v, want 0.6", got)
	}
	if got := precisionAtK(nil, 5); got != 0 {
		t.Fatalf("P@5 of empty retrieval = %v, want 0", got)
	}
	// Fewer retrieved than K still divides by K.
	short := hitsFrom([]int{1, 1})
	if got := precisionAtK(short, 10); got != 0.2 {
		t.Fatalf("P@10 with 2 hits = %v, want 0.2", got)
	}
}

func TestRecallAtK(t *testing.T) {
	hits := hitsFrom([]int{1, 0, 1, 0})
	if got := recallAtK(hits, 4); got != 0.5 {
		t.Fatalf("recall = %v, want 0.5", got)
	}
	if got := recallAtK(hits, 0); got != 0 {
		t.Fatalf("recall with no relevant docs = %v, want 0", got)
	}
}

func TestNDCGPerfectRankingIsOne(t *testing.T) {
	hits := hitsFrom([]int{1, 1, 1, 0, 0})
	if got := ndcgAtK(hits, 3, 5); math.Abs(got-1) > 1e-9 {
		t.Fatalf("perfect ranking NDCG = %v, want 1", got)
	}
}

func TestNDCGPenalizesLateHits(t *testing.T) {
	early := ndcgAtK(hitsFrom([]int{1, 0, 0, 0, 0}), 1, 5)
	late := ndcgAtK(hitsFrom([]int{0, 0, 0, 0, 1}), 1, 5)
	if early != 1 {
		t.Fatalf("single hit at rank 1 must be ideal, got %v", early)
	}
	if late >= early {
		t.Fatalf("late hit must score below early hit: %v vs %v", late, early)
	}
	if got := ndcgAtK(hitsFrom([]int{0, 0}), 0, 5); got != 0 {
		t.Fatalf("no relevant docs NDCG = %v, want 0", got)
	}
}

func TestReciprocalRank(t *testing.T) {
	if got := reciprocalRank(hitsFrom([]int{0, 0, 1, 0})); got != 1.0/3 {
		t.Fatalf("RR = %v, want 1/3", got)
	}
	if got := reciprocalRank(hitsFrom([]int{0, 0})); got != 0 {
		t.Fatalf("RR with no hits = %v, want 0", got)
	}
}

func TestAveragePrecisionWorkedExample(t *testing.T) {
	// Hits at ranks 1, 2, 4 and 7 out of 10:
	// AP = (1/1 + 2/2 + 3/4 + 4/7) / 4.
	hits := hitsFrom([]int{1, 1, 0, 1, 0, 0, 1, 0, 0, 0})
	want := (1.0 + 1.0 + 3.0/4 + 4.0/7) / 4
	if got := averagePrecision(hits); math.Abs(got-want) > 1e-9 {
		t.Fatalf("AP = %v, want %v", got, want)
	}

	if got := precisionAtK(hits[:5], 5); got != 0.6 {
		t.Fatalf("P@5 = %v, want 0.6", got)
	}
}

func TestAveragePrecisionIgnoresUnretrievedRelevant(t *testing.T) {
	// A single relevant doc at rank 1 gives a perfect AP even when other
	// relevant docs were never retrieved; missing them lowers recall, not AP.
	if got := averagePrecision(hitsFrom([]int{1, 0, 0})); got != 1 {
		t.Fatalf("AP with lone hit at rank 1 = %v, want 1", got)
	}

	// Hits at ranks 1 and 3: AP = (1/1 + 2/3) / 2 regardless of how many
	// relevant docs exist beyond the retrieved list.
	want := (1.0 + 2.0/3) / 2
	if got := averagePrecision(hitsFrom([]int{1, 0, 1, 0})); math.Abs(got-want) > 1e-9 {
		t.Fatalf("AP = %v, want %v", got, want)
	}

	if got := averagePrecision(hitsFrom([]int{0, 0, 0})); got != 0 {
		t.Fatalf("AP with no hits = %v, want 0", got)
	}
}

type fixedSearcher struct {
	resultsByQuery map[string][]int64
}

func (s *fixedSearcher) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	if req.EnableFallback {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fixed searcher", context.Canceled)
	}
	ids := s.resultsByQuery[req.Query]
	result := &domain.SearchResult{Query: req.Query, Strategy: domain.StrategyExactMatch}
	for i, id := range ids {
		result.Results = append(result.Results, domain.RankedJob{Rank: i + 1, Job: domain.Job{ID: id}})
	}
	return result, nil
}

func (s *fixedSearcher) SimilarJobs(ctx context.Context, jobID int64, topK int) (*domain.SearchResult, error) {
	return &domain.SearchResult{}, nil
}

func TestEvaluatorAggregatesMeans(t *testing.T) {
	searcher := &fixedSearcher{resultsByQuery: map[string][]int64{
		"perfect": {1, 2},
		"miss":    {8, 9},
	}}
	eval := NewEvaluator(searcher)

	report, err := eval.Evaluate(context.Background(), []JudgedQuery{
		{Name: "perfect", Query: "perfect", RelevantIDs: []int64{1, 2}},
		{Name: "miss", Query: "miss", RelevantIDs: []int64{1, 2}},
	}, 2, domain.MethodHybrid)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(report.PerQuery) != 2 {
		t.Fatalf("expected 2 per-query rows, got %d", len(report.PerQuery))
	}
	if report.PerQuery[0].Precision != 1 || report.PerQuery[1].Precision != 0 {
		t.Fatalf("per-query precision wrong: %+v", report.PerQuery)
	}
	if report.MeanPrecision != 0.5 {
		t.Fatalf("mean precision = %v, want 0.5", report.MeanPrecision)
	}
	if report.MeanNDCG != 0.5 || report.MeanMRR != 0.5 || report.MAP != 0.5 {
		t.Fatalf("means wrong: %+v", report)
	}
	if report.MeanRecall != 0.5 {
		t.Fatalf("mean recall = %v, want 0.5", report.MeanRecall)
	}
}

func TestEvaluatorRejectsEmptyQuerySet(t *testing.T) {
	eval := NewEvaluator(&fixedSearcher{})
	if _, err := eval.Evaluate(context.Background(), nil, 5, domain.MethodHybrid); err == nil {
		t.Fatalf("expected error for empty judgment set")
	}
}
