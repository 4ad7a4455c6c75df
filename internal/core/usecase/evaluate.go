package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/ports"
)

// JudgedQuery pairs a query with the posting ids a human (or offline
// heuristic) marked relevant.
type JudgedQuery struct {
	Name        string         `yaml:"name" json:"name"`
	Query       string         `yaml:"query" json:"query"`
	Filters     domain.Filters `yaml:"filters" json:"filters"`
	RelevantIDs []int64        `yaml:"relevant_ids" json:"relevant_ids"`
}

type QueryMetrics struct {
	Name      string  `json:"name"`
	Query     string  `json:"query"`
	Retrieved int     `json:"retrieved"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	NDCG      float64 `json:"ndcg"`
	MRR       float64 `json:"mrr"`
	AP        float64 `json:"ap"`
}

type EvalReport struct {
	K             int                 `json:"k"`
	Method        domain.SearchMethod `json:"method"`
	PerQuery      []QueryMetrics      `json:"per_query"`
	MeanPrecision float64             `json:"mean_precision"`
	MeanRecall    float64             `json:"mean_recall"`
	MeanNDCG      float64             `json:"mean_ndcg"`
	MeanMRR       float64             `json:"mean_mrr"`
	MAP           float64             `json:"map"`
}

// Evaluator runs judged queries through a searcher and aggregates rank
// quality metrics. Fallback is disabled during evaluation so metrics measure
// the ranking itself, not the relaxation ladder.
type Evaluator struct {
	searcher ports.JobSearcher
}

func NewEvaluator(searcher ports.JobSearcher) *Evaluator {
	return &Evaluator{searcher: searcher}
}

func (e *Evaluator) Evaluate(ctx context.Context, queries []JudgedQuery, k int, method domain.SearchMethod) (*EvalReport, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(queries) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate", fmt.Errorf("no judged queries"))
	}

	report := &EvalReport{K: k, Method: method, PerQuery: make([]QueryMetrics, 0, len(queries))}
	for _, q := range queries {
		result, err := e.searcher.Search(ctx, domain.SearchRequest{
			Query:          q.Query,
			TopK:           k,
			Method:         method,
			Filters:        q.Filters,
			EnableFallback: false,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate query %q: %w", q.Query, err)
		}

		retrieved := make([]int64, len(result.Results))
		for i, r := range result.Results {
			retrieved[i] = r.Job.ID
		}

		m := scoreQuery(q, retrieved, k)
		report.PerQuery = append(report.PerQuery, m)
		report.MeanPrecision += m.Precision
		report.MeanRecall += m.Recall
		report.MeanNDCG += m.NDCG
		report.MeanMRR += m.MRR
		report.MAP += m.AP
	}

	n := float64(len(report.PerQuery))
	report.MeanPrecision /= n
	report.MeanRecall /= n
	report.MeanNDCG /= n
	report.MeanMRR /= n
	report.MAP /= n
	return report, nil
}

func scoreQuery(q JudgedQuery, retrieved []int64, k int) QueryMetrics {
	relevant := make(map[int64]struct{}, len(q.RelevantIDs))
	for _, id := range q.RelevantIDs {
		relevant[id] = struct{}{}
	}

	if len(retrieved) > k {
		retrieved = retrieved[:k]
	}
	hits := make([]bool, len(retrieved))
	for i, id := range retrieved {
		_, hits[i] = relevant[id]
	}

	return QueryMetrics{
		Name:      q.Name,
		Query:     q.Query,
		Retrieved: len(retrieved),
		Precision: precisionAtK(hits, k),
		Recall:    recallAtK(hits, len(relevant)),
		NDCG:      ndcgAtK(hits, len(relevant), k),
		MRR:       reciprocalRank(hits),
		AP:        averagePrecision(hits),
	}
}

// precisionAtK divides by K, not by the retrieved count: returning fewer
// results than asked for is itself a ranking deficiency.
func precisionAtK(hits []bool, k int) float64 {
	if k == 0 || len(hits) == 0 {
		return 0
	}
	var n int
	for _, hit := range hits {
		if hit {
			n++
		}
	}
	return float64(n) / float64(k)
}

func recallAtK(hits []bool, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	var n int
	for _, hit := range hits {
		if hit {
			n++
		}
	}
	return float64(n) / float64(totalRelevant)
}

func ndcgAtK(hits []bool, totalRelevant, k int) float64 {
	var dcg float64
	for i, hit := range hits {
		if hit {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}

	ideal := totalRelevant
	if ideal > k {
		ideal = k
	}
	var idcg float64
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i)+2)
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func reciprocalRank(hits []bool) float64 {
	for i, hit := range hits {
		if hit {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// averagePrecision is the mean of precision@i over every rank i at which a
// relevant document appears in the retrieved list. Relevant documents that
// were never retrieved do not enter the mean; they are recall's concern.
func averagePrecision(hits []bool) float64 {
	var sum float64
	var seen int
	for i, hit := range hits {
		if hit {
			seen++
			sum += float64(seen) / float64(i+1)
		}
	}
	if seen == 0 {
		return 0
	}
	return sum / float64(seen)
}
