package domain

import (
	"fmt"
	"strings"
)

type SearchMethod string

const (
	MethodLexical SearchMethod = "lexical"
	MethodDense   SearchMethod = "dense"
	MethodHybrid  SearchMethod = "hybrid"
)

func ParseSearchMethod(s string) (SearchMethod, error) {
	switch SearchMethod(strings.ToLower(strings.TrimSpace(s))) {
	case MethodLexical:
		return MethodLexical, nil
	case MethodDense:
		return MethodDense, nil
	case MethodHybrid, "":
		return MethodHybrid, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse search method", fmt.Errorf("unknown method %q", s))
	}
}

// SearchStrategy tags a result set with the relaxation state that produced
// it, so callers can surface "relaxed because ..." messaging.
type SearchStrategy string

const (
	StrategyExactMatch   SearchStrategy = "exact_match"
	StrategyNoSalary     SearchStrategy = "no_salary"
	StrategyNoExperience SearchStrategy = "no_experience"
	StrategyNoRemote     SearchStrategy = "no_remote"
	StrategyNoLocation   SearchStrategy = "no_location"
	StrategyQueryOnly    SearchStrategy = "query_only"
	StrategyPopular      SearchStrategy = "popular"
)

type SearchRequest struct {
	Query          string       `json:"query"`
	TopK           int          `json:"top_k"`
	Method         SearchMethod `json:"method"`
	Filters        Filters      `json:"filters"`
	EnableFallback bool         `json:"enable_fallback"`
}

// ScoreBreakdown carries the raw and normalized components behind a final
// score. Raw scores are per-method (BM25 is unbounded, cosine is not) and
// only comparable after normalization.
type ScoreBreakdown struct {
	Lexical     float64 `json:"lexical"`
	LexicalNorm float64 `json:"lexical_norm"`
	Vector      float64 `json:"vector"`
	VectorNorm  float64 `json:"vector_norm"`
	Final       float64 `json:"final"`
}

type RankedJob struct {
	Rank       int            `json:"rank"`
	Job        Job            `json:"job"`
	Skills     []string       `json:"skills,omitempty"`
	Industries []string       `json:"industries,omitempty"`
	Scores     ScoreBreakdown `json:"scores"`
}

type SearchResult struct {
	Query    string         `json:"query"`
	Method   SearchMethod   `json:"method"`
	Strategy SearchStrategy `json:"search_strategy"`
	Results  []RankedJob    `json:"results"`
}
