package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/index"
	"github.com/kirillkom/jobmatch/internal/core/ports"
)

const (
	DefaultTopK = 10
	// MaxTopK caps the page size server-side. A larger top_k is clamped to
	// the first MaxTopK rows rather than rejected.
	MaxTopK = 100
)

type SearchConfig struct {
	HybridAlpha            float64
	PopularFallbackEnabled bool
	CacheTTL               time.Duration
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		HybridAlpha:            DefaultHybridAlpha,
		PopularFallbackEnabled: true,
		CacheTTL:               5 * time.Minute,
	}
}

// SearchUseCase serves queries against the current SearchIndex snapshot. The
// snapshot pointer is swapped atomically on rebuild; requests read it once
// and never observe a half-updated index.
type SearchUseCase struct {
	handle atomic.Pointer[SearchIndex]
	cache  ports.ResultCache
	cfg    SearchConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewSearchUseCase(cache ports.ResultCache, cfg SearchConfig, logger *slog.Logger) *SearchUseCase {
	if cfg.HybridAlpha <= 0 || cfg.HybridAlpha > 1 {
		cfg.HybridAlpha = DefaultHybridAlpha
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Swap publishes a freshly built snapshot.
func (uc *SearchUseCase) Swap(ix *SearchIndex) {
	uc.handle.Store(ix)
	uc.logger.Info("search index swapped",
		slog.String("version", ix.Version),
		slog.Int("jobs", ix.Corpus.Len()),
	)
}

// IndexVersion reports the active snapshot version, empty before first build.
func (uc *SearchUseCase) IndexVersion() string {
	if ix := uc.handle.Load(); ix != nil {
		return ix.Version
	}
	return ""
}

// CorpusStats reports the size of the active corpus and how many postings
// were excluded at load time, both zero before the first build.
func (uc *SearchUseCase) CorpusStats() (jobs, dropped int) {
	ix := uc.handle.Load()
	if ix == nil || ix.Corpus == nil {
		return 0, 0
	}
	return ix.Corpus.Len(), ix.Corpus.DroppedJobs()
}

func (uc *SearchUseCase) snapshot() (*SearchIndex, error) {
	ix := uc.handle.Load()
	if ix == nil {
		return nil, domain.WrapError(domain.ErrIndexNotReady, "search", fmt.Errorf("no index snapshot published"))
	}
	return ix, nil
}

func (uc *SearchUseCase) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	ix, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK > MaxTopK {
		req.TopK = MaxTopK
	}
	method, err := domain.ParseSearchMethod(string(req.Method))
	if err != nil {
		return nil, err
	}
	req.Method = method
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}
	if method == domain.MethodDense && ix.Vectors == nil {
		return nil, domain.WrapError(domain.ErrIndexNotReady, "search", fmt.Errorf("dense index not built"))
	}

	key := cacheKey(ix.Version, req)
	if uc.cache != nil {
		if cached, ok, cerr := uc.cache.Get(ctx, key); cerr == nil && ok {
			return cached, nil
		} else if cerr != nil {
			uc.logger.Warn("result cache read failed", slog.String("error", cerr.Error()))
		}
	}

	result, err := uc.runFallbackPlan(ctx, ix, req)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if cerr := uc.cache.Set(ctx, key, result, uc.cfg.CacheTTL); cerr != nil {
			uc.logger.Warn("result cache write failed", slog.String("error", cerr.Error()))
		}
	}
	return result, nil
}

// runFallbackPlan walks the relaxation ladder. A stage that fills top-k wins
// outright; otherwise the loosest non-empty stage is kept, since each later
// stage scores a superset of the previous candidates.
func (uc *SearchUseCase) runFallbackPlan(ctx context.Context, ix *SearchIndex, req domain.SearchRequest) (*domain.SearchResult, error) {
	plan := fallbackPlan(req.Filters, req.EnableFallback, uc.cfg.PopularFallbackEnabled)

	result := &domain.SearchResult{
		Query:    req.Query,
		Method:   req.Method,
		Strategy: domain.StrategyExactMatch,
		Results:  []domain.RankedJob{},
	}

	// An empty query never walks the ladder: relaxing would discard the only
	// constraints the caller gave. With fallback enabled the filter survivors
	// are ranked by popularity; a strict request gets an empty result.
	if len(index.Tokenize(req.Query)) == 0 {
		if req.EnableFallback {
			candidates := ix.Corpus.FilterCandidates(req.Filters)
			result.Results = uc.rankPopular(ix, candidates, req.TopK)
		}
		return result, nil
	}

	for _, stage := range plan {
		var (
			ranked []domain.RankedJob
			err    error
		)
		if stage.popular {
			// Popularity is a last resort for a fully empty ladder, never a
			// replacement for a short but relevant result set.
			if len(result.Results) > 0 {
				break
			}
			ranked = uc.rankPopular(ix, allRows(ix.Corpus), req.TopK)
		} else {
			candidates := ix.Corpus.FilterCandidates(stage.filters)
			if len(candidates) == 0 {
				continue
			}
			ranked, err = uc.rankCandidates(ctx, ix, req, candidates)
			if err != nil {
				return nil, err
			}
		}
		if len(ranked) == 0 {
			continue
		}

		result.Strategy = stage.strategy
		result.Results = ranked
		if len(ranked) >= req.TopK {
			break
		}
	}
	return result, nil
}

// rankCandidates scores every candidate row, so pre-filtering never costs
// recall: there is no oversampled global top-N that a filter could empty out.
func (uc *SearchUseCase) rankCandidates(ctx context.Context, ix *SearchIndex, req domain.SearchRequest, candidates []int) ([]domain.RankedJob, error) {
	tokens := index.Tokenize(req.Query)
	if len(tokens) == 0 {
		return nil, nil
	}

	lexScores := ix.Lexical.Scores(tokens, candidates)
	lexNorm := minMaxNormalize(lexScores)

	method := req.Method
	vecScores := make([]float64, len(candidates))
	vecNorm := make([]float64, len(candidates))
	if method != domain.MethodLexical {
		if ix.Vectors == nil || ix.Encoder == nil {
			// Hybrid degrades to lexical when no dense index was built;
			// a pure dense request was already rejected up front.
			method = domain.MethodLexical
		} else {
			queryVec, err := ix.Encoder.EmbedQuery(ctx, req.Query)
			if err != nil {
				return nil, fmt.Errorf("embed query: %w", err)
			}
			vecScores = ix.Vectors.Scores(queryVec, candidates)
			vecNorm = minMaxNormalize(vecScores)
		}
	}

	rows := make([]scoredRow, 0, len(candidates))
	for i, row := range candidates {
		// A candidate with no raw signal on any channel does not match the
		// query at all; it must not pad the page.
		if lexScores[i] == 0 && vecScores[i] == 0 {
			continue
		}
		rows = append(rows, scoredRow{
			row: row,
			scores: domain.ScoreBreakdown{
				Lexical:     lexScores[i],
				LexicalNorm: lexNorm[i],
				Vector:      vecScores[i],
				VectorNorm:  vecNorm[i],
				Final:       blendScores(method, uc.cfg.HybridAlpha, lexNorm[i], vecNorm[i]),
			},
		})
	}
	sortScoredRows(ix.Corpus, rows)
	return uc.materialize(ix, rows, req.TopK), nil
}

func (uc *SearchUseCase) rankPopular(ix *SearchIndex, candidates []int, topK int) []domain.RankedJob {
	scores := popularityScores(ix.Corpus, candidates, uc.now())
	rows := make([]scoredRow, len(candidates))
	for i, row := range candidates {
		rows[i] = scoredRow{row: row, scores: domain.ScoreBreakdown{Final: scores[i]}}
	}
	sortScoredRows(ix.Corpus, rows)
	return uc.materialize(ix, rows, topK)
}

func (uc *SearchUseCase) materialize(ix *SearchIndex, rows []scoredRow, topK int) []domain.RankedJob {
	if len(rows) > topK {
		rows = rows[:topK]
	}
	out := make([]domain.RankedJob, len(rows))
	for i, r := range rows {
		out[i] = domain.RankedJob{
			Rank:       i + 1,
			Job:        ix.Corpus.Job(r.row),
			Skills:     ix.Corpus.SkillNames(r.row),
			Industries: ix.Corpus.IndustryNames(r.row),
			Scores:     r.scores,
		}
	}
	return out
}

// SimilarJobs ranks the corpus against one posting's own content. The dense
// index is preferred because the source vector is already stored; without it
// the posting's title and skills become a lexical query.
func (uc *SearchUseCase) SimilarJobs(ctx context.Context, jobID int64, topK int) (*domain.SearchResult, error) {
	ix, err := uc.snapshot()
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	srcRow, ok := ix.Corpus.RowByID(jobID)
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "similar jobs", fmt.Errorf("job %d", jobID))
	}

	candidates := make([]int, 0, ix.Corpus.Len()-1)
	for row := 0; row < ix.Corpus.Len(); row++ {
		if row != srcRow {
			candidates = append(candidates, row)
		}
	}

	var (
		scores []float64
		method domain.SearchMethod
	)
	if ix.Vectors != nil {
		scores = ix.Vectors.Scores(ix.Vectors.Row(srcRow), candidates)
		method = domain.MethodDense
	} else {
		src := ix.Corpus.Job(srcRow)
		tokens := index.Tokenize(src.Title + " " + ix.Corpus.SkillsText(srcRow))
		scores = minMaxNormalize(ix.Lexical.Scores(tokens, candidates))
		method = domain.MethodLexical
	}

	rows := make([]scoredRow, 0, len(candidates))
	for i, row := range candidates {
		if scores[i] == 0 {
			continue
		}
		rows = append(rows, scoredRow{row: row, scores: domain.ScoreBreakdown{Final: scores[i]}})
	}
	sortScoredRows(ix.Corpus, rows)

	return &domain.SearchResult{
		Query:    fmt.Sprintf("similar:%d", jobID),
		Method:   method,
		Strategy: domain.StrategyExactMatch,
		Results:  uc.materialize(ix, rows, topK),
	}, nil
}

func (uc *SearchUseCase) JobByID(ctx context.Context, jobID int64) (*domain.RankedJob, error) {
	ix, err := uc.snapshot()
	if err != nil {
		return nil, err
	}
	row, ok := ix.Corpus.RowByID(jobID)
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("job %d", jobID))
	}
	return &domain.RankedJob{
		Job:        ix.Corpus.Job(row),
		Skills:     ix.Corpus.SkillNames(row),
		Industries: ix.Corpus.IndustryNames(row),
	}, nil
}

func allRows(corpus *domain.Corpus) []int {
	rows := make([]int, corpus.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func cacheKey(version string, req domain.SearchRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(version+"|"), payload...))
	return "search:" + hex.EncodeToString(sum[:16])
}
