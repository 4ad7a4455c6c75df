package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/ports"
)

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func fixtureCorpus(t *testing.T) *domain.Corpus {
	t.Helper()

	jobs := []domain.Job{
		{
			ID: 1, Title: "Senior Python Developer",
			Description: "Design and build backend services in Python. Remote-first engineering team.",
			City:        "San Francisco", State: "CA", Country: "United States", Location: "San Francisco, CA",
			WorkType: domain.WorkTypeFullTime, ExperienceLevel: domain.ExperienceMidSenior,
			RemoteAllowed:          boolPtr(true),
			NormalizedSalaryYearly: floatPtr(170000),
			Views:                  500, Applies: 40,
			ListedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: 2, Title: "Python Data Engineer",
			Description: "Build data pipelines in Python and SQL for the analytics platform.",
			City:        "Austin", State: "TX", Country: "United States", Location: "Austin, TX",
			WorkType: domain.WorkTypeFullTime, ExperienceLevel: domain.ExperienceEntry,
			RemoteAllowed:          boolPtr(false),
			NormalizedSalaryYearly: floatPtr(110000),
			Views:                  300, Applies: 25,
			ListedAt: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: 3, Title: "Registered Nurse",
			Description: "Provide inpatient care in the cardiology unit.",
			City:        "Austin", State: "TX", Country: "United States", Location: "Austin, TX",
			WorkType: domain.WorkTypeFullTime, ExperienceLevel: domain.ExperienceEntry,
			NormalizedSalaryYearly: floatPtr(80000),
			Views:                  900, Applies: 120,
			ListedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: 4, Title: "Frontend Developer",
			Description: "React and TypeScript work on the customer dashboard.",
			City:        "New York", State: "NY", Country: "United States", Location: "New York, NY",
			WorkType: domain.WorkTypeContract, ExperienceLevel: domain.ExperienceMidSenior,
			RemoteAllowed: boolPtr(true),
			Views:         150, Applies: 10,
			ListedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: 5, Title: "Warehouse Associate",
			Description: "Pick, pack and ship orders in the distribution center.",
			City:        "Memphis", State: "TN", Country: "United States", Location: "Memphis, TN",
			WorkType: domain.WorkTypePartTime, ExperienceLevel: domain.ExperienceEntry,
			Views:    2000, Applies: 400,
			ListedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
	}
	skills := []domain.Skill{
		{Code: "PY", Name: "Python"},
		{Code: "SQL", Name: "SQL"},
		{Code: "TS", Name: "TypeScript"},
		{Code: "NUR", Name: "Nursing"},
	}
	jobSkills := []domain.JobSkill{
		{JobID: 1, SkillCode: "PY"},
		{JobID: 2, SkillCode: "PY"},
		{JobID: 2, SkillCode: "SQL"},
		{JobID: 3, SkillCode: "NUR"},
		{JobID: 4, SkillCode: "TS"},
	}
	industries := []domain.Industry{
		{ID: 10, Name: "Software Development"},
		{ID: 20, Name: "Hospitals and Health Care"},
		{ID: 30, Name: "Transportation and Logistics"},
	}
	jobIndustries := []domain.JobIndustry{
		{JobID: 1, IndustryID: 10},
		{JobID: 2, IndustryID: 10},
		{JobID: 4, IndustryID: 10},
		{JobID: 3, IndustryID: 20},
		{JobID: 5, IndustryID: 30},
	}

	corpus, err := domain.BuildCorpus(jobs, skills, jobSkills, industries, jobIndustries)
	if err != nil {
		t.Fatalf("BuildCorpus() error = %v", err)
	}
	return corpus
}

type fakeCorpusRepo struct {
	corpus *domain.Corpus
	err    error
}

func (r *fakeCorpusRepo) LoadCorpus(ctx context.Context) (*domain.Corpus, error) {
	return r.corpus, r.err
}

type fakeArtifactStore struct {
	vectors map[string][][]float32
	saves   int
	loads   int
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{vectors: make(map[string][][]float32)}
}

func (s *fakeArtifactStore) SaveVectors(ctx context.Context, version string, vectors [][]float32) error {
	s.saves++
	s.vectors[version] = vectors
	return nil
}

func (s *fakeArtifactStore) LoadVectors(ctx context.Context, version string) ([][]float32, error) {
	s.loads++
	vectors, ok := s.vectors[version]
	if !ok {
		return nil, domain.WrapError(domain.ErrArtifactStale, "fake artifacts", context.Canceled)
	}
	return vectors, nil
}

type fakeEmbedder struct {
	dim   int
	calls int
}

// Embed produces deterministic pseudo-vectors from text bytes so equal texts
// land on equal vectors.
func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dim)
		for j, r := range text {
			vec[j%e.dim] += float32(r%17) / 16
		}
		out[i] = vec
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type fakeCache struct {
	entries map[string]*domain.SearchResult
	hits    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.SearchResult)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*domain.SearchResult, bool, error) {
	result, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return result, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, result *domain.SearchResult, ttl time.Duration) error {
	c.sets++
	c.entries[key] = result
	return nil
}

// buildTestIndex assembles a snapshot from the fixture corpus with the local
// TF-IDF encoder.
func buildTestIndex(t *testing.T, dense bool) *SearchIndex {
	t.Helper()

	cfg := DefaultBuilderConfig()
	cfg.DenseEnabled = dense
	builder := NewIndexBuilder(&fakeCorpusRepo{corpus: fixtureCorpus(t)}, nil, nil, cfg, nil)
	ix, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return ix
}

func newTestSearch(t *testing.T, dense bool, cache ports.ResultCache) *SearchUseCase {
	t.Helper()

	uc := NewSearchUseCase(cache, DefaultSearchConfig(), nil)
	uc.Swap(buildTestIndex(t, dense))
	return uc
}

func resultIDs(result *domain.SearchResult) []int64 {
	ids := make([]int64, len(result.Results))
	for i, r := range result.Results {
		ids[i] = r.Job.ID
	}
	return ids
}
