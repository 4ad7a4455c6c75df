package usecase

import (
	"testing"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

func TestFallbackPlanFullLadder(t *testing.T) {
	f := domain.Filters{
		Location:        "Austin",
		ExperienceLevel: domain.ExperienceEntry,
		RemoteAllowed:   boolPtr(true),
		MinSalary:       floatPtr(100000),
		WorkTypes:       []domain.WorkType{domain.WorkTypeFullTime},
	}

	plan := fallbackPlan(f, true, true)
	want := []domain.SearchStrategy{
		domain.StrategyExactMatch,
		domain.StrategyNoSalary,
		domain.StrategyNoExperience,
		domain.StrategyNoRemote,
		domain.StrategyNoLocation,
		domain.StrategyQueryOnly,
		domain.StrategyPopular,
	}
	if len(plan) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(plan))
	}
	for i, stage := range plan {
		if stage.strategy != want[i] {
			t.Fatalf("stage %d: got %q, want %q", i, stage.strategy, want[i])
		}
	}
}

func TestFallbackPlanSkipsNoOpStages(t *testing.T) {
	// Only a location filter: salary, experience and remote stages would not
	// change the filter set and must not appear.
	plan := fallbackPlan(domain.Filters{Location: "Austin"}, true, false)

	want := []domain.SearchStrategy{
		domain.StrategyExactMatch,
		domain.StrategyNoLocation,
	}
	if len(plan) != len(want) {
		t.Fatalf("expected %d stages, got %d: %+v", len(want), len(plan), plan)
	}
	for i, stage := range plan {
		if stage.strategy != want[i] {
			t.Fatalf("stage %d: got %q, want %q", i, stage.strategy, want[i])
		}
	}
}

func TestFallbackPlanDisabled(t *testing.T) {
	plan := fallbackPlan(domain.Filters{MinSalary: floatPtr(100000)}, false, true)
	if len(plan) != 1 {
		t.Fatalf("disabled fallback must produce a single strict stage, got %d", len(plan))
	}
	if plan[0].strategy != domain.StrategyExactMatch {
		t.Fatalf("got %q", plan[0].strategy)
	}
}

func TestFallbackPlanZeroFilters(t *testing.T) {
	plan := fallbackPlan(domain.Filters{}, true, true)
	if len(plan) != 2 {
		t.Fatalf("zero filters must collapse to strict + popular, got %+v", plan)
	}
	if !plan[1].popular {
		t.Fatalf("expected popularity terminal stage")
	}
}

// Every stage's candidate set must contain its predecessor's: relaxation
// only ever widens the pool.
func TestFallbackStagesWidenMonotonically(t *testing.T) {
	corpus := fixtureCorpus(t)
	f := domain.Filters{
		Location:        "Austin",
		ExperienceLevel: domain.ExperienceEntry,
		RemoteAllowed:   boolPtr(false),
		MinSalary:       floatPtr(100000),
	}

	plan := fallbackPlan(f, true, false)
	var prev map[int]struct{}
	for i, stage := range plan {
		rows := corpus.FilterCandidates(stage.filters)
		cur := make(map[int]struct{}, len(rows))
		for _, row := range rows {
			cur[row] = struct{}{}
		}
		for row := range prev {
			if _, ok := cur[row]; !ok {
				t.Fatalf("stage %d lost candidate row %d", i, row)
			}
		}
		prev = cur
	}
}
