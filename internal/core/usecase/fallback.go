package usecase

import "github.com/kirillkom/jobmatch/internal/core/domain"

// fallbackStage is one step of the progressive relaxation ladder. Stages are
// ordered from strictest to loosest; each drops exactly one predicate group
// relative to its predecessor.
type fallbackStage struct {
	filters  domain.Filters
	strategy domain.SearchStrategy
	popular  bool
}

// fallbackPlan expands a request into its relaxation ladder:
//
//	all filters -> drop salary -> drop experience -> drop remote ->
//	drop location -> no filters -> popularity
//
// Stages whose filter set is identical to the previous stage are skipped, so
// a request without a salary bound never reports a "no_salary" relaxation it
// did not perform. With fallback disabled only the strict stage runs.
func fallbackPlan(f domain.Filters, enableFallback, popularEnabled bool) []fallbackStage {
	plan := []fallbackStage{{filters: f, strategy: domain.StrategyExactMatch}}
	if !enableFallback {
		return plan
	}

	ladder := []fallbackStage{
		{filters: f.WithoutSalary(), strategy: domain.StrategyNoSalary},
		{filters: f.WithoutSalary().WithoutExperience(), strategy: domain.StrategyNoExperience},
		{filters: f.WithoutSalary().WithoutExperience().WithoutRemote(), strategy: domain.StrategyNoRemote},
		{filters: f.WithoutSalary().WithoutExperience().WithoutRemote().WithoutLocation(), strategy: domain.StrategyNoLocation},
		{filters: domain.Filters{}, strategy: domain.StrategyQueryOnly},
	}
	for _, stage := range ladder {
		if filtersEqual(stage.filters, plan[len(plan)-1].filters) {
			continue
		}
		plan = append(plan, stage)
	}

	if popularEnabled {
		plan = append(plan, fallbackStage{strategy: domain.StrategyPopular, popular: true})
	}
	return plan
}

func filtersEqual(a, b domain.Filters) bool {
	if a.Location != b.Location || a.ExperienceLevel != b.ExperienceLevel {
		return false
	}
	if !boolPtrEqual(a.RemoteAllowed, b.RemoteAllowed) {
		return false
	}
	if !floatPtrEqual(a.MinSalary, b.MinSalary) || !floatPtrEqual(a.MaxSalary, b.MaxSalary) {
		return false
	}
	if len(a.WorkTypes) != len(b.WorkTypes) || len(a.Skills) != len(b.Skills) || len(a.Industries) != len(b.Industries) {
		return false
	}
	for i := range a.WorkTypes {
		if a.WorkTypes[i] != b.WorkTypes[i] {
			return false
		}
	}
	for i := range a.Skills {
		if a.Skills[i] != b.Skills[i] {
			return false
		}
	}
	for i := range a.Industries {
		if a.Industries[i] != b.Industries[i] {
			return false
		}
	}
	return true
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
