package domain

import (
	"fmt"
	"strings"
)

// Filters is the explicit set of supported search predicates. All supplied
// predicates are ANDed; the multi-valued skill and industry predicates also
// AND across their own values.
type Filters struct {
	Location        string          `json:"location,omitempty" yaml:"location,omitempty"`
	WorkTypes       []WorkType      `json:"work_types,omitempty" yaml:"work_types,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty" yaml:"experience_level,omitempty"`
	RemoteAllowed   *bool           `json:"remote_allowed,omitempty" yaml:"remote_allowed,omitempty"`
	MinSalary       *float64        `json:"min_salary,omitempty" yaml:"min_salary,omitempty"`
	MaxSalary       *float64        `json:"max_salary,omitempty" yaml:"max_salary,omitempty"`
	Skills          []string        `json:"skills,omitempty" yaml:"skills,omitempty"`
	Industries      []string        `json:"industries,omitempty" yaml:"industries,omitempty"`
}

func (f Filters) Validate() error {
	for _, wt := range f.WorkTypes {
		if _, err := ParseWorkType(string(wt)); err != nil {
			return err
		}
	}
	if f.ExperienceLevel != "" {
		if _, err := ParseExperienceLevel(string(f.ExperienceLevel)); err != nil {
			return err
		}
	}
	if f.MinSalary != nil && *f.MinSalary < 0 {
		return WrapError(ErrInvalidInput, "validate filters", fmt.Errorf("min_salary must be non-negative, got %v", *f.MinSalary))
	}
	if f.MaxSalary != nil && *f.MaxSalary < 0 {
		return WrapError(ErrInvalidInput, "validate filters", fmt.Errorf("max_salary must be non-negative, got %v", *f.MaxSalary))
	}
	if f.MinSalary != nil && f.MaxSalary != nil && *f.MinSalary > *f.MaxSalary {
		return WrapError(ErrInvalidInput, "validate filters",
			fmt.Errorf("min_salary %v exceeds max_salary %v", *f.MinSalary, *f.MaxSalary))
	}
	return nil
}

func (f Filters) IsZero() bool {
	return f.Location == "" &&
		len(f.WorkTypes) == 0 &&
		f.ExperienceLevel == "" &&
		f.RemoteAllowed == nil &&
		f.MinSalary == nil &&
		f.MaxSalary == nil &&
		len(f.Skills) == 0 &&
		len(f.Industries) == 0
}

func (f Filters) HasSalary() bool { return f.MinSalary != nil || f.MaxSalary != nil }

func (f Filters) WithoutSalary() Filters {
	f.MinSalary = nil
	f.MaxSalary = nil
	return f
}

func (f Filters) WithoutExperience() Filters {
	f.ExperienceLevel = ""
	return f
}

func (f Filters) WithoutRemote() Filters {
	f.RemoteAllowed = nil
	return f
}

func (f Filters) WithoutLocation() Filters {
	f.Location = ""
	return f
}

// FilterCandidates evaluates all supplied predicates against the corpus and
// returns the satisfying row indexes in ascending order. This runs before
// ranking; an empty result is returned as-is, relaxation is the fallback
// controller's concern.
func (c *Corpus) FilterCandidates(f Filters) []int {
	candidates := make([]int, 0, len(c.jobs))
	for row := range c.jobs {
		if c.matches(row, f) {
			candidates = append(candidates, row)
		}
	}
	return candidates
}

func (c *Corpus) matches(row int, f Filters) bool {
	job := c.jobs[row]

	if f.Location != "" && !matchesLocation(job, f.Location) {
		return false
	}

	if len(f.WorkTypes) > 0 {
		allowed := false
		for _, wt := range f.WorkTypes {
			if strings.EqualFold(string(job.WorkType), string(wt)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if f.ExperienceLevel != "" && !strings.EqualFold(string(job.ExperienceLevel), string(f.ExperienceLevel)) {
		return false
	}

	// Unknown remote status is excluded from both polarities.
	if f.RemoteAllowed != nil {
		if job.RemoteAllowed == nil || *job.RemoteAllowed != *f.RemoteAllowed {
			return false
		}
	}

	// Only jobs with a computed yearly salary are eligible for salary
	// bounds; unknown-salary jobs are not pulled in to inflate the count.
	if f.HasSalary() {
		if job.NormalizedSalaryYearly == nil {
			return false
		}
		if f.MinSalary != nil && *job.NormalizedSalaryYearly < *f.MinSalary {
			return false
		}
		if f.MaxSalary != nil && *job.NormalizedSalaryYearly > *f.MaxSalary {
			return false
		}
	}

	for _, skill := range f.Skills {
		if !c.HasSkill(row, skill) {
			return false
		}
	}

	for _, industry := range f.Industries {
		if !c.HasIndustry(row, industry) {
			return false
		}
	}

	return true
}

func matchesLocation(job Job, needle string) bool {
	needle = strings.ToLower(needle)
	for _, field := range []string{job.City, job.State, job.Country, job.Location} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
