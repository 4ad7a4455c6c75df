package domain

import (
	"fmt"
	"strings"
	"time"
)

type WorkType string

const (
	WorkTypeFullTime   WorkType = "Full-time"
	WorkTypePartTime   WorkType = "Part-time"
	WorkTypeContract   WorkType = "Contract"
	WorkTypeTemporary  WorkType = "Temporary"
	WorkTypeInternship WorkType = "Internship"
	WorkTypeOther      WorkType = "Other"
)

type ExperienceLevel string

const (
	ExperienceInternship ExperienceLevel = "Internship"
	ExperienceEntry      ExperienceLevel = "Entry level"
	ExperienceMidSenior  ExperienceLevel = "Mid-Senior level"
	ExperienceDirector   ExperienceLevel = "Director"
	ExperienceExecutive  ExperienceLevel = "Executive"
)

type PayPeriod string

const (
	PayPeriodYearly   PayPeriod = "YEARLY"
	PayPeriodMonthly  PayPeriod = "MONTHLY"
	PayPeriodWeekly   PayPeriod = "WEEKLY"
	PayPeriodBiweekly PayPeriod = "BIWEEKLY"
	PayPeriodHourly   PayPeriod = "HOURLY"
)

// payPeriodMultipliers converts a per-period figure to a yearly one.
var payPeriodMultipliers = map[PayPeriod]float64{
	PayPeriodYearly:   1,
	PayPeriodMonthly:  12,
	PayPeriodWeekly:   52,
	PayPeriodBiweekly: 26,
	PayPeriodHourly:   2080,
}

func ParseWorkType(s string) (WorkType, error) {
	for _, wt := range []WorkType{
		WorkTypeFullTime, WorkTypePartTime, WorkTypeContract,
		WorkTypeTemporary, WorkTypeInternship, WorkTypeOther,
	} {
		if strings.EqualFold(s, string(wt)) {
			return wt, nil
		}
	}
	return "", WrapError(ErrInvalidInput, "parse work type", fmt.Errorf("unknown work type %q", s))
}

func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	for _, lvl := range []ExperienceLevel{
		ExperienceInternship, ExperienceEntry, ExperienceMidSenior,
		ExperienceDirector, ExperienceExecutive,
	} {
		if strings.EqualFold(s, string(lvl)) {
			return lvl, nil
		}
	}
	return "", WrapError(ErrInvalidInput, "parse experience level", fmt.Errorf("unknown experience level %q", s))
}

func ParsePayPeriod(s string) (PayPeriod, error) {
	period := PayPeriod(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := payPeriodMultipliers[period]; !ok {
		return "", WrapError(ErrInvalidInput, "parse pay period", fmt.Errorf("unknown pay period %q", s))
	}
	return period, nil
}

type Job struct {
	ID          int64  `json:"job_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CompanyID   int64  `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`

	Location string `json:"location,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`

	WorkType        WorkType        `json:"work_type,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`

	// RemoteAllowed is nil when the posting does not state a remote policy.
	// Unknown is never coerced to false.
	RemoteAllowed *bool `json:"remote_allowed,omitempty"`

	MinSalary *float64  `json:"min_salary,omitempty"`
	MaxSalary *float64  `json:"max_salary,omitempty"`
	PayPeriod PayPeriod `json:"pay_period,omitempty"`

	// NormalizedSalaryYearly is derived via the pay-period multiplier table.
	// Nil unless min salary, max salary and pay period are all present.
	NormalizedSalaryYearly *float64 `json:"normalized_salary_yearly,omitempty"`

	Views   int64 `json:"views"`
	Applies int64 `json:"applies"`

	ListedAt time.Time  `json:"listed_time,omitempty"`
	ClosedAt *time.Time `json:"closed_time,omitempty"`
}

type Skill struct {
	Code string `json:"skill_code"`
	Name string `json:"skill_name"`
}

type JobSkill struct {
	JobID     int64
	SkillCode string
}

type Industry struct {
	ID   int64  `json:"industry_id"`
	Name string `json:"industry_name"`
}

type JobIndustry struct {
	JobID      int64
	IndustryID int64
}

// NormalizeSalaryYearly applies the fixed pay-period multiplier table to the
// midpoint of the posted salary band. Returns nil unless min, max and period
// are all present; partial salary data is never imputed.
func NormalizeSalaryYearly(minSalary, maxSalary *float64, period PayPeriod) *float64 {
	if minSalary == nil || maxSalary == nil {
		return nil
	}
	multiplier, ok := payPeriodMultipliers[period]
	if !ok {
		return nil
	}
	yearly := (*minSalary + *maxSalary) / 2 * multiplier
	return &yearly
}

// ParseLocation derives city/state/country from a raw location string.
// Recognized shapes:
//   - "City, ST"             two-letter US state, country set to United States
//   - "City, State, Country" all three parts taken verbatim
//   - "City, Region"         second part kept as state, country left empty
//   - single token "Remote"  no geography; remote policy lives on the job row
//   - any other single token treated as a country name, never as a city
func ParseLocation(raw string) (city, state, country string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", ""
	}

	parts := strings.Split(trimmed, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		if strings.EqualFold(parts[0], "Remote") {
			return "", "", ""
		}
		return "", "", parts[0]
	case 2:
		if isUSStateCode(parts[1]) {
			return parts[0], parts[1], "United States"
		}
		return parts[0], parts[1], ""
	default:
		return parts[0], parts[1], parts[2]
	}
}

func isUSStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
