package domain

import "testing"

func rowsToIDs(c *Corpus, rows []int) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, c.Job(row).ID)
	}
	return ids
}

func TestFilterCandidatesSkillRequiresAssociation(t *testing.T) {
	corpus := testCorpus(t)

	rows := corpus.FilterCandidates(Filters{Skills: []string{"Python"}})
	ids := rowsToIDs(corpus, rows)
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("skills=[Python] should match only job 1 via JobSkill, got %v", ids)
	}
}

func TestFilterCandidatesSkillANDSemantics(t *testing.T) {
	corpus := testCorpus(t)

	rows := corpus.FilterCandidates(Filters{Skills: []string{"Python", "SQL"}})
	ids := rowsToIDs(corpus, rows)
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("job must have every required skill, got %v", ids)
	}

	rows = corpus.FilterCandidates(Filters{Skills: []string{"SQL"}})
	if len(rows) != 2 {
		t.Fatalf("expected jobs 1 and 3 for SQL alone, got %v", rowsToIDs(corpus, rows))
	}
}

func TestFilterCandidatesUnknownRemoteExcludedBothWays(t *testing.T) {
	corpus := testCorpus(t)

	// Job 2 has nil remote status and must appear under neither polarity.
	for _, want := range []bool{true, false} {
		rows := corpus.FilterCandidates(Filters{RemoteAllowed: boolPtr(want)})
		for _, id := range rowsToIDs(corpus, rows) {
			if id == 2 {
				t.Fatalf("job with unknown remote status leaked into remote=%v", want)
			}
		}
	}
}

func TestFilterCandidatesSalaryRequiresKnownSalary(t *testing.T) {
	corpus := testCorpus(t)

	rows := corpus.FilterCandidates(Filters{MinSalary: floatPtr(100000)})
	ids := rowsToIDs(corpus, rows)
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("salary filter must only admit jobs with known salary, got %v", ids)
	}

	rows = corpus.FilterCandidates(Filters{MaxSalary: floatPtr(100000)})
	if len(rows) != 0 {
		t.Fatalf("unknown-salary jobs must not satisfy a salary bound, got %v", rowsToIDs(corpus, rows))
	}
}

func TestFilterCandidatesLocationSubstring(t *testing.T) {
	corpus := testCorpus(t)

	rows := corpus.FilterCandidates(Filters{Location: "austin"})
	if len(rows) != 2 {
		t.Fatalf("expected 2 Austin jobs, got %v", rowsToIDs(corpus, rows))
	}

	rows = corpus.FilterCandidates(Filters{Location: "united states"})
	if len(rows) != 3 {
		t.Fatalf("country substring should match all 3 jobs, got %v", rowsToIDs(corpus, rows))
	}
}

func TestFilterCandidatesANDAcrossPredicates(t *testing.T) {
	corpus := testCorpus(t)

	rows := corpus.FilterCandidates(Filters{
		Location:  "Austin",
		WorkTypes: []WorkType{WorkTypeContract},
	})
	ids := rowsToIDs(corpus, rows)
	if len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("expected only job 3, got %v", ids)
	}
}

func TestFilterCandidatesEmptyResultIsNotRelaxed(t *testing.T) {
	corpus := testCorpus(t)

	rows := corpus.FilterCandidates(Filters{Location: "Antarctica"})
	if len(rows) != 0 {
		t.Fatalf("expected empty candidate set, got %v", rowsToIDs(corpus, rows))
	}
}

func TestFiltersValidate(t *testing.T) {
	if err := (Filters{MinSalary: floatPtr(200000), MaxSalary: floatPtr(100000)}).Validate(); err == nil {
		t.Fatalf("expected error for inverted salary bounds")
	}
	if err := (Filters{MinSalary: floatPtr(-1)}).Validate(); err == nil {
		t.Fatalf("expected error for negative salary")
	}
	if err := (Filters{WorkTypes: []WorkType{"Gig"}}).Validate(); err == nil {
		t.Fatalf("expected error for unknown work type")
	}
	if err := (Filters{ExperienceLevel: "Wizard"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown experience level")
	}
	err := (Filters{WorkTypes: []WorkType{WorkTypeFullTime}, ExperienceLevel: ExperienceEntry}).Validate()
	if err != nil {
		t.Fatalf("valid filters rejected: %v", err)
	}
}
