package domain

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// Corpus is the immutable, normalized in-memory snapshot the search index is
// built from. Skill and industry membership stay relational; they are never
// flattened into delimited strings on the job row. Built once per data
// refresh, read-only afterwards, safe for concurrent readers.
type Corpus struct {
	jobs    []Job
	rowByID map[int64]int

	skillsByCode    map[string]Skill
	industriesByID  map[int64]Industry
	jobSkillSet     []map[string]struct{}
	jobIndustrySet  []map[int64]struct{}
	droppedJobCount int

	version string
}

// BuildCorpus assembles a corpus snapshot and enforces the load-time
// contract: job ids are unique, jobs without title or description are
// excluded entirely, association rows must reference a known job and a known
// lookup entry. Orphaned associations are an integrity error, except rows
// pointing at a job that was itself dropped for a missing title/description.
func BuildCorpus(
	jobs []Job,
	skills []Skill,
	jobSkills []JobSkill,
	industries []Industry,
	jobIndustries []JobIndustry,
) (*Corpus, error) {
	c := &Corpus{
		rowByID:        make(map[int64]int, len(jobs)),
		skillsByCode:   make(map[string]Skill, len(skills)),
		industriesByID: make(map[int64]Industry, len(industries)),
	}

	dropped := make(map[int64]struct{})
	for _, job := range jobs {
		if strings.TrimSpace(job.Title) == "" || strings.TrimSpace(job.Description) == "" {
			dropped[job.ID] = struct{}{}
			c.droppedJobCount++
			continue
		}
		if _, exists := c.rowByID[job.ID]; exists {
			return nil, WrapError(ErrCorpusIntegrity, "build corpus", fmt.Errorf("duplicate job_id %d", job.ID))
		}
		c.rowByID[job.ID] = len(c.jobs)
		c.jobs = append(c.jobs, job)
	}

	for _, skill := range skills {
		c.skillsByCode[skill.Code] = skill
	}
	for _, industry := range industries {
		c.industriesByID[industry.ID] = industry
	}

	c.jobSkillSet = make([]map[string]struct{}, len(c.jobs))
	c.jobIndustrySet = make([]map[int64]struct{}, len(c.jobs))

	for _, assoc := range jobSkills {
		row, ok := c.rowByID[assoc.JobID]
		if !ok {
			if _, wasDropped := dropped[assoc.JobID]; wasDropped {
				continue
			}
			return nil, WrapError(ErrCorpusIntegrity, "build corpus",
				fmt.Errorf("job_skills references unknown job_id %d", assoc.JobID))
		}
		if _, ok := c.skillsByCode[assoc.SkillCode]; !ok {
			return nil, WrapError(ErrCorpusIntegrity, "build corpus",
				fmt.Errorf("job_skills references unknown skill_code %q", assoc.SkillCode))
		}
		if c.jobSkillSet[row] == nil {
			c.jobSkillSet[row] = make(map[string]struct{}, 4)
		}
		c.jobSkillSet[row][assoc.SkillCode] = struct{}{}
	}

	for _, assoc := range jobIndustries {
		row, ok := c.rowByID[assoc.JobID]
		if !ok {
			if _, wasDropped := dropped[assoc.JobID]; wasDropped {
				continue
			}
			return nil, WrapError(ErrCorpusIntegrity, "build corpus",
				fmt.Errorf("job_industries references unknown job_id %d", assoc.JobID))
		}
		if _, ok := c.industriesByID[assoc.IndustryID]; !ok {
			return nil, WrapError(ErrCorpusIntegrity, "build corpus",
				fmt.Errorf("job_industries references unknown industry_id %d", assoc.IndustryID))
		}
		if c.jobIndustrySet[row] == nil {
			c.jobIndustrySet[row] = make(map[int64]struct{}, 2)
		}
		c.jobIndustrySet[row][assoc.IndustryID] = struct{}{}
	}

	c.version = c.computeVersion()
	return c, nil
}

func (c *Corpus) computeVersion() string {
	h := fnv.New64a()
	for _, job := range c.jobs {
		fmt.Fprintf(h, "%d|%d|", job.ID, job.ListedAt.UnixNano())
	}
	fmt.Fprintf(h, "n=%d", len(c.jobs))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Version identifies this snapshot; index artifacts are keyed by it so stale
// caches are detected on load.
func (c *Corpus) Version() string { return c.version }

func (c *Corpus) Len() int { return len(c.jobs) }

// DroppedJobs reports how many rows were excluded at build time for missing
// title or description.
func (c *Corpus) DroppedJobs() int { return c.droppedJobCount }

func (c *Corpus) Job(row int) Job { return c.jobs[row] }

func (c *Corpus) JobByID(id int64) (Job, bool) {
	row, ok := c.rowByID[id]
	if !ok {
		return Job{}, false
	}
	return c.jobs[row], true
}

func (c *Corpus) RowByID(id int64) (int, bool) {
	row, ok := c.rowByID[id]
	return row, ok
}

// HasSkill tests skill membership by relational lookup. The needle matches a
// skill code or a skill name, case-insensitively; description text is never
// consulted.
func (c *Corpus) HasSkill(row int, needle string) bool {
	for code := range c.jobSkillSet[row] {
		if strings.EqualFold(code, needle) {
			return true
		}
		if skill, ok := c.skillsByCode[code]; ok && strings.EqualFold(skill.Name, needle) {
			return true
		}
	}
	return false
}

func (c *Corpus) HasIndustry(row int, needle string) bool {
	for id := range c.jobIndustrySet[row] {
		if industry, ok := c.industriesByID[id]; ok && strings.EqualFold(industry.Name, needle) {
			return true
		}
	}
	return false
}

// SkillNames returns the job's skill names sorted by skill code.
func (c *Corpus) SkillNames(row int) []string {
	codes := make([]string, 0, len(c.jobSkillSet[row]))
	for code := range c.jobSkillSet[row] {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	names := make([]string, 0, len(codes))
	for _, code := range codes {
		if skill, ok := c.skillsByCode[code]; ok {
			names = append(names, skill.Name)
		}
	}
	return names
}

func (c *Corpus) IndustryNames(row int) []string {
	ids := make([]int64, 0, len(c.jobIndustrySet[row]))
	for id := range c.jobIndustrySet[row] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if industry, ok := c.industriesByID[id]; ok {
			names = append(names, industry.Name)
		}
	}
	return names
}

// SkillsText joins the job's skill names for lexical indexing. The join is
// derived from the relations at index-build time, not read from a pre-baked
// string column.
func (c *Corpus) SkillsText(row int) string {
	return strings.Join(c.SkillNames(row), " ")
}

// SearchableText is the job text the dense encoder sees: title, description
// and skill names.
func (c *Corpus) SearchableText(row int) string {
	job := c.jobs[row]
	parts := []string{job.Title, job.Description}
	if skillsText := c.SkillsText(row); skillsText != "" {
		parts = append(parts, skillsText)
	}
	return strings.Join(parts, " ")
}
