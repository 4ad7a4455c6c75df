package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

// CorpusRepository reads the normalized posting tables and assembles the
// in-memory corpus snapshot. Salary normalization and location parsing run
// at load time so downstream code only ever sees derived columns.
type CorpusRepository struct {
	db *sql.DB
}

func NewCorpusRepository(db *sql.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CorpusRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id BIGINT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	company_id BIGINT,
	company_name TEXT,
	location TEXT,
	work_type TEXT,
	experience_level TEXT,
	remote_allowed BOOLEAN,
	min_salary DOUBLE PRECISION,
	max_salary DOUBLE PRECISION,
	pay_period TEXT,
	views BIGINT NOT NULL DEFAULT 0,
	applies BIGINT NOT NULL DEFAULT 0,
	listed_time TIMESTAMPTZ,
	closed_time TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS skills (
	skill_code TEXT PRIMARY KEY,
	skill_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS job_skills (
	job_id BIGINT NOT NULL,
	skill_code TEXT NOT NULL,
	PRIMARY KEY (job_id, skill_code)
);

CREATE TABLE IF NOT EXISTS industries (
	industry_id BIGINT PRIMARY KEY,
	industry_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS job_industries (
	job_id BIGINT NOT NULL,
	industry_id BIGINT NOT NULL,
	PRIMARY KEY (job_id, industry_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_listed_time ON jobs(listed_time DESC);
CREATE INDEX IF NOT EXISTS idx_job_skills_skill ON job_skills(skill_code);
CREATE INDEX IF NOT EXISTS idx_job_industries_industry ON job_industries(industry_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CorpusRepository) LoadCorpus(ctx context.Context) (*domain.Corpus, error) {
	jobs, err := r.loadJobs(ctx)
	if err != nil {
		return nil, err
	}
	skills, err := r.loadSkills(ctx)
	if err != nil {
		return nil, err
	}
	jobSkills, err := r.loadJobSkills(ctx)
	if err != nil {
		return nil, err
	}
	industries, err := r.loadIndustries(ctx)
	if err != nil {
		return nil, err
	}
	jobIndustries, err := r.loadJobIndustries(ctx)
	if err != nil {
		return nil, err
	}

	corpus, err := domain.BuildCorpus(jobs, skills, jobSkills, industries, jobIndustries)
	if err != nil {
		return nil, fmt.Errorf("assemble corpus: %w", err)
	}
	return corpus, nil
}

func (r *CorpusRepository) loadJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT job_id, title, description, company_id, company_name, location,
       work_type, experience_level, remote_allowed,
       min_salary, max_salary, pay_period,
       views, applies, listed_time, closed_time
FROM jobs
ORDER BY job_id
`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var (
			job        domain.Job
			companyID  sql.NullInt64
			company    sql.NullString
			location   sql.NullString
			workType   sql.NullString
			experience sql.NullString
			remote     sql.NullBool
			minSalary  sql.NullFloat64
			maxSalary  sql.NullFloat64
			payPeriod  sql.NullString
			listedAt   sql.NullTime
			closedAt   sql.NullTime
		)
		err := rows.Scan(
			&job.ID, &job.Title, &job.Description, &companyID, &company, &location,
			&workType, &experience, &remote,
			&minSalary, &maxSalary, &payPeriod,
			&job.Views, &job.Applies, &listedAt, &closedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		if companyID.Valid {
			job.CompanyID = companyID.Int64
		}
		job.CompanyName = company.String
		job.Location = location.String
		job.City, job.State, job.Country = domain.ParseLocation(location.String)
		job.WorkType = domain.WorkType(workType.String)
		job.ExperienceLevel = domain.ExperienceLevel(experience.String)
		if remote.Valid {
			v := remote.Bool
			job.RemoteAllowed = &v
		}
		if minSalary.Valid {
			v := minSalary.Float64
			job.MinSalary = &v
		}
		if maxSalary.Valid {
			v := maxSalary.Float64
			job.MaxSalary = &v
		}
		job.PayPeriod = domain.PayPeriod(payPeriod.String)
		job.NormalizedSalaryYearly = domain.NormalizeSalaryYearly(job.MinSalary, job.MaxSalary, job.PayPeriod)
		if listedAt.Valid {
			job.ListedAt = listedAt.Time
		}
		if closedAt.Valid {
			v := closedAt.Time
			job.ClosedAt = &v
		}

		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func (r *CorpusRepository) loadSkills(ctx context.Context) ([]domain.Skill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT skill_code, skill_name FROM skills`)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var skills []domain.Skill
	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(&s.Code, &s.Name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return skills, nil
}

func (r *CorpusRepository) loadJobSkills(ctx context.Context) ([]domain.JobSkill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT job_id, skill_code FROM job_skills`)
	if err != nil {
		return nil, fmt.Errorf("query job_skills: %w", err)
	}
	defer rows.Close()

	var assocs []domain.JobSkill
	for rows.Next() {
		var a domain.JobSkill
		if err := rows.Scan(&a.JobID, &a.SkillCode); err != nil {
			return nil, fmt.Errorf("scan job_skill: %w", err)
		}
		assocs = append(assocs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job_skills: %w", err)
	}
	return assocs, nil
}

func (r *CorpusRepository) loadIndustries(ctx context.Context) ([]domain.Industry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT industry_id, industry_name FROM industries`)
	if err != nil {
		return nil, fmt.Errorf("query industries: %w", err)
	}
	defer rows.Close()

	var industries []domain.Industry
	for rows.Next() {
		var ind domain.Industry
		if err := rows.Scan(&ind.ID, &ind.Name); err != nil {
			return nil, fmt.Errorf("scan industry: %w", err)
		}
		industries = append(industries, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate industries: %w", err)
	}
	return industries, nil
}

func (r *CorpusRepository) loadJobIndustries(ctx context.Context) ([]domain.JobIndustry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT job_id, industry_id FROM job_industries`)
	if err != nil {
		return nil, fmt.Errorf("query job_industries: %w", err)
	}
	defer rows.Close()

	var assocs []domain.JobIndustry
	for rows.Next() {
		var a domain.JobIndustry
		if err := rows.Scan(&a.JobID, &a.IndustryID); err != nil {
			return nil, fmt.Errorf("scan job_industry: %w", err)
		}
		assocs = append(assocs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job_industries: %w", err)
	}
	return assocs, nil
}
