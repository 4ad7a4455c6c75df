// Command evalctl runs judged queries against a running api instance and
// reports ranking quality metrics.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/jobmatch/internal/core/domain"
	"github.com/kirillkom/jobmatch/internal/core/usecase"
	"github.com/kirillkom/jobmatch/internal/report/excel"
)

type CLI struct {
	API     string        `help:"Base URL of the search api." default:"http://localhost:8080" env:"API_URL"`
	Timeout time.Duration `help:"Per-request timeout." default:"30s"`

	Run RunCmd `cmd:"" help:"Evaluate ranking quality against a judged query set."`
}

type RunCmd struct {
	Judgments string `help:"YAML file with judged queries." required:"" type:"existingfile"`
	TopK      int    `help:"Rank cutoff for the metrics." default:"10"`
	Method    string `help:"Search method: lexical, dense or hybrid." default:"hybrid"`
	Report    string `help:"Write an .xlsx report to this path. Empty skips the file." default:""`
}

type judgmentFile struct {
	Queries []usecase.JudgedQuery `yaml:"queries"`
}

func (c *RunCmd) Run(cli *CLI) error {
	raw, err := os.ReadFile(c.Judgments)
	if err != nil {
		return fmt.Errorf("read judged queries: %w", err)
	}
	var file judgmentFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse judged queries: %w", err)
	}

	method, err := domain.ParseSearchMethod(c.Method)
	if err != nil {
		return err
	}

	client := &apiSearcher{
		baseURL: cli.API,
		http:    &http.Client{Timeout: cli.Timeout},
	}
	evaluator := usecase.NewEvaluator(client)

	report, err := evaluator.Evaluate(context.Background(), file.Queries, c.TopK, method)
	if err != nil {
		return err
	}

	printReport(report)

	if c.Report != "" {
		if err := excel.WriteReport(report, c.Report); err != nil {
			return err
		}
		fmt.Printf("\nreport written to %s\n", c.Report)
	}
	return nil
}

func printReport(report *usecase.EvalReport) {
	fmt.Printf("method=%s k=%d queries=%d\n\n", report.Method, report.K, len(report.PerQuery))
	for _, q := range report.PerQuery {
		fmt.Printf("%-30s P@%d=%.3f R@%d=%.3f NDCG@%d=%.3f MRR=%.3f AP=%.3f\n",
			q.Name, report.K, q.Precision, report.K, q.Recall, report.K, q.NDCG, q.MRR, q.AP)
	}
	fmt.Printf("\nmean precision  %.3f\n", report.MeanPrecision)
	fmt.Printf("mean recall     %.3f\n", report.MeanRecall)
	fmt.Printf("mean ndcg       %.3f\n", report.MeanNDCG)
	fmt.Printf("mean mrr        %.3f\n", report.MeanMRR)
	fmt.Printf("map             %.3f\n", report.MAP)
}

// apiSearcher implements the searcher port over the api's HTTP surface, so
// the evaluator exercises the same path production callers use.
type apiSearcher struct {
	baseURL string
	http    *http.Client
}

func (s *apiSearcher) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return s.do(httpReq)
}

func (s *apiSearcher) SimilarJobs(ctx context.Context, jobID int64, topK int) (*domain.SearchResult, error) {
	url := fmt.Sprintf("%s/v1/jobs/%d/similar?top_k=%d", s.baseURL, jobID, topK)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build similar request: %w", err)
	}
	return s.do(httpReq)
}

func (s *apiSearcher) do(req *http.Request) (*domain.SearchResult, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api returned %s: %s", resp.Status, string(body))
	}

	var result domain.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}
	return &result, nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("evalctl"),
		kong.Description("Ranking quality evaluation for the job search api."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
