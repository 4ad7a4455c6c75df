// Package excel renders evaluation reports as .xlsx workbooks for offline
// review by non-engineers.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/jobmatch/internal/core/usecase"
)

const (
	summarySheet = "Summary"
	queriesSheet = "Per Query"
)

// WriteReport writes the report to path as a two-sheet workbook: aggregate
// means on the first sheet, one row per judged query on the second.
func WriteReport(report *usecase.EvalReport, path string) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(queriesSheet); err != nil {
		return fmt.Errorf("create queries sheet: %w", err)
	}

	if err := writeSummary(f, report); err != nil {
		return err
	}
	if err := writePerQuery(f, report); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *usecase.EvalReport) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Method", string(report.Method)},
		{"K", report.K},
		{"Queries", len(report.PerQuery)},
		{fmt.Sprintf("Mean Precision@%d", report.K), report.MeanPrecision},
		{fmt.Sprintf("Mean Recall@%d", report.K), report.MeanRecall},
		{fmt.Sprintf("Mean NDCG@%d", report.K), report.MeanNDCG},
		{"Mean MRR", report.MeanMRR},
		{"MAP", report.MAP},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}

	return f.SetColWidth(summarySheet, "A", "A", 24)
}

func writePerQuery(f *excelize.File, report *usecase.EvalReport) error {
	header := []any{"Name", "Query", "Retrieved",
		fmt.Sprintf("P@%d", report.K), fmt.Sprintf("R@%d", report.K),
		fmt.Sprintf("NDCG@%d", report.K), "MRR", "AP"}
	if err := f.SetSheetRow(queriesSheet, "A1", &header); err != nil {
		return fmt.Errorf("queries header: %w", err)
	}

	for i, q := range report.PerQuery {
		row := []any{q.Name, q.Query, q.Retrieved, q.Precision, q.Recall, q.NDCG, q.MRR, q.AP}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("queries cell: %w", err)
		}
		if err := f.SetSheetRow(queriesSheet, cell, &row); err != nil {
			return fmt.Errorf("queries row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(queriesSheet, "A", "B", 32); err != nil {
		return fmt.Errorf("queries column width: %w", err)
	}
	return nil
}
