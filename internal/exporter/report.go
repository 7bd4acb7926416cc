package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "fincast/internal/errors"
	"fincast/internal/infrastructure"
	"fincast/pkg/contracts/domain"
)

// SignalReport bundles the outputs of one analysis run for export. Matrix
// and Attribution are optional; their sheets are skipped when nil.
type SignalReport struct {
	GeneratedAt time.Time
	Anomalies   *domain.AnomalyReport
	Matrix      *domain.RegressorTable
	Attribution *domain.Attribution
}

// ReportExporter writes analytics reports as CSV files and multi-sheet XLSX
// workbooks.
type ReportExporter struct {
	csvWriter *CSVWriter
	metrics   *infrastructure.BusinessMetrics
}

// NewReportExporter creates a report exporter. metrics may be nil; export
// counters are skipped in that case.
func NewReportExporter(baseDir string, metrics *infrastructure.BusinessMetrics) *ReportExporter {
	return &ReportExporter{
		csvWriter: NewCSVWriter(baseDir),
		metrics:   metrics,
	}
}

// ExportAnomalyCSV writes one scored row per series point.
func (r *ReportExporter) ExportAnomalyCSV(ctx context.Context, report *domain.AnomalyReport, outputPath string) (err error) {
	defer func() { infrastructure.RecordReportExport(ctx, r.metrics, "csv", err) }()

	records := make([][]string, 0, len(report.Results))
	for _, point := range report.Results {
		records = append(records, []string{
			point.Date,
			formatAmount(point.Value),
			formatScore(point.Score),
			formatBool(point.IsAnomaly),
		})
	}

	headers := []string{"Date", "Value", "Score", "IsAnomaly"}
	return r.csvWriter.WriteSimpleCSV(outputPath, headers, records)
}

// ExportAttributionCSV writes the ranked feature list, highest importance
// first.
func (r *ReportExporter) ExportAttributionCSV(ctx context.Context, attribution *domain.Attribution, outputPath string) (err error) {
	defer func() { infrastructure.RecordReportExport(ctx, r.metrics, "csv", err) }()

	records := make([][]string, 0, len(attribution.Features))
	for i, feature := range attribution.Features {
		records = append(records, []string{
			formatInt(i + 1),
			feature.Name,
			formatScore(feature.Importance),
		})
	}

	headers := []string{"Rank", "Feature", "Importance"}
	return r.csvWriter.WriteSimpleCSV(outputPath, headers, records)
}

// ExportWorkbook writes the full report as an XLSX workbook with a Summary
// sheet plus one sheet per populated section.
func (r *ReportExporter) ExportWorkbook(ctx context.Context, report *SignalReport, outputPath string) (err error) {
	defer func() { infrastructure.RecordReportExport(ctx, r.metrics, "xlsx", err) }()

	fullPath := outputPath
	if !filepath.IsAbs(fullPath) && r.csvWriter.baseDir != "" {
		fullPath = filepath.Join(r.csvWriter.baseDir, outputPath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apierrors.NewStorageError("failed to create directory for workbook output", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeSummarySheet(f, report); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if report.Anomalies != nil {
		if err := r.writeAnomalySheet(f, report.Anomalies); err != nil {
			return fmt.Errorf("failed to write anomaly sheet: %w", err)
		}
	}
	if report.Matrix != nil {
		if err := r.writeRegressorSheet(f, report.Matrix); err != nil {
			return fmt.Errorf("failed to write regressor sheet: %w", err)
		}
	}
	if report.Attribution != nil {
		if err := r.writeAttributionSheet(f, report.Attribution); err != nil {
			return fmt.Errorf("failed to write attribution sheet: %w", err)
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return apierrors.NewStorageError("failed to save XLSX workbook", err)
	}
	return nil
}

// writeSummarySheet renames the default sheet and fills it with key/value
// rows describing the run.
func (r *ReportExporter) writeSummarySheet(f *excelize.File, report *SignalReport) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Generated", report.GeneratedAt.Format(time.RFC3339)},
	}
	if report.Anomalies != nil {
		rows = append(rows,
			[]interface{}{"Detection method", report.Anomalies.Method},
			[]interface{}{"Threshold", report.Anomalies.Threshold},
			[]interface{}{"Points analyzed", report.Anomalies.Total},
			[]interface{}{"Points flagged", report.Anomalies.Flagged},
		)
	}
	if report.Matrix != nil {
		rows = append(rows,
			[]interface{}{"Matrix range", report.Matrix.StartDate + " to " + report.Matrix.EndDate},
			[]interface{}{"Matrix rows", report.Matrix.NumRows()},
			[]interface{}{"Matrix columns", len(report.Matrix.Columns)},
		)
	}
	if report.Attribution != nil {
		rows = append(rows,
			[]interface{}{"Attribution scale", report.Attribution.Scale},
			[]interface{}{"Top features", len(report.Attribution.Features)},
		)
	}

	for i, row := range rows {
		if err := setSheetRow(f, sheet, i+1, row...); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

func (r *ReportExporter) writeAnomalySheet(f *excelize.File, report *domain.AnomalyReport) error {
	const sheet = "Anomalies"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	if err := setSheetRow(f, sheet, 1, "Date", "Value", "Score", "IsAnomaly"); err != nil {
		return err
	}
	for i, point := range report.Results {
		if err := setSheetRow(f, sheet, i+2, point.Date, point.Value, point.Score, point.IsAnomaly); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReportExporter) writeRegressorSheet(f *excelize.File, table *domain.RegressorTable) error {
	const sheet = "Regressors"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(table.Columns)+1)
	header = append(header, "Date")
	for _, col := range table.Columns {
		header = append(header, col)
	}
	if err := setSheetRow(f, sheet, 1, header...); err != nil {
		return err
	}

	for i, row := range table.Rows {
		values := make([]interface{}, 0, len(table.Columns)+1)
		values = append(values, row.Date)
		for _, col := range table.Columns {
			values = append(values, row.Values[col])
		}
		if err := setSheetRow(f, sheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReportExporter) writeAttributionSheet(f *excelize.File, attribution *domain.Attribution) error {
	const sheet = "TopFeatures"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	if err := setSheetRow(f, sheet, 1, "Rank", "Feature", "Importance"); err != nil {
		return err
	}
	for i, feature := range attribution.Features {
		if err := setSheetRow(f, sheet, i+2, i+1, feature.Name, feature.Importance); err != nil {
			return err
		}
	}
	return nil
}

// setSheetRow writes values left to right starting at column A of the given
// row.
func setSheetRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
