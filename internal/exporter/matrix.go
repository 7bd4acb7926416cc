package exporter

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fincast/internal/infrastructure"
	"fincast/pkg/contracts/domain"
)

// MatrixExporter writes regressor matrices to CSV files.
type MatrixExporter struct {
	csvWriter *CSVWriter
	metrics   *infrastructure.BusinessMetrics
}

// NewMatrixExporter creates a matrix exporter. metrics may be nil; export
// counters are skipped in that case.
func NewMatrixExporter(baseDir string, metrics *infrastructure.BusinessMetrics) *MatrixExporter {
	return &MatrixExporter{
		csvWriter: NewCSVWriter(baseDir),
		metrics:   metrics,
	}
}

// ExportCombined writes the whole matrix to a single CSV file: one row per
// day, one column per event. Written without BOM so downstream analysis tools
// parse it cleanly.
func (m *MatrixExporter) ExportCombined(ctx context.Context, table *domain.RegressorTable, outputPath string) (err error) {
	defer func() { infrastructure.RecordReportExport(ctx, m.metrics, "csv", err) }()

	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, m.rowToCSVRow(table.Columns, row))
	}

	return m.csvWriter.WriteCSV(outputPath, WriteOptions{
		Headers:   m.getHeaders(table.Columns),
		Records:   records,
		Append:    false,
		BOMPrefix: false,
	})
}

// ExportMonthlyFiles splits the matrix into one CSV file per calendar month,
// named fincast_regressors_YYYY_MM.csv under outputDir.
func (m *MatrixExporter) ExportMonthlyFiles(ctx context.Context, table *domain.RegressorTable, outputDir string) (err error) {
	defer func() { infrastructure.RecordReportExport(ctx, m.metrics, "csv", err) }()

	// Group rows by month; row order within a month follows the table.
	rowsByMonth := make(map[string][]domain.MatrixRow)
	for _, row := range table.Rows {
		rowsByMonth[monthKey(row.Date)] = append(rowsByMonth[monthKey(row.Date)], row)
	}

	var months []string
	for month := range rowsByMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		filename := fmt.Sprintf("fincast_regressors_%s.csv", month)
		filePath := filepath.Join(outputDir, filename)

		var records [][]string
		for _, row := range rowsByMonth[month] {
			records = append(records, m.rowToCSVRow(table.Columns, row))
		}

		if err := m.csvWriter.WriteSimpleCSV(filePath, m.getHeaders(table.Columns), records); err != nil {
			return fmt.Errorf("failed to write monthly matrix for %s: %w", month, err)
		}
	}

	return nil
}

// ExportCombinedStreaming writes the matrix through a streaming writer so
// multi-year ranges do not buffer every record in memory.
func (m *MatrixExporter) ExportCombinedStreaming(ctx context.Context, table *domain.RegressorTable, outputPath string) (err error) {
	defer func() { infrastructure.RecordReportExport(ctx, m.metrics, "csv", err) }()

	stream, err := m.csvWriter.CreateStreamWriter(outputPath, m.getHeaders(table.Columns))
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	for _, row := range table.Rows {
		if err := stream.WriteRecord(m.rowToCSVRow(table.Columns, row)); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write row %s: %w", row.Date, err)
		}
	}

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// getHeaders returns the CSV header: the date column followed by the event
// columns in table order.
func (m *MatrixExporter) getHeaders(columns []string) []string {
	headers := make([]string, 0, len(columns)+1)
	headers = append(headers, "date")
	return append(headers, columns...)
}

// rowToCSVRow converts a matrix row to CSV fields in column order.
func (m *MatrixExporter) rowToCSVRow(columns []string, row domain.MatrixRow) []string {
	record := make([]string, 0, len(columns)+1)
	record = append(record, row.Date)
	for _, col := range columns {
		record = append(record, formatAmount(row.Values[col]))
	}
	return record
}

// monthKey reduces an ISO date to its YYYY_MM file key.
func monthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return strings.ReplaceAll(date[:7], "-", "_")
}
