// Package exporter provides CSV and XLSX export functionality for FinCast
// projection and analytics output.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// MatrixExporter: Writes regressor matrices as combined CSV files, monthly
// CSV splits, or through a streaming writer for long date ranges.
//
// ReportExporter: Writes anomaly and attribution results as CSV files and
// assembles full multi-sheet XLSX reports (Summary, Anomalies, Regressors,
// TopFeatures).
//
// Example usage:
//
//	// Export a projected matrix
//	matrixExporter := exporter.NewMatrixExporter("/path/to/reports", metrics)
//	err := matrixExporter.ExportCombined(ctx, table, "matrix.csv")
//
//	// Assemble a full signal report workbook
//	reportExporter := exporter.NewReportExporter("/path/to/reports", metrics)
//	err = reportExporter.ExportWorkbook(ctx, &exporter.SignalReport{
//		GeneratedAt: time.Now(),
//		Anomalies:   anomalyReport,
//	}, "report.xlsx")
package exporter
