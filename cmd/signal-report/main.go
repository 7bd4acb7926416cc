package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"fincast/internal/config"
	apierrors "fincast/internal/errors"
	"fincast/internal/exporter"
	"fincast/internal/infrastructure"
	"fincast/internal/services"
	"fincast/internal/validation"
	v1 "fincast/pkg/contracts/api/v1"
)

func main() {
	series := flag.String("series", "", "observed series CSV (date,value)")
	events := flag.String("events", "", "optional event definitions CSV (name,amount,start_date,frequency)")
	scores := flag.String("scores", "", "optional feature importance CSV (name,importance)")
	out := flag.String("out", "", "output XLSX report path")
	threshold := flag.Float64("threshold", 0, "z-score threshold (omit to use the configured default)")
	top := flag.Int("top", 0, "number of top features to keep (omit to use the configured default)")
	scale := flag.String("scale", "", "attribution scale: unit | percent")
	flag.Parse()

	if *series == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: signal-report -series series.csv [-events events.csv] [-scores scores.csv] -out report.xlsx [-threshold 3.0] [-top 5] [-scale unit|percent]")
		os.Exit(2)
	}

	var thresholdSet bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			thresholdSet = true
		}
	})

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	logger.Info("Starting signal report",
		slog.String("series_file", *series),
		slog.String("output_file", *out))

	fileValidator := validation.NewFileValidator(logger)
	if err := fileValidator.ValidateCSVFile(*series); err != nil {
		logger.Error("Invalid series file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := fileValidator.ValidateOutputFile(*out, ".xlsx"); err != nil {
		logger.Error("Invalid output path", slog.String("error", err.Error()))
		os.Exit(1)
	}

	seriesPoints, err := loadSeries(*series)
	if err != nil {
		logger.Error("Failed to load series", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Printf("Loaded %d series points\n", len(seriesPoints))

	ctx := context.Background()
	analytics := services.NewAnalyticsService(nil, cfg.Analytics, nil, logger)

	anomaliesReq := &v1.AnomaliesRequest{Series: seriesPoints}
	if thresholdSet {
		anomaliesReq.Threshold = threshold
	}
	anomalyReport, err := analytics.DetectAnomalies(ctx, anomaliesReq)
	if err != nil {
		logger.Error("Detection failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "detection failed: %v\n", err)
		os.Exit(1)
	}

	report := &exporter.SignalReport{
		GeneratedAt: time.Now(),
		Anomalies:   anomalyReport,
	}

	if *events != "" {
		if err := fileValidator.ValidateCSVFile(*events); err != nil {
			logger.Error("Invalid events file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		eventInputs, err := loadEvents(*events)
		if err != nil {
			logger.Error("Failed to load events", slog.String("error", err.Error()))
			os.Exit(1)
		}

		start, end := seriesRange(seriesPoints)
		forecast := services.NewForecastService(nil, cfg.Analytics, nil, logger)
		table, err := forecast.BuildRegressors(ctx, &v1.RegressorsRequest{
			Events:    eventInputs,
			StartDate: start,
			EndDate:   end,
		})
		if err != nil {
			logger.Error("Projection failed", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "projection failed: %v\n", err)
			os.Exit(1)
		}
		report.Matrix = table
	}

	if *scores != "" {
		if err := fileValidator.ValidateCSVFile(*scores); err != nil {
			logger.Error("Invalid scores file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		featureScores, err := loadScores(*scores)
		if err != nil {
			logger.Error("Failed to load scores", slog.String("error", err.Error()))
			os.Exit(1)
		}

		attribution, err := analytics.RankAttributions(ctx, &v1.AttributionsRequest{
			Scores: featureScores,
			TopN:   *top,
			Scale:  *scale,
		})
		if err != nil {
			logger.Error("Ranking failed", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "ranking failed: %v\n", err)
			os.Exit(1)
		}
		report.Attribution = attribution
	}

	reportExporter := exporter.NewReportExporter("", nil)
	if err := reportExporter.ExportWorkbook(ctx, report, *out); err != nil {
		logger.Error("Failed to write workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := writeSiblingCSVs(ctx, reportExporter, report, *out); err != nil {
		logger.Error("Failed to write sibling CSVs", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Signal report completed",
		slog.Int("points", anomalyReport.Total),
		slog.Int("flagged", anomalyReport.Flagged),
		slog.String("output_path", *out))

	printSummary(report)
	fmt.Printf("Report written: %s\n", *out)
}

// writeSiblingCSVs mirrors the workbook sections as standalone CSV files
// next to the XLSX output.
func writeSiblingCSVs(ctx context.Context, reportExporter *exporter.ReportExporter, report *exporter.SignalReport, out string) error {
	base := strings.TrimSuffix(out, filepath.Ext(out))

	if err := reportExporter.ExportAnomalyCSV(ctx, report.Anomalies, base+"_anomalies.csv"); err != nil {
		return err
	}
	if report.Matrix != nil {
		matrixExporter := exporter.NewMatrixExporter("", nil)
		if err := matrixExporter.ExportCombined(ctx, report.Matrix, base+"_regressors.csv"); err != nil {
			return err
		}
	}
	if report.Attribution != nil {
		if err := reportExporter.ExportAttributionCSV(ctx, report.Attribution, base+"_features.csv"); err != nil {
			return err
		}
	}
	return nil
}

// printSummary prints the run outcome plus a table of flagged points.
func printSummary(report *exporter.SignalReport) {
	fmt.Printf("Points analyzed: %d\n", report.Anomalies.Total)
	fmt.Printf("Anomalies flagged: %d (threshold %.2f)\n", report.Anomalies.Flagged, report.Anomalies.Threshold)
	if report.Matrix != nil {
		fmt.Printf("Regressor matrix: %d rows, %d columns\n", report.Matrix.NumRows(), len(report.Matrix.Columns))
	}
	if report.Attribution != nil {
		fmt.Printf("Top features (%s scale): %d\n", report.Attribution.Scale, len(report.Attribution.Features))
	}

	if report.Anomalies.Flagged == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tVALUE\tSCORE")
	for _, point := range report.Anomalies.Results {
		if point.IsAnomaly {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\n", point.Date, point.Value, point.Score)
		}
	}
	w.Flush()
}

// loadSeries reads observed points from a CSV file with a date,value header.
func loadSeries(path string) ([]v1.SeriesPointInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to open series file", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("failed to parse series CSV", err)
	}
	if len(rows) < 2 {
		return nil, apierrors.NewParsingError("series file has no data rows", nil)
	}

	idx, err := headerIndex(rows[0], "date", "value")
	if err != nil {
		return nil, err
	}

	points := make([]v1.SeriesPointInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		value, err := parseAmount(row[idx["value"]])
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("row %d: invalid value %q", i+2, row[idx["value"]]), err)
		}
		points = append(points, v1.SeriesPointInput{
			Date:  strings.TrimSpace(row[idx["date"]]),
			Value: value,
		})
	}
	return points, nil
}

// loadEvents reads event definitions from a CSV file with a
// name,amount,start_date,frequency header.
func loadEvents(path string) ([]v1.EventInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to open events file", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("failed to parse events CSV", err)
	}
	if len(rows) < 2 {
		return nil, apierrors.NewParsingError("events file has no data rows", nil)
	}

	idx, err := headerIndex(rows[0], "name", "amount", "start_date", "frequency")
	if err != nil {
		return nil, err
	}

	events := make([]v1.EventInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		amount, err := parseAmount(row[idx["amount"]])
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("row %d: invalid amount %q", i+2, row[idx["amount"]]), err)
		}
		events = append(events, v1.EventInput{
			Name:      strings.TrimSpace(row[idx["name"]]),
			Amount:    amount,
			StartDate: strings.TrimSpace(row[idx["start_date"]]),
			Frequency: strings.TrimSpace(row[idx["frequency"]]),
		})
	}
	return events, nil
}

// loadScores reads raw feature importances from a CSV file with a
// name,importance header.
func loadScores(path string) ([]v1.FeatureScoreInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to open scores file", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("failed to parse scores CSV", err)
	}
	if len(rows) < 2 {
		return nil, apierrors.NewParsingError("scores file has no data rows", nil)
	}

	idx, err := headerIndex(rows[0], "name", "importance")
	if err != nil {
		return nil, err
	}

	featureScores := make([]v1.FeatureScoreInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		importance, err := parseAmount(row[idx["importance"]])
		if err != nil {
			return nil, apierrors.NewParsingError(fmt.Sprintf("row %d: invalid importance %q", i+2, row[idx["importance"]]), err)
		}
		featureScores = append(featureScores, v1.FeatureScoreInput{
			Name:       strings.TrimSpace(row[idx["name"]]),
			Importance: importance,
		})
	}
	return featureScores, nil
}

// seriesRange returns the earliest and latest dates in the series. ISO dates
// order lexically, so no parsing is needed.
func seriesRange(points []v1.SeriesPointInput) (string, string) {
	if len(points) == 0 {
		return "", ""
	}
	start, end := points[0].Date, points[0].Date
	for _, p := range points[1:] {
		if p.Date < start {
			start = p.Date
		}
		if p.Date > end {
			end = p.Date
		}
	}
	return start, end
}

// headerIndex maps required column names to their positions in the header
// row.
func headerIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return idx, nil
}

// parseAmount parses a numeric field, tolerating thousands separators.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}
