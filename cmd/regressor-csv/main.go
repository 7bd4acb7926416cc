package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"fincast/internal/config"
	apierrors "fincast/internal/errors"
	"fincast/internal/exporter"
	"fincast/internal/infrastructure"
	"fincast/internal/services"
	"fincast/internal/validation"
	v1 "fincast/pkg/contracts/api/v1"
)

func main() {
	events := flag.String("events", "", "event definitions CSV (name,amount,start_date,frequency)")
	start := flag.String("start", "", "range start date (YYYY-MM-DD)")
	end := flag.String("end", "", "range end date (YYYY-MM-DD)")
	out := flag.String("out", "", "output CSV file path")
	mode := flag.String("mode", "step", "one_time projection mode: step | impulse")
	monthly := flag.String("monthly", "", "optional directory for per-month CSV splits")
	flag.Parse()

	if *events == "" || *start == "" || *end == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: regressor-csv -events events.csv -start 2023-01-01 -end 2023-12-31 -out matrix.csv [-mode step|impulse] [-monthly dir]")
		os.Exit(2)
	}

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

	logger.Info("Starting regressor projection",
		slog.String("events_file", *events),
		slog.String("start_date", *start),
		slog.String("end_date", *end),
		slog.String("output_file", *out),
		slog.String("mode", *mode))

	fileValidator := validation.NewFileValidator(logger)
	if err := fileValidator.ValidateCSVFile(*events); err != nil {
		logger.Error("Invalid events file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := fileValidator.ValidateOutputFile(*out, ".csv"); err != nil {
		logger.Error("Invalid output path", slog.String("error", err.Error()))
		os.Exit(1)
	}

	eventInputs, err := loadEvents(*events)
	if err != nil {
		logger.Error("Failed to load events", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Printf("Loaded %d event definitions\n", len(eventInputs))

	ctx := context.Background()
	service := services.NewForecastService(nil, cfg.Analytics, nil, logger)

	table, err := service.BuildRegressors(ctx, &v1.RegressorsRequest{
		Events:    eventInputs,
		StartDate: *start,
		EndDate:   *end,
		Mode:      *mode,
	})
	if err != nil {
		logger.Error("Projection failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "projection failed: %v\n", err)
		os.Exit(1)
	}

	matrixExporter := exporter.NewMatrixExporter("", nil)
	if err := matrixExporter.ExportCombined(ctx, table, *out); err != nil {
		logger.Error("Failed to write matrix", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *monthly != "" {
		if err := matrixExporter.ExportMonthlyFiles(ctx, table, *monthly); err != nil {
			logger.Error("Failed to write monthly splits", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("Monthly splits written to %s\n", *monthly)
	}

	logger.Info("Projection completed",
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", len(table.Columns)),
		slog.String("output_path", *out))

	fmt.Printf("Projected %d events over %d days (%d columns)\n",
		len(eventInputs), table.NumRows(), len(table.Columns))
	fmt.Printf("Regressor matrix written: %s\n", *out)
}

// loadEvents reads event definitions from a CSV file with a
// name,amount,start_date,frequency header. Column order is free; header
// matching is case-insensitive.
func loadEvents(path string) ([]v1.EventInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to open events file", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
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
