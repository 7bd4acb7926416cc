package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/internal/exporter"
	v1 "fincast/pkg/contracts/api/v1"
	"fincast/pkg/contracts/domain"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSeries(t *testing.T) {
	t.Run("valid series", func(t *testing.T) {
		path := writeTempFile(t, "series.csv", "date,value\n"+
			"2023-01-01,10\n"+
			"2023-01-02,12.5\n")

		points, err := loadSeries(path)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, "2023-01-01", points[0].Date)
		assert.Equal(t, 12.5, points[1].Value)
	})

	t.Run("missing value column", func(t *testing.T) {
		path := writeTempFile(t, "series.csv", "date,amount\n2023-01-01,10\n")

		_, err := loadSeries(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "value")
	})

	t.Run("no data rows", func(t *testing.T) {
		path := writeTempFile(t, "series.csv", "date,value\n")

		_, err := loadSeries(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})
}

func TestLoadScores(t *testing.T) {
	path := writeTempFile(t, "scores.csv", "name,importance\n"+
		"spring_sale,10\n"+
		"price_drop,6\n")

	scores, err := loadScores(path)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "spring_sale", scores[0].Name)
	assert.Equal(t, 10.0, scores[0].Importance)
	assert.Equal(t, 6.0, scores[1].Importance)
}

func TestSeriesRange(t *testing.T) {
	tests := []struct {
		name          string
		points        []v1.SeriesPointInput
		expectedStart string
		expectedEnd   string
	}{
		{
			name: "sorted input",
			points: []v1.SeriesPointInput{
				{Date: "2023-01-01"},
				{Date: "2023-01-15"},
				{Date: "2023-02-01"},
			},
			expectedStart: "2023-01-01",
			expectedEnd:   "2023-02-01",
		},
		{
			name: "unsorted input",
			points: []v1.SeriesPointInput{
				{Date: "2023-03-10"},
				{Date: "2023-01-05"},
				{Date: "2023-02-20"},
			},
			expectedStart: "2023-01-05",
			expectedEnd:   "2023-03-10",
		},
		{
			name:          "single point",
			points:        []v1.SeriesPointInput{{Date: "2023-06-01"}},
			expectedStart: "2023-06-01",
			expectedEnd:   "2023-06-01",
		},
		{
			name:          "empty input",
			points:        nil,
			expectedStart: "",
			expectedEnd:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := seriesRange(tt.points)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedEnd, end)
		})
	}
}

func TestWriteSiblingCSVs(t *testing.T) {
	tempDir := t.TempDir()
	outPath := filepath.Join(tempDir, "report.xlsx")

	report := &exporter.SignalReport{
		GeneratedAt: time.Now(),
		Anomalies: &domain.AnomalyReport{
			Method:    "zscore",
			Threshold: 3.0,
			Total:     2,
			Results: []domain.AnomalyPoint{
				{Date: "2023-01-01", Value: 10, Score: -1},
				{Date: "2023-01-02", Value: 20, Score: 1},
			},
		},
		Attribution: &domain.Attribution{
			Scale: "unit",
			TopN:  1,
			Features: []domain.RankedFeature{
				{Name: "spring_sale", Importance: 1},
			},
		},
	}

	err := writeSiblingCSVs(context.Background(), exporter.NewReportExporter("", nil), report, outPath)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(tempDir, "report_anomalies.csv"))
	assert.FileExists(t, filepath.Join(tempDir, "report_features.csv"))
	assert.NoFileExists(t, filepath.Join(tempDir, "report_regressors.csv"))
}
