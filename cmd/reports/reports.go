package reports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/datamosaic/data-comparer/cmd/engine"
	"github.com/datamosaic/data-comparer/cmd/formatters"
)

// NumericTolerance is the absolute difference below which two
// aggregates are classified as passing. The engine reports raw
// values; tolerance is applied only here.
const NumericTolerance = 0.0001

// NoDifferencesText is written to the difference report when both
// unmatched sets are empty
const NoDifferencesText = "There are No Differences found."

// Check status values
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Writer renders one comparison result into a report bundle
type Writer struct {
	dir       string
	timestamp time.Time
	format    string
	logger    *slog.Logger
}

// NewWriter creates a report writer over an output directory. Format
// selects the difference-report encoding (csv, jsonl or parquet).
func NewWriter(dir, format string, logger *slog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if format == "" {
		format = formatters.FormatCSV
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		dir:       dir,
		timestamp: time.Now(),
		format:    format,
		logger:    logger,
	}, nil
}

// WriteAll renders the full bundle and returns the written paths
func (w *Writer) WriteAll(result *engine.ComparisonResult) ([]string, error) {
	var paths []string

	writers := []func(*engine.ComparisonResult) (string, error){
		w.writeAggregationCheck,
		w.writeCountCheck,
		w.writeDistinctCheck,
		w.writeTextReport,
		w.writeResultJSON,
	}
	for _, write := range writers {
		path, err := write(result)
		if err != nil {
			return paths, err
		}
		if path != "" {
			paths = append(paths, path)
		}
	}

	profilePaths, err := w.writeProfileReports(result)
	if err != nil {
		return paths, err
	}
	paths = append(paths, profilePaths...)

	diffPaths, err := w.writeDifferenceReport(result)
	if err != nil {
		return paths, err
	}
	paths = append(paths, diffPaths...)

	w.logger.Info("📝 Report bundle written", "dir", w.dir, "files", len(paths))
	return paths, nil
}

// writeAggregationCheck renders per-column sum comparisons for the
// numeric columns with PASS/FAIL against the tolerance
func (w *Writer) writeAggregationCheck(result *engine.ComparisonResult) (string, error) {
	var rows []map[string]interface{}
	for _, name := range sortedColumns(result.ColumnSummary) {
		stats := result.ColumnSummary[name]
		if !stats.Numeric {
			continue
		}
		difference := stats.SourceSum - stats.TargetSum
		rows = append(rows, map[string]interface{}{
			"Column":     name,
			"Source_Sum": stats.SourceSum,
			"Target_Sum": stats.TargetSum,
			"Difference": difference,
			"Status":     toleranceStatus(difference),
		})
	}

	columns := []string{"Column", "Source_Sum", "Target_Sum", "Difference", "Status"}
	return w.writeSheet("AggregationCheck", rows, columns)
}

// writeCountCheck renders the row count and per-column null and
// distinct counts with equality PASS/FAIL
func (w *Writer) writeCountCheck(result *engine.ComparisonResult) (string, error) {
	rows := []map[string]interface{}{
		countRow("Row Count", result.RowCounts.SourceCount, result.RowCounts.TargetCount),
	}
	for _, name := range sortedColumns(result.ColumnSummary) {
		stats := result.ColumnSummary[name]
		rows = append(rows,
			countRow("Null Count: "+name, stats.SourceNulls, stats.TargetNulls),
			countRow("Distinct Count: "+name, stats.SourceDistinct, stats.TargetDistinct),
		)
	}

	columns := []string{"Metric", "Source", "Target", "Difference", "Status"}
	return w.writeSheet("CountCheck", rows, columns)
}

// writeDistinctCheck renders the distinct-value histograms side by
// side, one row per column and value
func (w *Writer) writeDistinctCheck(result *engine.ComparisonResult) (string, error) {
	var rows []map[string]interface{}
	for _, name := range sortedColumns(result.DistinctValues) {
		info := result.DistinctValues[name]

		values := make(map[string]bool, len(info.SourceValues)+len(info.TargetValues))
		for v := range info.SourceValues {
			values[v] = true
		}
		for v := range info.TargetValues {
			values[v] = true
		}
		ordered := make([]string, 0, len(values))
		for v := range values {
			ordered = append(ordered, v)
		}
		sort.Strings(ordered)

		for _, value := range ordered {
			sourceCount, inSource := info.SourceValues[value]
			targetCount, inTarget := info.TargetValues[value]
			status := StatusPass
			if !inSource || !inTarget {
				status = StatusFail
			}
			rows = append(rows, map[string]interface{}{
				"Column":       name,
				"Value":        value,
				"Source_Count": sourceCount,
				"Target_Count": targetCount,
				"Status":       status,
			})
		}
	}

	columns := []string{"Column", "Value", "Source_Count", "Target_Count", "Status"}
	return w.writeSheet("DistinctCheck", rows, columns)
}

// writeProfileReports renders one standalone profile sheet per side:
// each compared column's type, null/unique counts, and numeric
// aggregates, computed independently of the other side
func (w *Writer) writeProfileReports(result *engine.ComparisonResult) ([]string, error) {
	var paths []string
	for _, side := range []struct {
		name    string
		profile engine.TableProfile
	}{
		{"SourceProfile", result.SourceProfile},
		{"TargetProfile", result.TargetProfile},
	} {
		if len(side.profile.Columns) == 0 {
			continue
		}

		var rows []map[string]interface{}
		for _, name := range sortedColumns(side.profile.Columns) {
			p := side.profile.Columns[name]
			row := map[string]interface{}{
				"Column":       name,
				"Type":         p.Kind,
				"Row_Count":    side.profile.RowCount,
				"Null_Count":   p.Nulls,
				"Unique_Count": p.Distinct,
			}
			if p.Numeric {
				row["Sum"] = p.Sum
				row["Mean"] = p.Mean
				row["Std"] = p.Std
			}
			rows = append(rows, row)
		}

		columns := []string{"Column", "Type", "Row_Count", "Null_Count", "Unique_Count", "Sum", "Mean", "Std"}
		path, err := w.writeSheet(side.name, rows, columns)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeDifferenceReport writes the unmatched rows, or the
// no-differences text file when both sides reconciled clean
func (w *Writer) writeDifferenceReport(result *engine.ComparisonResult) ([]string, error) {
	sourceRows := result.SourceUnmatched.Rows()
	targetRows := result.TargetUnmatched.Rows()

	if len(sourceRows) == 0 && len(targetRows) == 0 {
		path := w.path("DifferenceReport", ".txt")
		if err := os.WriteFile(path, []byte(NoDifferencesText+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("failed to write difference report: %w", err)
		}
		return []string{path}, nil
	}

	var paths []string
	for _, side := range []struct {
		name    string
		rows    []map[string]interface{}
		columns []string
	}{
		{"SourceUnmatched", sourceRows, result.SourceUnmatched.ColumnNames()},
		{"TargetUnmatched", targetRows, result.TargetUnmatched.ColumnNames()},
	} {
		if len(side.rows) == 0 {
			continue
		}
		data, extension, err := w.encodeRows(side.rows, side.columns)
		if err != nil {
			return paths, err
		}
		path := w.path(side.name, extension)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", side.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeTextReport writes the engine's plain-text report
func (w *Writer) writeTextReport(result *engine.ComparisonResult) (string, error) {
	if result.Report == "" {
		return "", nil
	}
	path := w.path("datacompy_report", ".txt")
	if err := os.WriteFile(path, []byte(result.Report), 0644); err != nil {
		return "", fmt.Errorf("failed to write text report: %w", err)
	}
	return path, nil
}

// writeResultJSON serializes the whole result
func (w *Writer) writeResultJSON(result *engine.ComparisonResult) (string, error) {
	data, err := json.MarshalIndent(result.ForJSON(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize result: %w", err)
	}
	path := w.path("result", ".json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write result.json: %w", err)
	}
	return path, nil
}

// writeSheet writes one check sheet as CSV with a pinned column order
func (w *Writer) writeSheet(name string, rows []map[string]interface{}, columns []string) (string, error) {
	data, err := formatters.NewCSVFormatter().WithColumns(columns).Format(rows)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	path := w.path(name, ".csv")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// encodeRows renders rows in the writer's difference-report format
func (w *Writer) encodeRows(rows []map[string]interface{}, columns []string) ([]byte, string, error) {
	if w.format == formatters.FormatCSV {
		data, err := formatters.NewCSVFormatter().WithColumns(columns).Format(rows)
		return data, ".csv", err
	}
	formatter, err := formatters.GetFormatter(w.format)
	if err != nil {
		return nil, "", err
	}
	data, err := formatter.Format(rows)
	return data, formatter.Extension(), err
}

// path builds a timestamped file path inside the bundle directory
func (w *Writer) path(name, extension string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s%s", name, w.timestamp.Format("20060102_150405"), extension))
}

func countRow(metric string, source, target int) map[string]interface{} {
	status := StatusPass
	if source != target {
		status = StatusFail
	}
	return map[string]interface{}{
		"Metric":     metric,
		"Source":     source,
		"Target":     target,
		"Difference": source - target,
		"Status":     status,
	}
}

func toleranceStatus(difference float64) string {
	if math.Abs(difference) < NumericTolerance {
		return StatusPass
	}
	return StatusFail
}

func sortedColumns[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
