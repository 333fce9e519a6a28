package formatters

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
)

// CSVFormatter handles delimited text output. The delimiter defaults
// to a comma; column order defaults to the sorted keys of the first
// row unless set explicitly.
type CSVFormatter struct {
	delimiter rune
	columns   []string
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{delimiter: ','}
}

// NewCSVFormatterWithDelimiter creates a formatter for other
// delimited flavors (pipe for .dat, tab for .txt)
func NewCSVFormatterWithDelimiter(delimiter rune) *CSVFormatter {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVFormatter{delimiter: delimiter}
}

// WithColumns pins the output column order
func (f *CSVFormatter) WithColumns(columns []string) *CSVFormatter {
	f.columns = columns
	return f
}

// Format converts rows to delimited text
func (f *CSVFormatter) Format(rows []map[string]interface{}) ([]byte, error) {
	columns := f.columns
	if len(columns) == 0 {
		if len(rows) == 0 {
			return []byte{}, nil
		}
		columns = make([]string, 0, len(rows[0]))
		for col := range rows[0] {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	writer.Comma = f.delimiter

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			val := row[col]
			if val == nil {
				record[i] = ""
			} else {
				record[i] = fmt.Sprintf("%v", val)
			}
		}

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buffer.Bytes(), nil
}

// Extension returns the file extension for CSV files
func (f *CSVFormatter) Extension() string {
	return ".csv"
}

// MIMEType returns the MIME type for CSV
func (f *CSVFormatter) MIMEType() string {
	return "text/csv"
}
