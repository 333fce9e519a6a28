package formatters

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// ParquetFormatter handles Parquet format output
type ParquetFormatter struct{}

// NewParquetFormatter creates a new Parquet formatter
func NewParquetFormatter() *ParquetFormatter {
	return &ParquetFormatter{}
}

// Format converts rows to Parquet format with Snappy compression
func (f *ParquetFormatter) Format(rows []map[string]interface{}) ([]byte, error) {
	if len(rows) == 0 {
		return []byte{}, nil
	}

	var buffer bytes.Buffer

	// Build schema by scanning all rows to find actual types
	schema := buildSchemaFromRows(rows)

	writer := parquet.NewGenericWriter[map[string]any](&buffer, schema, parquet.Compression(&parquet.Snappy))

	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return buffer.Bytes(), nil
}

// buildSchemaFromRows creates a Parquet schema by scanning all rows to find actual types
func buildSchemaFromRows(rows []map[string]interface{}) *parquet.Schema {
	// Get all column names from first row
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	// Find the first non-nil value for each column to determine its type
	columnTypes := make(map[string]interface{})
	for _, col := range columns {
		for _, row := range rows {
			if value := row[col]; value != nil {
				columnTypes[col] = value
				break
			}
		}
		// If all values are nil, default to string
		if _, found := columnTypes[col]; !found {
			columnTypes[col] = ""
		}
	}

	fields := make(parquet.Group)
	for _, col := range columns {
		var field parquet.Node
		switch columnTypes[col].(type) {
		case bool:
			field = parquet.Optional(parquet.Leaf(parquet.BooleanType))
		case int, int8, int16, int32:
			field = parquet.Optional(parquet.Leaf(parquet.Int32Type))
		case int64:
			field = parquet.Optional(parquet.Leaf(parquet.Int64Type))
		case float32:
			field = parquet.Optional(parquet.Leaf(parquet.FloatType))
		case float64:
			field = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		case string:
			field = parquet.Optional(parquet.String())
		case []byte:
			field = parquet.Optional(parquet.Leaf(parquet.ByteArrayType))
		default:
			field = parquet.Optional(parquet.String())
		}
		fields[col] = field
	}

	return parquet.NewSchema("dataset", fields)
}

// Extension returns the file extension for Parquet files
func (f *ParquetFormatter) Extension() string {
	return ".parquet"
}

// MIMEType returns the MIME type for Parquet
func (f *ParquetFormatter) MIMEType() string {
	return "application/vnd.apache.parquet"
}
