package formatters

import (
	"errors"
	"fmt"
	"io"
)

// Format type constants
const (
	FormatCSV     = "csv"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

// ErrUnsupportedFormat is returned when an unsupported format is requested
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formatter defines the interface for output format handlers
type Formatter interface {
	// Format converts rows to the target format
	Format(rows []map[string]interface{}) ([]byte, error)

	// Extension returns the file extension for this format (e.g., ".jsonl", ".csv", ".parquet")
	Extension() string

	// MIMEType returns the MIME type for this format
	MIMEType() string
}

// RowReader decodes a stream of rows from an input format
type RowReader interface {
	// ReadAll reads every remaining row
	ReadAll() ([]map[string]interface{}, error)

	// Columns returns the column order of the input, when the format
	// preserves one. Nil means no inherent order (e.g. JSONL).
	Columns() []string

	// Close closes the underlying reader
	Close() error
}

// GetFormatter returns the appropriate formatter based on the format string
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case FormatJSONL:
		return NewJSONLFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatParquet:
		return NewParquetFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// GetReader returns a row reader for the format. The delimiter only
// applies to delimited text; pass 0 for the format default.
func GetReader(format string, r io.ReadCloser, delimiter rune) (RowReader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReaderWithCloser(r, delimiter)
	case FormatJSONL:
		return NewJSONLReaderWithCloser(r), nil
	case FormatParquet:
		return NewParquetReaderWithCloser(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
