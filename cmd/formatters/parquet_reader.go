package formatters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetReader reads Parquet format
type ParquetReader struct {
	file    *parquet.File
	closer  io.ReadCloser
	columns []string
}

// NewParquetReader creates a new Parquet reader
// Note: Parquet requires io.ReaderAt, so we read the entire file into memory
func NewParquetReader(r io.Reader) (*ParquetReader, error) {
	// Read entire file into memory (parquet requires ReaderAt)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &ParquetReader{
		file:    file,
		columns: columnNamesFromSchema(file.Schema()),
	}, nil
}

// NewParquetReaderWithCloser creates a new Parquet reader with a closable reader
func NewParquetReaderWithCloser(r io.ReadCloser) (*ParquetReader, error) {
	reader, err := NewParquetReader(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	reader.closer = r
	return reader, nil
}

// columnNamesFromSchema flattens the schema column paths to their
// leaf names
func columnNamesFromSchema(schema *parquet.Schema) []string {
	paths := schema.Columns()
	names := make([]string, len(paths))
	for i, path := range paths {
		if len(path) > 0 {
			names[i] = path[len(path)-1]
		}
	}
	return names
}

// Columns returns the column names in schema order
func (r *ParquetReader) Columns() []string {
	return r.columns
}

// ReadAll reads all rows across the file's row groups
func (r *ParquetReader) ReadAll() ([]map[string]interface{}, error) {
	var rows []map[string]interface{}

	for _, rowGroup := range r.file.RowGroups() {
		rowReader := rowGroup.Rows()

		for {
			batch := make([]parquet.Row, 1000)
			n, err := rowReader.ReadRows(batch)
			if err != nil && err != io.EOF {
				rowReader.Close()
				return nil, fmt.Errorf("failed to read parquet rows: %w", err)
			}
			if n == 0 {
				break
			}

			for rowIdx := 0; rowIdx < n; rowIdx++ {
				rows = append(rows, r.convertRow(batch[rowIdx]))
			}

			if err == io.EOF || n < len(batch) {
				break
			}
		}
		rowReader.Close()
	}

	return rows, nil
}

// convertRow maps a parquet.Row onto column names with native Go values
func (r *ParquetReader) convertRow(parquetRow parquet.Row) map[string]interface{} {
	row := make(map[string]interface{}, len(r.columns))
	for i, val := range parquetRow {
		if i >= len(r.columns) {
			break
		}
		name := r.columns[i]
		if val.IsNull() {
			row[name] = nil
			continue
		}
		switch val.Kind() {
		case parquet.Boolean:
			row[name] = val.Boolean()
		case parquet.Int32:
			row[name] = val.Int32()
		case parquet.Int64:
			row[name] = val.Int64()
		case parquet.Float:
			row[name] = val.Float()
		case parquet.Double:
			row[name] = val.Double()
		default:
			row[name] = string(val.ByteArray())
		}
	}
	return row
}

// Close closes the underlying reader
func (r *ParquetReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
