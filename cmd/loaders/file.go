package loaders

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/datamosaic/data-comparer/cmd/compressors"
	"github.com/datamosaic/data-comparer/cmd/formatters"
)

// defaultDelimiters maps delimited-text extensions to their
// conventional separators
var defaultDelimiters = map[string]rune{
	".csv": ',',
	".dat": '|',
	".txt": '\t',
}

// FileLoader loads delimited text, JSONL and Parquet files, with
// transparent decompression and zip archive expansion
type FileLoader struct {
	cfg    SourceConfig
	logger *slog.Logger
}

// NewFileLoader creates a file loader
func NewFileLoader(cfg SourceConfig, logger *slog.Logger) *FileLoader {
	return &FileLoader{cfg: cfg, logger: logger}
}

// Load reads the configured file into row maps
func (l *FileLoader) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if strings.EqualFold(filepath.Ext(l.cfg.Path), ".zip") {
		return l.loadZip(ctx)
	}

	file, err := os.Open(l.cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	l.logger.Debug("📄 Loading file", "path", l.cfg.Path)
	return l.parseStream(l.cfg.Path, file)
}

// parseStream decodes one named stream: compression is detected from
// the outer extension, the format from the inner one unless the
// config forces it. Takes ownership of r.
func (l *FileLoader) parseStream(name string, r io.ReadCloser) ([]map[string]interface{}, []string, error) {
	compressor, stripped := compressors.GetCompressorForPath(name)
	decompressed, err := compressor.NewReader(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("failed to open compressed stream: %w", err)
	}

	format, delimiter, err := l.resolveFormat(stripped)
	if err != nil {
		decompressed.Close()
		r.Close()
		return nil, nil, err
	}

	reader, err := formatters.GetReader(format, decompressed, delimiter)
	if err != nil {
		decompressed.Close()
		r.Close()
		return nil, nil, err
	}
	defer r.Close()
	defer reader.Close()

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return rows, reader.Columns(), nil
}

// resolveFormat picks the row format and delimiter for a path with
// any compression extension already stripped
func (l *FileLoader) resolveFormat(path string) (string, rune, error) {
	delimiter := rune(0)
	if l.cfg.Delimiter != "" {
		delimiter = []rune(l.cfg.Delimiter)[0]
	}

	if l.cfg.Format != "" {
		return l.cfg.Format, delimiter, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if d, ok := defaultDelimiters[ext]; ok {
		if delimiter == 0 {
			delimiter = d
		}
		return formatters.FormatCSV, delimiter, nil
	}
	switch ext {
	case ".jsonl", ".ndjson":
		return formatters.FormatJSONL, 0, nil
	case ".parquet":
		return formatters.FormatParquet, 0, nil
	default:
		return "", 0, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
}

// loadZip expands a zip archive and concatenates the rows of every
// loadable member, in archive order. Column order comes from the
// first member.
func (l *FileLoader) loadZip(ctx context.Context) ([]map[string]interface{}, []string, error) {
	archive, err := zip.OpenReader(l.cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer archive.Close()

	var allRows []map[string]interface{}
	var columns []string
	loaded := 0

	for _, member := range archive.File {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if member.FileInfo().IsDir() {
			continue
		}

		rc, err := member.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zip member %s: %w", member.Name, err)
		}

		rows, memberColumns, err := l.parseStream(member.Name, rc)
		if err != nil {
			// Skip non-data members (readmes, manifests) but surface
			// real parse failures
			if errors.Is(err, ErrUnsupportedFileType) {
				l.logger.Debug("Skipping zip member", "member", member.Name)
				continue
			}
			return nil, nil, err
		}

		if columns == nil {
			columns = memberColumns
		}
		allRows = append(allRows, rows...)
		loaded++
	}

	if loaded == 0 {
		return nil, nil, fmt.Errorf("%w: no loadable members in %s", ErrUnsupportedFileType, l.cfg.Path)
	}

	l.logger.Debug("📦 Loaded zip archive", "path", l.cfg.Path, "members", loaded, "rows", len(allRows))
	return allRows, columns, nil
}
