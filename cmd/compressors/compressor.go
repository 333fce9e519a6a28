package compressors

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedCompression is returned when an unsupported compression type is requested
var ErrUnsupportedCompression = errors.New("unsupported compression type")

// Compressor defines the interface for compression handlers
type Compressor interface {
	// Compress compresses the input data
	Compress(data []byte, level int) ([]byte, error)

	// NewReader wraps r with a decompressing reader
	NewReader(r io.Reader) (io.ReadCloser, error)

	// Extension returns the file extension for this compression (e.g., ".zst", ".lz4", ".gz")
	Extension() string

	// DefaultLevel returns the default compression level
	DefaultLevel() int
}

// GetCompressor returns the appropriate compressor based on the compression string
func GetCompressor(compression string) (Compressor, error) {
	switch compression {
	case "zstd":
		return NewZstdCompressor(), nil
	case "lz4":
		return NewLZ4Compressor(), nil
	case "gzip":
		return NewGzipCompressor(), nil
	case "none":
		return NewNoneCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, compression)
	}
}

// GetCompressorForPath picks a compressor from the file extension and
// returns the path with that extension stripped. Unrecognized
// extensions get the no-op compressor.
func GetCompressorForPath(path string) (Compressor, string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		return NewZstdCompressor(), strings.TrimSuffix(path, filepath.Ext(path))
	case ".lz4":
		return NewLZ4Compressor(), strings.TrimSuffix(path, filepath.Ext(path))
	case ".gz":
		return NewGzipCompressor(), strings.TrimSuffix(path, filepath.Ext(path))
	default:
		return NewNoneCompressor(), path
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type nopReadCloser struct {
	io.Reader
}

func (nopReadCloser) Close() error { return nil }
