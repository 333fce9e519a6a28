package compressors

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestGetCompressor(t *testing.T) {
	for _, name := range []string{"zstd", "lz4", "gzip", "none"} {
		t.Run(name, func(t *testing.T) {
			c, err := GetCompressor(name)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("Expected a compressor")
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := GetCompressor("brotli")
		if !errors.Is(err, ErrUnsupportedCompression) {
			t.Fatalf("Expected ErrUnsupportedCompression, got %v", err)
		}
	})
}

func TestGetCompressorForPath(t *testing.T) {
	testCases := []struct {
		path      string
		extension string
		stripped  string
	}{
		{"data.csv.gz", ".gz", "data.csv"},
		{"data.csv.zst", ".zst", "data.csv"},
		{"data.csv.lz4", ".lz4", "data.csv"},
		{"data.csv", "", "data.csv"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			c, stripped := GetCompressorForPath(tc.path)
			if c.Extension() != tc.extension {
				t.Errorf("Expected extension %q, got %q", tc.extension, c.Extension())
			}
			if stripped != tc.stripped {
				t.Errorf("Expected stripped path %q, got %q", tc.stripped, stripped)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("id,name,amount\n1,alpha,10.5\n"), 100)

	for _, name := range []string{"zstd", "lz4", "gzip", "none"} {
		t.Run(name, func(t *testing.T) {
			c, err := GetCompressor(name)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			compressed, err := c.Compress(payload, c.DefaultLevel())
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}

			reader, err := c.NewReader(bytes.NewReader(compressed))
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			defer reader.Close()

			decompressed, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !bytes.Equal(decompressed, payload) {
				t.Error("Round trip did not preserve the payload")
			}
		})
	}
}
