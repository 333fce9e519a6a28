package reports

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive bundles the written report files into a single zip next to
// them. With cleanup set, the individual files are removed after a
// successful archive.
func (w *Writer) Archive(paths []string, cleanup bool) (string, error) {
	zipPath := w.path("ComparisonReports", ".zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer zipFile.Close()

	writer := zip.NewWriter(zipFile)
	for _, path := range paths {
		if err := addToArchive(writer, path); err != nil {
			writer.Close()
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	if cleanup {
		for _, path := range paths {
			if err := os.Remove(path); err != nil {
				w.logger.Warn("⚠️  Failed to remove report file after archiving", "path", path, "error", err)
			}
		}
	}

	w.logger.Info("🗜️  Reports archived", "path", zipPath)
	return zipPath, nil
}

func addToArchive(writer *zip.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for archiving: %w", path, err)
	}
	defer file.Close()

	entry, err := writer.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := io.Copy(entry, file); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}
