package cmd

import (
	"errors"
	"testing"

	"github.com/datamosaic/data-comparer/cmd/loaders"
)

func validConfig() *Config {
	return &Config{
		LogFormat: "text",
		Source: loaders.SourceConfig{
			Type: loaders.SourceTypeFile,
			Path: "source.csv",
		},
		Target: loaders.SourceConfig{
			Type:     loaders.SourceTypeDB,
			Driver:   loaders.DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			Database: "warehouse",
			Table:    "orders",
		},
		MappingFile:  "mapping.yaml",
		ReportFormat: "csv",
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("valid config should not return error: %v", err)
		}
	})

	t.Run("MissingSourceType", func(t *testing.T) {
		config := validConfig()
		config.Source.Type = ""
		err := config.Validate()
		if !errors.Is(err, ErrMissingSourceType) {
			t.Fatalf("expected ErrMissingSourceType, got %v", err)
		}
	})

	t.Run("InvalidSourceType", func(t *testing.T) {
		config := validConfig()
		config.Target.Type = "ftp"
		err := config.Validate()
		if !errors.Is(err, ErrInvalidSourceType) {
			t.Fatalf("expected ErrInvalidSourceType, got %v", err)
		}
	})

	t.Run("FileWithoutPath", func(t *testing.T) {
		config := validConfig()
		config.Source.Path = ""
		err := config.Validate()
		if !errors.Is(err, ErrMissingFilePath) {
			t.Fatalf("expected ErrMissingFilePath, got %v", err)
		}
	})

	t.Run("DatabaseChecks", func(t *testing.T) {
		testCases := []struct {
			name     string
			mutate   func(*Config)
			expected error
		}{
			{"missing driver", func(c *Config) { c.Target.Driver = "" }, ErrMissingDriver},
			{"invalid driver", func(c *Config) { c.Target.Driver = "oracle" }, ErrInvalidDriver},
			{"missing host", func(c *Config) { c.Target.Host = "" }, ErrMissingDBHost},
			{"missing database", func(c *Config) { c.Target.Database = "" }, ErrMissingDBName},
			{"no query target", func(c *Config) { c.Target.Table = "" }, ErrMissingQueryTarget},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				config := validConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, tc.expected) {
					t.Fatalf("expected %v, got %v", tc.expected, err)
				}
			})
		}
	})

	t.Run("APIWithoutURL", func(t *testing.T) {
		config := validConfig()
		config.Source = loaders.SourceConfig{Type: loaders.SourceTypeAPI}
		err := config.Validate()
		if !errors.Is(err, ErrMissingAPIURL) {
			t.Fatalf("expected ErrMissingAPIURL, got %v", err)
		}
	})

	t.Run("S3WithoutBucketOrKey", func(t *testing.T) {
		config := validConfig()
		config.Source = loaders.SourceConfig{Type: loaders.SourceTypeS3, Key: "data.csv"}
		if err := config.Validate(); !errors.Is(err, ErrMissingS3Bucket) {
			t.Fatalf("expected ErrMissingS3Bucket, got %v", err)
		}

		config.Source = loaders.SourceConfig{Type: loaders.SourceTypeS3, Bucket: "bucket"}
		if err := config.Validate(); !errors.Is(err, ErrMissingS3Key) {
			t.Fatalf("expected ErrMissingS3Key, got %v", err)
		}
	})

	t.Run("MappingRequired", func(t *testing.T) {
		config := validConfig()
		config.MappingFile = ""
		err := config.Validate()
		if !errors.Is(err, ErrMissingMapping) {
			t.Fatalf("expected ErrMissingMapping, got %v", err)
		}

		config.AutoMap = true
		if err := config.Validate(); err != nil {
			t.Fatalf("auto-map should satisfy mapping requirement: %v", err)
		}
	})

	t.Run("InvalidReportFormat", func(t *testing.T) {
		config := validConfig()
		config.ReportFormat = "xlsx"
		err := config.Validate()
		if !errors.Is(err, ErrInvalidReportFormat) {
			t.Fatalf("expected ErrInvalidReportFormat, got %v", err)
		}
	})

	t.Run("InvalidLogFormat", func(t *testing.T) {
		config := validConfig()
		config.LogFormat = "xml"
		err := config.Validate()
		if !errors.Is(err, ErrInvalidLogFormat) {
			t.Fatalf("expected ErrInvalidLogFormat, got %v", err)
		}
	})

	t.Run("ArchiveRequiresOutputDir", func(t *testing.T) {
		config := validConfig()
		config.ArchiveReports = true
		err := config.Validate()
		if !errors.Is(err, ErrArchiveWithoutReports) {
			t.Fatalf("expected ErrArchiveWithoutReports, got %v", err)
		}

		config.OutputDir = "reports"
		if err := config.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
