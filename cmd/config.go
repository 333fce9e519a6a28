package cmd

import (
	"errors"
	"fmt"

	"github.com/datamosaic/data-comparer/cmd/formatters"
	"github.com/datamosaic/data-comparer/cmd/loaders"
)

// Static errors for configuration validation
var (
	ErrMissingSourceType     = errors.New("source type is required (file, db, api, s3)")
	ErrInvalidSourceType     = errors.New("source type must be one of: file, db, api, s3")
	ErrMissingFilePath       = errors.New("file source requires a path")
	ErrMissingDriver         = errors.New("database source requires a driver (postgres, sqlserver)")
	ErrInvalidDriver         = errors.New("database driver must be one of: postgres, sqlserver")
	ErrMissingDBHost         = errors.New("database source requires a host")
	ErrMissingDBName         = errors.New("database source requires a database name")
	ErrMissingQueryTarget    = errors.New("database source requires a table, query or procedure")
	ErrMissingAPIURL         = errors.New("api source requires a url")
	ErrMissingS3Bucket       = errors.New("s3 source requires a bucket")
	ErrMissingS3Key          = errors.New("s3 source requires a key")
	ErrMissingMapping        = errors.New("a mapping file is required unless --auto-map is set")
	ErrInvalidReportFormat   = errors.New("report format must be one of: csv, jsonl, parquet")
	ErrInvalidLogFormat      = errors.New("log format must be one of: text, logfmt, json")
	ErrArchiveWithoutReports = errors.New("archiving reports requires an output directory")
)

// Config holds the full configuration for a comparison run
type Config struct {
	Debug     bool
	LogFormat string
	NoTUI     bool

	Source loaders.SourceConfig
	Target loaders.SourceConfig

	// Mapping comes from a YAML file, or is proposed automatically
	MappingFile string
	AutoMap     bool
	JoinColumns []string

	// Report bundle output
	ReportName     string
	OutputDir      string
	ReportFormat   string
	ArchiveReports bool
	KeepReports    bool
}

// Validate checks the configuration for completeness and consistency.
// Runs after all config sources (flags, file, env) are merged.
func (c *Config) Validate() error {
	if !isValidLogFormat(c.LogFormat) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}

	if err := validateSource("source", c.Source); err != nil {
		return err
	}
	if err := validateSource("target", c.Target); err != nil {
		return err
	}

	if c.MappingFile == "" && !c.AutoMap {
		return ErrMissingMapping
	}

	if !isValidReportFormat(c.ReportFormat) {
		return fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.ReportFormat)
	}
	if c.ArchiveReports && c.OutputDir == "" {
		return ErrArchiveWithoutReports
	}

	return nil
}

func validateSource(side string, cfg loaders.SourceConfig) error {
	wrap := func(err error) error {
		return fmt.Errorf("%s: %w", side, err)
	}

	switch cfg.Type {
	case "":
		return wrap(ErrMissingSourceType)
	case loaders.SourceTypeFile:
		if cfg.Path == "" {
			return wrap(ErrMissingFilePath)
		}
	case loaders.SourceTypeDB:
		switch cfg.Driver {
		case "":
			return wrap(ErrMissingDriver)
		case loaders.DriverPostgres, loaders.DriverSQLServer:
		default:
			return wrap(fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver))
		}
		if cfg.Host == "" {
			return wrap(ErrMissingDBHost)
		}
		if cfg.Database == "" {
			return wrap(ErrMissingDBName)
		}
		if cfg.Table == "" && cfg.Query == "" && cfg.Procedure == "" {
			return wrap(ErrMissingQueryTarget)
		}
	case loaders.SourceTypeAPI:
		if cfg.URL == "" {
			return wrap(ErrMissingAPIURL)
		}
	case loaders.SourceTypeS3:
		if cfg.Bucket == "" {
			return wrap(ErrMissingS3Bucket)
		}
		if cfg.Key == "" {
			return wrap(ErrMissingS3Key)
		}
	default:
		return wrap(fmt.Errorf("%w: %q", ErrInvalidSourceType, cfg.Type))
	}

	return nil
}

func isValidLogFormat(format string) bool {
	switch format {
	case "text", "logfmt", "json":
		return true
	default:
		return false
	}
}

func isValidReportFormat(format string) bool {
	switch format {
	case formatters.FormatCSV, formatters.FormatJSONL, formatters.FormatParquet:
		return true
	default:
		return false
	}
}
