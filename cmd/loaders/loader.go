package loaders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Source type constants
const (
	SourceTypeFile = "file"
	SourceTypeDB   = "db"
	SourceTypeAPI  = "api"
	SourceTypeS3   = "s3"
)

// Static errors for loader construction and loading
var (
	ErrUnsupportedSourceType = errors.New("unsupported source type")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrNoQueryTarget         = errors.New("database source requires a table, query or procedure")
	ErrUnsupportedDriver     = errors.New("unsupported database driver")
	ErrAPIResponseShape      = errors.New("API response is not a JSON array of objects")
)

// SourceConfig describes one dataset source. Only the fields for the
// configured Type are consulted.
type SourceConfig struct {
	Type string `mapstructure:"type"`

	// file and s3 sources
	Path      string `mapstructure:"path"`
	Format    string `mapstructure:"format"`
	Delimiter string `mapstructure:"delimiter"`

	// db sources
	Driver          string            `mapstructure:"driver"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	SSLMode         string            `mapstructure:"sslmode"`
	Table           string            `mapstructure:"table"`
	Query           string            `mapstructure:"query"`
	Procedure       string            `mapstructure:"procedure"`
	ProcedureParams map[string]string `mapstructure:"procedure_params"`
	Timeout         time.Duration     `mapstructure:"timeout"`

	// api sources
	URL     string            `mapstructure:"url"`
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
	Body    string            `mapstructure:"body"`

	// s3 sources
	Bucket    string `mapstructure:"bucket"`
	Key       string `mapstructure:"key"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Loader loads one dataset into row maps. The returned column slice
// carries the source's inherent column order when it has one.
type Loader interface {
	Load(ctx context.Context) ([]map[string]interface{}, []string, error)
}

// GetLoader returns the appropriate loader for the source type
func GetLoader(cfg SourceConfig, logger *slog.Logger) (Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Type {
	case SourceTypeFile:
		return NewFileLoader(cfg, logger), nil
	case SourceTypeDB:
		return NewDatabaseLoader(cfg, logger), nil
	case SourceTypeAPI:
		return NewAPILoader(cfg, logger), nil
	case SourceTypeS3:
		return NewS3Loader(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, cfg.Type)
	}
}
