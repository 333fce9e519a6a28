package loaders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	// Database drivers
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/lib/pq"
)

// Driver name constants
const (
	DriverPostgres  = "postgres"
	DriverSQLServer = "sqlserver"
)

// DatabaseLoader loads a dataset from PostgreSQL or SQL Server, from
// a whole table, an arbitrary query, or a stored procedure
type DatabaseLoader struct {
	cfg    SourceConfig
	logger *slog.Logger

	// openDB is swappable for tests
	openDB func(driver, dsn string) (*sql.DB, error)
}

// NewDatabaseLoader creates a database loader
func NewDatabaseLoader(cfg SourceConfig, logger *slog.Logger) *DatabaseLoader {
	return &DatabaseLoader{
		cfg:    cfg,
		logger: logger,
		openDB: sql.Open,
	}
}

// Load connects, runs the configured statement and scans every row
func (l *DatabaseLoader) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	dsn, err := l.connectionString()
	if err != nil {
		return nil, nil, err
	}
	query, err := l.buildQuery()
	if err != nil {
		return nil, nil, err
	}

	db, err := l.openDB(l.cfg.Driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l.logger.Debug("🗄️  Running query", "driver", l.cfg.Driver, "query", query)
	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var records []map[string]interface{}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			record[col] = normalizeDBValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration failed: %w", err)
	}

	l.logger.Debug("✅ Query complete", "rows", len(records), "duration", time.Since(start))
	return records, columns, nil
}

// normalizeDBValue decodes byte-slice column values to strings
func normalizeDBValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Default ports, used when the config leaves the port unset
const (
	defaultPostgresPort  = 5432
	defaultSQLServerPort = 1433
)

// connectionString builds the driver-specific DSN
func (l *DatabaseLoader) connectionString() (string, error) {
	switch l.cfg.Driver {
	case DriverPostgres:
		port := l.cfg.Port
		if port == 0 {
			port = defaultPostgresPort
		}
		sslMode := l.cfg.SSLMode
		if sslMode == "" {
			sslMode = "prefer"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			l.cfg.Host, port, l.cfg.Username, l.cfg.Password, l.cfg.Database, sslMode), nil
	case DriverSQLServer:
		port := l.cfg.Port
		if port == 0 {
			port = defaultSQLServerPort
		}
		u := &url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(l.cfg.Username, l.cfg.Password),
			Host:   fmt.Sprintf("%s:%d", l.cfg.Host, port),
		}
		q := url.Values{}
		q.Set("database", l.cfg.Database)
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, l.cfg.Driver)
	}
}

// buildQuery picks the statement to run: explicit query, stored
// procedure, or a full table read
func (l *DatabaseLoader) buildQuery() (string, error) {
	switch {
	case l.cfg.Query != "":
		return l.cfg.Query, nil
	case l.cfg.Procedure != "":
		return l.procedureCall(), nil
	case l.cfg.Table != "":
		return fmt.Sprintf("SELECT * FROM %s", l.cfg.Table), nil
	default:
		return "", ErrNoQueryTarget
	}
}

// procedureCall renders the dialect-specific stored procedure
// invocation, with parameters in sorted order for stable statements
func (l *DatabaseLoader) procedureCall() string {
	names := make([]string, 0, len(l.cfg.ProcedureParams))
	for name := range l.cfg.ProcedureParams {
		names = append(names, name)
	}
	sort.Strings(names)

	if l.cfg.Driver == DriverSQLServer {
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("@%s='%s'", name, escapeSQLString(l.cfg.ProcedureParams[name]))
		}
		call := "EXEC " + l.cfg.Procedure
		if len(parts) > 0 {
			call += " " + strings.Join(parts, ", ")
		}
		return call
	}

	// PostgreSQL set-returning function
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("'%s'", escapeSQLString(l.cfg.ProcedureParams[name]))
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", l.cfg.Procedure, strings.Join(parts, ", "))
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
