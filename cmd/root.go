package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datamosaic/data-comparer/cmd/loaders"
)

var (
	// Version information - set via ldflags during build
	// Example: go build -ldflags "-X github.com/datamosaic/data-comparer/cmd.Version=1.2.3"
	Version = "dev" // Default to "dev" if not set during build

	// signalContext is set by main() before Cobra initialization
	// This ensures signal handling is set up before any library can interfere
	signalContext context.Context

	// versionCheckResult stores the result of the background version check
	versionCheckResult *VersionCheckResult

	cfgFile   string
	debug     bool
	logFormat string

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true).
			Underline(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D9FF"))

	logger *slog.Logger
)

// SetSignalContext stores the signal-aware context created in main()
// This must be called before Execute() to ensure proper signal handling
func SetSignalContext(ctx context.Context) {
	signalContext = ctx
}

// textOnlyHandler is a custom slog handler that outputs human-readable text
// without key=value pairs, suitable for interactive terminal usage
type textOnlyHandler struct {
	opts   slog.HandlerOptions
	writer io.Writer
}

func newTextOnlyHandler(w io.Writer, opts *slog.HandlerOptions) *textOnlyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &textOnlyHandler{
		opts:   *opts,
		writer: w,
	}
}

func (h *textOnlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *textOnlyHandler) Handle(_ context.Context, r slog.Record) error {
	// Format: YYYY-MM-DD HH:MM:SS LEVEL message
	timestamp := r.Time.Format("2006-01-02 15:04:05")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.writer, "%s %s %s\n", timestamp, level, r.Message)
	return err
}

func (h *textOnlyHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	// For simplicity, we ignore attributes in text-only mode
	return h
}

func (h *textOnlyHandler) WithGroup(_ string) slog.Handler {
	// For simplicity, we ignore groups in text-only mode
	return h
}

// initLogger initializes the slog logger based on debug flag and log format
func initLogger(isDebug bool, format string) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if isDebug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "logfmt":
		// logfmt uses slog.TextHandler which outputs key=value pairs
		handler = slog.NewTextHandler(os.Stdout, opts)
	default: // "text" or anything else
		// For human-readable text output, we'll use a custom handler
		// that formats messages more naturally without key=value pairs
		handler = newTextOnlyHandler(os.Stdout, opts)
	}

	logger = slog.New(handler)
}

var rootCmd = &cobra.Command{
	Use:     "data-comparer",
	Version: Version,
	Short:   "📊 Compare two tabular datasets (files, databases, APIs, S3)",
	Long: titleStyle.Render("Data Comparer") + `

A CLI tool to compare two tabular datasets column by column and row by row.
Loads data from delimited/JSONL/Parquet files (plain, compressed or zipped),
PostgreSQL and SQL Server tables, queries or procedures, JSON APIs, and S3.
Maps columns between the two sides, reconciles rows on join columns, and
writes aggregation, count, distinct and difference reports.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// Show help when no subcommand is specified
		cmd.Help()
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a source dataset against a target dataset",
	Long: `Compare a source dataset against a target dataset. Loads both sides,
applies the column mapping, reconciles rows on the join columns, and writes
a report bundle with aggregation, count, distinct and difference checks.`,
	Run: func(_ *cobra.Command, _ []string) {
		runCompare()
	},
}

var automapCmd = &cobra.Command{
	Use:   "automap",
	Short: "Propose a column mapping between two datasets",
	Long: `Propose a column mapping between the source and target datasets by
matching column names exactly, then case-insensitively, then ignoring
non-alphanumeric characters. Writes a mapping YAML for manual review.`,
	Run: func(_ *cobra.Command, _ []string) {
		runAutomap()
	},
}

var distinctCmd = &cobra.Command{
	Use:   "distinct",
	Short: "Show distinct value histograms for selected columns",
	Long: `Show per-column distinct value histograms for both datasets without
running a full comparison. Useful for spot-checking categorical columns
before committing to a mapping.`,
	Run: func(_ *cobra.Command, _ []string) {
		runDistinct()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// addSourceFlags registers the per-side dataset flags on a command and
// binds them to viper under "<side>.". Both compare and automap take the
// same two sides, so the registration is shared.
func addSourceFlags(cmd *cobra.Command, side string) {
	flag := func(name string) string { return side + "-" + name }
	key := func(name string) string { return side + "." + name }

	cmd.Flags().String(flag("type"), "", side+" type: file, db, api, s3")
	cmd.Flags().String(flag("path"), "", side+" file path (file type)")
	cmd.Flags().String(flag("format"), "", side+" file format override: csv, jsonl, parquet")
	cmd.Flags().String(flag("delimiter"), "", side+" field delimiter override (file type)")

	cmd.Flags().String(flag("driver"), "", side+" database driver: postgres, sqlserver")
	cmd.Flags().String(flag("host"), "localhost", side+" database host")
	cmd.Flags().Int(flag("port"), 0, side+" database port (0 = driver default)")
	cmd.Flags().String(flag("database"), "", side+" database name")
	cmd.Flags().String(flag("username"), "", side+" database user")
	cmd.Flags().String(flag("password"), "", side+" database password")
	cmd.Flags().String(flag("sslmode"), "", side+" PostgreSQL SSL mode (disable, require, verify-ca, verify-full)")
	cmd.Flags().String(flag("table"), "", side+" table name")
	cmd.Flags().String(flag("query"), "", side+" SQL query (overrides table)")
	cmd.Flags().String(flag("procedure"), "", side+" stored procedure name")

	cmd.Flags().String(flag("url"), "", side+" API endpoint URL")
	cmd.Flags().String(flag("method"), "", side+" API HTTP method (default GET)")

	cmd.Flags().String(flag("bucket"), "", side+" S3 bucket name")
	cmd.Flags().String(flag("key"), "", side+" S3 object key")
	cmd.Flags().String(flag("region"), "auto", side+" S3 region")
	cmd.Flags().String(flag("endpoint"), "", side+" S3-compatible endpoint URL")
	cmd.Flags().String(flag("access-key"), "", side+" S3 access key")
	cmd.Flags().String(flag("secret-key"), "", side+" S3 secret key")

	for _, name := range []string{
		"type", "path", "format", "delimiter",
		"driver", "host", "port", "database", "username", "password",
		"sslmode", "table", "query", "procedure",
		"url", "method",
		"bucket", "key", "region", "endpoint",
	} {
		_ = viper.BindPFlag(key(name), cmd.Flags().Lookup(flag(name)))
	}
	_ = viper.BindPFlag(key("access_key"), cmd.Flags().Lookup(flag("access-key")))
	_ = viper.BindPFlag(key("secret_key"), cmd.Flags().Lookup(flag("secret-key")))
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(automapCmd)
	rootCmd.AddCommand(distinctCmd)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.data-comparer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, logfmt, json)")

	// Both dataset sides on every subcommand
	for _, cmd := range []*cobra.Command{compareCmd, automapCmd, distinctCmd} {
		addSourceFlags(cmd, "source")
		addSourceFlags(cmd, "target")
	}

	// Compare-specific flags
	compareCmd.Flags().String("mapping", "", "column mapping YAML file")
	compareCmd.Flags().Bool("auto-map", false, "propose the column mapping automatically instead of reading a file")
	compareCmd.Flags().StringSlice("join", nil, "join column names (source side, repeatable)")
	compareCmd.Flags().String("report-name", "comparison", "base name for the report bundle")
	compareCmd.Flags().String("output", "", "directory for the report bundle (supports {name}, {YYYY}, {MM}, {DD}, {HH})")
	compareCmd.Flags().String("report-format", "csv", "difference report format: csv, jsonl, parquet")
	compareCmd.Flags().Bool("archive", false, "zip the report bundle after writing")
	compareCmd.Flags().Bool("keep-reports", false, "keep loose report files after archiving")
	compareCmd.Flags().Bool("no-tui", false, "disable the progress display")

	// Automap-specific flags
	automapCmd.Flags().String("mapping-out", "", "write the proposed mapping YAML to this file (default stdout)")
	automapCmd.Flags().StringSlice("join", nil, "join column names to mark in the proposed mapping")

	// Distinct-specific flags
	distinctCmd.Flags().String("mapping", "", "column mapping YAML file")
	distinctCmd.Flags().Bool("auto-map", false, "propose the column mapping automatically instead of reading a file")
	distinctCmd.Flags().StringSlice("columns", nil, "columns to histogram (default: mapped non-numeric columns)")
	distinctCmd.Flags().Bool("json", false, "print histograms as JSON instead of text")

	// Note: We don't use MarkFlagRequired because it checks before viper loads the config file.
	// Instead, validation happens in config.Validate() which runs after all config sources are loaded.

	// Bind persistent flags
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Bind compare flags
	_ = viper.BindPFlag("mapping_file", compareCmd.Flags().Lookup("mapping"))
	_ = viper.BindPFlag("auto_map", compareCmd.Flags().Lookup("auto-map"))
	_ = viper.BindPFlag("join_columns", compareCmd.Flags().Lookup("join"))
	_ = viper.BindPFlag("report_name", compareCmd.Flags().Lookup("report-name"))
	_ = viper.BindPFlag("output_dir", compareCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("report_format", compareCmd.Flags().Lookup("report-format"))
	_ = viper.BindPFlag("archive_reports", compareCmd.Flags().Lookup("archive"))
	_ = viper.BindPFlag("keep_reports", compareCmd.Flags().Lookup("keep-reports"))
	_ = viper.BindPFlag("no_tui", compareCmd.Flags().Lookup("no-tui"))

	// Bind automap flags
	_ = viper.BindPFlag("mapping_out", automapCmd.Flags().Lookup("mapping-out"))
	_ = viper.BindPFlag("automap_join_columns", automapCmd.Flags().Lookup("join"))

	// Bind distinct flags (last binding wins for shared keys)
	_ = viper.BindPFlag("distinct.mapping_file", distinctCmd.Flags().Lookup("mapping"))
	_ = viper.BindPFlag("distinct.auto_map", distinctCmd.Flags().Lookup("auto-map"))
	_ = viper.BindPFlag("distinct.columns", distinctCmd.Flags().Lookup("columns"))
	_ = viper.BindPFlag("distinct.json", distinctCmd.Flags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".data-comparer")
	}

	viper.SetEnvPrefix("COMPARE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && debug {
		// Initialize logger early if reading config in debug mode
		if logger == nil {
			initLogger(debug, logFormat)
		}
		logger.Debug(fmt.Sprintf("📄 Using config file: %s", viper.ConfigFileUsed()))
	}
}

// sourceFromViper assembles one side's SourceConfig from the merged
// flag/file/env configuration under "<side>.".
func sourceFromViper(side string) loaders.SourceConfig {
	key := func(name string) string { return side + "." + name }
	return loaders.SourceConfig{
		Type:            viper.GetString(key("type")),
		Path:            viper.GetString(key("path")),
		Format:          viper.GetString(key("format")),
		Delimiter:       viper.GetString(key("delimiter")),
		Driver:          viper.GetString(key("driver")),
		Host:            viper.GetString(key("host")),
		Port:            viper.GetInt(key("port")),
		Database:        viper.GetString(key("database")),
		Username:        viper.GetString(key("username")),
		Password:        viper.GetString(key("password")),
		SSLMode:         viper.GetString(key("sslmode")),
		Table:           viper.GetString(key("table")),
		Query:           viper.GetString(key("query")),
		Procedure:       viper.GetString(key("procedure")),
		ProcedureParams: viper.GetStringMapString(key("procedure_params")),
		Timeout:         viper.GetDuration(key("timeout")),
		URL:             viper.GetString(key("url")),
		Method:          viper.GetString(key("method")),
		Headers:         viper.GetStringMapString(key("headers")),
		Body:            viper.GetString(key("body")),
		Bucket:          viper.GetString(key("bucket")),
		Key:             viper.GetString(key("key")),
		Region:          viper.GetString(key("region")),
		Endpoint:        viper.GetString(key("endpoint")),
		AccessKey:       viper.GetString(key("access_key")),
		SecretKey:       viper.GetString(key("secret_key")),
	}
}

func loadCompareConfig() *Config {
	return &Config{
		Debug:          viper.GetBool("debug"),
		LogFormat:      viper.GetString("log_format"),
		NoTUI:          viper.GetBool("no_tui"),
		Source:         sourceFromViper("source"),
		Target:         sourceFromViper("target"),
		MappingFile:    viper.GetString("mapping_file"),
		AutoMap:        viper.GetBool("auto_map"),
		JoinColumns:    viper.GetStringSlice("join_columns"),
		ReportName:     viper.GetString("report_name"),
		OutputDir:      viper.GetString("output_dir"),
		ReportFormat:   viper.GetString("report_format"),
		ArchiveReports: viper.GetBool("archive_reports"),
		KeepReports:    viper.GetBool("keep_reports"),
	}
}

func runCompare() {
	// Add panic recovery to catch any unexpected crashes
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	config := loadCompareConfig()

	// Initialize logger
	initLogger(config.Debug, config.LogFormat)

	// Log startup banner
	logger.Info("")
	logger.Info(fmt.Sprintf("🚀 Data Comparer v%s", Version))
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Only in debug mode: in TUI mode, printing to stderr corrupts the display
	if config.Debug {
		fmt.Fprintln(os.Stderr, "\n"+infoStyle.Render("💡 To stop comparer: Press CTRL-C")+"\n")
	}

	logger.Debug("Validating configuration...")
	if err := config.Validate(); err != nil {
		logger.Error(fmt.Sprintf("❌ Configuration error: %s", err.Error()))
		os.Exit(1)
	}
	logger.Debug("Configuration validated successfully")

	// Check for updates in background (non-blocking)
	updateCheckDone := make(chan struct{})
	go func() {
		defer close(updateCheckDone)
		result := checkForUpdates(context.Background(), Version)
		versionCheckResult = &result

		if result.UpdateAvailable {
			logger.Info("")
			logger.Info(fmt.Sprintf("💡 %s", formatUpdateMessage(result)))
		} else if result.Error != nil && config.Debug {
			logger.Debug(fmt.Sprintf("Version check failed: %v", result.Error))
		}
	}()

	// Give version check a short time to complete, but don't block startup
	select {
	case <-updateCheckDone:
		// Version check completed quickly
	case <-time.After(2 * time.Second):
		// Continue without waiting further
		logger.Debug("Version check taking longer than expected, continuing...")
	}

	ctx := compareContext()

	// Set up a goroutine to force-exit if graceful shutdown takes too long
	exited := make(chan struct{})
	go func() {
		<-ctx.Done()
		logger.Info("")
		logger.Info("⚠️  Interrupt signal received, shutting down...")

		// Wait for graceful shutdown, but force exit after 2 seconds
		select {
		case <-exited:
			// Graceful shutdown completed
			return
		case <-time.After(2 * time.Second):
			logger.Error("⚠️  Graceful shutdown timed out, forcing exit...")
			os.Exit(130)
		}
	}()

	logger.Debug("Creating comparer...")
	comparer := NewComparer(config, logger)
	logger.Debug("Starting comparison...")

	err := comparer.Run(ctx)
	close(exited) // Signal that the comparison has exited

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("")
			logger.Info("⚠️  Comparison cancelled by user")
			os.Exit(130)
		}
		logger.Error(fmt.Sprintf("❌ Comparison failed: %s", err.Error()))
		os.Exit(1)
	}

	logger.Info("")
	logger.Info("✅ Comparison completed successfully!")
}

// compareContext returns the signal context created in main(), or a
// fallback if SetSignalContext wasn't called (shouldn't happen).
func compareContext() context.Context {
	ctx := signalContext
	if ctx == nil {
		logger.Warn("Signal context not set, creating fallback...")
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		_ = stop
	}
	return ctx
}
