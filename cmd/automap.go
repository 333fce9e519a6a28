package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/datamosaic/data-comparer/cmd/engine"
)

// runAutomap loads both datasets, proposes a column mapping by name,
// and writes the mapping YAML for manual review
func runAutomap() {
	// Add panic recovery to catch any unexpected crashes
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	config := &Config{
		Debug:     viper.GetBool("debug"),
		LogFormat: viper.GetString("log_format"),
		Source:    sourceFromViper("source"),
		Target:    sourceFromViper("target"),
		// AutoMap satisfies the mapping requirement; a report format is
		// not used here but Validate checks it
		AutoMap:      true,
		ReportFormat: "csv",
	}

	initLogger(config.Debug, config.LogFormat)

	logger.Info("")
	logger.Info(fmt.Sprintf("🚀 Data Comparer v%s - Automap Mode", Version))
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	logger.Debug("Validating configuration...")
	if err := config.Validate(); err != nil {
		logger.Error(fmt.Sprintf("❌ Configuration error: %s", err.Error()))
		os.Exit(1)
	}

	ctx := compareContext()
	comparer := NewComparer(config, logger)

	source, err := comparer.loadSide(ctx, "source", config.Source)
	if err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		os.Exit(1)
	}
	target, err := comparer.loadSide(ctx, "target", config.Target)
	if err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		os.Exit(1)
	}

	mapping := engine.AutoMapColumns(source.ColumnNames(), target.ColumnNames(), source.Kinds())

	joinColumns := viper.GetStringSlice("automap_join_columns")
	joinSet := make(map[string]bool, len(joinColumns))
	for _, name := range joinColumns {
		joinSet[name] = true
	}
	unmapped := 0
	for i := range mapping {
		if joinSet[mapping[i].Source] {
			mapping[i].Join = true
		}
		if mapping[i].Target == "" {
			unmapped++
		}
	}

	logger.Info(fmt.Sprintf("✅ Mapped %d of %d source columns", len(mapping)-unmapped, len(mapping)))
	if unmapped > 0 {
		logger.Warn(fmt.Sprintf("⚠️  %d source columns have no target match, review before comparing", unmapped))
	}

	mf := &MappingFile{Mapping: mapping, JoinColumns: joinColumns}

	if out := viper.GetString("mapping_out"); out != "" {
		if err := SaveMappingFile(out, mf); err != nil {
			logger.Error(fmt.Sprintf("❌ %s", err.Error()))
			os.Exit(1)
		}
		logger.Info(fmt.Sprintf("📝 Mapping written: %s", out))
		return
	}

	if err := WriteMapping(os.Stdout, mf); err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		os.Exit(1)
	}
}
