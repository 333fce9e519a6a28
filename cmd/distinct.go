package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/viper"

	"github.com/datamosaic/data-comparer/cmd/engine"
)

// runDistinct loads both datasets and prints per-column distinct value
// histograms without running a full comparison
func runDistinct() {
	// Add panic recovery to catch any unexpected crashes
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	config := &Config{
		Debug:        viper.GetBool("debug"),
		LogFormat:    viper.GetString("log_format"),
		Source:       sourceFromViper("source"),
		Target:       sourceFromViper("target"),
		MappingFile:  viper.GetString("distinct.mapping_file"),
		AutoMap:      viper.GetBool("distinct.auto_map"),
		ReportFormat: "csv",
	}

	initLogger(config.Debug, config.LogFormat)

	logger.Info("")
	logger.Info(fmt.Sprintf("🚀 Data Comparer v%s - Distinct Mode", Version))
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

	mapping, joinColumns, err := comparer.resolveMapping(source, target)
	if err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		os.Exit(1)
	}

	eng := engine.New(source, target, logger)
	if err := eng.SetMapping(mapping, joinColumns); err != nil {
		logger.Error(fmt.Sprintf("❌ Invalid mapping: %s", err.Error()))
		os.Exit(1)
	}

	distinct, err := eng.DistinctValues(viper.GetStringSlice("distinct.columns"))
	if err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		os.Exit(1)
	}

	if viper.GetBool("distinct.json") {
		data, err := json.MarshalIndent(distinct, "", "  ")
		if err != nil {
			logger.Error(fmt.Sprintf("❌ %s", err.Error()))
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	printDistinct(distinct)
}

// printDistinct renders histograms as text, one block per column with
// the union of values from both sides
func printDistinct(distinct map[string]engine.DistinctInfo) {
	columns := make([]string, 0, len(distinct))
	for name := range distinct {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	for _, name := range columns {
		info := distinct[name]

		status := "✅ matching"
		if !info.Matching {
			status = "❌ differing"
		}
		fmt.Printf("\n%s (%s)\n", name, status)

		values := make(map[string]bool, len(info.SourceValues)+len(info.TargetValues))
		for v := range info.SourceValues {
			values[v] = true
		}
		for v := range info.TargetValues {
			values[v] = true
		}
		ordered := make([]string, 0, len(values))
		for v := range values {
			ordered = append(ordered, v)
		}
		sort.Strings(ordered)

		for _, value := range ordered {
			fmt.Printf("  %-30s source=%-8d target=%d\n", value, info.SourceValues[value], info.TargetValues[value])
		}
	}
}
