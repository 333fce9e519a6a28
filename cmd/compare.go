package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/datamosaic/data-comparer/cmd/engine"
	"github.com/datamosaic/data-comparer/cmd/loaders"
	"github.com/datamosaic/data-comparer/cmd/reports"
)

// Stage constants
const (
	StageLoadSource = "Loading source"
	StageLoadTarget = "Loading target"
	StageMapping    = "Resolving mapping"
	StageComparing  = "Comparing"
	StageReporting  = "Writing reports"
)

// Comparer drives one full comparison run: load both sides, resolve
// the column mapping, compare, and write the report bundle.
type Comparer struct {
	config *Config
	logger *slog.Logger
}

func NewComparer(config *Config, logger *slog.Logger) *Comparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparer{
		config: config,
		logger: logger,
	}
}

// Run executes the comparison. In debug or no-TUI mode it logs plain
// text; otherwise it drives the progress display.
func (c *Comparer) Run(ctx context.Context) error {
	if c.config.Debug || c.config.NoTUI {
		if c.config.Debug {
			c.logger.Info("Running in debug mode - TUI disabled for better log visibility")
		}
		result, err := c.runComparison(ctx, func(stage string) {
			c.logger.Info(fmt.Sprintf("▶️  %s...", stage))
		})
		if err != nil {
			return err
		}
		fmt.Println(reports.Summary(result))
		return nil
	}

	// Normal mode: run the pipeline behind the progress display
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newProgressModel(c.config)
	// Disable Bubble Tea's signal handler so our custom handler can work
	program := tea.NewProgram(model, tea.WithoutSignalHandler())

	resultChan := make(chan *engine.ComparisonResult, 1)
	errChan := make(chan error, 1)

	go func() {
		result, err := c.runComparison(ctx, func(stage string) {
			program.Send(stageMsg{stage: stage})
		})
		if err != nil {
			errChan <- err
			program.Send(compareDoneMsg{err: err})
			return
		}
		resultChan <- result
		program.Send(compareDoneMsg{matched: result.MatchStatus})
	}()

	// Forward cancellation to the TUI so it exits cleanly
	go func() {
		<-ctx.Done()
		program.Send(cancelledMsg{})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running progress display: %w", err)
	}

	select {
	case err := <-errChan:
		return err
	case result := <-resultChan:
		fmt.Println(reports.Summary(result))
		return nil
	default:
		// TUI quit before the pipeline finished
		cancel()
		return context.Canceled
	}
}

// runComparison is the shared pipeline behind both display modes
func (c *Comparer) runComparison(ctx context.Context, notify func(stage string)) (*engine.ComparisonResult, error) {
	start := time.Now()

	notify(StageLoadSource)
	source, err := c.loadSide(ctx, "source", c.config.Source)
	if err != nil {
		return nil, err
	}

	notify(StageLoadTarget)
	target, err := c.loadSide(ctx, "target", c.config.Target)
	if err != nil {
		return nil, err
	}

	notify(StageMapping)
	mapping, joinColumns, err := c.resolveMapping(source, target)
	if err != nil {
		return nil, err
	}

	notify(StageComparing)
	eng := engine.New(source, target, c.logger)
	if err := eng.SetMapping(mapping, joinColumns); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	result := eng.Compare()

	if c.config.OutputDir != "" {
		notify(StageReporting)
		if err := c.writeReports(result); err != nil {
			return nil, err
		}
	}

	c.logger.Debug(fmt.Sprintf("Comparison finished in %s", time.Since(start).Round(time.Millisecond)))
	return result, nil
}

// loadSide loads one dataset and builds its table
func (c *Comparer) loadSide(ctx context.Context, side string, cfg loaders.SourceConfig) (engine.Table, error) {
	loader, err := loaders.GetLoader(cfg, c.logger)
	if err != nil {
		return engine.Table{}, fmt.Errorf("%s: %w", side, err)
	}

	rows, columns, err := loader.Load(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return engine.Table{}, context.Canceled
		}
		return engine.Table{}, fmt.Errorf("failed to load %s: %w", side, err)
	}

	table := engine.FromRows(rows, columns)
	c.logger.Info(fmt.Sprintf("✅ Loaded %s: %d rows, %d columns", side, table.NumRows(), table.NumColumns()))
	return table, nil
}

// resolveMapping loads the mapping file, or proposes one automatically
// when --auto-map is set. Join columns from the config and the mapping
// file are merged; per-entry join flags are handled by the engine.
func (c *Comparer) resolveMapping(source, target engine.Table) ([]engine.MappingEntry, []string, error) {
	joinColumns := append([]string(nil), c.config.JoinColumns...)

	if c.config.MappingFile != "" {
		mf, err := LoadMappingFile(c.config.MappingFile)
		if err != nil {
			return nil, nil, err
		}
		joinColumns = append(joinColumns, mf.JoinColumns...)
		return mf.Mapping, joinColumns, nil
	}

	mapping := engine.AutoMapColumns(source.ColumnNames(), target.ColumnNames(), source.Kinds())
	unmapped := 0
	for i := range mapping {
		// Columns without a proposed target can't be compared
		if mapping[i].Target == "" {
			mapping[i].Exclude = true
			unmapped++
		}
	}
	if unmapped > 0 {
		c.logger.Warn(fmt.Sprintf("⚠️  %d source columns have no target match and were excluded", unmapped))
	}
	return mapping, joinColumns, nil
}

// writeReports renders the report bundle and optionally archives it
func (c *Comparer) writeReports(result *engine.ComparisonResult) error {
	name := c.config.ReportName
	if name == "" {
		name = "comparison"
	}
	dir := reports.NewPathTemplate(c.config.OutputDir).Generate(name, time.Now())

	writer, err := reports.NewWriter(dir, c.config.ReportFormat, c.logger)
	if err != nil {
		return err
	}

	paths, err := writer.WriteAll(result)
	if err != nil {
		return err
	}

	if c.config.ArchiveReports {
		archivePath, err := writer.Archive(paths, !c.config.KeepReports)
		if err != nil {
			return err
		}
		c.logger.Info(fmt.Sprintf("📦 Report archive written: %s", archivePath))
	}
	return nil
}
